package services

import (
	"strings"

	"github.com/google/uuid"

	"github.com/paperclip-video/paperclip-backend/internal/config"
	types "github.com/paperclip-video/paperclip-backend/internal/domain"
	domcontent "github.com/paperclip-video/paperclip-backend/internal/domain/content"
	domeditorial "github.com/paperclip-video/paperclip-backend/internal/domain/editorial"
)

// SegmentPlan is one document's contribution to a project's segments,
// with the provenance edges that justify each segment.
type SegmentPlan struct {
	Segments []*types.Segment
	Sources  []*types.SegmentSource
}

// Segmentizer turns a parsed document into ordered short-form
// segments. Sections are cut at headings; each section becomes one
// segment whose duration estimate is word count over the configured
// speaking rate, clamped into the allowed window. Sections too short
// to stand alone are merged into their predecessor.
type Segmentizer struct {
	limits config.Limits
}

func NewSegmentizer(limits config.Limits) *Segmentizer {
	return &Segmentizer{limits: limits}
}

type section struct {
	title  string
	blocks []*types.ContentBlock
}

func (s *Segmentizer) Plan(projectID uuid.UUID, documentID uuid.UUID, blocks []*types.ContentBlock, entities []*types.ExtractedEntity, startOrder int) *SegmentPlan {
	sections := cutSections(blocks)
	entitiesByBlock := indexEntities(entities)

	plan := &SegmentPlan{}
	order := startOrder
	for _, sec := range sections {
		body := sectionText(sec)
		words := len(strings.Fields(body))
		if words == 0 {
			continue
		}
		duration := s.clampDuration(float64(words) / s.wordsPerSecond())

		// Merge a too-thin trailing section into the previous segment
		// instead of emitting filler.
		if float64(words)/s.wordsPerSecond() < s.limits.SegmentMinSeconds && len(plan.Segments) > 0 {
			prev := plan.Segments[len(plan.Segments)-1]
			prev.ContentText = prev.ContentText + "\n\n" + body
			prevWords := len(strings.Fields(prev.ContentText))
			d := s.clampDuration(float64(prevWords) / s.wordsPerSecond())
			prev.DurationSeconds = &d
			plan.Sources = append(plan.Sources, s.sourcesFor(prev.ID, documentID, sec, entitiesByBlock)...)
			continue
		}

		seg := &types.Segment{
			ID:              uuid.New(),
			ProjectID:       projectID,
			Title:           sec.title,
			HookText:        bestHook(sec, entitiesByBlock),
			ContentText:     body,
			DurationSeconds: &duration,
			OrderIndex:      order,
			Status:          domeditorial.SegmentStatusGenerated,
		}
		plan.Segments = append(plan.Segments, seg)
		plan.Sources = append(plan.Sources, s.sourcesFor(seg.ID, documentID, sec, entitiesByBlock)...)
		order++
	}
	return plan
}

func (s *Segmentizer) wordsPerSecond() float64 {
	if s.limits.WordsPerSecond > 0 {
		return s.limits.WordsPerSecond
	}
	return 2.5
}

func (s *Segmentizer) clampDuration(d float64) float64 {
	minD := s.limits.SegmentMinSeconds
	maxD := s.limits.SegmentMaxSeconds
	if minD <= 0 {
		minD = domeditorial.SegmentMinDurationSeconds
	}
	if maxD <= 0 {
		maxD = domeditorial.SegmentMaxDurationSeconds
	}
	if d < minD {
		return minD
	}
	if d > maxD {
		return maxD
	}
	return d
}

// sourcesFor emits one edge per contributing block plus one for the
// document itself. Block weights follow the strongest entity found in
// the block, defaulting to a modest structural weight.
func (s *Segmentizer) sourcesFor(segmentID, documentID uuid.UUID, sec section, entitiesByBlock map[uuid.UUID][]*types.ExtractedEntity) []*types.SegmentSource {
	out := []*types.SegmentSource{{
		ID:         uuid.New(),
		SegmentID:  segmentID,
		DocumentID: &documentID,
		Weight:     1,
	}}
	for _, b := range sec.blocks {
		weight := 0.5
		for _, e := range entitiesByBlock[b.ID] {
			if e.Confidence > weight {
				weight = e.Confidence
			}
		}
		blockID := b.ID
		out = append(out, &types.SegmentSource{
			ID:        uuid.New(),
			SegmentID: segmentID,
			BlockID:   &blockID,
			Weight:    weight,
		})
	}
	return out
}

func cutSections(blocks []*types.ContentBlock) []section {
	var sections []section
	current := section{}
	for _, b := range blocks {
		if b.BlockType == domcontent.BlockTypeHeading {
			if len(current.blocks) > 0 || current.title != "" {
				sections = append(sections, current)
			}
			current = section{title: b.Text, blocks: []*types.ContentBlock{b}}
			continue
		}
		current.blocks = append(current.blocks, b)
	}
	if len(current.blocks) > 0 || current.title != "" {
		sections = append(sections, current)
	}
	return sections
}

func sectionText(sec section) string {
	var parts []string
	for _, b := range sec.blocks {
		if b.BlockType == domcontent.BlockTypeHeading || b.BlockType == domcontent.BlockTypeCode {
			continue
		}
		parts = append(parts, b.Text)
	}
	return strings.Join(parts, "\n\n")
}

// bestHook prefers the punchiest extracted entity in the section:
// statistics beat quotes, higher confidence wins.
func bestHook(sec section, entitiesByBlock map[uuid.UUID][]*types.ExtractedEntity) string {
	var best *types.ExtractedEntity
	score := func(e *types.ExtractedEntity) float64 {
		v := e.Confidence
		if e.EntityType == domcontent.EntityTypeStatistic {
			v += 1
		}
		if e.EntityType == domcontent.EntityTypeQuote {
			v += 0.5
		}
		return v
	}
	for _, b := range sec.blocks {
		for _, e := range entitiesByBlock[b.ID] {
			if e.EntityType == domcontent.EntityTypeKeyConcept {
				continue
			}
			if best == nil || score(e) > score(best) {
				best = e
			}
		}
	}
	if best == nil {
		return ""
	}
	return best.RawText
}

func indexEntities(entities []*types.ExtractedEntity) map[uuid.UUID][]*types.ExtractedEntity {
	out := map[uuid.UUID][]*types.ExtractedEntity{}
	for _, e := range entities {
		if e.BlockID == nil {
			continue
		}
		out[*e.BlockID] = append(out[*e.BlockID], e)
	}
	return out
}
