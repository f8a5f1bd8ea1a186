package services

import (
	"encoding/json"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	types "github.com/paperclip-video/paperclip-backend/internal/domain"
	domcontent "github.com/paperclip-video/paperclip-backend/internal/domain/content"
)

// ContentAnalyzer extracts entities (quotes, statistics, key concepts)
// from a document's parsed blocks. Implementations may call external
// models; the heuristic analyzer below is the deterministic default.
type ContentAnalyzer interface {
	Analyze(documentID uuid.UUID, blocks []*types.ContentBlock) ([]*types.ExtractedEntity, error)
}

type heuristicAnalyzer struct{}

func NewHeuristicAnalyzer() ContentAnalyzer {
	return &heuristicAnalyzer{}
}

var (
	percentRe  = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:%|percent)`)
	currencyRe = regexp.MustCompile(`[$€£](\d+(?:[,.]\d+)*)\s*(billion|million|thousand|[bmk])?`)
	countRe    = regexp.MustCompile(`\b(\d+(?:[,.]\d+)*)\s+(users|customers|people|employees|documents|downloads|views)\b`)
	quoteRe    = regexp.MustCompile(`[“"]([^”"]{20,300})[”"]`)
)

func (a *heuristicAnalyzer) Analyze(documentID uuid.UUID, blocks []*types.ContentBlock) ([]*types.ExtractedEntity, error) {
	var out []*types.ExtractedEntity
	for _, b := range blocks {
		if b == nil || b.BlockType == domcontent.BlockTypeCode {
			continue
		}
		out = append(out, statistics(documentID, b)...)
		out = append(out, quotes(documentID, b)...)
	}
	out = append(out, keyConcepts(documentID, blocks)...)
	for _, e := range out {
		if err := e.Validate(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// statistics finds percentages, currency amounts and counted nouns.
// Normalized carries {"value": n, "type": ...}; spans index into the
// block text.
func statistics(documentID uuid.UUID, b *types.ContentBlock) []*types.ExtractedEntity {
	var out []*types.ExtractedEntity

	for _, m := range percentRe.FindAllStringSubmatchIndex(b.Text, -1) {
		value, _ := strconv.ParseFloat(b.Text[m[2]:m[3]], 64)
		out = append(out, statEntity(documentID, b, m[0], m[1], map[string]any{
			"value": value,
			"type":  "percentage",
		}, 0.9))
	}
	for _, m := range currencyRe.FindAllStringSubmatchIndex(b.Text, -1) {
		raw := strings.ReplaceAll(b.Text[m[2]:m[3]], ",", "")
		value, _ := strconv.ParseFloat(raw, 64)
		norm := map[string]any{
			"value": value,
			"type":  "currency",
		}
		if m[4] >= 0 {
			norm["scale"] = strings.ToLower(b.Text[m[4]:m[5]])
		}
		out = append(out, statEntity(documentID, b, m[0], m[1], norm, 0.85))
	}
	for _, m := range countRe.FindAllStringSubmatchIndex(b.Text, -1) {
		raw := strings.ReplaceAll(b.Text[m[2]:m[3]], ",", "")
		value, _ := strconv.ParseFloat(raw, 64)
		out = append(out, statEntity(documentID, b, m[0], m[1], map[string]any{
			"value": value,
			"type":  "count",
			"unit":  b.Text[m[4]:m[5]],
		}, 0.75))
	}
	return out
}

func statEntity(documentID uuid.UUID, b *types.ContentBlock, start, end int, norm map[string]any, conf float64) *types.ExtractedEntity {
	return &types.ExtractedEntity{
		ID:         uuid.New(),
		DocumentID: documentID,
		BlockID:    &b.ID,
		EntityType: domcontent.EntityTypeStatistic,
		RawText:    b.Text[start:end],
		Normalized: marshalNorm(norm),
		Confidence: conf,
		SpanStart:  start,
		SpanEnd:    end,
	}
}

func quotes(documentID uuid.UUID, b *types.ContentBlock) []*types.ExtractedEntity {
	var out []*types.ExtractedEntity

	if b.BlockType == domcontent.BlockTypeQuote {
		text := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(b.Text), ">"))
		if len(text) >= 20 {
			out = append(out, &types.ExtractedEntity{
				ID:         uuid.New(),
				DocumentID: documentID,
				BlockID:    &b.ID,
				EntityType: domcontent.EntityTypeQuote,
				RawText:    text,
				Normalized: marshalNorm(map[string]any{"source": "block_quote"}),
				Confidence: 0.95,
				SpanStart:  0,
				SpanEnd:    len(b.Text),
			})
		}
		return out
	}

	for _, m := range quoteRe.FindAllStringSubmatchIndex(b.Text, -1) {
		out = append(out, &types.ExtractedEntity{
			ID:         uuid.New(),
			DocumentID: documentID,
			BlockID:    &b.ID,
			EntityType: domcontent.EntityTypeQuote,
			RawText:    b.Text[m[2]:m[3]],
			Normalized: marshalNorm(map[string]any{"source": "inline"}),
			Confidence: 0.7,
			SpanStart:  m[0],
			SpanEnd:    m[1],
		})
	}
	return out
}

// keyConcepts promotes recurring capitalized phrases. Headings count
// double; a phrase needs at least two sightings.
func keyConcepts(documentID uuid.UUID, blocks []*types.ContentBlock) []*types.ExtractedEntity {
	phraseRe := regexp.MustCompile(`\b([A-Z][a-z]+(?:\s+[A-Z][a-z]+){1,3})\b`)

	counts := map[string]int{}
	firstBlock := map[string]*types.ContentBlock{}
	firstSpan := map[string][2]int{}

	for _, b := range blocks {
		if b == nil || b.BlockType == domcontent.BlockTypeCode {
			continue
		}
		weight := 1
		if b.BlockType == domcontent.BlockTypeHeading {
			weight = 2
		}
		for _, m := range phraseRe.FindAllStringSubmatchIndex(b.Text, -1) {
			// Skip sentence-initial matches; they are usually just
			// capitalized prose.
			if m[0] == 0 && b.BlockType != domcontent.BlockTypeHeading {
				continue
			}
			phrase := b.Text[m[2]:m[3]]
			counts[phrase] += weight
			if _, seen := firstBlock[phrase]; !seen {
				firstBlock[phrase] = b
				firstSpan[phrase] = [2]int{m[0], m[1]}
			}
		}
	}

	var phrases []string
	for p, n := range counts {
		if n >= 2 {
			phrases = append(phrases, p)
		}
	}
	sort.Strings(phrases)

	var out []*types.ExtractedEntity
	for _, p := range phrases {
		b := firstBlock[p]
		span := firstSpan[p]
		conf := 0.5 + 0.1*float64(counts[p])
		if conf > 0.95 {
			conf = 0.95
		}
		out = append(out, &types.ExtractedEntity{
			ID:         uuid.New(),
			DocumentID: documentID,
			BlockID:    &b.ID,
			EntityType: domcontent.EntityTypeKeyConcept,
			RawText:    p,
			Normalized: marshalNorm(map[string]any{"mentions": counts[p]}),
			Confidence: conf,
			SpanStart:  span[0],
			SpanEnd:    span[1],
		})
	}
	return out
}

func marshalNorm(m map[string]any) datatypes.JSON {
	b, err := json.Marshal(m)
	if err != nil {
		return datatypes.JSON([]byte("{}"))
	}
	return datatypes.JSON(b)
}
