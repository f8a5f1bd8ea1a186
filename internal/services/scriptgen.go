package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/paperclip-video/paperclip-backend/internal/config"
	types "github.com/paperclip-video/paperclip-backend/internal/domain"
	domeditorial "github.com/paperclip-video/paperclip-backend/internal/domain/editorial"
	apperrors "github.com/paperclip-video/paperclip-backend/internal/pkg/errors"
)

// ScriptGenerator assembles a platform-targeted VideoScript from a
// project's approved-or-generated segments: a hook up front, one
// content beat per segment with transitions between, and a closing
// call to action. Segment ordering is contiguous from zero and every
// beat stays under the per-beat duration ceiling.
type ScriptGenerator struct {
	limits config.Limits
}

func NewScriptGenerator(limits config.Limits) *ScriptGenerator {
	return &ScriptGenerator{limits: limits}
}

func (g *ScriptGenerator) Generate(projectID uuid.UUID, targetPlatform string, segments []*types.Segment) (*types.VideoScript, []*types.ScriptSegment, error) {
	if len(segments) == 0 {
		return nil, nil, apperrors.MissingDependencyf("no segments to script for project %s", projectID)
	}

	script := &types.VideoScript{
		ID:             uuid.New(),
		ProjectID:      projectID,
		Title:          scriptTitle(segments),
		TargetPlatform: targetPlatform,
		ScriptStatus:   domeditorial.ScriptStatusGenerated,
		Config:         datatypes.JSON([]byte(`{"tone":"informative"}`)),
	}

	order := 0
	var beats []*types.ScriptSegment
	add := func(st domeditorial.ScriptSegmentType, text string, dur float64, refs []map[string]string) {
		d := g.capBeat(dur)
		beats = append(beats, &types.ScriptSegment{
			ID:                uuid.New(),
			ScriptID:          script.ID,
			SegmentOrder:      order,
			SegmentType:       st,
			Text:              text,
			EstimatedDuration: &d,
			SourceRefs:        marshalRefs(refs),
			VisualCues:        datatypes.JSON([]byte("[]")),
			VisualAssets:      datatypes.JSON([]byte("[]")),
		})
		order++
	}

	add(domeditorial.ScriptSegmentHook, hookLine(segments), 5, refsFor(segments[:1]))

	total := 5.0
	budget := g.limits.AggregateTargetSeconds
	if budget <= 0 {
		budget = 420
	}
	for i, seg := range segments {
		dur := 30.0
		if seg.DurationSeconds != nil {
			dur = *seg.DurationSeconds
		}
		if total+dur > budget {
			break
		}
		if i > 0 {
			add(domeditorial.ScriptSegmentTransition, transitionLine(seg), 3, nil)
			total += 3
		}
		add(domeditorial.ScriptSegmentContent, seg.ContentText, dur, refsFor([]*types.Segment{seg}))
		total += dur
	}

	add(domeditorial.ScriptSegmentConclusion, conclusionLine(segments), 6, nil)
	add(domeditorial.ScriptSegmentCTA, "Follow for more breakdowns like this one.", 4, nil)
	total += 10

	script.TotalDuration = &total

	for i, b := range beats {
		if b.SegmentOrder != i {
			return nil, nil, fmt.Errorf("script beat %d has order %d", i, b.SegmentOrder)
		}
		if err := b.Validate(); err != nil {
			return nil, nil, err
		}
	}
	return script, beats, nil
}

func (g *ScriptGenerator) capBeat(d float64) float64 {
	maxD := g.limits.ScriptSegmentMaxSeconds
	if maxD <= 0 {
		maxD = domeditorial.ScriptSegmentMaxDurationSeconds
	}
	if d > maxD {
		return maxD
	}
	if d < 0 {
		return 0
	}
	return d
}

func scriptTitle(segments []*types.Segment) string {
	for _, s := range segments {
		if strings.TrimSpace(s.Title) != "" {
			return s.Title
		}
	}
	return "Untitled"
}

func hookLine(segments []*types.Segment) string {
	for _, s := range segments {
		if strings.TrimSpace(s.HookText) != "" {
			return s.HookText
		}
	}
	return "Here's what most people miss about " + strings.ToLower(scriptTitle(segments)) + "."
}

func transitionLine(next *types.Segment) string {
	if strings.TrimSpace(next.Title) != "" {
		return "Next up: " + next.Title + "."
	}
	return "But that's not the whole story."
}

func conclusionLine(segments []*types.Segment) string {
	return fmt.Sprintf("That's the short version — %d key ideas you can act on today.", len(segments))
}

func refsFor(segments []*types.Segment) []map[string]string {
	var out []map[string]string
	for _, s := range segments {
		out = append(out, map[string]string{"segment_id": s.ID.String()})
	}
	return out
}

func marshalRefs(refs []map[string]string) datatypes.JSON {
	if refs == nil {
		return datatypes.JSON([]byte("[]"))
	}
	b, err := json.Marshal(refs)
	if err != nil {
		return datatypes.JSON([]byte("[]"))
	}
	return datatypes.JSON(b)
}
