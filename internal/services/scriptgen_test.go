package services

import (
	"testing"

	"github.com/google/uuid"

	types "github.com/paperclip-video/paperclip-backend/internal/domain"
	domeditorial "github.com/paperclip-video/paperclip-backend/internal/domain/editorial"
	apperrors "github.com/paperclip-video/paperclip-backend/internal/pkg/errors"
)

func seedSegments(projectID uuid.UUID, n int) []*types.Segment {
	var out []*types.Segment
	for i := 0; i < n; i++ {
		d := 30.0
		out = append(out, &types.Segment{
			ID:              uuid.New(),
			ProjectID:       projectID,
			Title:           "Topic",
			HookText:        "Adoption grew 42% in one quarter",
			ContentText:     "Narration body for this beat.",
			DurationSeconds: &d,
			OrderIndex:      i,
			Status:          domeditorial.SegmentStatusGenerated,
		})
	}
	return out
}

func TestScriptGeneratorShape(t *testing.T) {
	projectID := uuid.New()
	gen := NewScriptGenerator(testLimits(t))

	script, beats, err := gen.Generate(projectID, "tiktok", seedSegments(projectID, 3))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if script.TargetPlatform != "tiktok" {
		t.Fatalf("platform = %q", script.TargetPlatform)
	}
	if script.ScriptStatus != domeditorial.ScriptStatusGenerated {
		t.Fatalf("status = %q", script.ScriptStatus)
	}

	if len(beats) == 0 {
		t.Fatal("no beats generated")
	}
	if beats[0].SegmentType != domeditorial.ScriptSegmentHook {
		t.Fatalf("first beat = %q, want hook", beats[0].SegmentType)
	}
	if beats[0].Text != "Adoption grew 42% in one quarter" {
		t.Fatalf("hook text = %q", beats[0].Text)
	}
	if beats[len(beats)-1].SegmentType != domeditorial.ScriptSegmentCTA {
		t.Fatalf("last beat = %q, want cta", beats[len(beats)-1].SegmentType)
	}
	if beats[len(beats)-2].SegmentType != domeditorial.ScriptSegmentConclusion {
		t.Fatalf("penultimate beat = %q, want conclusion", beats[len(beats)-2].SegmentType)
	}

	var sum float64
	for i, b := range beats {
		if b.SegmentOrder != i {
			t.Fatalf("beat %d has segment_order %d, want contiguous from 0", i, b.SegmentOrder)
		}
		if err := b.Validate(); err != nil {
			t.Fatalf("beat %d invalid: %v", i, err)
		}
		if b.EstimatedDuration == nil || *b.EstimatedDuration > 600 {
			t.Fatalf("beat %d duration = %v", i, b.EstimatedDuration)
		}
		sum += *b.EstimatedDuration
	}
	if script.TotalDuration == nil || *script.TotalDuration != sum {
		t.Fatalf("total_duration = %v, want sum of beats %v", script.TotalDuration, sum)
	}

	contentBeats := 0
	for _, b := range beats {
		if b.SegmentType == domeditorial.ScriptSegmentContent {
			contentBeats++
		}
	}
	if contentBeats != 3 {
		t.Fatalf("content beats = %d, want one per segment", contentBeats)
	}
}

func TestScriptGeneratorRespectsAggregateBudget(t *testing.T) {
	projectID := uuid.New()
	gen := NewScriptGenerator(testLimits(t))

	// 30 segments at ~30s each cannot all fit the 420s target.
	_, beats, err := gen.Generate(projectID, "youtube_shorts", seedSegments(projectID, 30))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	var total float64
	for _, b := range beats {
		total += *b.EstimatedDuration
	}
	if total > 420+15 {
		t.Fatalf("total = %v, exceeds aggregate budget with closing beats", total)
	}
}

func TestScriptGeneratorRequiresSegments(t *testing.T) {
	gen := NewScriptGenerator(testLimits(t))
	_, _, err := gen.Generate(uuid.New(), "tiktok", nil)
	if err == nil {
		t.Fatal("expected error for empty segment set")
	}
	if apperrors.Classify(err) != apperrors.KindMissingDependency {
		t.Fatalf("kind = %q, want missing_dependency", apperrors.Classify(err))
	}
}
