package services

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	types "github.com/paperclip-video/paperclip-backend/internal/domain"
	domeditorial "github.com/paperclip-video/paperclip-backend/internal/domain/editorial"
	domvisuals "github.com/paperclip-video/paperclip-backend/internal/domain/visuals"
	apperrors "github.com/paperclip-video/paperclip-backend/internal/pkg/errors"
)

func beat(scriptID uuid.UUID, order int, st domeditorial.ScriptSegmentType, dur float64) *types.ScriptSegment {
	return &types.ScriptSegment{
		ID:                uuid.New(),
		ScriptID:          scriptID,
		SegmentOrder:      order,
		SegmentType:       st,
		Text:              "narration",
		EstimatedDuration: &dur,
	}
}

func readyVisual(projectID uuid.UUID, segID *uuid.UUID) *types.GeneratedVisual {
	return &types.GeneratedVisual{
		ID:              uuid.New(),
		ProjectID:       projectID,
		ScriptSegmentID: segID,
		VisualType:      domvisuals.VisualTypeTitleCard,
		Status:          domvisuals.VisualStatusReady,
		StorageKey:      "visual/x.png",
		URL:             "https://cdn.example.com/visual/x.png",
	}
}

func TestTimelinePlannerContiguousNonOverlapping(t *testing.T) {
	scriptID := uuid.New()
	projectID := uuid.New()
	videoID := uuid.New()

	beats := []*types.ScriptSegment{
		beat(scriptID, 0, domeditorial.ScriptSegmentHook, 5),
		beat(scriptID, 1, domeditorial.ScriptSegmentContent, 30),
		beat(scriptID, 2, domeditorial.ScriptSegmentCTA, 4),
	}
	visuals := []*types.GeneratedVisual{
		readyVisual(projectID, &beats[0].ID),
		readyVisual(projectID, &beats[1].ID),
	}

	plan, err := NewTimelinePlanner(testLimits(t)).Plan(videoID, beats, visuals)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if plan.Duration != 39 {
		t.Fatalf("duration = %v, want 39", plan.Duration)
	}
	if len(plan.Timeline) != 3 {
		t.Fatalf("timeline rows = %d", len(plan.Timeline))
	}
	if err := domvisuals.ValidateTimeline(plan.Timeline); err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if plan.Timeline[1].StartSeconds != 5 || plan.Timeline[1].EndSeconds != 35 {
		t.Fatalf("content window = [%v,%v)", plan.Timeline[1].StartSeconds, plan.Timeline[1].EndSeconds)
	}
	if plan.Timeline[1].VisualID == nil {
		t.Fatal("content beat lost its visual")
	}

	var manifest struct {
		DurationSeconds float64 `json:"duration_seconds"`
		Segments        []struct {
			Order     int    `json:"order"`
			VisualKey string `json:"visual_key"`
		} `json:"segments"`
	}
	if err := json.Unmarshal(plan.Manifest, &manifest); err != nil {
		t.Fatalf("manifest: %v", err)
	}
	if manifest.DurationSeconds != 39 || len(manifest.Segments) != 3 {
		t.Fatalf("manifest = %+v", manifest)
	}
	if manifest.Segments[1].VisualKey != "visual/x.png" {
		t.Fatalf("manifest visual key = %q", manifest.Segments[1].VisualKey)
	}
}

func TestTimelinePlannerMissingDeclaredAsset(t *testing.T) {
	scriptID := uuid.New()
	videoID := uuid.New()

	b := beat(scriptID, 0, domeditorial.ScriptSegmentContent, 20)
	refs, _ := json.Marshal([]string{uuid.New().String()})
	b.VisualAssets = datatypes.JSON(refs)

	_, err := NewTimelinePlanner(testLimits(t)).Plan(videoID, []*types.ScriptSegment{b}, nil)
	if err == nil {
		t.Fatal("expected error for missing declared visual")
	}
	if apperrors.Classify(err) != apperrors.KindMissingDependency {
		t.Fatalf("kind = %q, want missing_dependency", apperrors.Classify(err))
	}
}

func TestTimelinePlannerRejectsDanglingTrailingAsset(t *testing.T) {
	scriptID := uuid.New()
	projectID := uuid.New()

	b := beat(scriptID, 0, domeditorial.ScriptSegmentContent, 20)
	v := readyVisual(projectID, &b.ID)
	refs, _ := json.Marshal([]string{v.ID.String(), uuid.New().String()})
	b.VisualAssets = datatypes.JSON(refs)

	_, err := NewTimelinePlanner(testLimits(t)).Plan(uuid.New(), []*types.ScriptSegment{b}, []*types.GeneratedVisual{v})
	if err == nil {
		t.Fatal("expected error when a later declared visual is missing")
	}
	if apperrors.Classify(err) != apperrors.KindMissingDependency {
		t.Fatalf("kind = %q, want missing_dependency", apperrors.Classify(err))
	}
}

func TestTimelinePlannerFallsBackToWordTiming(t *testing.T) {
	scriptID := uuid.New()
	b := &types.ScriptSegment{
		ID:           uuid.New(),
		ScriptID:     scriptID,
		SegmentOrder: 0,
		SegmentType:  domeditorial.ScriptSegmentContent,
		Text:         "ten words of narration timed at the configured speaking rate",
	}

	plan, err := NewTimelinePlanner(testLimits(t)).Plan(uuid.New(), []*types.ScriptSegment{b}, nil)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	// 10 words / 2.5 wps
	if plan.Duration != 4 {
		t.Fatalf("duration = %v, want 4", plan.Duration)
	}
}
