package services

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/paperclip-video/paperclip-backend/internal/config"
	types "github.com/paperclip-video/paperclip-backend/internal/domain"
	domeditorial "github.com/paperclip-video/paperclip-backend/internal/domain/editorial"
	domvisuals "github.com/paperclip-video/paperclip-backend/internal/domain/visuals"
	apperrors "github.com/paperclip-video/paperclip-backend/internal/pkg/errors"
)

// RenderPlan is the resolved output of planning one video: the
// persisted manifest, the timeline rows and the total duration.
type RenderPlan struct {
	Manifest datatypes.JSON
	Timeline []domvisuals.VideoSegment
	Duration float64
}

type manifestEntry struct {
	Order           int      `json:"order"`
	ScriptSegmentID string   `json:"script_segment_id"`
	SegmentType     string   `json:"segment_type"`
	StartSeconds    float64  `json:"start_seconds"`
	EndSeconds      float64  `json:"end_seconds"`
	VisualID        string   `json:"visual_id,omitempty"`
	VisualKey       string   `json:"visual_key,omitempty"`
	VisualURL       string   `json:"visual_url,omitempty"`
	Transition      string   `json:"transition,omitempty"`
	NarrationText   string   `json:"narration_text,omitempty"`
	MissingAssets   []string `json:"-"`
}

// VideoRenderer plans a video timeline from an approved script and its
// generated visuals. Actual media compositing happens off-box; the
// plan is everything the compositor needs.
type VideoRenderer interface {
	Plan(videoID uuid.UUID, beats []*types.ScriptSegment, visuals []*types.GeneratedVisual) (*RenderPlan, error)
}

type timelinePlanner struct {
	limits config.Limits
}

func NewTimelinePlanner(limits config.Limits) VideoRenderer {
	return &timelinePlanner{limits: limits}
}

func (p *timelinePlanner) Plan(videoID uuid.UUID, beats []*types.ScriptSegment, visuals []*types.GeneratedVisual) (*RenderPlan, error) {
	if len(beats) == 0 {
		return nil, apperrors.MissingDependencyf("video %s has no script segments to render", videoID)
	}

	ready := map[uuid.UUID]*types.GeneratedVisual{}
	bySegment := map[uuid.UUID]*types.GeneratedVisual{}
	for _, v := range visuals {
		if v.Status != domvisuals.VisualStatusReady {
			continue
		}
		ready[v.ID] = v
		if v.ScriptSegmentID != nil {
			if _, taken := bySegment[*v.ScriptSegmentID]; !taken {
				bySegment[*v.ScriptSegmentID] = v
			}
		}
	}

	plan := &RenderPlan{}
	var entries []manifestEntry
	cursor := 0.0
	for i, beat := range beats {
		dur := p.beatDuration(beat)

		entry := manifestEntry{
			Order:           i,
			ScriptSegmentID: beat.ID.String(),
			SegmentType:     string(beat.SegmentType),
			StartSeconds:    cursor,
			EndSeconds:      cursor + dur,
			Transition:      transitionFor(beat.SegmentType),
			NarrationText:   beat.Text,
		}

		visual, err := resolveVisual(beat, ready, bySegment)
		if err != nil {
			return nil, err
		}
		seg := domvisuals.VideoSegment{
			ID:              uuid.New(),
			VideoID:         videoID,
			ScriptSegmentID: ptrUUID(beat.ID),
			OrderIndex:      i,
			StartSeconds:    cursor,
			EndSeconds:      cursor + dur,
			Transition:      entry.Transition,
		}
		if visual != nil {
			entry.VisualID = visual.ID.String()
			entry.VisualKey = visual.StorageKey
			entry.VisualURL = visual.URL
			seg.VisualID = ptrUUID(visual.ID)
		}

		entries = append(entries, entry)
		plan.Timeline = append(plan.Timeline, seg)
		cursor += dur
	}
	plan.Duration = cursor

	if err := domvisuals.ValidateTimeline(plan.Timeline); err != nil {
		return nil, apperrors.Validationf("planned timeline invalid: %v", err)
	}

	b, err := json.Marshal(map[string]any{
		"version":          1,
		"video_id":         videoID.String(),
		"duration_seconds": plan.Duration,
		"segments":         entries,
	})
	if err != nil {
		return nil, err
	}
	plan.Manifest = datatypes.JSON(b)
	return plan, nil
}

func (p *timelinePlanner) beatDuration(beat *types.ScriptSegment) float64 {
	if beat.EstimatedDuration != nil && *beat.EstimatedDuration > 0 {
		return *beat.EstimatedDuration
	}
	wps := p.limits.WordsPerSecond
	if wps <= 0 {
		wps = 2.5
	}
	words := len(strings.Fields(beat.Text))
	d := float64(words) / wps
	if d < 1 {
		d = 1
	}
	return d
}

// resolveVisual enforces the beat's declared assets. Every id the beat
// names must exist and be ready or the plan fails; the first declared
// id becomes the beat's visual. A beat with no declared assets falls
// back to whatever visual was generated for it, or none.
func resolveVisual(beat *types.ScriptSegment, ready map[uuid.UUID]*types.GeneratedVisual, bySegment map[uuid.UUID]*types.GeneratedVisual) (*types.GeneratedVisual, error) {
	var declared []string
	if len(beat.VisualAssets) > 0 {
		if err := json.Unmarshal(beat.VisualAssets, &declared); err != nil {
			return nil, apperrors.Validationf("beat %s has malformed visual_assets: %v", beat.ID, err)
		}
	}
	var resolved *types.GeneratedVisual
	for _, raw := range declared {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, apperrors.Validationf("beat %s references invalid visual id %q", beat.ID, raw)
		}
		v, ok := ready[id]
		if !ok {
			return nil, apperrors.MissingDependencyf("beat %s references visual %s which is not ready", beat.ID, id)
		}
		if resolved == nil {
			resolved = v
		}
	}
	if resolved != nil {
		return resolved, nil
	}
	return bySegment[beat.ID], nil
}

func transitionFor(st domeditorial.ScriptSegmentType) string {
	switch st {
	case domeditorial.ScriptSegmentHook:
		return "cut"
	case domeditorial.ScriptSegmentTransition:
		return "slide"
	default:
		return "fade"
	}
}

func ptrUUID(id uuid.UUID) *uuid.UUID { return &id }
