package render

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/paperclip-video/paperclip-backend/internal/config"
	types "github.com/paperclip-video/paperclip-backend/internal/domain"
	domeditorial "github.com/paperclip-video/paperclip-backend/internal/domain/editorial"
	domvisuals "github.com/paperclip-video/paperclip-backend/internal/domain/visuals"
	jobrt "github.com/paperclip-video/paperclip-backend/internal/jobs/runtime"
	"github.com/paperclip-video/paperclip-backend/internal/platform/dbctx"
	"github.com/paperclip-video/paperclip-backend/internal/platform/logger"
	"github.com/paperclip-video/paperclip-backend/internal/services"
)

type fakeScriptRepo struct {
	scripts []*types.VideoScript
	beats   map[uuid.UUID][]*types.ScriptSegment
}

func (f *fakeScriptRepo) CreateWithSegments(dbc dbctx.Context, script *types.VideoScript, segments []*types.ScriptSegment) (*types.VideoScript, error) {
	f.scripts = append(f.scripts, script)
	f.beats[script.ID] = segments
	return script, nil
}
func (f *fakeScriptRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.VideoScript, error) {
	for _, s := range f.scripts {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, nil
}
func (f *fakeScriptRepo) GetByProjectID(dbc dbctx.Context, projectID uuid.UUID) ([]*types.VideoScript, error) {
	var out []*types.VideoScript
	for _, s := range f.scripts {
		if s.ProjectID == projectID {
			out = append(out, s)
		}
	}
	return out, nil
}
func (f *fakeScriptRepo) GetSegments(dbc dbctx.Context, scriptID uuid.UUID) ([]*types.ScriptSegment, error) {
	return f.beats[scriptID], nil
}
func (f *fakeScriptRepo) SetStatus(dbc dbctx.Context, id uuid.UUID, next domeditorial.ScriptStatus) error {
	return nil
}
func (f *fakeScriptRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	return nil
}
func (f *fakeScriptRepo) RecomputeTotalDuration(dbc dbctx.Context, id uuid.UUID) (float64, error) {
	return 0, nil
}

type fakeVisualRepo struct {
	visuals []*types.GeneratedVisual
}

func (f *fakeVisualRepo) Create(dbc dbctx.Context, vs []*types.GeneratedVisual) ([]*types.GeneratedVisual, error) {
	f.visuals = append(f.visuals, vs...)
	return vs, nil
}
func (f *fakeVisualRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.GeneratedVisual, error) {
	for _, v := range f.visuals {
		if v.ID == id {
			return v, nil
		}
	}
	return nil, nil
}
func (f *fakeVisualRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.GeneratedVisual, error) {
	return f.visuals, nil
}
func (f *fakeVisualRepo) GetByProjectID(dbc dbctx.Context, projectID uuid.UUID) ([]*types.GeneratedVisual, error) {
	return f.visuals, nil
}
func (f *fakeVisualRepo) GetByScriptSegmentIDs(dbc dbctx.Context, segmentIDs []uuid.UUID) ([]*types.GeneratedVisual, error) {
	return f.visuals, nil
}
func (f *fakeVisualRepo) SetStatus(dbc dbctx.Context, id uuid.UUID, next domvisuals.VisualStatus, updates map[string]interface{}) error {
	return nil
}

type fakeVideoRepo struct {
	videos   map[uuid.UUID]*types.Video
	timeline map[uuid.UUID][]*types.VideoSegment
}

func newFakeVideoRepo() *fakeVideoRepo {
	return &fakeVideoRepo{
		videos:   map[uuid.UUID]*types.Video{},
		timeline: map[uuid.UUID][]*types.VideoSegment{},
	}
}

func (f *fakeVideoRepo) Create(dbc dbctx.Context, vs []*types.Video) ([]*types.Video, error) {
	for _, v := range vs {
		f.videos[v.ID] = v
	}
	return vs, nil
}
func (f *fakeVideoRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Video, error) {
	return f.videos[id], nil
}
func (f *fakeVideoRepo) GetByProjectID(dbc dbctx.Context, projectID uuid.UUID) ([]*types.Video, error) {
	var out []*types.Video
	for _, v := range f.videos {
		out = append(out, v)
	}
	return out, nil
}
func (f *fakeVideoRepo) GetByScriptID(dbc dbctx.Context, scriptID uuid.UUID) ([]*types.Video, error) {
	return nil, nil
}
func (f *fakeVideoRepo) SetStatus(dbc dbctx.Context, id uuid.UUID, next domvisuals.VideoStatus, updates map[string]interface{}) error {
	v := f.videos[id]
	if v == nil {
		return nil
	}
	v.Status = next
	if next == domvisuals.VideoStatusCompleted {
		v.RenderProgress = 100
	}
	if updates != nil {
		if m, ok := updates["render_manifest"].(datatypes.JSON); ok {
			v.RenderManifest = m
		}
		if d, ok := updates["duration_seconds"].(float64); ok {
			v.DurationSeconds = &d
		}
		if e, ok := updates["error"].(string); ok {
			v.Error = e
		}
	}
	return nil
}
func (f *fakeVideoRepo) AdvanceProgress(dbc dbctx.Context, id uuid.UUID, progress int) error {
	if v := f.videos[id]; v != nil && progress > v.RenderProgress {
		v.RenderProgress = progress
	}
	return nil
}
func (f *fakeVideoRepo) ReplaceTimeline(dbc dbctx.Context, videoID uuid.UUID, segments []*types.VideoSegment) error {
	f.timeline[videoID] = segments
	return nil
}
func (f *fakeVideoRepo) GetTimeline(dbc dbctx.Context, videoID uuid.UUID) ([]*types.VideoSegment, error) {
	return f.timeline[videoID], nil
}

func testPipeline(t *testing.T, scripts *fakeScriptRepo, visuals *fakeVisualRepo, videos *fakeVideoRepo) *Pipeline {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	planner := services.NewTimelinePlanner(config.LoadPipelineSpec(log).Limits)
	return New(log, scripts, visuals, videos, planner, nil)
}

func testJobContext(projectID uuid.UUID) *jobrt.Context {
	job := &types.ProcessingJob{
		ID:        uuid.New(),
		ProjectID: projectID,
		Stage:     "render",
		Status:    types.JobRunning,
		Params:    datatypes.JSON([]byte(`{"project_id":"` + projectID.String() + `"}`)),
	}
	return jobrt.NewContext(context.Background(), nil, job, nil, nil)
}

func seedScript(projectID uuid.UUID, scripts *fakeScriptRepo, durations ...float64) *types.VideoScript {
	script := &types.VideoScript{
		ID:           uuid.New(),
		ProjectID:    projectID,
		Title:        "Quarterly Highlights",
		ScriptStatus: domeditorial.ScriptStatusGenerated,
	}
	var beats []*types.ScriptSegment
	for i := range durations {
		d := durations[i]
		st := domeditorial.ScriptSegmentContent
		if i == 0 {
			st = domeditorial.ScriptSegmentHook
		}
		beats = append(beats, &types.ScriptSegment{
			ID:                uuid.New(),
			ScriptID:          script.ID,
			SegmentOrder:      i,
			SegmentType:       st,
			Text:              "narration",
			EstimatedDuration: &d,
		})
	}
	scripts.scripts = append(scripts.scripts, script)
	scripts.beats[script.ID] = beats
	return script
}

func TestRenderCompletesVideoWithTimeline(t *testing.T) {
	projectID := uuid.New()
	scripts := &fakeScriptRepo{beats: map[uuid.UUID][]*types.ScriptSegment{}}
	seedScript(projectID, scripts, 5, 30, 4)
	visuals := &fakeVisualRepo{}
	videos := newFakeVideoRepo()

	jc := testJobContext(projectID)
	if err := testPipeline(t, scripts, visuals, videos).Run(jc); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if jc.Job.Status != types.JobCompleted {
		t.Fatalf("job status = %q (error %q)", jc.Job.Status, jc.Job.Error)
	}

	if len(videos.videos) != 1 {
		t.Fatalf("videos = %d", len(videos.videos))
	}
	for _, v := range videos.videos {
		if v.Status != domvisuals.VideoStatusCompleted {
			t.Fatalf("video status = %q", v.Status)
		}
		if v.RenderProgress != 100 {
			t.Fatalf("render_progress = %d", v.RenderProgress)
		}
		if v.DurationSeconds == nil || *v.DurationSeconds != 39 {
			t.Fatalf("duration = %v", v.DurationSeconds)
		}
		var manifest map[string]any
		if err := json.Unmarshal(v.RenderManifest, &manifest); err != nil {
			t.Fatalf("manifest: %v", err)
		}
		tl := videos.timeline[v.ID]
		if len(tl) != 3 {
			t.Fatalf("timeline rows = %d", len(tl))
		}
		if tl[2].StartSeconds != 35 || tl[2].EndSeconds != 39 {
			t.Fatalf("last window = [%v,%v)", tl[2].StartSeconds, tl[2].EndSeconds)
		}
	}
}

func TestRenderFailsVideoOnMissingDeclaredAsset(t *testing.T) {
	projectID := uuid.New()
	scripts := &fakeScriptRepo{beats: map[uuid.UUID][]*types.ScriptSegment{}}
	script := seedScript(projectID, scripts, 5, 30)
	refs, _ := json.Marshal([]string{uuid.New().String()})
	scripts.beats[script.ID][1].VisualAssets = datatypes.JSON(refs)

	videos := newFakeVideoRepo()
	jc := testJobContext(projectID)
	if err := testPipeline(t, scripts, &fakeVisualRepo{}, videos).Run(jc); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if jc.Job.Status != types.JobFailed {
		t.Fatalf("job status = %q, want failed", jc.Job.Status)
	}
	for _, v := range videos.videos {
		if v.Status != domvisuals.VideoStatusFailed {
			t.Fatalf("video status = %q, want failed", v.Status)
		}
		if v.Error == "" {
			t.Fatal("video error not recorded")
		}
	}
}

func TestRenderFailsWithoutScript(t *testing.T) {
	projectID := uuid.New()
	scripts := &fakeScriptRepo{beats: map[uuid.UUID][]*types.ScriptSegment{}}
	jc := testJobContext(projectID)
	if err := testPipeline(t, scripts, &fakeVisualRepo{}, newFakeVideoRepo()).Run(jc); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if jc.Job.Status != types.JobFailed {
		t.Fatalf("job status = %q, want failed", jc.Job.Status)
	}
}
