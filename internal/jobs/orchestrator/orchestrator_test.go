package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/paperclip-video/paperclip-backend/internal/config"
	types "github.com/paperclip-video/paperclip-backend/internal/domain"
	domcontent "github.com/paperclip-video/paperclip-backend/internal/domain/content"
	domjobs "github.com/paperclip-video/paperclip-backend/internal/domain/jobs"
	apperrors "github.com/paperclip-video/paperclip-backend/internal/pkg/errors"
	"github.com/paperclip-video/paperclip-backend/internal/platform/dbctx"
	"github.com/paperclip-video/paperclip-backend/internal/platform/logger"
)

type fakeJobRepo struct {
	rows map[uuid.UUID]*types.ProcessingJob
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{rows: map[uuid.UUID]*types.ProcessingJob{}}
}

func (f *fakeJobRepo) Create(_ dbctx.Context, jobs []*types.ProcessingJob) ([]*types.ProcessingJob, error) {
	for _, j := range jobs {
		cp := *j
		f.rows[j.ID] = &cp
	}
	return jobs, nil
}

func (f *fakeJobRepo) GetByID(_ dbctx.Context, id uuid.UUID) (*types.ProcessingJob, error) {
	j, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *j
	return &cp, nil
}

func (f *fakeJobRepo) GetByIDs(_ dbctx.Context, ids []uuid.UUID) ([]*types.ProcessingJob, error) {
	var out []*types.ProcessingJob
	for _, id := range ids {
		if j, ok := f.rows[id]; ok {
			cp := *j
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeJobRepo) ListByProject(_ dbctx.Context, projectID uuid.UUID) ([]*types.ProcessingJob, error) {
	var out []*types.ProcessingJob
	for _, j := range f.rows {
		if j.ProjectID == projectID {
			cp := *j
			out = append(out, &cp)
		}
	}
	return out, nil
}

func sameScope(j *types.ProcessingJob, documentID *uuid.UUID) bool {
	if documentID == nil || *documentID == uuid.Nil {
		return j.DocumentID == nil
	}
	return j.DocumentID != nil && *j.DocumentID == *documentID
}

func (f *fakeJobRepo) GetLatestForScope(_ dbctx.Context, projectID uuid.UUID, documentID *uuid.UUID, stage domjobs.Stage) (*types.ProcessingJob, error) {
	var latest *types.ProcessingJob
	for _, j := range f.rows {
		if j.ProjectID != projectID || j.Stage != stage || !sameScope(j, documentID) {
			continue
		}
		if latest == nil || j.QueuedAt.After(latest.QueuedAt) {
			latest = j
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (f *fakeJobRepo) ClaimNextRunnable(_ dbctx.Context, _ string, _ time.Duration) (*types.ProcessingJob, error) {
	return nil, nil
}

func (f *fakeJobRepo) UpdateFields(_ dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if j, ok := f.rows[id]; ok {
		if s, ok := updates["status"].(string); ok {
			j.Status = domjobs.JobStatus(s)
		}
	}
	return nil
}

func (f *fakeJobRepo) UpdateFieldsUnlessStatus(dbc dbctx.Context, id uuid.UUID, disallowed []string, updates map[string]interface{}) (bool, error) {
	j, ok := f.rows[id]
	if !ok {
		return false, nil
	}
	for _, d := range disallowed {
		if string(j.Status) == d {
			return false, nil
		}
	}
	return true, f.UpdateFields(dbc, id, updates)
}

func (f *fakeJobRepo) Heartbeat(_ dbctx.Context, _ uuid.UUID) error { return nil }

func (f *fakeJobRepo) HasRunnableForScope(_ dbctx.Context, projectID uuid.UUID, documentID *uuid.UUID, stage domjobs.Stage) (bool, error) {
	for _, j := range f.rows {
		if j.ProjectID == projectID && j.Stage == stage && sameScope(j, documentID) &&
			(j.Status == types.JobQueued || j.Status == types.JobRunning) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeJobRepo) Supersede(dbc dbctx.Context, failedID uuid.UUID, retry *types.ProcessingJob) (*types.ProcessingJob, error) {
	if _, err := f.Create(dbc, []*types.ProcessingJob{retry}); err != nil {
		return nil, err
	}
	if old, ok := f.rows[failedID]; ok {
		old.SupersededBy = &retry.ID
	}
	return retry, nil
}

func (f *fakeJobRepo) CancelRunnable(_ dbctx.Context, id uuid.UUID) (bool, error) {
	j, ok := f.rows[id]
	if !ok || j.Status.Terminal() {
		return false, nil
	}
	j.Status = types.JobCanceled
	return true, nil
}

func (f *fakeJobRepo) CountByStatus(_ dbctx.Context, _ uuid.UUID) (map[string]int64, error) {
	return map[string]int64{}, nil
}

func (f *fakeJobRepo) markCompleted(id uuid.UUID) {
	f.rows[id].Status = types.JobCompleted
}

type fakeDocRepo struct {
	docs []*types.Document
}

func (f *fakeDocRepo) Create(_ dbctx.Context, docs []*types.Document) ([]*types.Document, error) {
	f.docs = append(f.docs, docs...)
	return docs, nil
}
func (f *fakeDocRepo) GetByID(_ dbctx.Context, id uuid.UUID) (*types.Document, error) {
	for _, d := range f.docs {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, nil
}
func (f *fakeDocRepo) GetByProjectID(_ dbctx.Context, projectID uuid.UUID) ([]*types.Document, error) {
	var out []*types.Document
	for _, d := range f.docs {
		if d.ProjectID == projectID {
			out = append(out, d)
		}
	}
	return out, nil
}
func (f *fakeDocRepo) GetByChecksum(_ dbctx.Context, _ uuid.UUID, _ string) (*types.Document, error) {
	return nil, nil
}
func (f *fakeDocRepo) UpdateFields(_ dbctx.Context, _ uuid.UUID, _ map[string]interface{}) error {
	return nil
}
func (f *fakeDocRepo) SetUploadStatus(_ dbctx.Context, _ uuid.UUID, _ domcontent.UploadStatus, _ string) error {
	return nil
}
func (f *fakeDocRepo) Delete(_ dbctx.Context, _ uuid.UUID) error { return nil }

func testOrchestrator(t *testing.T, jobs *fakeJobRepo, docs *fakeDocRepo) *Orchestrator {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return New(config.LoadPipelineSpec(log), jobs, docs, nil, log)
}

func TestEnqueueDeduplicatesRunnable(t *testing.T) {
	jobs := newFakeJobRepo()
	docs := &fakeDocRepo{}
	o := testOrchestrator(t, jobs, docs)
	dbc := dbctx.Context{Ctx: context.Background()}

	projectID := uuid.New()
	docID := uuid.New()

	first, err := o.Enqueue(dbc, projectID, &docID, domjobs.StageParse, nil, 0)
	if err != nil || first == nil {
		t.Fatalf("Enqueue #1: err=%v job=%v", err, first)
	}
	dup, err := o.Enqueue(dbc, projectID, &docID, domjobs.StageParse, nil, 0)
	if err != nil {
		t.Fatalf("Enqueue #2: %v", err)
	}
	if dup != nil {
		t.Fatalf("duplicate runnable job was enqueued: %+v", dup)
	}
}

func TestOnCompletedAdvancesDocumentStages(t *testing.T) {
	jobs := newFakeJobRepo()
	docs := &fakeDocRepo{}
	o := testOrchestrator(t, jobs, docs)
	dbc := dbctx.Context{Ctx: context.Background()}

	projectID := uuid.New()
	docID := uuid.New()
	docs.docs = append(docs.docs, &types.Document{ID: docID, ProjectID: projectID})

	parse, err := o.Enqueue(dbc, projectID, &docID, domjobs.StageParse, nil, 3)
	if err != nil || parse == nil {
		t.Fatalf("Enqueue parse: err=%v", err)
	}
	jobs.markCompleted(parse.ID)

	if err := o.OnCompleted(dbc, jobs.rows[parse.ID]); err != nil {
		t.Fatalf("OnCompleted: %v", err)
	}

	analyze, err := jobs.GetLatestForScope(dbc, projectID, &docID, domjobs.StageAnalyze)
	if err != nil || analyze == nil {
		t.Fatalf("analyze job not enqueued: err=%v", err)
	}
	if analyze.Status != types.JobQueued {
		t.Fatalf("analyze status = %q", analyze.Status)
	}
	if analyze.Priority != 3 {
		t.Fatalf("successor should inherit priority, got %d", analyze.Priority)
	}
}

func TestProjectStageWaitsForAllDocuments(t *testing.T) {
	jobs := newFakeJobRepo()
	docs := &fakeDocRepo{}
	o := testOrchestrator(t, jobs, docs)
	dbc := dbctx.Context{Ctx: context.Background()}

	projectID := uuid.New()
	docA := uuid.New()
	docB := uuid.New()
	docs.docs = append(docs.docs,
		&types.Document{ID: docA, ProjectID: projectID},
		&types.Document{ID: docB, ProjectID: projectID},
	)

	segA, err := o.Enqueue(dbc, projectID, &docA, domjobs.StageSegment, nil, 0)
	if err != nil || segA == nil {
		t.Fatalf("enqueue segment A: %v", err)
	}
	segB, err := o.Enqueue(dbc, projectID, &docB, domjobs.StageSegment, nil, 0)
	if err != nil || segB == nil {
		t.Fatalf("enqueue segment B: %v", err)
	}

	// Only A done: visual_generate must stay ungated.
	jobs.markCompleted(segA.ID)
	if err := o.OnCompleted(dbc, jobs.rows[segA.ID]); err != nil {
		t.Fatalf("OnCompleted A: %v", err)
	}
	vg, err := jobs.GetLatestForScope(dbc, projectID, nil, domjobs.StageVisualGenerate)
	if err != nil {
		t.Fatalf("GetLatestForScope: %v", err)
	}
	if vg != nil {
		t.Fatalf("visual_generate enqueued before all documents segmented")
	}

	jobs.markCompleted(segB.ID)
	if err := o.OnCompleted(dbc, jobs.rows[segB.ID]); err != nil {
		t.Fatalf("OnCompleted B: %v", err)
	}
	vg, err = jobs.GetLatestForScope(dbc, projectID, nil, domjobs.StageVisualGenerate)
	if err != nil || vg == nil {
		t.Fatalf("visual_generate not enqueued after all documents segmented: err=%v", err)
	}
	if vg.DocumentID != nil {
		t.Fatalf("project-scope job carries a document id")
	}
}

func TestOnFailedRetriesTransientOnly(t *testing.T) {
	jobs := newFakeJobRepo()
	docs := &fakeDocRepo{}
	o := testOrchestrator(t, jobs, docs)
	dbc := dbctx.Context{Ctx: context.Background()}

	projectID := uuid.New()
	docID := uuid.New()

	job, err := o.Enqueue(dbc, projectID, &docID, domjobs.StageAnalyze, nil, 0)
	if err != nil || job == nil {
		t.Fatalf("Enqueue: %v", err)
	}
	jobs.rows[job.ID].Status = types.JobFailed

	retry, err := o.OnFailed(dbc, jobs.rows[job.ID], apperrors.Transientf("upstream flake"))
	if err != nil {
		t.Fatalf("OnFailed transient: %v", err)
	}
	if retry == nil {
		t.Fatalf("transient failure under the ceiling should schedule a retry")
	}
	if retry.Attempt != 2 {
		t.Fatalf("retry attempt = %d, want 2", retry.Attempt)
	}
	if retry.NotBefore == nil || !retry.NotBefore.After(time.Now().Add(-time.Second)) {
		t.Fatalf("retry missing backoff window: %v", retry.NotBefore)
	}
	if old := jobs.rows[job.ID]; old.SupersededBy == nil || *old.SupersededBy != retry.ID {
		t.Fatalf("failed row not linked to retry")
	}

	// Validation errors never retry.
	jobs.rows[retry.ID].Status = types.JobFailed
	r2, err := o.OnFailed(dbc, jobs.rows[retry.ID], apperrors.Validationf("bad payload"))
	if err != nil {
		t.Fatalf("OnFailed validation: %v", err)
	}
	if r2 != nil {
		t.Fatalf("validation failure must not retry")
	}

	// Attempt ceiling: analyze allows 3 attempts.
	jobs.rows[retry.ID].Attempt = 3
	r3, err := o.OnFailed(dbc, jobs.rows[retry.ID], apperrors.Transientf("flake"))
	if err != nil {
		t.Fatalf("OnFailed at ceiling: %v", err)
	}
	if r3 != nil {
		t.Fatalf("retry scheduled past the attempt ceiling")
	}
}
