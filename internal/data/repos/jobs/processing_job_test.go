package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/paperclip-video/paperclip-backend/internal/data/repos/testutil"
	types "github.com/paperclip-video/paperclip-backend/internal/domain"
	domjobs "github.com/paperclip-video/paperclip-backend/internal/domain/jobs"
	"github.com/paperclip-video/paperclip-backend/internal/platform/dbctx"
)

func TestProcessingJobRepoClaimOrder(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewProcessingJobRepo(db, testutil.Logger(t))

	project := testutil.SeedProject(t, ctx, tx, "claim-order")
	docA := testutil.SeedDocument(t, ctx, tx, project.ID, "a.pdf")
	docB := testutil.SeedDocument(t, ctx, tx, project.ID, "b.pdf")
	docC := testutil.SeedDocument(t, ctx, tx, project.ID, "c.pdf")

	now := time.Now().UTC()

	// Priorities 5, 1, 5: both fives claim before the one, oldest five
	// first.
	first := &types.ProcessingJob{
		ID: uuid.New(), ProjectID: project.ID, DocumentID: &docA.ID,
		Stage: domjobs.StageParse, Status: "queued", Attempt: 1, Priority: 5,
		Params: datatypes.JSON([]byte("{}")), QueuedAt: now.Add(-3 * time.Hour),
	}
	low := &types.ProcessingJob{
		ID: uuid.New(), ProjectID: project.ID, DocumentID: &docB.ID,
		Stage: domjobs.StageParse, Status: "queued", Attempt: 1, Priority: 1,
		Params: datatypes.JSON([]byte("{}")), QueuedAt: now.Add(-2 * time.Hour),
	}
	second := &types.ProcessingJob{
		ID: uuid.New(), ProjectID: project.ID, DocumentID: &docC.ID,
		Stage: domjobs.StageParse, Status: "queued", Attempt: 1, Priority: 5,
		Params: datatypes.JSON([]byte("{}")), QueuedAt: now.Add(-1 * time.Hour),
	}
	if _, err := repo.Create(dbc, []*types.ProcessingJob{first, low, second}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	for i, want := range []uuid.UUID{first.ID, second.ID, low.ID} {
		claimed, err := repo.ClaimNextRunnable(dbc, "worker-1", 30*time.Minute)
		if err != nil {
			t.Fatalf("ClaimNextRunnable #%d: %v", i+1, err)
		}
		if claimed == nil || claimed.ID != want {
			t.Fatalf("ClaimNextRunnable #%d: expected %v got %+v", i+1, want, claimed)
		}
	}

	if claimed, err := repo.ClaimNextRunnable(dbc, "worker-1", 30*time.Minute); err != nil || claimed != nil {
		t.Fatalf("ClaimNextRunnable on empty queue: err=%v claimed=%+v", err, claimed)
	}
}

func TestProcessingJobRepoBackoffAndStale(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewProcessingJobRepo(db, testutil.Logger(t))

	project := testutil.SeedProject(t, ctx, tx, "backoff")
	docA := testutil.SeedDocument(t, ctx, tx, project.ID, "a.pdf")
	docB := testutil.SeedDocument(t, ctx, tx, project.ID, "b.pdf")

	now := time.Now().UTC()
	future := now.Add(1 * time.Hour)
	staleBeat := now.Add(-2 * time.Hour)

	backedOff := &types.ProcessingJob{
		ID: uuid.New(), ProjectID: project.ID, DocumentID: &docA.ID,
		Stage: domjobs.StageAnalyze, Status: "queued", Attempt: 2, Priority: 9,
		NotBefore: &future,
		Params:    datatypes.JSON([]byte("{}")), QueuedAt: now.Add(-1 * time.Hour),
	}
	stale := &types.ProcessingJob{
		ID: uuid.New(), ProjectID: project.ID, DocumentID: &docB.ID,
		Stage: domjobs.StageAnalyze, Status: "running", Attempt: 1, Priority: 0,
		HeartbeatAt: &staleBeat,
		Params:      datatypes.JSON([]byte("{}")), QueuedAt: now.Add(-3 * time.Hour),
	}
	if _, err := repo.Create(dbc, []*types.ProcessingJob{backedOff, stale}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// The backed-off job outranks the stale one on priority but its
	// not_before window has not elapsed, so the stale job is reclaimed.
	claimed, err := repo.ClaimNextRunnable(dbc, "worker-2", 30*time.Minute)
	if err != nil {
		t.Fatalf("ClaimNextRunnable: %v", err)
	}
	if claimed == nil || claimed.ID != stale.ID {
		t.Fatalf("ClaimNextRunnable: expected stale %v got %+v", stale.ID, claimed)
	}

	if claimed, err := repo.ClaimNextRunnable(dbc, "worker-2", 30*time.Minute); err != nil || claimed != nil {
		t.Fatalf("backed-off job should stay unclaimable: err=%v claimed=%+v", err, claimed)
	}
}

func TestProcessingJobRepoGuardsAndSupersede(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewProcessingJobRepo(db, testutil.Logger(t))

	project := testutil.SeedProject(t, ctx, tx, "guards")
	doc := testutil.SeedDocument(t, ctx, tx, project.ID, "doc.pdf")
	job := testutil.SeedJob(t, ctx, tx, project.ID, &doc.ID, domjobs.StageParse, 0)

	ok, err := repo.HasRunnableForScope(dbc, project.ID, &doc.ID, domjobs.StageParse)
	if err != nil || !ok {
		t.Fatalf("HasRunnableForScope: err=%v ok=%v", err, ok)
	}

	// A canceled job must not be revived by late writer updates.
	if canceled, err := repo.CancelRunnable(dbc, job.ID); err != nil || !canceled {
		t.Fatalf("CancelRunnable: err=%v canceled=%v", err, canceled)
	}
	applied, err := repo.UpdateFieldsUnlessStatus(dbc, job.ID, []string{"canceled"}, map[string]interface{}{
		"status": "completed",
	})
	if err != nil {
		t.Fatalf("UpdateFieldsUnlessStatus: %v", err)
	}
	if applied {
		t.Fatalf("UpdateFieldsUnlessStatus applied update to canceled job")
	}

	got, err := repo.GetByID(dbc, job.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID: err=%v got=%v", err, got)
	}
	if got.Status != "canceled" {
		t.Fatalf("status = %q, want canceled", got.Status)
	}

	// Retry of a failed job is a fresh row linked by superseded_by.
	failed := testutil.SeedJob(t, ctx, tx, project.ID, &doc.ID, domjobs.StageAnalyze, 0)
	if err := repo.UpdateFields(dbc, failed.ID, map[string]interface{}{"status": "failed", "error": "boom"}); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	notBefore := time.Now().Add(30 * time.Second)
	retry := &types.ProcessingJob{
		ID: uuid.New(), ProjectID: project.ID, DocumentID: &doc.ID,
		Stage: domjobs.StageAnalyze, Status: "queued", Attempt: failed.Attempt + 1,
		NotBefore: &notBefore,
		Params:    datatypes.JSON([]byte("{}")), QueuedAt: time.Now(),
	}
	if _, err := repo.Supersede(dbc, failed.ID, retry); err != nil {
		t.Fatalf("Supersede: %v", err)
	}
	old, err := repo.GetByID(dbc, failed.ID)
	if err != nil || old == nil {
		t.Fatalf("GetByID failed row: err=%v", err)
	}
	if old.SupersededBy == nil || *old.SupersededBy != retry.ID {
		t.Fatalf("superseded_by = %v, want %v", old.SupersededBy, retry.ID)
	}
	if old.Error != "boom" {
		t.Fatalf("failed row lost its error: %q", old.Error)
	}
}
