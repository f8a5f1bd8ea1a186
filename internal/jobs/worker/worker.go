package worker

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/paperclip-video/paperclip-backend/internal/data/repos"
	types "github.com/paperclip-video/paperclip-backend/internal/domain"
	domjobs "github.com/paperclip-video/paperclip-backend/internal/domain/jobs"
	"github.com/paperclip-video/paperclip-backend/internal/jobs/orchestrator"
	"github.com/paperclip-video/paperclip-backend/internal/jobs/runtime"
	"github.com/paperclip-video/paperclip-backend/internal/platform/dbctx"
	"github.com/paperclip-video/paperclip-backend/internal/platform/envutil"
	"github.com/paperclip-video/paperclip-backend/internal/platform/logger"
	"github.com/paperclip-video/paperclip-backend/internal/services"
)

// Worker runs a pool of claim loops over the processing_job queue.
// After a handler finishes, the worker hands the terminal row to the
// orchestrator so successors get enqueued and retries get scheduled.
type Worker struct {
	db       *gorm.DB
	log      *logger.Logger
	repo     repos.ProcessingJobRepo
	registry *runtime.Registry
	notify   services.JobNotifier
	orch     *orchestrator.Orchestrator
}

func NewWorker(db *gorm.DB, baseLog *logger.Logger, repo repos.ProcessingJobRepo, registry *runtime.Registry, notify services.JobNotifier, orch *orchestrator.Orchestrator) *Worker {
	return &Worker{
		db:       db,
		log:      baseLog.With("component", "JobWorker"),
		repo:     repo,
		registry: registry,
		notify:   notify,
		orch:     orch,
	}
}

func (w *Worker) Start(ctx context.Context) *errgroup.Group {
	concurrency := envutil.GetEnvAsInt("WORKER_CONCURRENCY", 4, w.log)
	if concurrency < 1 {
		concurrency = 1
	}
	staleRunning := time.Duration(envutil.GetEnvAsInt("JOB_STALE_RUNNING_SECONDS", 1800, w.log)) * time.Second

	w.log.Info("Starting job worker pool", "concurrency", concurrency, "stale_running", staleRunning)

	g, gctx := errgroup.WithContext(ctx)
	hostname, _ := os.Hostname()
	for i := 0; i < concurrency; i++ {
		workerID := fmt.Sprintf("%s-%d", hostname, i+1)
		g.Go(func() error {
			w.runLoop(gctx, workerID, staleRunning)
			return nil
		})
	}
	return g
}

func (w *Worker) runLoop(ctx context.Context, workerID string, staleRunning time.Duration) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Worker loop stopped", "worker_id", workerID)
			return
		case <-ticker.C:
			job, err := w.repo.ClaimNextRunnable(dbctx.Context{Ctx: ctx}, workerID, staleRunning)
			if err != nil {
				w.log.Warn("ClaimNextRunnable failed", "worker_id", workerID, "error", err)
				continue
			}
			if job == nil {
				continue
			}
			w.execute(ctx, workerID, job)
		}
	}
}

func (w *Worker) execute(ctx context.Context, workerID string, job *types.ProcessingJob) {
	jc := runtime.NewContext(ctx, w.db, job, w.repo, w.notify)

	h, ok := w.registry.Get(job.Stage)
	if !ok {
		w.log.Warn("No handler registered for stage",
			"worker_id", workerID,
			"stage", job.Stage,
			"job_id", job.ID,
		)
		jc.Fail("dispatch", &missingHandlerError{Stage: job.Stage})
		return
	}

	var runErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				w.log.Error("Job handler panic",
					"worker_id", workerID,
					"job_id", job.ID,
					"stage", job.Stage,
					"panic", r,
				)
				runErr = fmt.Errorf("panic: %v", r)
				jc.Fail("panic", runErr)
			}
		}()

		if err := h.Run(jc); err != nil {
			// Most handlers call jc.Fail themselves; this is a safety net.
			runErr = err
			jc.Fail("run", err)
		}
	}()

	if w.orch == nil {
		return
	}
	dbc := dbctx.Context{Ctx: ctx}
	switch jc.Job.Status {
	case "completed":
		if err := w.orch.OnCompleted(dbc, jc.Job); err != nil {
			w.log.Warn("Failed to advance successors", "job_id", job.ID, "error", err)
		}
	case "failed":
		cause := jc.Cause()
		if cause == nil {
			cause = runErr
		}
		if _, err := w.orch.OnFailed(dbc, jc.Job, cause); err != nil {
			w.log.Warn("Failed to schedule retry", "job_id", job.ID, "error", err)
		}
	}
}

type missingHandlerError struct{ Stage domjobs.Stage }

func (e *missingHandlerError) Error() string {
	return "no handler registered for stage=" + string(e.Stage)
}
