package services

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/paperclip-video/paperclip-backend/internal/data/repos"
	types "github.com/paperclip-video/paperclip-backend/internal/domain"
	domjobs "github.com/paperclip-video/paperclip-backend/internal/domain/jobs"
	apperrors "github.com/paperclip-video/paperclip-backend/internal/pkg/errors"
	"github.com/paperclip-video/paperclip-backend/internal/platform/dbctx"
	"github.com/paperclip-video/paperclip-backend/internal/platform/logger"
)

// Scheduler is the slice of the orchestrator the request path needs.
type Scheduler interface {
	Enqueue(dbc dbctx.Context, projectID uuid.UUID, documentID *uuid.UUID, stage domjobs.Stage, params map[string]any, priority int) (*types.ProcessingJob, error)
	StartPipeline(dbc dbctx.Context, projectID, documentID uuid.UUID, priority int) (*types.ProcessingJob, error)
}

// ProjectJobStatus is the queue summary handed to status endpoints.
type ProjectJobStatus struct {
	ProjectID uuid.UUID              `json:"project_id"`
	Counts    map[string]int64       `json:"counts"`
	Jobs      []*types.ProcessingJob `json:"jobs"`
}

// JobService is the request-side surface over the job queue. Handlers
// go through it instead of touching the orchestrator or repo directly.
type JobService interface {
	Enqueue(dbc dbctx.Context, projectID uuid.UUID, documentID *uuid.UUID, stage domjobs.Stage, params map[string]any, priority int) (*types.ProcessingJob, error)
	StartPipeline(dbc dbctx.Context, projectID, documentID uuid.UUID, priority int) (*types.ProcessingJob, error)
	Get(dbc dbctx.Context, id uuid.UUID) (*types.ProcessingJob, error)
	ProjectStatus(dbc dbctx.Context, projectID uuid.UUID) (*ProjectJobStatus, error)
	Cancel(dbc dbctx.Context, id uuid.UUID) (*types.ProcessingJob, error)
	Restart(dbc dbctx.Context, id uuid.UUID) (*types.ProcessingJob, error)
}

type jobService struct {
	log   *logger.Logger
	jobs  repos.ProcessingJobRepo
	sched Scheduler
}

func NewJobService(baseLog *logger.Logger, jobs repos.ProcessingJobRepo, sched Scheduler) JobService {
	return &jobService{
		log:   baseLog.With("service", "JobService"),
		jobs:  jobs,
		sched: sched,
	}
}

// Enqueue schedules one stage for a scope. A nil return with nil error
// means an equivalent runnable job already exists.
func (s *jobService) Enqueue(dbc dbctx.Context, projectID uuid.UUID, documentID *uuid.UUID, stage domjobs.Stage, params map[string]any, priority int) (*types.ProcessingJob, error) {
	if projectID == uuid.Nil {
		return nil, apperrors.Validationf("project_id is required")
	}
	return s.sched.Enqueue(dbc, projectID, documentID, stage, params, priority)
}

func (s *jobService) StartPipeline(dbc dbctx.Context, projectID, documentID uuid.UUID, priority int) (*types.ProcessingJob, error) {
	if projectID == uuid.Nil || documentID == uuid.Nil {
		return nil, apperrors.Validationf("project_id and document_id are required")
	}
	return s.sched.StartPipeline(dbc, projectID, documentID, priority)
}

func (s *jobService) Get(dbc dbctx.Context, id uuid.UUID) (*types.ProcessingJob, error) {
	job, err := s.jobs.GetByID(dbc, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, apperrors.Mark(apperrors.ErrNotFound, apperrors.KindValidation)
	}
	return job, nil
}

func (s *jobService) ProjectStatus(dbc dbctx.Context, projectID uuid.UUID) (*ProjectJobStatus, error) {
	if projectID == uuid.Nil {
		return nil, apperrors.Validationf("project_id is required")
	}
	counts, err := s.jobs.CountByStatus(dbc, projectID)
	if err != nil {
		return nil, err
	}
	list, err := s.jobs.ListByProject(dbc, projectID)
	if err != nil {
		return nil, err
	}
	return &ProjectJobStatus{
		ProjectID: projectID,
		Counts:    counts,
		Jobs:      list,
	}, nil
}

// Cancel flips a queued or running job to canceled. The running
// handler notices at its next checkpoint and abandons the work.
func (s *jobService) Cancel(dbc dbctx.Context, id uuid.UUID) (*types.ProcessingJob, error) {
	job, err := s.Get(dbc, id)
	if err != nil {
		return nil, err
	}
	ok, err := s.jobs.CancelRunnable(dbc, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.Validationf("job %s is %s and cannot be canceled", id, job.Status)
	}
	s.log.Info("Job canceled", "job_id", id, "stage", job.Stage)
	return s.jobs.GetByID(dbc, id)
}

// Restart enqueues a fresh attempt-1 row for a terminally failed or
// canceled job. Queued and running jobs are not restartable; a stage
// that already has a runnable row for the scope is a conflict.
func (s *jobService) Restart(dbc dbctx.Context, id uuid.UUID) (*types.ProcessingJob, error) {
	job, err := s.Get(dbc, id)
	if err != nil {
		return nil, err
	}
	if job.Status != types.JobFailed && job.Status != types.JobCanceled {
		return nil, apperrors.Validationf("job %s is %s and not restartable", id, job.Status)
	}

	var params map[string]any
	if len(job.Params) > 0 {
		_ = json.Unmarshal(job.Params, &params)
	}
	retry, err := s.sched.Enqueue(dbc, job.ProjectID, job.DocumentID, job.Stage, params, job.Priority)
	if err != nil {
		return nil, err
	}
	if retry == nil {
		return nil, apperrors.Validationf("stage %s already has a runnable job for this scope", job.Stage)
	}
	s.log.Info("Job restarted", "job_id", id, "new_job_id", retry.ID, "stage", job.Stage)
	return retry, nil
}
