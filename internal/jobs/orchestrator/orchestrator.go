package orchestrator

import (
	"encoding/json"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/paperclip-video/paperclip-backend/internal/config"
	"github.com/paperclip-video/paperclip-backend/internal/data/repos"
	types "github.com/paperclip-video/paperclip-backend/internal/domain"
	domjobs "github.com/paperclip-video/paperclip-backend/internal/domain/jobs"
	apperrors "github.com/paperclip-video/paperclip-backend/internal/pkg/errors"
	"github.com/paperclip-video/paperclip-backend/internal/platform/dbctx"
	"github.com/paperclip-video/paperclip-backend/internal/platform/logger"
	"github.com/paperclip-video/paperclip-backend/internal/services"
)

// Orchestrator owns stage sequencing: it enqueues jobs, gates each
// stage on its prerequisites, advances successors when a stage
// completes, and decides whether a failed job earns a retry row.
// One document's failure never blocks sibling documents; only the
// stages downstream of the failed scope stay ungated.
type Orchestrator struct {
	spec   *config.Spec
	jobs   repos.ProcessingJobRepo
	docs   repos.DocumentRepo
	notify services.JobNotifier
	log    *logger.Logger
}

func New(spec *config.Spec, jobs repos.ProcessingJobRepo, docs repos.DocumentRepo, notify services.JobNotifier, baseLog *logger.Logger) *Orchestrator {
	return &Orchestrator{
		spec:   spec,
		jobs:   jobs,
		docs:   docs,
		notify: notify,
		log:    baseLog.With("component", "Orchestrator"),
	}
}

// Enqueue creates a queued job for one scope, deduplicating against an
// already queued-or-running job of the same (scope, stage).
func (o *Orchestrator) Enqueue(dbc dbctx.Context, projectID uuid.UUID, documentID *uuid.UUID, stage domjobs.Stage, params map[string]any, priority int) (*types.ProcessingJob, error) {
	st, ok := o.spec.Stage(string(stage))
	if !ok {
		return nil, apperrors.Validationf("unknown stage %q", stage)
	}
	if st.Scope == "document" && (documentID == nil || *documentID == uuid.Nil) {
		return nil, apperrors.Validationf("stage %q requires a document", stage)
	}
	if st.Scope == "project" {
		documentID = nil
	}

	exists, err := o.jobs.HasRunnableForScope(dbc, projectID, documentID, stage)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, nil
	}

	job := &types.ProcessingJob{
		ID:         uuid.New(),
		ProjectID:  projectID,
		DocumentID: documentID,
		Stage:      stage,
		Status:     types.JobQueued,
		Attempt:    1,
		Priority:   priority,
		Params:     marshalParams(params),
		QueuedAt:   time.Now(),
	}
	if _, err := o.jobs.Create(dbc, []*types.ProcessingJob{job}); err != nil {
		return nil, err
	}
	if o.notify != nil {
		o.notify.JobCreated(projectID, job)
	}
	o.log.Info("Job enqueued", "job_id", job.ID, "stage", stage, "project_id", projectID)
	return job, nil
}

// OnCompleted fires after a job reaches completed. Every stage that
// lists the finished stage as a prerequisite is enqueued once its full
// prerequisite set is satisfied for its scope.
func (o *Orchestrator) OnCompleted(dbc dbctx.Context, job *types.ProcessingJob) error {
	if job == nil {
		return nil
	}
	for _, succ := range o.spec.Successors(string(job.Stage)) {
		ready, err := o.prerequisitesMet(dbc, job.ProjectID, job.DocumentID, &succ)
		if err != nil {
			return err
		}
		if !ready {
			continue
		}
		docID := job.DocumentID
		if succ.Scope == "project" {
			docID = nil
		}
		params := map[string]any{"project_id": job.ProjectID.String()}
		if docID != nil {
			params["document_id"] = docID.String()
		}
		if _, err := o.Enqueue(dbc, job.ProjectID, docID, domjobs.Stage(succ.Name), params, job.Priority); err != nil {
			return err
		}
	}
	return nil
}

// prerequisitesMet checks that every stage the successor requires has
// a completed job for the relevant scope. A project-scope successor
// needs its document-scope prerequisite completed for every document
// in the project.
func (o *Orchestrator) prerequisitesMet(dbc dbctx.Context, projectID uuid.UUID, documentID *uuid.UUID, succ *config.StageSpec) (bool, error) {
	for _, reqName := range succ.Requires {
		req, ok := o.spec.Stage(reqName)
		if !ok {
			return false, apperrors.Validationf("stage %q requires unknown stage %q", succ.Name, reqName)
		}
		switch {
		case succ.Scope == "document" || req.Scope == "project":
			scope := documentID
			if req.Scope == "project" {
				scope = nil
			}
			done, err := o.stageCompleted(dbc, projectID, scope, domjobs.Stage(reqName))
			if err != nil {
				return false, err
			}
			if !done {
				return false, nil
			}
		default:
			// project-scope successor, document-scope prerequisite:
			// require it for all documents
			docs, err := o.docs.GetByProjectID(dbc, projectID)
			if err != nil {
				return false, err
			}
			if len(docs) == 0 {
				return false, nil
			}
			for _, d := range docs {
				done, err := o.stageCompleted(dbc, projectID, &d.ID, domjobs.Stage(reqName))
				if err != nil {
					return false, err
				}
				if !done {
					return false, nil
				}
			}
		}
	}
	return true, nil
}

func (o *Orchestrator) stageCompleted(dbc dbctx.Context, projectID uuid.UUID, documentID *uuid.UUID, stage domjobs.Stage) (bool, error) {
	latest, err := o.jobs.GetLatestForScope(dbc, projectID, documentID, stage)
	if err != nil {
		return false, err
	}
	return latest != nil && latest.Status == types.JobCompleted, nil
}

// OnFailed decides the fate of a failed job: transient errors under
// the stage's attempt ceiling get a fresh retry row with exponential
// backoff and jitter; everything else stays terminally failed.
// Returns the retry job when one was scheduled.
func (o *Orchestrator) OnFailed(dbc dbctx.Context, job *types.ProcessingJob, cause error) (*types.ProcessingJob, error) {
	if job == nil {
		return nil, nil
	}
	st, ok := o.spec.Stage(string(job.Stage))
	if !ok {
		return nil, nil
	}
	if !apperrors.IsRetryable(cause) {
		o.log.Warn("Job failed permanently", "job_id", job.ID, "stage", job.Stage, "kind", apperrors.Classify(cause), "error", cause)
		return nil, nil
	}
	if job.Attempt >= st.Retry.MaxAttempts {
		o.log.Warn("Job exhausted retries", "job_id", job.ID, "stage", job.Stage, "attempt", job.Attempt)
		return nil, nil
	}

	delay := computeBackoff(st.Retry, job.Attempt)
	notBefore := time.Now().Add(delay)
	retry := &types.ProcessingJob{
		ID:         uuid.New(),
		ProjectID:  job.ProjectID,
		DocumentID: job.DocumentID,
		Stage:      job.Stage,
		Status:     types.JobQueued,
		Attempt:    job.Attempt + 1,
		Priority:   job.Priority,
		Params:     job.Params,
		NotBefore:  &notBefore,
		QueuedAt:   time.Now(),
	}
	if _, err := o.jobs.Supersede(dbc, job.ID, retry); err != nil {
		return nil, err
	}
	o.log.Info("Retry scheduled", "job_id", job.ID, "retry_id", retry.ID, "attempt", retry.Attempt, "delay", delay)
	if o.notify != nil {
		o.notify.JobCreated(job.ProjectID, retry)
	}
	return retry, nil
}

// StartPipeline enqueues the first stage for a freshly uploaded
// document.
func (o *Orchestrator) StartPipeline(dbc dbctx.Context, projectID, documentID uuid.UUID, priority int) (*types.ProcessingJob, error) {
	return o.Enqueue(dbc, projectID, &documentID, domjobs.StageUpload, map[string]any{
		"project_id":  projectID.String(),
		"document_id": documentID.String(),
	}, priority)
}

func computeBackoff(r config.RetryPolicy, attempt int) time.Duration {
	minB := r.MinBackoff
	maxB := r.MaxBackoff
	j := r.JitterFrac
	if minB <= 0 {
		minB = 1 * time.Second
	}
	if maxB <= 0 {
		maxB = 30 * time.Second
	}
	if j <= 0 {
		j = 0.20
	}
	if attempt < 1 {
		attempt = 1
	}
	d := time.Duration(float64(minB) * math.Pow(2, float64(attempt-1)))
	if d > maxB {
		d = maxB
	}
	delta := float64(d) * j
	low := float64(d) - delta
	high := float64(d) + delta
	if low < 0 {
		low = 0
	}
	return time.Duration(low + rand.Float64()*(high-low))
}

func marshalParams(params map[string]any) datatypes.JSON {
	if params == nil {
		params = map[string]any{}
	}
	b, err := json.Marshal(params)
	if err != nil {
		return datatypes.JSON([]byte("{}"))
	}
	return datatypes.JSON(b)
}
