package jobs

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Stage names a pipeline step. The runnable set and dependency order
// come from the pipeline spec, not from this type.
type Stage string

const (
	StageUpload         Stage = "upload"
	StageParse          Stage = "parse"
	StageAnalyze        Stage = "analyze"
	StageSegment        Stage = "segment"
	StageVisualGenerate Stage = "visual_generate"
	StageRender         Stage = "render"
)

// JobStatus is the execution state of a ProcessingJob.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobCanceled  JobStatus = "canceled"
)

var jobTransitions = map[JobStatus][]JobStatus{
	JobQueued:    {JobRunning, JobCanceled},
	JobRunning:   {JobCompleted, JobFailed, JobCanceled},
	JobCompleted: {},
	JobFailed:    {},
	JobCanceled:  {},
}

func (s JobStatus) Valid() bool {
	_, ok := jobTransitions[s]
	return ok
}

func (s JobStatus) CanTransition(next JobStatus) bool {
	for _, t := range jobTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Terminal reports whether the status accepts no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed || s == JobCanceled
}

// ProcessingJob is one attempt at one stage for one scope (a document
// or a project). A retry is a NEW row with Attempt+1; failed rows are
// never re-queued in place. At most one queued-or-running row may
// exist per (document_id, stage); a raw partial unique index enforces
// this in Postgres.
type ProcessingJob struct {
	ID uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`

	ProjectID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"project_id"`
	DocumentID *uuid.UUID `gorm:"type:uuid;index" json:"document_id,omitempty"`

	Stage   Stage     `gorm:"column:stage;not null;index" json:"stage"`
	Status  JobStatus `gorm:"column:status;not null;default:'queued';index" json:"status"`
	Attempt int       `gorm:"column:attempt;not null;default:1" json:"attempt"`

	// Higher priority claims first; ties break on queued_at ASC.
	Priority int `gorm:"column:priority;not null;default:0;index:idx_job_claim,priority:1,sort:desc" json:"priority"`

	Params datatypes.JSON `gorm:"column:params;type:jsonb" json:"params"`
	Result datatypes.JSON `gorm:"column:result;type:jsonb" json:"result"`
	Error  string         `gorm:"column:error;type:text" json:"error,omitempty"`

	// NotBefore delays claim eligibility (retry backoff).
	NotBefore *time.Time `gorm:"column:not_before" json:"not_before,omitempty"`

	QueuedAt    time.Time  `gorm:"column:queued_at;not null;default:now();index:idx_job_claim,priority:2" json:"queued_at"`
	StartedAt   *time.Time `gorm:"column:started_at" json:"started_at,omitempty"`
	FinishedAt  *time.Time `gorm:"column:finished_at" json:"finished_at,omitempty"`
	HeartbeatAt *time.Time `gorm:"column:heartbeat_at" json:"heartbeat_at,omitempty"`
	LockedAt    *time.Time `gorm:"column:locked_at" json:"locked_at,omitempty"`
	LockedBy    string     `gorm:"column:locked_by" json:"locked_by,omitempty"`

	// SupersededBy links a failed row to the retry row replacing it.
	SupersededBy *uuid.UUID `gorm:"column:superseded_by;type:uuid" json:"superseded_by,omitempty"`

	Progress      int    `gorm:"column:progress;not null;default:0" json:"progress"`
	ProgressStage string `gorm:"column:progress_stage" json:"progress_stage,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ProcessingJob) TableName() string { return "processing_job" }
