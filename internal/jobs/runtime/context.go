package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/paperclip-video/paperclip-backend/internal/data/repos"
	types "github.com/paperclip-video/paperclip-backend/internal/domain"
	"github.com/paperclip-video/paperclip-backend/internal/platform/dbctx"
	"github.com/paperclip-video/paperclip-backend/internal/services"
)

// Context is the execution handle for one claimed job. Handlers never
// write processing_job rows directly; Progress/Fail/Succeed are the
// only sanctioned lifecycle writes, and all of them refuse to touch a
// job that was canceled after claim.
type Context struct {
	Ctx    context.Context
	DB     *gorm.DB
	Job    *types.ProcessingJob
	Repo   repos.ProcessingJobRepo
	Notify services.JobNotifier

	params map[string]any
	cause  error
}

// NewContext eagerly decodes the job params JSON so handlers can read
// inputs via Params()/ParamUUID(). A decode failure leaves an empty
// map; handlers validate their required fields anyway.
func NewContext(ctx context.Context, db *gorm.DB, job *types.ProcessingJob, repo repos.ProcessingJobRepo, notify services.JobNotifier) *Context {
	c := &Context{
		Ctx:    ctx,
		DB:     db,
		Job:    job,
		Repo:   repo,
		Notify: notify,
	}
	_ = c.decodeParams()
	return c
}

func (c *Context) decodeParams() error {
	if c.Job == nil {
		return nil
	}
	if len(c.Job.Params) == 0 {
		c.params = map[string]any{}
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(c.Job.Params, &m); err != nil {
		c.params = map[string]any{}
		return err
	}
	c.params = m
	return nil
}

// Params never returns nil.
func (c *Context) Params() map[string]any {
	if c.params == nil {
		c.params = map[string]any{}
	}
	return c.params
}

// ParamUUID reads a params field and parses it as a UUID. Returns
// (uuid.Nil, false) when missing or unparseable, keeping UUID
// validation out of stage handlers.
func (c *Context) ParamUUID(key string) (uuid.UUID, bool) {
	v, ok := c.Params()[key]
	if !ok || v == nil {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(fmt.Sprint(v))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// Canceled is the cooperative checkpoint: handlers call it between
// expensive steps and abandon work when it reports true. It reflects
// both context cancellation and an operator cancel persisted on the
// row.
func (c *Context) Canceled() bool {
	if c == nil || c.Job == nil {
		return false
	}
	if c.Ctx != nil && c.Ctx.Err() != nil {
		return true
	}
	if c.Repo == nil {
		return false
	}
	row, err := c.Repo.GetByID(dbctx.Context{Ctx: c.Ctx}, c.Job.ID)
	if err != nil || row == nil {
		return false
	}
	return row.Status == types.JobCanceled
}

// Progress publishes a non-terminal update: sub-step name, percent,
// heartbeat. Canceled jobs are not overwritten and emit nothing.
func (c *Context) Progress(step string, pct int, msg string) {
	if c == nil {
		return
	}
	ctx := c.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	now := time.Now()

	if c.Repo != nil && c.Job != nil && c.Job.ID != uuid.Nil {
		ok, _ := c.Repo.UpdateFieldsUnlessStatus(dbctx.Context{Ctx: ctx}, c.Job.ID, []string{"canceled"}, map[string]interface{}{
			"progress_stage": step,
			"progress":       pct,
			"heartbeat_at":   now,
			"updated_at":     now,
		})
		if !ok {
			return
		}
	}

	if c.Job != nil {
		c.Job.ProgressStage = step
		c.Job.Progress = pct
		c.Job.HeartbeatAt = &now
		c.Job.UpdatedAt = now
	}

	if c.Notify != nil && c.Job != nil {
		c.Notify.JobProgress(c.Job.ProjectID, c.Job, step, pct, msg)
	}
}

// Fail marks the job terminally failed with its error message and
// releases the worker lock. The orchestrator decides afterwards
// whether a retry row is warranted.
func (c *Context) Fail(step string, err error) {
	if c == nil {
		return
	}
	ctx := c.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	now := time.Now()
	c.cause = err
	msg := ""
	if err != nil {
		msg = err.Error()
	}

	if c.Repo != nil && c.Job != nil && c.Job.ID != uuid.Nil {
		ok, _ := c.Repo.UpdateFieldsUnlessStatus(dbctx.Context{Ctx: ctx}, c.Job.ID, []string{"canceled"}, map[string]interface{}{
			"status":         "failed",
			"progress_stage": step,
			"error":          msg,
			"finished_at":    now,
			"locked_at":      nil,
			"locked_by":      "",
			"updated_at":     now,
		})
		if !ok {
			return
		}
	}

	if c.Job != nil {
		c.Job.Status = types.JobFailed
		c.Job.ProgressStage = step
		c.Job.Error = msg
		c.Job.FinishedAt = &now
		c.Job.LockedAt = nil
		c.Job.LockedBy = ""
		c.Job.UpdatedAt = now
	}

	if c.Notify != nil && c.Job != nil {
		c.Notify.JobFailed(c.Job.ProjectID, c.Job, step, msg)
	}
}

// Cause returns the error passed to Fail, so the orchestrator can
// classify the failure even though handlers swallow the error after
// recording it.
func (c *Context) Cause() error {
	if c == nil {
		return nil
	}
	return c.cause
}

// Succeed marks the job completed and persists its result payload.
func (c *Context) Succeed(result any) {
	if c == nil {
		return
	}
	ctx := c.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	now := time.Now()
	var res datatypes.JSON
	if result != nil {
		b, _ := json.Marshal(result)
		res = datatypes.JSON(b)
	}

	if c.Repo != nil && c.Job != nil && c.Job.ID != uuid.Nil {
		ok, _ := c.Repo.UpdateFieldsUnlessStatus(dbctx.Context{Ctx: ctx}, c.Job.ID, []string{"canceled"}, map[string]interface{}{
			"status":       "completed",
			"progress":     100,
			"error":        "",
			"result":       res,
			"finished_at":  now,
			"locked_at":    nil,
			"locked_by":    "",
			"heartbeat_at": now,
			"updated_at":   now,
		})
		if !ok {
			return
		}
	}

	if c.Job != nil {
		c.Job.Status = types.JobCompleted
		c.Job.Progress = 100
		c.Job.Error = ""
		c.Job.Result = res
		c.Job.FinishedAt = &now
		c.Job.LockedAt = nil
		c.Job.LockedBy = ""
		c.Job.HeartbeatAt = &now
		c.Job.UpdatedAt = now
	}

	if c.Notify != nil && c.Job != nil {
		c.Notify.JobDone(c.Job.ProjectID, c.Job)
	}
}
