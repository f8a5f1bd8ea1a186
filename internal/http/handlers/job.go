package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domjobs "github.com/paperclip-video/paperclip-backend/internal/domain/jobs"
	"github.com/paperclip-video/paperclip-backend/internal/http/response"
	"github.com/paperclip-video/paperclip-backend/internal/platform/dbctx"
	"github.com/paperclip-video/paperclip-backend/internal/services"
)

type JobHandler struct {
	jobs services.JobService
}

func NewJobHandler(jobs services.JobService) *JobHandler {
	return &JobHandler{jobs: jobs}
}

type enqueueJobRequest struct {
	Stage      string         `json:"stage" binding:"required"`
	DocumentID *uuid.UUID     `json:"document_id"`
	Params     map[string]any `json:"params"`
	Priority   int            `json:"priority"`
}

// POST /api/projects/:id/jobs
func (h *JobHandler) Enqueue(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_project_id", err)
		return
	}
	var req enqueueJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	job, err := h.jobs.Enqueue(dbctx.Context{Ctx: c.Request.Context()}, projectID, req.DocumentID, domjobs.Stage(req.Stage), req.Params, req.Priority)
	if err != nil {
		response.RespondClassified(c, "enqueue_job_failed", err)
		return
	}
	if job == nil {
		response.RespondOK(c, gin.H{"job": nil, "deduplicated": true})
		return
	}
	response.RespondCreated(c, gin.H{"job": job})
}

// GET /api/jobs/:id
func (h *JobHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_job_id", err)
		return
	}
	job, err := h.jobs.Get(dbctx.Context{Ctx: c.Request.Context()}, id)
	if err != nil {
		response.RespondClassified(c, "job_not_found", err)
		return
	}
	response.RespondOK(c, gin.H{"job": job})
}

// GET /api/projects/:id/jobs
func (h *JobHandler) ProjectStatus(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_project_id", err)
		return
	}
	status, err := h.jobs.ProjectStatus(dbctx.Context{Ctx: c.Request.Context()}, projectID)
	if err != nil {
		response.RespondClassified(c, "job_status_failed", err)
		return
	}
	response.RespondOK(c, status)
}

// POST /api/jobs/:id/cancel
func (h *JobHandler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_job_id", err)
		return
	}
	job, err := h.jobs.Cancel(dbctx.Context{Ctx: c.Request.Context()}, id)
	if err != nil {
		response.RespondClassified(c, "cancel_job_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"job": job})
}

// POST /api/jobs/:id/restart
func (h *JobHandler) Restart(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_job_id", err)
		return
	}
	job, err := h.jobs.Restart(dbctx.Context{Ctx: c.Request.Context()}, id)
	if err != nil {
		response.RespondClassified(c, "restart_job_failed", err)
		return
	}
	response.RespondCreated(c, gin.H{"job": job})
}
