package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/paperclip-video/paperclip-backend/internal/data/repos"
	domeditorial "github.com/paperclip-video/paperclip-backend/internal/domain/editorial"
	"github.com/paperclip-video/paperclip-backend/internal/http/response"
	apperrors "github.com/paperclip-video/paperclip-backend/internal/pkg/errors"
	"github.com/paperclip-video/paperclip-backend/internal/platform/dbctx"
	"github.com/paperclip-video/paperclip-backend/internal/platform/logger"
)

type ScriptHandler struct {
	log      *logger.Logger
	scripts  repos.VideoScriptRepo
	segments repos.SegmentRepo
	sources  repos.SegmentSourceRepo
}

func NewScriptHandler(baseLog *logger.Logger, scripts repos.VideoScriptRepo, segments repos.SegmentRepo, sources repos.SegmentSourceRepo) *ScriptHandler {
	return &ScriptHandler{
		log:      baseLog.With("handler", "ScriptHandler"),
		scripts:  scripts,
		segments: segments,
		sources:  sources,
	}
}

// GET /api/projects/:id/segments
func (h *ScriptHandler) ListSegments(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_project_id", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	segs, err := h.segments.GetByProjectID(dbc, projectID)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "list_segments_failed", err)
		return
	}
	ids := make([]uuid.UUID, 0, len(segs))
	for _, s := range segs {
		ids = append(ids, s.ID)
	}
	srcs, err := h.sources.GetBySegmentIDs(dbc, ids)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "list_segments_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"segments": segs, "sources": srcs})
}

// POST /api/segments/:id/status
func (h *ScriptHandler) SetSegmentStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_segment_id", err)
		return
	}
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	next := domeditorial.SegmentStatus(req.Status)
	if !next.Valid() {
		response.RespondError(c, http.StatusBadRequest, "invalid_status", apperrors.ErrInvalidArgument)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	if err := h.segments.SetStatus(dbc, id, next); err != nil {
		response.RespondError(c, http.StatusConflict, "segment_transition_rejected", err)
		return
	}
	seg, err := h.segments.GetByID(dbc, id)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "get_segment_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"segment": seg})
}

// GET /api/projects/:id/scripts
func (h *ScriptHandler) ListByProject(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_project_id", err)
		return
	}
	list, err := h.scripts.GetByProjectID(dbctx.Context{Ctx: c.Request.Context()}, projectID)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "list_scripts_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"scripts": list})
}

// GET /api/scripts/:id
func (h *ScriptHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_script_id", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	script, err := h.scripts.GetByID(dbc, id)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "get_script_failed", err)
		return
	}
	if script == nil {
		response.RespondError(c, http.StatusNotFound, "script_not_found", apperrors.ErrNotFound)
		return
	}
	beats, err := h.scripts.GetSegments(dbc, id)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "get_script_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"script": script, "segments": beats})
}

// POST /api/scripts/:id/approve
func (h *ScriptHandler) Approve(c *gin.Context) {
	h.setStatus(c, domeditorial.ScriptStatusApproved)
}

// POST /api/scripts/:id/reject
func (h *ScriptHandler) Reject(c *gin.Context) {
	h.setStatus(c, domeditorial.ScriptStatusRejected)
}

func (h *ScriptHandler) setStatus(c *gin.Context, next domeditorial.ScriptStatus) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_script_id", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	if err := h.scripts.SetStatus(dbc, id, next); err != nil {
		response.RespondError(c, http.StatusConflict, "script_transition_rejected", err)
		return
	}
	script, err := h.scripts.GetByID(dbc, id)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "get_script_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"script": script})
}
