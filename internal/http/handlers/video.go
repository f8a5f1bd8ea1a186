package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/paperclip-video/paperclip-backend/internal/data/repos"
	"github.com/paperclip-video/paperclip-backend/internal/http/response"
	apperrors "github.com/paperclip-video/paperclip-backend/internal/pkg/errors"
	"github.com/paperclip-video/paperclip-backend/internal/platform/dbctx"
	"github.com/paperclip-video/paperclip-backend/internal/platform/logger"
)

type VideoHandler struct {
	log     *logger.Logger
	videos  repos.VideoRepo
	visuals repos.GeneratedVisualRepo
}

func NewVideoHandler(baseLog *logger.Logger, videos repos.VideoRepo, visuals repos.GeneratedVisualRepo) *VideoHandler {
	return &VideoHandler{
		log:     baseLog.With("handler", "VideoHandler"),
		videos:  videos,
		visuals: visuals,
	}
}

// GET /api/projects/:id/videos
func (h *VideoHandler) ListByProject(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_project_id", err)
		return
	}
	list, err := h.videos.GetByProjectID(dbctx.Context{Ctx: c.Request.Context()}, projectID)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "list_videos_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"videos": list})
}

// GET /api/projects/:id/visuals
func (h *VideoHandler) ListVisuals(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_project_id", err)
		return
	}
	list, err := h.visuals.GetByProjectID(dbctx.Context{Ctx: c.Request.Context()}, projectID)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "list_visuals_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"visuals": list})
}

// GET /api/videos/:id
func (h *VideoHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_video_id", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	video, err := h.videos.GetByID(dbc, id)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "get_video_failed", err)
		return
	}
	if video == nil {
		response.RespondError(c, http.StatusNotFound, "video_not_found", apperrors.ErrNotFound)
		return
	}
	timeline, err := h.videos.GetTimeline(dbc, id)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "get_video_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"video": video, "timeline": timeline})
}

// GET /api/videos/:id/progress
func (h *VideoHandler) Progress(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_video_id", err)
		return
	}
	video, err := h.videos.GetByID(dbctx.Context{Ctx: c.Request.Context()}, id)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "get_video_failed", err)
		return
	}
	if video == nil {
		response.RespondError(c, http.StatusNotFound, "video_not_found", apperrors.ErrNotFound)
		return
	}
	response.RespondOK(c, gin.H{
		"video_id": video.ID,
		"status":   video.Status,
		"progress": video.RenderProgress,
		"error":    video.Error,
	})
}
