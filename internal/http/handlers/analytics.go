package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/paperclip-video/paperclip-backend/internal/data/repos"
	types "github.com/paperclip-video/paperclip-backend/internal/domain"
	"github.com/paperclip-video/paperclip-backend/internal/http/response"
	apperrors "github.com/paperclip-video/paperclip-backend/internal/pkg/errors"
	"github.com/paperclip-video/paperclip-backend/internal/platform/dbctx"
	"github.com/paperclip-video/paperclip-backend/internal/platform/logger"
)

type AnalyticsHandler struct {
	log       *logger.Logger
	analytics repos.VideoAnalyticsRepo
	videos    repos.VideoRepo
}

func NewAnalyticsHandler(baseLog *logger.Logger, analytics repos.VideoAnalyticsRepo, videos repos.VideoRepo) *AnalyticsHandler {
	return &AnalyticsHandler{
		log:       baseLog.With("handler", "AnalyticsHandler"),
		analytics: analytics,
		videos:    videos,
	}
}

type recordAnalyticsRequest struct {
	Platform         string         `json:"platform" binding:"required"`
	Views            int64          `json:"views"`
	Likes            int64          `json:"likes"`
	Shares           int64          `json:"shares"`
	Comments         int64          `json:"comments"`
	WatchTimeSeconds float64        `json:"watch_time_seconds"`
	CompletionRate   *float64       `json:"completion_rate"`
	Raw              map[string]any `json:"raw"`
	CapturedAt       *time.Time     `json:"captured_at"`
}

// POST /api/videos/:id/analytics
func (h *AnalyticsHandler) Record(c *gin.Context) {
	videoID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_video_id", err)
		return
	}
	var req recordAnalyticsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if req.CompletionRate != nil && (*req.CompletionRate < 0 || *req.CompletionRate > 1) {
		response.RespondError(c, http.StatusBadRequest, "invalid_completion_rate", apperrors.ErrInvalidArgument)
		return
	}

	dbc := dbctx.Context{Ctx: c.Request.Context()}
	video, err := h.videos.GetByID(dbc, videoID)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "get_video_failed", err)
		return
	}
	if video == nil {
		response.RespondError(c, http.StatusNotFound, "video_not_found", apperrors.ErrNotFound)
		return
	}

	snapshot := &types.VideoAnalytics{
		ID:               uuid.New(),
		VideoID:          videoID,
		Platform:         req.Platform,
		Views:            req.Views,
		Likes:            req.Likes,
		Shares:           req.Shares,
		Comments:         req.Comments,
		WatchTimeSeconds: req.WatchTimeSeconds,
		CompletionRate:   req.CompletionRate,
		CapturedAt:       time.Now(),
	}
	if req.CapturedAt != nil {
		snapshot.CapturedAt = *req.CapturedAt
	}
	if req.Raw != nil {
		if raw, err := json.Marshal(req.Raw); err == nil {
			snapshot.Raw = datatypes.JSON(raw)
		}
	}
	if _, err := h.analytics.Record(dbc, []*types.VideoAnalytics{snapshot}); err != nil {
		response.RespondError(c, http.StatusInternalServerError, "record_analytics_failed", err)
		return
	}
	response.RespondCreated(c, gin.H{"analytics": snapshot})
}

// GET /api/videos/:id/analytics
func (h *AnalyticsHandler) List(c *gin.Context) {
	videoID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_video_id", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	rows, err := h.analytics.GetByVideoID(dbc, videoID)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "list_analytics_failed", err)
		return
	}
	latest, err := h.analytics.LatestByPlatform(dbc, videoID)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "list_analytics_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"analytics": rows, "latest_by_platform": latest})
}
