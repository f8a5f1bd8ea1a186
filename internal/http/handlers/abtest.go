package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/paperclip-video/paperclip-backend/internal/data/repos"
	types "github.com/paperclip-video/paperclip-backend/internal/domain"
	domvisuals "github.com/paperclip-video/paperclip-backend/internal/domain/visuals"
	"github.com/paperclip-video/paperclip-backend/internal/http/response"
	apperrors "github.com/paperclip-video/paperclip-backend/internal/pkg/errors"
	"github.com/paperclip-video/paperclip-backend/internal/platform/dbctx"
	"github.com/paperclip-video/paperclip-backend/internal/platform/logger"
)

type ABTestHandler struct {
	log    *logger.Logger
	tests  repos.ABTestRepo
	videos repos.VideoRepo
}

func NewABTestHandler(baseLog *logger.Logger, tests repos.ABTestRepo, videos repos.VideoRepo) *ABTestHandler {
	return &ABTestHandler{
		log:    baseLog.With("handler", "ABTestHandler"),
		tests:  tests,
		videos: videos,
	}
}

type createABTestRequest struct {
	Name         string         `json:"name" binding:"required"`
	VariantA     uuid.UUID      `json:"variant_a" binding:"required"`
	VariantB     uuid.UUID      `json:"variant_b" binding:"required"`
	TargetMetric string         `json:"target_metric"`
	Config       map[string]any `json:"config"`
}

// POST /api/projects/:id/abtests
func (h *ABTestHandler) Create(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_project_id", err)
		return
	}
	var req createABTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if req.VariantA == req.VariantB {
		response.RespondError(c, http.StatusBadRequest, "identical_variants", apperrors.ErrInvalidArgument)
		return
	}

	dbc := dbctx.Context{Ctx: c.Request.Context()}
	for _, variant := range []uuid.UUID{req.VariantA, req.VariantB} {
		video, err := h.videos.GetByID(dbc, variant)
		if err != nil {
			response.RespondError(c, http.StatusInternalServerError, "get_video_failed", err)
			return
		}
		if video == nil || video.ProjectID != projectID {
			response.RespondError(c, http.StatusBadRequest, "variant_not_in_project",
				fmt.Errorf("video %s does not belong to project %s", variant, projectID))
			return
		}
	}

	metric := req.TargetMetric
	if metric == "" {
		metric = "completion_rate"
	}
	test := &types.ABTest{
		ID:           uuid.New(),
		ProjectID:    projectID,
		Name:         req.Name,
		Status:       domvisuals.ABTestStatusDraft,
		VariantA:     req.VariantA,
		VariantB:     req.VariantB,
		TargetMetric: metric,
	}
	if req.Config != nil {
		if raw, err := json.Marshal(req.Config); err == nil {
			test.Config = datatypes.JSON(raw)
		}
	}
	if _, err := h.tests.Create(dbc, []*types.ABTest{test}); err != nil {
		response.RespondError(c, http.StatusInternalServerError, "create_abtest_failed", err)
		return
	}
	response.RespondCreated(c, gin.H{"ab_test": test})
}

// GET /api/projects/:id/abtests
func (h *ABTestHandler) List(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_project_id", err)
		return
	}
	list, err := h.tests.GetByProjectID(dbctx.Context{Ctx: c.Request.Context()}, projectID)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "list_abtests_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"ab_tests": list})
}

type concludeABTestRequest struct {
	WinnerVideoID uuid.UUID `json:"winner_video_id" binding:"required"`
}

// POST /api/abtests/:id/conclude
func (h *ABTestHandler) Conclude(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_abtest_id", err)
		return
	}
	var req concludeABTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	test, err := h.tests.GetByID(dbc, id)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "get_abtest_failed", err)
		return
	}
	if test == nil {
		response.RespondError(c, http.StatusNotFound, "abtest_not_found", apperrors.ErrNotFound)
		return
	}
	if req.WinnerVideoID != test.VariantA && req.WinnerVideoID != test.VariantB {
		response.RespondError(c, http.StatusBadRequest, "winner_not_a_variant", apperrors.ErrInvalidArgument)
		return
	}
	now := time.Now()
	if err := h.tests.UpdateFields(dbc, id, map[string]interface{}{
		"status":          domvisuals.ABTestStatusCompleted,
		"winner_video_id": req.WinnerVideoID,
		"finished_at":     now,
	}); err != nil {
		response.RespondError(c, http.StatusInternalServerError, "conclude_abtest_failed", err)
		return
	}
	test, _ = h.tests.GetByID(dbc, id)
	response.RespondOK(c, gin.H{"ab_test": test})
}
