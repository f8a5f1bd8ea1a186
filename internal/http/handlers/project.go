package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

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

type ProjectHandler struct {
	log      *logger.Logger
	projects repos.ProjectRepo
	docs     repos.DocumentRepo
}

func NewProjectHandler(baseLog *logger.Logger, projects repos.ProjectRepo, docs repos.DocumentRepo) *ProjectHandler {
	return &ProjectHandler{
		log:      baseLog.With("handler", "ProjectHandler"),
		projects: projects,
		docs:     docs,
	}
}

type createProjectRequest struct {
	Name        string         `json:"name" binding:"required"`
	Description string         `json:"description"`
	Config      map[string]any `json:"config"`
}

// POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	project := &types.Project{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		Status:      "pending",
	}
	if req.Config != nil {
		raw, err := json.Marshal(req.Config)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_config", err)
			return
		}
		project.Config = datatypes.JSON(raw)
	}
	if _, err := h.projects.Create(dbctx.Context{Ctx: c.Request.Context()}, []*types.Project{project}); err != nil {
		response.RespondError(c, http.StatusInternalServerError, "create_project_failed", err)
		return
	}
	response.RespondCreated(c, gin.H{"project": project})
}

// GET /api/projects
func (h *ProjectHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	list, err := h.projects.List(dbctx.Context{Ctx: c.Request.Context()}, limit, offset)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "list_projects_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"projects": list})
}

// GET /api/projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_project_id", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	project, err := h.projects.GetByID(dbc, id)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "get_project_failed", err)
		return
	}
	if project == nil {
		response.RespondError(c, http.StatusNotFound, "project_not_found", apperrors.ErrNotFound)
		return
	}
	docs, err := h.docs.GetByProjectID(dbc, id)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "get_project_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"project": project, "documents": docs})
}

type updateProjectRequest struct {
	Name        *string        `json:"name"`
	Description *string        `json:"description"`
	Config      map[string]any `json:"config"`
}

// PATCH /api/projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_project_id", err)
		return
	}
	var req updateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Config != nil {
		raw, err := json.Marshal(req.Config)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_config", err)
			return
		}
		updates["config"] = datatypes.JSON(raw)
	}
	if len(updates) == 0 {
		response.RespondError(c, http.StatusBadRequest, "empty_update", apperrors.ErrInvalidArgument)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	if err := h.projects.UpdateFields(dbc, id, updates); err != nil {
		response.RespondError(c, http.StatusInternalServerError, "update_project_failed", err)
		return
	}
	project, err := h.projects.GetByID(dbc, id)
	if err != nil || project == nil {
		response.RespondError(c, http.StatusNotFound, "project_not_found", apperrors.ErrNotFound)
		return
	}
	response.RespondOK(c, gin.H{"project": project})
}

// DELETE /api/projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_project_id", err)
		return
	}
	if err := h.projects.Delete(dbctx.Context{Ctx: c.Request.Context()}, id); err != nil {
		response.RespondError(c, http.StatusInternalServerError, "delete_project_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"deleted": id})
}
