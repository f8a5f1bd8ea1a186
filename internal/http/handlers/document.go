package handlers

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/paperclip-video/paperclip-backend/internal/clients/gcp"
	"github.com/paperclip-video/paperclip-backend/internal/data/repos"
	types "github.com/paperclip-video/paperclip-backend/internal/domain"
	domcontent "github.com/paperclip-video/paperclip-backend/internal/domain/content"
	"github.com/paperclip-video/paperclip-backend/internal/http/response"
	apperrors "github.com/paperclip-video/paperclip-backend/internal/pkg/errors"
	"github.com/paperclip-video/paperclip-backend/internal/platform/dbctx"
	"github.com/paperclip-video/paperclip-backend/internal/platform/logger"
	"github.com/paperclip-video/paperclip-backend/internal/services"
)

const maxUploadBytes = 50 << 20

type DocumentHandler struct {
	log      *logger.Logger
	projects repos.ProjectRepo
	docs     repos.DocumentRepo
	decomp   repos.DecompositionRepo
	jobs     services.JobService
	bucket   gcp.BucketService
}

func NewDocumentHandler(baseLog *logger.Logger, projects repos.ProjectRepo, docs repos.DocumentRepo, decomp repos.DecompositionRepo, jobs services.JobService, bucket gcp.BucketService) *DocumentHandler {
	return &DocumentHandler{
		log:      baseLog.With("handler", "DocumentHandler"),
		projects: projects,
		docs:     docs,
		decomp:   decomp,
		jobs:     jobs,
		bucket:   bucket,
	}
}

type registerURLRequest struct {
	URL      string         `json:"url" binding:"required"`
	Filename string         `json:"filename"`
	Metadata map[string]any `json:"metadata"`
}

// POST /api/projects/:id/documents
//
// Multipart requests carry a "file" part plus an optional "file_type"
// field; JSON requests register a URL source. Identical content inside
// a project dedupes onto the existing document instead of re-running
// the pipeline.
func (h *DocumentHandler) Upload(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_project_id", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	project, err := h.projects.GetByID(dbc, projectID)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "get_project_failed", err)
		return
	}
	if project == nil {
		response.RespondError(c, http.StatusNotFound, "project_not_found", apperrors.ErrNotFound)
		return
	}

	if strings.HasPrefix(c.ContentType(), "application/json") {
		h.registerURL(c, dbc, projectID)
		return
	}
	h.uploadFile(c, dbc, projectID)
}

func (h *DocumentHandler) registerURL(c *gin.Context, dbc dbctx.Context, projectID uuid.UUID) {
	var req registerURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	url := strings.TrimSpace(req.URL)
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		response.RespondError(c, http.StatusBadRequest, "invalid_url", apperrors.ErrInvalidArgument)
		return
	}
	checksum := sha256Hex([]byte(url))
	if existing, err := h.docs.GetByChecksum(dbc, projectID, checksum); err == nil && existing != nil {
		response.RespondOK(c, gin.H{"document": existing, "deduplicated": true})
		return
	}

	filename := strings.TrimSpace(req.Filename)
	if filename == "" {
		filename = url
	}
	doc := &types.Document{
		ID:           uuid.New(),
		ProjectID:    projectID,
		Filename:     filename,
		FileType:     domcontent.FileTypeURL,
		FileURL:      url,
		Checksum:     checksum,
		UploadStatus: domcontent.UploadStatusUploaded,
		Metadata:     marshalMetadata(req.Metadata),
	}
	h.createAndStart(c, dbc, doc)
}

func (h *DocumentHandler) uploadFile(c *gin.Context, dbc dbctx.Context, projectID uuid.UUID) {
	fh, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "missing_file", err)
		return
	}
	if fh.Size > maxUploadBytes {
		response.RespondError(c, http.StatusRequestEntityTooLarge, "file_too_large", fmt.Errorf("file exceeds %d bytes", maxUploadBytes))
		return
	}
	fileType, err := resolveFileType(c.PostForm("file_type"), fh.Filename)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_file_type", err)
		return
	}

	f, err := fh.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "read_file_failed", err)
		return
	}
	defer f.Close()
	raw, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "read_file_failed", err)
		return
	}

	checksum := sha256Hex(raw)
	if existing, err := h.docs.GetByChecksum(dbc, projectID, checksum); err == nil && existing != nil {
		response.RespondOK(c, gin.H{"document": existing, "deduplicated": true})
		return
	}

	docID := uuid.New()
	key := fmt.Sprintf("documents/%s/%s/%s", projectID, docID, filepath.Base(fh.Filename))
	if h.bucket == nil {
		response.RespondError(c, http.StatusServiceUnavailable, "storage_unavailable", fmt.Errorf("document storage not configured"))
		return
	}
	if err := h.bucket.UploadFile(c.Request.Context(), gcp.BucketCategoryDocument, key, bytes.NewReader(raw)); err != nil {
		response.RespondError(c, http.StatusBadGateway, "store_file_failed", err)
		return
	}

	doc := &types.Document{
		ID:           docID,
		ProjectID:    projectID,
		Filename:     filepath.Base(fh.Filename),
		FileType:     fileType,
		FileSize:     int64(len(raw)),
		StorageKey:   key,
		Checksum:     checksum,
		UploadStatus: domcontent.UploadStatusUploaded,
	}
	h.createAndStart(c, dbc, doc)
}

func (h *DocumentHandler) createAndStart(c *gin.Context, dbc dbctx.Context, doc *types.Document) {
	if _, err := h.docs.Create(dbc, []*types.Document{doc}); err != nil {
		response.RespondError(c, http.StatusInternalServerError, "create_document_failed", err)
		return
	}
	job, err := h.jobs.StartPipeline(dbc, doc.ProjectID, doc.ID, 0)
	if err != nil {
		h.log.Warn("Pipeline start failed", "document_id", doc.ID, "error", err)
	}
	response.RespondCreated(c, gin.H{"document": doc, "job": job})
}

// GET /api/documents/:id
func (h *DocumentHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_document_id", err)
		return
	}
	doc, err := h.docs.GetByID(dbctx.Context{Ctx: c.Request.Context()}, id)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "get_document_failed", err)
		return
	}
	if doc == nil {
		response.RespondError(c, http.StatusNotFound, "document_not_found", apperrors.ErrNotFound)
		return
	}
	response.RespondOK(c, gin.H{"document": doc})
}

// GET /api/documents/:id/content
//
// Serves the reading-order projections of a parsed document: blocks,
// media assets with provenance refs, and normalized data points.
func (h *DocumentHandler) Content(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_document_id", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	doc, err := h.docs.GetByID(dbc, id)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "get_document_failed", err)
		return
	}
	if doc == nil {
		response.RespondError(c, http.StatusNotFound, "document_not_found", apperrors.ErrNotFound)
		return
	}
	content, err := h.decomp.GetDocumentContent(dbc, id)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "get_content_failed", err)
		return
	}
	assets, err := h.decomp.GetDocumentAssets(dbc, id)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "get_assets_failed", err)
		return
	}
	points, err := h.decomp.GetDocumentDataPoints(dbc, id)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "get_data_points_failed", err)
		return
	}
	response.RespondOK(c, gin.H{
		"document_id":   id,
		"upload_status": doc.UploadStatus,
		"content":       content,
		"assets":        assets,
		"data_points":   points,
	})
}

// DELETE /api/documents/:id
func (h *DocumentHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_document_id", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	doc, err := h.docs.GetByID(dbc, id)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "get_document_failed", err)
		return
	}
	if doc == nil {
		response.RespondError(c, http.StatusNotFound, "document_not_found", apperrors.ErrNotFound)
		return
	}
	if err := h.docs.Delete(dbc, id); err != nil {
		response.RespondError(c, http.StatusInternalServerError, "delete_document_failed", err)
		return
	}
	if h.bucket != nil && doc.StorageKey != "" {
		if err := h.bucket.DeleteFile(c.Request.Context(), gcp.BucketCategoryDocument, doc.StorageKey); err != nil {
			h.log.Warn("Stored file cleanup failed", "document_id", id, "error", err)
		}
	}
	response.RespondOK(c, gin.H{"deleted": id})
}

func resolveFileType(declared, filename string) (domcontent.FileType, error) {
	switch domcontent.FileType(strings.ToLower(strings.TrimSpace(declared))) {
	case domcontent.FileTypePDF:
		return domcontent.FileTypePDF, nil
	case domcontent.FileTypeText:
		return domcontent.FileTypeText, nil
	case domcontent.FileTypeMarkdown:
		return domcontent.FileTypeMarkdown, nil
	case domcontent.FileTypeURL:
		return "", fmt.Errorf("url documents are registered via JSON, not file upload")
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return domcontent.FileTypePDF, nil
	case ".md", ".markdown":
		return domcontent.FileTypeMarkdown, nil
	case ".txt", ".text":
		return domcontent.FileTypeText, nil
	}
	return "", fmt.Errorf("cannot infer file type for %q", filename)
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func marshalMetadata(m map[string]any) datatypes.JSON {
	if m == nil {
		return nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}
