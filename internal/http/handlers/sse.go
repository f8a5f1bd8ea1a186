package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/paperclip-video/paperclip-backend/internal/http/response"
	"github.com/paperclip-video/paperclip-backend/internal/platform/logger"
	"github.com/paperclip-video/paperclip-backend/internal/sse"
)

type SSEHandler struct {
	log *logger.Logger
	hub *sse.SSEHub
}

func NewSSEHandler(baseLog *logger.Logger, hub *sse.SSEHub) *SSEHandler {
	return &SSEHandler{
		log: baseLog.With("handler", "SSEHandler"),
		hub: hub,
	}
}

// GET /api/projects/:id/events
//
// Streams job and video lifecycle events for one project. The
// connection stays open until the client goes away.
func (h *SSEHandler) Stream(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_project_id", err)
		return
	}
	client := h.hub.NewSSEClient()
	h.hub.AddChannel(client, projectID.String())
	defer h.hub.CloseClient(client)

	h.hub.ServeHTTP(c.Writer, c.Request, client)
}
