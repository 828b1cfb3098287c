package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/trainforge-backend/internal/platform/logger"
	"github.com/yungbote/trainforge-backend/internal/realtime"
)

type RealtimeHandler struct {
	log *logger.Logger
	hub *realtime.SSEHub
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.SSEHub) *RealtimeHandler {
	return &RealtimeHandler{log: log.With("handler", "RealtimeHandler"), hub: hub}
}

// GET /api/projects/:id/events
func (h *RealtimeHandler) ProjectEvents(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	client := h.hub.NewSSEClient()
	h.hub.AddChannel(client, realtime.ProjectChannel(id))
	h.log.Debug("project event stream open", "clientID", client.ID, "project_id", id)

	h.hub.ServeHTTP(c.Writer, c.Request, client)
	h.hub.CloseClient(client)
}
