package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/trainforge-backend/internal/http/response"
	"github.com/yungbote/trainforge-backend/internal/platform/logger"
	"github.com/yungbote/trainforge-backend/internal/services"
)

type DebriefChatHandlerDeps struct {
	Log  *logger.Logger
	Chat services.DebriefChatService
}

type DebriefChatHandler struct {
	log  *logger.Logger
	chat services.DebriefChatService
}

func NewDebriefChatHandlerWithDeps(deps DebriefChatHandlerDeps) *DebriefChatHandler {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	return &DebriefChatHandler{log: log.With("handler", "DebriefChatHandler"), chat: deps.Chat}
}

type debriefChatRequest struct {
	Message string `json:"message"`
}

// POST /api/projects/:id/debrief/chat
func (h *DebriefChatHandler) Ask(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req debriefChatRequest
	if !bindJSON(c, &req) {
		return
	}
	reply, err := h.chat.Ask(c.Request.Context(), id, req.Message)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, reply)
}

// GET /api/projects/:id/debrief/chat
func (h *DebriefChatHandler) History(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	turns, err := h.chat.History(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"history": turns})
}

// DELETE /api/projects/:id/debrief/chat
func (h *DebriefChatHandler) Clear(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.chat.Clear(c.Request.Context(), id); err != nil {
		response.Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
