package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/trainforge-backend/internal/http/response"
	"github.com/yungbote/trainforge-backend/internal/platform/logger"
	"github.com/yungbote/trainforge-backend/internal/services"
	"github.com/yungbote/trainforge-backend/internal/workflow"
)

type IntakeHandlerDeps struct {
	Log    *logger.Logger
	Intake services.IntakeService
}

type IntakeHandler struct {
	log    *logger.Logger
	intake services.IntakeService
}

func NewIntakeHandlerWithDeps(deps IntakeHandlerDeps) *IntakeHandler {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	return &IntakeHandler{log: log.With("handler", "IntakeHandler"), intake: deps.Intake}
}

type parseBriefRequest struct {
	Text string `json:"text"`
}

// POST /api/briefs/parse
func (h *IntakeHandler) ParseBrief(c *gin.Context) {
	var req parseBriefRequest
	if !bindJSON(c, &req) {
		return
	}
	brief, err := h.intake.ParseBrief(c.Request.Context(), req.Text)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"brief": brief})
}

type interviewRequest struct {
	Message string `json:"message"`
}

// POST /api/interviews/:key/messages
func (h *IntakeHandler) Interview(c *gin.Context) {
	key := c.Param("key")
	var req interviewRequest
	if !bindJSON(c, &req) {
		return
	}
	stream(c, h.log, func(ctx context.Context, sink workflow.Sink) (any, error) {
		return h.intake.Interview(ctx, key, req.Message, sink)
	})
}

// GET /api/interviews/:key
func (h *IntakeHandler) Transcript(c *gin.Context) {
	key := c.Param("key")
	turns, err := h.intake.Transcript(c.Request.Context(), key)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"key": key, "history": turns})
}

// DELETE /api/interviews/:key
func (h *IntakeHandler) ClearInterview(c *gin.Context) {
	if err := h.intake.ClearInterview(c.Request.Context(), c.Param("key")); err != nil {
		response.Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/interviews/:key/brief
func (h *IntakeHandler) BriefFromInterview(c *gin.Context) {
	brief, err := h.intake.BriefFromInterview(c.Request.Context(), c.Param("key"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"brief": brief})
}
