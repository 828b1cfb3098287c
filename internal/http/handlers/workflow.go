package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/trainforge-backend/internal/domain/training"
	"github.com/yungbote/trainforge-backend/internal/http/response"
	"github.com/yungbote/trainforge-backend/internal/platform/logger"
	"github.com/yungbote/trainforge-backend/internal/realtime"
	"github.com/yungbote/trainforge-backend/internal/services"
	"github.com/yungbote/trainforge-backend/internal/workflow"
)

// Orchestrator is the slice of *workflow.Orchestrator the HTTP layer drives.
type Orchestrator interface {
	Design(ctx context.Context, projectID uuid.UUID, v workflow.Variant, sink workflow.Sink) (*workflow.DesignResult, error)
	Matrix(ctx context.Context, projectID uuid.UUID, v workflow.Variant, sink workflow.Sink) (*workflow.MatrixResult, error)
	ApproveMatrix(ctx context.Context, projectID uuid.UUID) (*types.ProgramMatrix, error)
	Debrief(ctx context.Context, projectID uuid.UUID) (*workflow.DebriefView, error)
	ApproveDebrief(ctx context.Context, projectID uuid.UUID, alternative *int) (*types.WorkflowStep, error)
	DebriefFeedback(ctx context.Context, projectID uuid.UUID, feedback string, regenerate bool, sink workflow.Sink) (*workflow.FeedbackResult, error)

	GenerateArticle(ctx context.Context, sessionID uuid.UUID, opts workflow.GenerateOptions, sink workflow.Sink) (*types.Article, error)
	GenerateVideo(ctx context.Context, sessionID uuid.UUID, opts workflow.GenerateOptions, sink workflow.Sink) (*types.VideoScript, error)
	GenerateQuiz(ctx context.Context, sessionID uuid.UUID, opts workflow.GenerateOptions, sink workflow.Sink) (*types.Quiz, error)
	Batch(ctx context.Context, chapterID uuid.UUID, kind workflow.ContentKind, sink workflow.Sink) (*workflow.BatchResult, error)
	ApproveArticle(ctx context.Context, id uuid.UUID) (*types.Article, error)
	ApproveVideo(ctx context.Context, id uuid.UUID) (*types.VideoScript, error)
	ApproveQuiz(ctx context.Context, id uuid.UUID) (*types.Quiz, error)
}

type WorkflowHandlerDeps struct {
	Log          *logger.Logger
	Orchestrator Orchestrator
	Structure    services.StructureService
	// Emitter mirrors stream events onto the project channel. Optional.
	Emitter realtime.Emitter
}

type WorkflowHandler struct {
	log       *logger.Logger
	orch      Orchestrator
	structure services.StructureService
	emitter   realtime.Emitter
}

func NewWorkflowHandlerWithDeps(deps WorkflowHandlerDeps) *WorkflowHandler {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	return &WorkflowHandler{
		log:       log.With("handler", "WorkflowHandler"),
		orch:      deps.Orchestrator,
		structure: deps.Structure,
		emitter:   deps.Emitter,
	}
}

func (h *WorkflowHandler) broadcast(projectID uuid.UUID) workflow.Sink {
	return workflow.Broadcast(h.emitter, projectID)
}

// POST /api/projects/:id/design?variant=full|optimized
func (h *WorkflowHandler) Design(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	v, err := workflow.ParseVariant(c.Query("variant"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	stream(c, h.log, func(ctx context.Context, sink workflow.Sink) (any, error) {
		return h.orch.Design(ctx, id, v, sink)
	}, h.broadcast(id))
}

// POST /api/projects/:id/matrix?variant=full|optimized
func (h *WorkflowHandler) Matrix(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	v, err := workflow.ParseVariant(c.Query("variant"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	stream(c, h.log, func(ctx context.Context, sink workflow.Sink) (any, error) {
		return h.orch.Matrix(ctx, id, v, sink)
	}, h.broadcast(id))
}

// POST /api/projects/:id/matrix/approve
func (h *WorkflowHandler) ApproveMatrix(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	m, err := h.orch.ApproveMatrix(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"matrix": m})
}

// GET /api/projects/:id/debrief
func (h *WorkflowHandler) Debrief(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	view, err := h.orch.Debrief(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, view)
}

type approveDebriefRequest struct {
	Alternative *int `json:"alternative"`
}

// POST /api/projects/:id/debrief/approve
func (h *WorkflowHandler) ApproveDebrief(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req approveDebriefRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	step, err := h.orch.ApproveDebrief(c.Request.Context(), id, req.Alternative)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"step": step})
}

type debriefFeedbackRequest struct {
	Feedback   string `json:"feedback"`
	Regenerate bool   `json:"regenerate"`
}

// POST /api/projects/:id/debrief/feedback
func (h *WorkflowHandler) DebriefFeedback(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req debriefFeedbackRequest
	if !bindJSON(c, &req) {
		return
	}
	stream(c, h.log, func(ctx context.Context, sink workflow.Sink) (any, error) {
		return h.orch.DebriefFeedback(ctx, id, req.Feedback, req.Regenerate, sink)
	}, h.broadcast(id))
}

type generateRequest struct {
	Feedback string `json:"feedback"`
}

// POST /api/sessions/:id/article
func (h *WorkflowHandler) GenerateArticle(c *gin.Context) {
	h.generate(c, workflow.KindArticles)
}

// POST /api/sessions/:id/video
func (h *WorkflowHandler) GenerateVideo(c *gin.Context) {
	h.generate(c, workflow.KindVideos)
}

// POST /api/sessions/:id/quiz
func (h *WorkflowHandler) GenerateQuiz(c *gin.Context) {
	h.generate(c, workflow.KindQuizzes)
}

func (h *WorkflowHandler) generate(c *gin.Context, kind workflow.ContentKind) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req generateRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	session, err := h.structure.Session(reqDB(c), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	opts := workflow.GenerateOptions{Feedback: req.Feedback}
	stream(c, h.log, func(ctx context.Context, sink workflow.Sink) (any, error) {
		switch kind {
		case workflow.KindVideos:
			return h.orch.GenerateVideo(ctx, id, opts, sink)
		case workflow.KindQuizzes:
			return h.orch.GenerateQuiz(ctx, id, opts, sink)
		default:
			return h.orch.GenerateArticle(ctx, id, opts, sink)
		}
	}, h.broadcast(session.ProjectID))
}

// POST /api/chapters/:id/batch/:kind
func (h *WorkflowHandler) Batch(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	kind, err := workflow.ParseContentKind(c.Param("kind"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	chapter, err := h.structure.Chapter(reqDB(c), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	stream(c, h.log, func(ctx context.Context, sink workflow.Sink) (any, error) {
		return h.orch.Batch(ctx, id, kind, sink)
	}, h.broadcast(chapter.ProjectID))
}

// POST /api/articles/:id/approve
func (h *WorkflowHandler) ApproveArticle(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	a, err := h.orch.ApproveArticle(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"article": a})
}

// POST /api/videos/:id/approve
func (h *WorkflowHandler) ApproveVideo(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	v, err := h.orch.ApproveVideo(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"video": v})
}

// POST /api/quizzes/:id/approve
func (h *WorkflowHandler) ApproveQuiz(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	q, err := h.orch.ApproveQuiz(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"quiz": q})
}
