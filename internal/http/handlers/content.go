package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/trainforge-backend/internal/http/response"
	"github.com/yungbote/trainforge-backend/internal/platform/logger"
	"github.com/yungbote/trainforge-backend/internal/services"
)

type ContentHandlerDeps struct {
	Log     *logger.Logger
	Content services.ContentService
}

type ContentHandler struct {
	log     *logger.Logger
	content services.ContentService
}

func NewContentHandlerWithDeps(deps ContentHandlerDeps) *ContentHandler {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	return &ContentHandler{log: log.With("handler", "ContentHandler"), content: deps.Content}
}

// GET /api/sessions/:id/article
func (h *ContentHandler) Article(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	a, err := h.content.ArticleForSession(reqDB(c), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"article": a})
}

// PATCH /api/articles/:id
func (h *ContentHandler) UpdateArticle(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var patch services.ArticlePatch
	if !bindJSON(c, &patch) {
		return
	}
	a, err := h.content.UpdateArticle(reqDB(c), id, patch)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"article": a})
}

// GET /api/sessions/:id/video
func (h *ContentHandler) Video(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	v, err := h.content.VideoForSession(reqDB(c), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"video": v})
}

// GET /api/sessions/:id/quiz
func (h *ContentHandler) Quiz(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	q, err := h.content.QuizForSession(reqDB(c), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"quiz": q})
}
