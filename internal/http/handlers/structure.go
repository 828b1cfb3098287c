package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/trainforge-backend/internal/http/response"
	"github.com/yungbote/trainforge-backend/internal/platform/logger"
	"github.com/yungbote/trainforge-backend/internal/services"
)

type StructureHandlerDeps struct {
	Log       *logger.Logger
	Structure services.StructureService
}

type StructureHandler struct {
	log       *logger.Logger
	structure services.StructureService
}

func NewStructureHandlerWithDeps(deps StructureHandlerDeps) *StructureHandler {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	return &StructureHandler{log: log.With("handler", "StructureHandler"), structure: deps.Structure}
}

// GET /api/projects/:id/chapters
func (h *StructureHandler) Chapters(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	out, err := h.structure.Chapters(reqDB(c), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"chapters": out})
}

// GET /api/projects/:id/matrix
func (h *StructureHandler) Matrix(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	m, err := h.structure.Matrix(reqDB(c), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"matrix": m})
}

// GET /api/chapters/:id
func (h *StructureHandler) Chapter(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	ch, err := h.structure.Chapter(reqDB(c), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"chapter": ch})
}

// PATCH /api/chapters/:id
func (h *StructureHandler) UpdateChapter(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var patch services.ChapterPatch
	if !bindJSON(c, &patch) {
		return
	}
	ch, err := h.structure.UpdateChapter(reqDB(c), id, patch)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"chapter": ch})
}

// GET /api/sessions/:id
func (h *StructureHandler) Session(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	s, err := h.structure.Session(reqDB(c), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"session": s})
}

// PATCH /api/sessions/:id
func (h *StructureHandler) UpdateSession(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var patch services.SessionPatch
	if !bindJSON(c, &patch) {
		return
	}
	s, err := h.structure.UpdateSession(reqDB(c), id, patch)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"session": s})
}
