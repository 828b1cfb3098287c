package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/trainforge-backend/internal/export"
	"github.com/yungbote/trainforge-backend/internal/http/response"
	"github.com/yungbote/trainforge-backend/internal/platform/dbctx"
	"github.com/yungbote/trainforge-backend/internal/platform/logger"
	"github.com/yungbote/trainforge-backend/internal/services"
)

type Exporter interface {
	Export(dbc dbctx.Context, projectID uuid.UUID, f export.Format) (*export.Document, error)
}

type ProjectHandlerDeps struct {
	Log       *logger.Logger
	Projects  services.ProjectService
	Sources   services.SourceService
	Structure services.StructureService
	Exporter  Exporter
}

type ProjectHandler struct {
	log       *logger.Logger
	projects  services.ProjectService
	sources   services.SourceService
	structure services.StructureService
	exporter  Exporter
}

func NewProjectHandlerWithDeps(deps ProjectHandlerDeps) *ProjectHandler {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	return &ProjectHandler{
		log:       log.With("handler", "ProjectHandler"),
		projects:  deps.Projects,
		sources:   deps.Sources,
		structure: deps.Structure,
		exporter:  deps.Exporter,
	}
}

// GET /api/projects
func (h *ProjectHandler) List(c *gin.Context) {
	out, err := h.projects.List(reqDB(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"projects": out})
}

// POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var in services.ProjectInput
	if !bindJSON(c, &in) {
		return
	}
	p, err := h.projects.Create(reqDB(c), in)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"project": p})
}

// GET /api/projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	p, err := h.projects.Get(reqDB(c), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"project": p})
}

// PATCH /api/projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var patch services.ProjectPatch
	if !bindJSON(c, &patch) {
		return
	}
	p, err := h.projects.Update(reqDB(c), id, patch)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"project": p})
}

// DELETE /api/projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.projects.Delete(reqDB(c), id); err != nil {
		response.Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/projects/:id/sources
func (h *ProjectHandler) ListSources(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	out, err := h.sources.List(reqDB(c), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"sources": out})
}

// POST /api/projects/:id/sources
func (h *ProjectHandler) CreateSource(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in services.SourceInput
	if err := c.ShouldBindJSON(&in); err != nil {
		if isTooLarge(err) {
			response.RespondError(c, http.StatusRequestEntityTooLarge, "source_too_large", err)
			return
		}
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	s, err := h.sources.Create(reqDB(c), id, in)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"source": s})
}

// DELETE /api/sources/:id
func (h *ProjectHandler) DeleteSource(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.sources.Delete(reqDB(c), id); err != nil {
		response.Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/projects/:id/steps
func (h *ProjectHandler) Steps(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	out, err := h.structure.Steps(reqDB(c), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"steps": out})
}

// GET /api/projects/:id/export?format=md|html
func (h *ProjectHandler) Export(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	f, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	doc, err := h.exporter.Export(reqDB(c), id, f)
	if err != nil {
		response.Fail(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	c.Data(http.StatusOK, doc.ContentType, doc.Body)
}
