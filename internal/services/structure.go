package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/trainforge-backend/internal/data/repos"
	types "github.com/yungbote/trainforge-backend/internal/domain/training"
	"github.com/yungbote/trainforge-backend/internal/platform/apierr"
	"github.com/yungbote/trainforge-backend/internal/platform/dbctx"
	"github.com/yungbote/trainforge-backend/internal/platform/logger"
)

type ChapterPatch struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

type SessionPatch struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Objectives  *string `json:"objectives"`
}

// StructureService reads and edits the chapters, sessions and matrix a design produced,
// and exposes the step log.
type StructureService interface {
	Chapters(dbc dbctx.Context, projectID uuid.UUID) ([]*types.Chapter, error)
	Chapter(dbc dbctx.Context, id uuid.UUID) (*types.Chapter, error)
	UpdateChapter(dbc dbctx.Context, id uuid.UUID, patch ChapterPatch) (*types.Chapter, error)
	Session(dbc dbctx.Context, id uuid.UUID) (*types.Session, error)
	UpdateSession(dbc dbctx.Context, id uuid.UUID, patch SessionPatch) (*types.Session, error)
	Matrix(dbc dbctx.Context, projectID uuid.UUID) (*types.ProgramMatrix, error)
	Steps(dbc dbctx.Context, projectID uuid.UUID) ([]*types.WorkflowStep, error)
}

type structureService struct {
	log      *logger.Logger
	projects repos.ProjectRepo
	chapters repos.ChapterRepo
	sessions repos.SessionRepo
	matrices repos.ProgramMatrixRepo
	steps    repos.WorkflowStepRepo
}

func NewStructureService(baseLog *logger.Logger, set repos.Set) StructureService {
	return &structureService{
		log:      baseLog.With("service", "StructureService"),
		projects: set.Project,
		chapters: set.Chapter,
		sessions: set.Session,
		matrices: set.ProgramMatrix,
		steps:    set.WorkflowStep,
	}
}

func (s *structureService) Chapters(dbc dbctx.Context, projectID uuid.UUID) ([]*types.Chapter, error) {
	if _, err := s.projects.GetByID(dbc, projectID); err != nil {
		return nil, err
	}
	return s.chapters.ListByProject(dbc, projectID)
}

func (s *structureService) Chapter(dbc dbctx.Context, id uuid.UUID) (*types.Chapter, error) {
	return s.chapters.GetByID(dbc, id)
}

func (s *structureService) UpdateChapter(dbc dbctx.Context, id uuid.UUID, patch ChapterPatch) (*types.Chapter, error) {
	updates := map[string]interface{}{}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, apierr.Validation("missing_title", fmt.Errorf("title cannot be empty"))
		}
		updates["title"] = title
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if err := s.chapters.UpdateFields(dbc, id, updates); err != nil {
		return nil, err
	}
	return s.chapters.GetByID(dbc, id)
}

func (s *structureService) Session(dbc dbctx.Context, id uuid.UUID) (*types.Session, error) {
	return s.sessions.GetByID(dbc, id)
}

func (s *structureService) UpdateSession(dbc dbctx.Context, id uuid.UUID, patch SessionPatch) (*types.Session, error) {
	updates := map[string]interface{}{}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, apierr.Validation("missing_title", fmt.Errorf("title cannot be empty"))
		}
		updates["title"] = title
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.Objectives != nil {
		updates["objectives"] = *patch.Objectives
	}
	if err := s.sessions.UpdateFields(dbc, id, updates); err != nil {
		return nil, err
	}
	return s.sessions.GetByID(dbc, id)
}

func (s *structureService) Matrix(dbc dbctx.Context, projectID uuid.UUID) (*types.ProgramMatrix, error) {
	return s.matrices.GetByProject(dbc, projectID)
}

func (s *structureService) Steps(dbc dbctx.Context, projectID uuid.UUID) ([]*types.WorkflowStep, error) {
	if _, err := s.projects.GetByID(dbc, projectID); err != nil {
		return nil, err
	}
	return s.steps.ListByProject(dbc, projectID)
}
