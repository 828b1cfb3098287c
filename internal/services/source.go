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

type SourceInput struct {
	Title    string `json:"title"`
	Filename string `json:"filename"`
	Content  string `json:"content"`
	Fidelity string `json:"fidelity"`
}

type SourceService interface {
	Create(dbc dbctx.Context, projectID uuid.UUID, in SourceInput) (*types.SourceMaterial, error)
	List(dbc dbctx.Context, projectID uuid.UUID) ([]*types.SourceMaterial, error)
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type sourceService struct {
	log      *logger.Logger
	projects repos.ProjectRepo
	sources  repos.SourceMaterialRepo
}

func NewSourceService(baseLog *logger.Logger, projects repos.ProjectRepo, sources repos.SourceMaterialRepo) SourceService {
	return &sourceService{log: baseLog.With("service", "SourceService"), projects: projects, sources: sources}
}

func (s *sourceService) Create(dbc dbctx.Context, projectID uuid.UUID, in SourceInput) (*types.SourceMaterial, error) {
	if _, err := s.projects.GetByID(dbc, projectID); err != nil {
		return nil, err
	}
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, apierr.Validation("missing_content", fmt.Errorf("source content is required"))
	}
	fidelity := strings.ToLower(strings.TrimSpace(in.Fidelity))
	switch fidelity {
	case "":
		fidelity = types.FidelityContext
	case types.FidelityStrict, types.FidelityContext:
	default:
		return nil, apierr.Validation("invalid_fidelity", fmt.Errorf("fidelity must be %q or %q", types.FidelityStrict, types.FidelityContext))
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = strings.TrimSpace(in.Filename)
	}
	if title == "" {
		title = "Untitled source"
	}
	sm, err := s.sources.Create(dbc, &types.SourceMaterial{
		ProjectID: projectID,
		Title:     title,
		Filename:  strings.TrimSpace(in.Filename),
		Content:   content,
		Fidelity:  fidelity,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Source material added", "project_id", projectID, "source_id", sm.ID, "fidelity", sm.Fidelity, "chars", len(content))
	return sm, nil
}

func (s *sourceService) List(dbc dbctx.Context, projectID uuid.UUID) ([]*types.SourceMaterial, error) {
	return s.sources.ListByProject(dbc, projectID)
}

func (s *sourceService) Delete(dbc dbctx.Context, id uuid.UUID) error {
	return s.sources.Delete(dbc, id)
}
