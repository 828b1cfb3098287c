package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/trainforge-backend/internal/data/repos"
	types "github.com/yungbote/trainforge-backend/internal/domain/training"
	"github.com/yungbote/trainforge-backend/internal/platform/apierr"
	"github.com/yungbote/trainforge-backend/internal/platform/dbctx"
	"github.com/yungbote/trainforge-backend/internal/platform/logger"
)

const maxQuizQuestions = 50

type ProjectInput struct {
	Name              string         `json:"name"`
	Language          string         `json:"language"`
	Objectives        string         `json:"objectives"`
	Audience          string         `json:"audience"`
	Outcomes          string         `json:"outcomes"`
	Constraints       string         `json:"constraints"`
	Angle             string         `json:"angle"`
	Deliverables      string         `json:"deliverables"`
	StrictFidelity    bool           `json:"strict_fidelity"`
	QuizQuestionCount int            `json:"quiz_question_count"`
	CompanyContext    datatypes.JSON `json:"company_context"`
}

// ProjectPatch updates only the fields that are set. Status is owned by the workflow.
type ProjectPatch struct {
	Name              *string         `json:"name"`
	Language          *string         `json:"language"`
	Objectives        *string         `json:"objectives"`
	Audience          *string         `json:"audience"`
	Outcomes          *string         `json:"outcomes"`
	Constraints       *string         `json:"constraints"`
	Angle             *string         `json:"angle"`
	Deliverables      *string         `json:"deliverables"`
	StrictFidelity    *bool           `json:"strict_fidelity"`
	QuizQuestionCount *int            `json:"quiz_question_count"`
	CompanyContext    *datatypes.JSON `json:"company_context"`
}

type ProjectService interface {
	Create(dbc dbctx.Context, in ProjectInput) (*types.Project, error)
	Get(dbc dbctx.Context, id uuid.UUID) (*types.Project, error)
	List(dbc dbctx.Context) ([]*types.Project, error)
	Update(dbc dbctx.Context, id uuid.UUID, patch ProjectPatch) (*types.Project, error)
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type projectService struct {
	db       *gorm.DB
	log      *logger.Logger
	projects repos.ProjectRepo
}

func NewProjectService(db *gorm.DB, baseLog *logger.Logger, projects repos.ProjectRepo) ProjectService {
	return &projectService{db: db, log: baseLog.With("service", "ProjectService"), projects: projects}
}

func (s *projectService) Create(dbc dbctx.Context, in ProjectInput) (*types.Project, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apierr.Validation("missing_name", fmt.Errorf("name is required"))
	}
	deliverables, err := normalizeDeliverables(in.Deliverables)
	if err != nil {
		return nil, err
	}
	if err := checkQuizCount(in.QuizQuestionCount, true); err != nil {
		return nil, err
	}
	p, err := s.projects.Create(dbc, &types.Project{
		Name:              name,
		Language:          strings.TrimSpace(in.Language),
		Objectives:        in.Objectives,
		Audience:          in.Audience,
		Outcomes:          in.Outcomes,
		Constraints:       in.Constraints,
		Angle:             in.Angle,
		Deliverables:      deliverables,
		StrictFidelity:    in.StrictFidelity,
		QuizQuestionCount: in.QuizQuestionCount,
		CompanyContext:    in.CompanyContext,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Project created", "project_id", p.ID, "deliverables", p.Deliverables)
	return p, nil
}

func (s *projectService) Get(dbc dbctx.Context, id uuid.UUID) (*types.Project, error) {
	return s.projects.GetByID(dbc, id)
}

func (s *projectService) List(dbc dbctx.Context) ([]*types.Project, error) {
	return s.projects.List(dbc)
}

func (s *projectService) Update(dbc dbctx.Context, id uuid.UUID, patch ProjectPatch) (*types.Project, error) {
	updates := map[string]interface{}{}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, apierr.Validation("missing_name", fmt.Errorf("name cannot be empty"))
		}
		updates["name"] = name
	}
	setText := func(col string, v *string) {
		if v != nil {
			updates[col] = *v
		}
	}
	setText("language", patch.Language)
	setText("objectives", patch.Objectives)
	setText("audience", patch.Audience)
	setText("outcomes", patch.Outcomes)
	setText("constraints", patch.Constraints)
	setText("angle", patch.Angle)
	if patch.Deliverables != nil {
		d, err := normalizeDeliverables(*patch.Deliverables)
		if err != nil {
			return nil, err
		}
		updates["deliverables"] = d
	}
	if patch.StrictFidelity != nil {
		updates["strict_fidelity"] = *patch.StrictFidelity
	}
	if patch.QuizQuestionCount != nil {
		if err := checkQuizCount(*patch.QuizQuestionCount, false); err != nil {
			return nil, err
		}
		updates["quiz_question_count"] = *patch.QuizQuestionCount
	}
	if patch.CompanyContext != nil {
		updates["company_context"] = *patch.CompanyContext
	}
	if err := s.projects.UpdateFields(dbc, id, updates); err != nil {
		return nil, err
	}
	return s.projects.GetByID(dbc, id)
}

func (s *projectService) Delete(dbc dbctx.Context, id uuid.UUID) error {
	if err := s.projects.Delete(dbc, id); err != nil {
		return err
	}
	s.log.Info("Project deleted", "project_id", id)
	return nil
}

// normalizeDeliverables rejects unknown kinds; empty means every kind.
func normalizeDeliverables(raw string) (string, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" || raw == types.DeliverableAll {
		return types.DeliverableAll, nil
	}
	var kinds []string
	seen := map[string]bool{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		switch part {
		case "":
			continue
		case types.DeliverableAll:
			return types.DeliverableAll, nil
		case types.DeliverableArticles, types.DeliverableVideos, types.DeliverableQuizzes:
		default:
			return "", apierr.Validation("invalid_deliverables", fmt.Errorf("unknown deliverable %q", part))
		}
		if !seen[part] {
			seen[part] = true
			kinds = append(kinds, part)
		}
	}
	if len(kinds) == 0 {
		return types.DeliverableAll, nil
	}
	return strings.Join(kinds, ","), nil
}

func checkQuizCount(n int, allowZero bool) error {
	if (n == 0 && allowZero) || (n >= 1 && n <= maxQuizQuestions) {
		return nil
	}
	return apierr.Validation("invalid_quiz_question_count", fmt.Errorf("quiz_question_count must be between 1 and %d", maxQuizQuestions))
}
