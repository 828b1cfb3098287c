package training

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/trainforge-backend/internal/domain/training"
	"github.com/yungbote/trainforge-backend/internal/platform/apierr"
	"github.com/yungbote/trainforge-backend/internal/platform/dbctx"
	"github.com/yungbote/trainforge-backend/internal/platform/logger"
)

// StepOutcome carries what a finished agent call produced.
type StepOutcome struct {
	Result       string
	Model        string
	InputTokens  int
	OutputTokens int
}

// WorkflowStepRepo is append-only: rows are created and their status is advanced, never deleted.
type WorkflowStepRepo interface {
	Create(dbc dbctx.Context, s *types.WorkflowStep) (*types.WorkflowStep, error)
	Complete(dbc dbctx.Context, id uuid.UUID, out StepOutcome) error
	Fail(dbc dbctx.Context, id uuid.UUID, cause error) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.WorkflowStep, error)
	// Latest returns the newest completed step with the name, or nil.
	Latest(dbc dbctx.Context, projectID uuid.UUID, stepName string) (*types.WorkflowStep, error)
	LatestForSession(dbc dbctx.Context, sessionID uuid.UUID, stepName string) (*types.WorkflowStep, error)
	ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.WorkflowStep, error)
	CountByName(dbc dbctx.Context, projectID uuid.UUID, stepName string) (int64, error)
}

type workflowStepRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWorkflowStepRepo(db *gorm.DB, baseLog *logger.Logger) WorkflowStepRepo {
	return &workflowStepRepo{db: db, log: baseLog.With("repo", "WorkflowStepRepo")}
}

func (r *workflowStepRepo) Create(dbc dbctx.Context, s *types.WorkflowStep) (*types.WorkflowStep, error) {
	if s.StartedAt == nil && s.Status == types.StepRunning {
		now := time.Now().UTC()
		s.StartedAt = &now
	}
	if err := dbc.DB(r.db).Create(s).Error; err != nil {
		return nil, err
	}
	return s, nil
}

func (r *workflowStepRepo) Complete(dbc dbctx.Context, id uuid.UUID, out StepOutcome) error {
	now := time.Now().UTC()
	return r.update(dbc, id, map[string]interface{}{
		"status":        types.StepCompleted,
		"result":        out.Result,
		"model":         out.Model,
		"input_tokens":  out.InputTokens,
		"output_tokens": out.OutputTokens,
		"completed_at":  now,
	})
}

func (r *workflowStepRepo) Fail(dbc dbctx.Context, id uuid.UUID, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	now := time.Now().UTC()
	return r.update(dbc, id, map[string]interface{}{
		"status":       types.StepFailed,
		"error":        msg,
		"completed_at": now,
	})
}

func (r *workflowStepRepo) update(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	res := dbc.DB(r.db).Model(&types.WorkflowStep{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apierr.NotFound("step_not_found", "workflow step %s not found", id)
	}
	return nil
}

func (r *workflowStepRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.WorkflowStep, error) {
	var s types.WorkflowStep
	err := dbc.DB(r.db).Where("id = ?", id).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierr.NotFound("step_not_found", "workflow step %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *workflowStepRepo) Latest(dbc dbctx.Context, projectID uuid.UUID, stepName string) (*types.WorkflowStep, error) {
	return r.latest(dbc.DB(r.db).Where("project_id = ?", projectID), stepName)
}

func (r *workflowStepRepo) LatestForSession(dbc dbctx.Context, sessionID uuid.UUID, stepName string) (*types.WorkflowStep, error) {
	return r.latest(dbc.DB(r.db).Where("session_id = ?", sessionID), stepName)
}

func (r *workflowStepRepo) latest(q *gorm.DB, stepName string) (*types.WorkflowStep, error) {
	var s types.WorkflowStep
	err := q.
		Where("step_name = ? AND status = ?", stepName, types.StepCompleted).
		Order("created_at DESC").
		Order("id DESC").
		Limit(1).
		Find(&s).Error
	if err != nil {
		return nil, err
	}
	if s.ID == uuid.Nil {
		return nil, nil
	}
	return &s, nil
}

func (r *workflowStepRepo) ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.WorkflowStep, error) {
	var out []*types.WorkflowStep
	if err := dbc.DB(r.db).
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *workflowStepRepo) CountByName(dbc dbctx.Context, projectID uuid.UUID, stepName string) (int64, error) {
	var n int64
	err := dbc.DB(r.db).Model(&types.WorkflowStep{}).
		Where("project_id = ? AND step_name = ?", projectID, stepName).
		Count(&n).Error
	return n, err
}
