package training

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/trainforge-backend/internal/domain/training"
	"github.com/yungbote/trainforge-backend/internal/platform/apierr"
	"github.com/yungbote/trainforge-backend/internal/platform/dbctx"
	"github.com/yungbote/trainforge-backend/internal/platform/logger"
)

type ProjectRepo interface {
	Create(dbc dbctx.Context, p *types.Project) (*types.Project, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Project, error)
	List(dbc dbctx.Context) ([]*types.Project, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	SetStatus(dbc dbctx.Context, id uuid.UUID, status types.ProjectStatus) error
	// Delete removes the project and every row that belongs to it.
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type projectRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProjectRepo(db *gorm.DB, baseLog *logger.Logger) ProjectRepo {
	return &projectRepo{db: db, log: baseLog.With("repo", "ProjectRepo")}
}

func (r *projectRepo) Create(dbc dbctx.Context, p *types.Project) (*types.Project, error) {
	if err := dbc.DB(r.db).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

func (r *projectRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Project, error) {
	var p types.Project
	err := dbc.DB(r.db).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierr.NotFound("project_not_found", "project %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *projectRepo) List(dbc dbctx.Context) ([]*types.Project, error) {
	var out []*types.Project
	if err := dbc.DB(r.db).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *projectRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	res := dbc.DB(r.db).Model(&types.Project{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apierr.NotFound("project_not_found", "project %s not found", id)
	}
	return nil
}

func (r *projectRepo) SetStatus(dbc dbctx.Context, id uuid.UUID, status types.ProjectStatus) error {
	return r.UpdateFields(dbc, id, map[string]interface{}{"status": status})
}

func (r *projectRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	run := func(tx *gorm.DB) error {
		quizIDs := tx.Model(&types.Quiz{}).Select("id").Where("project_id = ?", id)
		if err := tx.Where("quiz_id IN (?)", quizIDs).Delete(&types.Question{}).Error; err != nil {
			return err
		}
		for _, model := range []interface{}{
			&types.Quiz{},
			&types.VideoScript{},
			&types.Article{},
			&types.Session{},
			&types.Chapter{},
			&types.ProgramMatrix{},
			&types.WorkflowStep{},
			&types.SourceMaterial{},
		} {
			if err := tx.Where("project_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		res := tx.Where("id = ?", id).Delete(&types.Project{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apierr.NotFound("project_not_found", "project %s not found", id)
		}
		return nil
	}
	return inTx(dbc, r.db, run)
}
