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

type SourceMaterialRepo interface {
	Create(dbc dbctx.Context, s *types.SourceMaterial) (*types.SourceMaterial, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.SourceMaterial, error)
	ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.SourceMaterial, error)
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type sourceMaterialRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSourceMaterialRepo(db *gorm.DB, baseLog *logger.Logger) SourceMaterialRepo {
	return &sourceMaterialRepo{db: db, log: baseLog.With("repo", "SourceMaterialRepo")}
}

func (r *sourceMaterialRepo) Create(dbc dbctx.Context, s *types.SourceMaterial) (*types.SourceMaterial, error) {
	if err := dbc.DB(r.db).Create(s).Error; err != nil {
		return nil, err
	}
	return s, nil
}

func (r *sourceMaterialRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.SourceMaterial, error) {
	var s types.SourceMaterial
	err := dbc.DB(r.db).Where("id = ?", id).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierr.NotFound("source_not_found", "source material %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sourceMaterialRepo) ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.SourceMaterial, error) {
	var out []*types.SourceMaterial
	if err := dbc.DB(r.db).
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sourceMaterialRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	res := dbc.DB(r.db).Where("id = ?", id).Delete(&types.SourceMaterial{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apierr.NotFound("source_not_found", "source material %s not found", id)
	}
	return nil
}
