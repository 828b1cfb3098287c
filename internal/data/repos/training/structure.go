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

type ChapterRepo interface {
	// ListByProject returns chapters ordered by number with their sessions ordered by number.
	ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.Chapter, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Chapter, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	// ReplaceStructure drops the project's chapters, sessions and generated content and
	// inserts chapters (with Sessions populated) in one transaction.
	ReplaceStructure(dbc dbctx.Context, projectID uuid.UUID, chapters []*types.Chapter) ([]*types.Chapter, error)
}

type chapterRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChapterRepo(db *gorm.DB, baseLog *logger.Logger) ChapterRepo {
	return &chapterRepo{db: db, log: baseLog.With("repo", "ChapterRepo")}
}

func orderedSessions(db *gorm.DB) *gorm.DB { return db.Order("number ASC") }

func (r *chapterRepo) ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.Chapter, error) {
	var out []*types.Chapter
	if err := dbc.DB(r.db).
		Preload("Sessions", orderedSessions).
		Where("project_id = ?", projectID).
		Order("number ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *chapterRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Chapter, error) {
	var c types.Chapter
	err := dbc.DB(r.db).Preload("Sessions", orderedSessions).Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierr.NotFound("chapter_not_found", "chapter %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *chapterRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	res := dbc.DB(r.db).Model(&types.Chapter{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apierr.NotFound("chapter_not_found", "chapter %s not found", id)
	}
	return nil
}

func (r *chapterRepo) ReplaceStructure(dbc dbctx.Context, projectID uuid.UUID, chapters []*types.Chapter) ([]*types.Chapter, error) {
	run := func(tx *gorm.DB) error {
		quizIDs := tx.Model(&types.Quiz{}).Select("id").Where("project_id = ?", projectID)
		if err := tx.Where("quiz_id IN (?)", quizIDs).Delete(&types.Question{}).Error; err != nil {
			return err
		}
		for _, model := range []interface{}{&types.Quiz{}, &types.VideoScript{}, &types.Article{}, &types.Session{}, &types.Chapter{}} {
			if err := tx.Where("project_id = ?", projectID).Delete(model).Error; err != nil {
				return err
			}
		}
		for _, ch := range chapters {
			sessions := ch.Sessions
			ch.Sessions = nil
			ch.ID = uuid.Nil
			ch.ProjectID = projectID
			if err := tx.Create(ch).Error; err != nil {
				return err
			}
			for i := range sessions {
				sessions[i].ID = uuid.Nil
				sessions[i].ChapterID = ch.ID
				sessions[i].ProjectID = projectID
			}
			if len(sessions) > 0 {
				if err := tx.Create(&sessions).Error; err != nil {
					return err
				}
			}
			ch.Sessions = sessions
		}
		return nil
	}
	if err := inTx(dbc, r.db, run); err != nil {
		return nil, err
	}
	return chapters, nil
}

type SessionRepo interface {
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Session, error)
	ListByChapter(dbc dbctx.Context, chapterID uuid.UUID) ([]*types.Session, error)
	ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.Session, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type sessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSessionRepo(db *gorm.DB, baseLog *logger.Logger) SessionRepo {
	return &sessionRepo{db: db, log: baseLog.With("repo", "SessionRepo")}
}

func (r *sessionRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Session, error) {
	var s types.Session
	err := dbc.DB(r.db).Where("id = ?", id).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierr.NotFound("session_not_found", "session %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) ListByChapter(dbc dbctx.Context, chapterID uuid.UUID) ([]*types.Session, error) {
	var out []*types.Session
	if err := dbc.DB(r.db).Where("chapter_id = ?", chapterID).Order("number ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sessionRepo) ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.Session, error) {
	var out []*types.Session
	if err := dbc.DB(r.db).
		Joins("JOIN chapter ON chapter.id = session.chapter_id").
		Where("session.project_id = ?", projectID).
		Order("chapter.number ASC").
		Order("session.number ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sessionRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	res := dbc.DB(r.db).Model(&types.Session{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apierr.NotFound("session_not_found", "session %s not found", id)
	}
	return nil
}

type ProgramMatrixRepo interface {
	// Upsert replaces the project's matrix record; approval is reset.
	Upsert(dbc dbctx.Context, m *types.ProgramMatrix) (*types.ProgramMatrix, error)
	GetByProject(dbc dbctx.Context, projectID uuid.UUID) (*types.ProgramMatrix, error)
	MarkApproved(dbc dbctx.Context, projectID uuid.UUID) error
}

type programMatrixRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProgramMatrixRepo(db *gorm.DB, baseLog *logger.Logger) ProgramMatrixRepo {
	return &programMatrixRepo{db: db, log: baseLog.With("repo", "ProgramMatrixRepo")}
}

func (r *programMatrixRepo) Upsert(dbc dbctx.Context, m *types.ProgramMatrix) (*types.ProgramMatrix, error) {
	run := func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", m.ProjectID).Delete(&types.ProgramMatrix{}).Error; err != nil {
			return err
		}
		m.ID = uuid.Nil
		m.Approved = false
		m.ApprovedAt = nil
		return tx.Create(m).Error
	}
	if err := inTx(dbc, r.db, run); err != nil {
		return nil, err
	}
	return m, nil
}

func (r *programMatrixRepo) GetByProject(dbc dbctx.Context, projectID uuid.UUID) (*types.ProgramMatrix, error) {
	var m types.ProgramMatrix
	err := dbc.DB(r.db).Where("project_id = ?", projectID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierr.NotFound("matrix_not_found", "project %s has no matrix yet", projectID)
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *programMatrixRepo) MarkApproved(dbc dbctx.Context, projectID uuid.UUID) error {
	res := dbc.DB(r.db).Model(&types.ProgramMatrix{}).
		Where("project_id = ?", projectID).
		Updates(map[string]interface{}{"approved": true, "approved_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apierr.NotFound("matrix_not_found", "project %s has no matrix yet", projectID)
	}
	return nil
}
