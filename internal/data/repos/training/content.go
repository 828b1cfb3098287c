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

func inTx(dbc dbctx.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if dbc.Tx != nil {
		return fn(dbc.DB(db))
	}
	return dbc.DB(db).Transaction(fn)
}

type ArticleRepo interface {
	// Replace supersedes any article of the same session.
	Replace(dbc dbctx.Context, a *types.Article) (*types.Article, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Article, error)
	GetBySession(dbc dbctx.Context, sessionID uuid.UUID) (*types.Article, error)
	ListBySessions(dbc dbctx.Context, sessionIDs []uuid.UUID) ([]*types.Article, error)
	ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.Article, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type articleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewArticleRepo(db *gorm.DB, baseLog *logger.Logger) ArticleRepo {
	return &articleRepo{db: db, log: baseLog.With("repo", "ArticleRepo")}
}

func (r *articleRepo) Replace(dbc dbctx.Context, a *types.Article) (*types.Article, error) {
	err := inTx(dbc, r.db, func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", a.SessionID).Delete(&types.Article{}).Error; err != nil {
			return err
		}
		a.ID = uuid.Nil
		return tx.Create(a).Error
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *articleRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Article, error) {
	var a types.Article
	err := dbc.DB(r.db).Where("id = ?", id).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierr.NotFound("article_not_found", "article %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *articleRepo) GetBySession(dbc dbctx.Context, sessionID uuid.UUID) (*types.Article, error) {
	var a types.Article
	err := dbc.DB(r.db).Where("session_id = ?", sessionID).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierr.NotFound("article_not_found", "session %s has no article", sessionID)
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *articleRepo) ListBySessions(dbc dbctx.Context, sessionIDs []uuid.UUID) ([]*types.Article, error) {
	var out []*types.Article
	if len(sessionIDs) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).Where("session_id IN ?", sessionIDs).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *articleRepo) ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.Article, error) {
	var out []*types.Article
	if err := dbc.DB(r.db).Where("project_id = ?", projectID).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *articleRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	res := dbc.DB(r.db).Model(&types.Article{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apierr.NotFound("article_not_found", "article %s not found", id)
	}
	return nil
}

type VideoScriptRepo interface {
	Replace(dbc dbctx.Context, v *types.VideoScript) (*types.VideoScript, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.VideoScript, error)
	GetBySession(dbc dbctx.Context, sessionID uuid.UUID) (*types.VideoScript, error)
	ListBySessions(dbc dbctx.Context, sessionIDs []uuid.UUID) ([]*types.VideoScript, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type videoScriptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVideoScriptRepo(db *gorm.DB, baseLog *logger.Logger) VideoScriptRepo {
	return &videoScriptRepo{db: db, log: baseLog.With("repo", "VideoScriptRepo")}
}

func (r *videoScriptRepo) Replace(dbc dbctx.Context, v *types.VideoScript) (*types.VideoScript, error) {
	err := inTx(dbc, r.db, func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", v.SessionID).Delete(&types.VideoScript{}).Error; err != nil {
			return err
		}
		v.ID = uuid.Nil
		return tx.Create(v).Error
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (r *videoScriptRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.VideoScript, error) {
	var v types.VideoScript
	err := dbc.DB(r.db).Where("id = ?", id).First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierr.NotFound("video_not_found", "video script %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *videoScriptRepo) GetBySession(dbc dbctx.Context, sessionID uuid.UUID) (*types.VideoScript, error) {
	var v types.VideoScript
	err := dbc.DB(r.db).Where("session_id = ?", sessionID).First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierr.NotFound("video_not_found", "session %s has no video script", sessionID)
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *videoScriptRepo) ListBySessions(dbc dbctx.Context, sessionIDs []uuid.UUID) ([]*types.VideoScript, error) {
	var out []*types.VideoScript
	if len(sessionIDs) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).Where("session_id IN ?", sessionIDs).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *videoScriptRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	res := dbc.DB(r.db).Model(&types.VideoScript{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apierr.NotFound("video_not_found", "video script %s not found", id)
	}
	return nil
}

type QuizRepo interface {
	// Replace supersedes the session's quiz and its questions.
	Replace(dbc dbctx.Context, q *types.Quiz) (*types.Quiz, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Quiz, error)
	GetBySession(dbc dbctx.Context, sessionID uuid.UUID) (*types.Quiz, error)
	ListBySessions(dbc dbctx.Context, sessionIDs []uuid.UUID) ([]*types.Quiz, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type quizRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuizRepo(db *gorm.DB, baseLog *logger.Logger) QuizRepo {
	return &quizRepo{db: db, log: baseLog.With("repo", "QuizRepo")}
}

func orderedQuestions(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }

func (r *quizRepo) Replace(dbc dbctx.Context, q *types.Quiz) (*types.Quiz, error) {
	err := inTx(dbc, r.db, func(tx *gorm.DB) error {
		old := tx.Model(&types.Quiz{}).Select("id").Where("session_id = ?", q.SessionID)
		if err := tx.Where("quiz_id IN (?)", old).Delete(&types.Question{}).Error; err != nil {
			return err
		}
		if err := tx.Where("session_id = ?", q.SessionID).Delete(&types.Quiz{}).Error; err != nil {
			return err
		}
		questions := q.Questions
		q.Questions = nil
		q.ID = uuid.Nil
		if err := tx.Create(q).Error; err != nil {
			return err
		}
		for i := range questions {
			questions[i].ID = uuid.Nil
			questions[i].QuizID = q.ID
			questions[i].Position = i + 1
		}
		if len(questions) > 0 {
			if err := tx.Create(&questions).Error; err != nil {
				return err
			}
		}
		q.Questions = questions
		return nil
	})
	if err != nil {
		return nil, err
	}
	return q, nil
}

func (r *quizRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Quiz, error) {
	var q types.Quiz
	err := dbc.DB(r.db).Preload("Questions", orderedQuestions).Where("id = ?", id).First(&q).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierr.NotFound("quiz_not_found", "quiz %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *quizRepo) GetBySession(dbc dbctx.Context, sessionID uuid.UUID) (*types.Quiz, error) {
	var q types.Quiz
	err := dbc.DB(r.db).Preload("Questions", orderedQuestions).Where("session_id = ?", sessionID).First(&q).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierr.NotFound("quiz_not_found", "session %s has no quiz", sessionID)
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *quizRepo) ListBySessions(dbc dbctx.Context, sessionIDs []uuid.UUID) ([]*types.Quiz, error) {
	var out []*types.Quiz
	if len(sessionIDs) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Preload("Questions", orderedQuestions).
		Where("session_id IN ?", sessionIDs).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *quizRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	res := dbc.DB(r.db).Model(&types.Quiz{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apierr.NotFound("quiz_not_found", "quiz %s not found", id)
	}
	return nil
}
