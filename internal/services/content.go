package services

import (
	"github.com/google/uuid"

	"github.com/yungbote/trainforge-backend/internal/data/repos"
	types "github.com/yungbote/trainforge-backend/internal/domain/training"
	"github.com/yungbote/trainforge-backend/internal/platform/dbctx"
	"github.com/yungbote/trainforge-backend/internal/platform/logger"
)

type ArticlePatch struct {
	Content  *string `json:"content"`
	Feedback *string `json:"feedback"`
}

// ContentService serves generated content. Generation itself lives in the workflow orchestrator.
type ContentService interface {
	ArticleForSession(dbc dbctx.Context, sessionID uuid.UUID) (*types.Article, error)
	UpdateArticle(dbc dbctx.Context, id uuid.UUID, patch ArticlePatch) (*types.Article, error)
	VideoForSession(dbc dbctx.Context, sessionID uuid.UUID) (*types.VideoScript, error)
	QuizForSession(dbc dbctx.Context, sessionID uuid.UUID) (*types.Quiz, error)
}

type contentService struct {
	log      *logger.Logger
	articles repos.ArticleRepo
	videos   repos.VideoScriptRepo
	quizzes  repos.QuizRepo
}

func NewContentService(baseLog *logger.Logger, set repos.Set) ContentService {
	return &contentService{
		log:      baseLog.With("service", "ContentService"),
		articles: set.Article,
		videos:   set.VideoScript,
		quizzes:  set.Quiz,
	}
}

func (s *contentService) ArticleForSession(dbc dbctx.Context, sessionID uuid.UUID) (*types.Article, error) {
	return s.articles.GetBySession(dbc, sessionID)
}

// UpdateArticle applies manual edits; the word count follows the new content.
func (s *contentService) UpdateArticle(dbc dbctx.Context, id uuid.UUID, patch ArticlePatch) (*types.Article, error) {
	updates := map[string]interface{}{}
	if patch.Content != nil {
		updates["content"] = *patch.Content
		updates["word_count"] = types.WordCount(*patch.Content)
	}
	if patch.Feedback != nil {
		updates["feedback"] = *patch.Feedback
	}
	if err := s.articles.UpdateFields(dbc, id, updates); err != nil {
		return nil, err
	}
	return s.articles.GetByID(dbc, id)
}

func (s *contentService) VideoForSession(dbc dbctx.Context, sessionID uuid.UUID) (*types.VideoScript, error) {
	return s.videos.GetBySession(dbc, sessionID)
}

func (s *contentService) QuizForSession(dbc dbctx.Context, sessionID uuid.UUID) (*types.Quiz, error) {
	return s.quizzes.GetBySession(dbc, sessionID)
}
