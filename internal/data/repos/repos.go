package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/trainforge-backend/internal/data/repos/training"
	"github.com/yungbote/trainforge-backend/internal/platform/logger"
)

type ProjectRepo = training.ProjectRepo
type SourceMaterialRepo = training.SourceMaterialRepo
type WorkflowStepRepo = training.WorkflowStepRepo
type ChapterRepo = training.ChapterRepo
type SessionRepo = training.SessionRepo
type ProgramMatrixRepo = training.ProgramMatrixRepo
type ArticleRepo = training.ArticleRepo
type VideoScriptRepo = training.VideoScriptRepo
type QuizRepo = training.QuizRepo

type StepOutcome = training.StepOutcome

// Set is every repository the services need.
type Set struct {
	Project        ProjectRepo
	SourceMaterial SourceMaterialRepo
	WorkflowStep   WorkflowStepRepo
	Chapter        ChapterRepo
	Session        SessionRepo
	ProgramMatrix  ProgramMatrixRepo
	Article        ArticleRepo
	VideoScript    VideoScriptRepo
	Quiz           QuizRepo
}

func NewSet(db *gorm.DB, log *logger.Logger) Set {
	return Set{
		Project:        training.NewProjectRepo(db, log),
		SourceMaterial: training.NewSourceMaterialRepo(db, log),
		WorkflowStep:   training.NewWorkflowStepRepo(db, log),
		Chapter:        training.NewChapterRepo(db, log),
		Session:        training.NewSessionRepo(db, log),
		ProgramMatrix:  training.NewProgramMatrixRepo(db, log),
		Article:        training.NewArticleRepo(db, log),
		VideoScript:    training.NewVideoScriptRepo(db, log),
		Quiz:           training.NewQuizRepo(db, log),
	}
}
