package training

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepRunning   StepStatus = "running"
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
)

// Step names recorded in the workflow log.
const (
	StepDesignStarted       = "design_started"
	StepResearch            = "research"
	StepResearchValidation  = "research_validation"
	StepResearchDeepening   = "research_deepening"
	StepDebrief             = "debrief"
	StepDebriefApproval     = "debrief_approval"
	StepDebriefFeedback     = "debrief_feedback"
	StepSourceAnalysis      = "source_analysis"
	StepArchitecture        = "architecture"
	StepInstructionalDesign = "instructional_design"
	StepActivityDesign      = "activity_design"
	StepMatrix              = "matrix"
	StepProgramDesign       = "program_design"
	StepMatrixApproval      = "matrix_approval"
	StepArticleWriting      = "article_writing"
	StepHistReview          = "hist_review"
	StepFactCheck           = "fact_check"
	StepVideoScript         = "video_script"
	StepQuizDesign          = "quiz_design"
	StepArticlesApproved    = "articles_approved"
	StepVideosApproved      = "videos_approved"
	StepQuizzesApproved     = "quizzes_approved"
)

// Phases group steps for display.
const (
	PhaseDesign  = "design"
	PhaseMatrix  = "matrix"
	PhaseContent = "content"
	PhaseReview  = "review"
)

// WorkflowStep is one append-only record of an agent invocation or human approval.
type WorkflowStep struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID    uuid.UUID  `gorm:"type:uuid;not null;index:idx_step_project_name,priority:1" json:"project_id"`
	SessionID    *uuid.UUID `gorm:"type:uuid;index" json:"session_id,omitempty"`
	Phase        string     `gorm:"column:phase;not null" json:"phase"`
	StepName     string     `gorm:"column:step_name;not null;index:idx_step_project_name,priority:2" json:"step_name"`
	AgentName    string     `gorm:"column:agent_name;not null" json:"agent_name"`
	Status       StepStatus `gorm:"column:status;not null;index" json:"status"`
	Model        string     `gorm:"column:model" json:"model,omitempty"`
	Result       string     `gorm:"column:result;type:text" json:"result"`
	Error        string     `gorm:"column:error;type:text" json:"error,omitempty"`
	InputTokens  int        `gorm:"column:input_tokens;not null;default:0" json:"input_tokens"`
	OutputTokens int        `gorm:"column:output_tokens;not null;default:0" json:"output_tokens"`
	StartedAt    *time.Time `gorm:"column:started_at" json:"started_at,omitempty"`
	CompletedAt  *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt    time.Time  `gorm:"not null;index" json:"created_at"`
}

func (WorkflowStep) TableName() string { return "workflow_step" }

func (s *WorkflowStep) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Status == "" {
		s.Status = StepPending
	}
	return nil
}
