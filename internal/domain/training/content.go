package training

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// WordsPerMinute is the narration pace used to estimate video length.
const WordsPerMinute = 150

type Article struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"session_id"`
	ProjectID      uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	Title          string    `gorm:"column:title" json:"title"`
	Content        string    `gorm:"column:content;type:text;not null" json:"content"`
	WordCount      int       `gorm:"column:word_count;not null;default:0" json:"word_count"`
	Approved       bool      `gorm:"column:approved;not null;default:false" json:"approved"`
	HistNotes      string    `gorm:"column:hist_notes;type:text" json:"hist_notes,omitempty"`
	FactCheckNotes string    `gorm:"column:fact_check_notes;type:text" json:"fact_check_notes,omitempty"`
	Feedback       string    `gorm:"column:feedback;type:text" json:"feedback,omitempty"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null" json:"updated_at"`
}

func (Article) TableName() string { return "article" }

func (a *Article) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

type VideoScript struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"session_id"`
	ProjectID        uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	Title            string    `gorm:"column:title" json:"title"`
	Script           string    `gorm:"column:script;type:text;not null" json:"script"`
	WordCount        int       `gorm:"column:word_count;not null;default:0" json:"word_count"`
	EstimatedSeconds int       `gorm:"column:estimated_seconds;not null;default:0" json:"estimated_seconds"`
	Approved         bool      `gorm:"column:approved;not null;default:false" json:"approved"`
	Feedback         string    `gorm:"column:feedback;type:text" json:"feedback,omitempty"`
	CreatedAt        time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time `gorm:"not null" json:"updated_at"`
}

func (VideoScript) TableName() string { return "video_script" }

func (v *VideoScript) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

type Quiz struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex" json:"session_id"`
	ProjectID uuid.UUID  `gorm:"type:uuid;not null;index" json:"project_id"`
	Title     string     `gorm:"column:title" json:"title"`
	Approved  bool       `gorm:"column:approved;not null;default:false" json:"approved"`
	Feedback  string     `gorm:"column:feedback;type:text" json:"feedback,omitempty"`
	Questions []Question `gorm:"foreignKey:QuizID;references:ID" json:"questions,omitempty"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null" json:"updated_at"`
}

func (Quiz) TableName() string { return "quiz" }

func (q *Quiz) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

type Question struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	QuizID       uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:uq_question_quiz_position,priority:1" json:"quiz_id"`
	Position     int            `gorm:"column:position;not null;uniqueIndex:uq_question_quiz_position,priority:2" json:"position"`
	Prompt       string         `gorm:"column:prompt;type:text;not null" json:"prompt"`
	Options      datatypes.JSON `gorm:"column:options" json:"options"`
	CorrectIndex int            `gorm:"column:correct_index;not null" json:"correct_index"`
	Explanation  string         `gorm:"column:explanation;type:text" json:"explanation,omitempty"`
	CreatedAt    time.Time      `gorm:"not null" json:"created_at"`
}

func (Question) TableName() string { return "question" }

func (q *Question) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

func WordCount(s string) int { return len(strings.Fields(s)) }

// EstimateSeconds converts a narration word count into seconds at WordsPerMinute.
func EstimateSeconds(words int) int {
	if words <= 0 {
		return 0
	}
	return (words*60 + WordsPerMinute - 1) / WordsPerMinute
}
