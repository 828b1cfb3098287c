package training

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Project struct {
	ID     uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	Name   string        `gorm:"column:name;not null" json:"name"`
	Status ProjectStatus `gorm:"column:status;not null;index" json:"status"`

	Language    string `gorm:"column:language;not null" json:"language"`
	Objectives  string `gorm:"column:objectives;type:text" json:"objectives"`
	Audience    string `gorm:"column:audience;type:text" json:"audience"`
	Outcomes    string `gorm:"column:outcomes;type:text" json:"outcomes"`
	Constraints string `gorm:"column:constraints;type:text" json:"constraints"`
	Angle       string `gorm:"column:angle;type:text" json:"angle"`

	// Deliverables is a comma separated subset of articles, videos, quizzes (or "all").
	Deliverables      string         `gorm:"column:deliverables;not null" json:"deliverables"`
	StrictFidelity    bool           `gorm:"column:strict_fidelity;not null;default:false" json:"strict_fidelity"`
	QuizQuestionCount int            `gorm:"column:quiz_question_count;not null;default:5" json:"quiz_question_count"`
	CompanyContext    datatypes.JSON `gorm:"column:company_context" json:"company_context,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Project) TableName() string { return "project" }

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = StatusInformationGathering
	}
	if strings.TrimSpace(p.Language) == "" {
		p.Language = "en"
	}
	if strings.TrimSpace(p.Deliverables) == "" {
		p.Deliverables = DeliverableAll
	}
	if p.QuizQuestionCount <= 0 {
		p.QuizQuestionCount = 5
	}
	return nil
}

func (p *Project) Wants() Deliverables { return ParseDeliverables(p.Deliverables) }

const (
	DeliverableArticles = "articles"
	DeliverableVideos   = "videos"
	DeliverableQuizzes  = "quizzes"
	DeliverableAll      = "all"
)

type Deliverables struct {
	Articles bool `json:"articles"`
	Videos   bool `json:"videos"`
	Quizzes  bool `json:"quizzes"`
}

// ParseDeliverables reads the comma separated selection. Empty means everything.
func ParseDeliverables(s string) Deliverables {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Deliverables{Articles: true, Videos: true, Quizzes: true}
	}
	var d Deliverables
	for _, part := range strings.Split(s, ",") {
		switch strings.TrimSpace(part) {
		case DeliverableAll:
			return Deliverables{Articles: true, Videos: true, Quizzes: true}
		case DeliverableArticles, "article":
			d.Articles = true
		case DeliverableVideos, "video":
			d.Videos = true
		case DeliverableQuizzes, "quiz":
			d.Quizzes = true
		}
	}
	return d
}

const (
	FidelityStrict  = "strict"
	FidelityContext = "context"
)

type SourceMaterial struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	Title     string    `gorm:"column:title;not null" json:"title"`
	Filename  string    `gorm:"column:filename" json:"filename,omitempty"`
	Content   string    `gorm:"column:content;type:text;not null" json:"content"`
	Fidelity  string    `gorm:"column:fidelity;not null" json:"fidelity"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (SourceMaterial) TableName() string { return "source_material" }

func (s *SourceMaterial) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Fidelity != FidelityStrict {
		s.Fidelity = FidelityContext
	}
	return nil
}

func (s *SourceMaterial) Strict() bool { return s.Fidelity == FidelityStrict }
