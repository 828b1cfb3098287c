package training

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Chapter struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_chapter_project_number,priority:1" json:"project_id"`
	Number      int       `gorm:"column:number;not null;uniqueIndex:uq_chapter_project_number,priority:2" json:"number"`
	Title       string    `gorm:"column:title;not null" json:"title"`
	Description string    `gorm:"column:description;type:text" json:"description"`
	Sessions    []Session `gorm:"foreignKey:ChapterID;references:ID" json:"sessions,omitempty"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

func (Chapter) TableName() string { return "chapter" }

func (c *Chapter) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type Session struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ChapterID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_session_chapter_number,priority:1" json:"chapter_id"`
	ProjectID   uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	Number      int       `gorm:"column:number;not null;uniqueIndex:uq_session_chapter_number,priority:2" json:"number"`
	Title       string    `gorm:"column:title;not null" json:"title"`
	Description string    `gorm:"column:description;type:text" json:"description"`
	Objectives  string    `gorm:"column:objectives;type:text" json:"objectives"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

func (Session) TableName() string { return "session" }

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// ProgramMatrix is the approved narrative of a project's structure.
type ProgramMatrix struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID  uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex" json:"project_id"`
	Variant    string     `gorm:"column:variant;not null" json:"variant"`
	Narrative  string     `gorm:"column:narrative;type:text" json:"narrative"`
	Table      string     `gorm:"column:matrix_table;type:text" json:"table"`
	StepID     *uuid.UUID `gorm:"type:uuid" json:"step_id,omitempty"`
	Approved   bool       `gorm:"column:approved;not null;default:false" json:"approved"`
	ApprovedAt *time.Time `gorm:"column:approved_at" json:"approved_at,omitempty"`
	CreatedAt  time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"not null" json:"updated_at"`
}

func (ProgramMatrix) TableName() string { return "program_matrix" }

func (m *ProgramMatrix) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
