package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/trainforge-backend/internal/domain/training"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&training.Project{},
		&training.SourceMaterial{},
		&training.WorkflowStep{},
		&training.Chapter{},
		&training.Session{},
		&training.ProgramMatrix{},
		&training.Article{},
		&training.VideoScript{},
		&training.Quiz{},
		&training.Question{},
	)
}

// EnsureStepIndexes adds the lookup index used by "latest step by name" reads.
func EnsureStepIndexes(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_workflow_step_latest
		ON workflow_step (project_id, step_name, created_at DESC);
	`).Error; err != nil {
		return fmt.Errorf("create idx_workflow_step_latest: %w", err)
	}
	return nil
}

func (s *Service) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...", "driver", s.driver)
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	if err := EnsureStepIndexes(s.db); err != nil {
		s.log.Error("Step index migration failed", "error", err)
		return err
	}
	return nil
}
