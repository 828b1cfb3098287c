package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/trainforge-backend/internal/domain/training"
)

func SeedProject(tb testing.TB, ctx context.Context, tx *gorm.DB, deliverables string) *types.Project {
	tb.Helper()
	p := &types.Project{
		Name:         "Onboarding for support engineers",
		Objectives:   "Reduce time to first resolution",
		Audience:     "New support engineers",
		Outcomes:     "Resolve tier one tickets alone",
		Deliverables: deliverables,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed project: %v", err)
	}
	return p
}

func SeedSource(tb testing.TB, ctx context.Context, tx *gorm.DB, projectID uuid.UUID, fidelity string) *types.SourceMaterial {
	tb.Helper()
	s := &types.SourceMaterial{
		ProjectID: projectID,
		Title:     "Escalation policy",
		Content:   "Escalate any outage affecting more than ten customers.",
		Fidelity:  fidelity,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed source: %v", err)
	}
	return s
}

// SeedStructure creates chapters with the given session counts.
func SeedStructure(tb testing.TB, ctx context.Context, tx *gorm.DB, projectID uuid.UUID, sessionsPerChapter ...int) []*types.Chapter {
	tb.Helper()
	var out []*types.Chapter
	for i, n := range sessionsPerChapter {
		ch := &types.Chapter{ProjectID: projectID, Number: i + 1, Title: "Chapter"}
		if err := tx.WithContext(ctx).Create(ch).Error; err != nil {
			tb.Fatalf("seed chapter: %v", err)
		}
		for j := 0; j < n; j++ {
			s := types.Session{
				ChapterID:   ch.ID,
				ProjectID:   projectID,
				Number:      j + 1,
				Title:       "Session",
				Description: "Covers the basics",
				Objectives:  "Explain the policy",
			}
			if err := tx.WithContext(ctx).Create(&s).Error; err != nil {
				tb.Fatalf("seed session: %v", err)
			}
			ch.Sessions = append(ch.Sessions, s)
		}
		out = append(out, ch)
	}
	return out
}

// SeedApprovedMatrix stores an approved matrix for the project.
func SeedApprovedMatrix(tb testing.TB, ctx context.Context, tx *gorm.DB, projectID uuid.UUID) *types.ProgramMatrix {
	tb.Helper()
	now := time.Now().UTC()
	m := &types.ProgramMatrix{
		ProjectID:  projectID,
		Variant:    "optimized",
		Narrative:  "One chapter per core skill.",
		Approved:   true,
		ApprovedAt: &now,
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed matrix: %v", err)
	}
	return m
}
