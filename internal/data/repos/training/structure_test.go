package training

import (
	"context"
	"testing"

	"github.com/yungbote/trainforge-backend/internal/data/repos/testutil"
	types "github.com/yungbote/trainforge-backend/internal/domain/training"
	"github.com/yungbote/trainforge-backend/internal/platform/apierr"
	"github.com/yungbote/trainforge-backend/internal/platform/dbctx"
)

func TestChapterRepoReplaceStructure(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	log := testutil.Logger(t)
	chapters := NewChapterRepo(db, log)
	sessions := NewSessionRepo(db, log)
	articles := NewArticleRepo(db, log)

	p := testutil.SeedProject(t, ctx, db, "all")
	old := testutil.SeedStructure(t, ctx, db, p.ID, 1)
	if _, err := articles.Replace(dbc, &types.Article{SessionID: old[0].Sessions[0].ID, ProjectID: p.ID, Content: "old"}); err != nil {
		t.Fatalf("seed article: %v", err)
	}

	next := []*types.Chapter{
		{Number: 2, Title: "Second", Sessions: []types.Session{{Number: 1, Title: "2.1"}}},
		{Number: 1, Title: "First", Sessions: []types.Session{{Number: 2, Title: "1.2"}, {Number: 1, Title: "1.1"}}},
	}
	if _, err := chapters.ReplaceStructure(dbc, p.ID, next); err != nil {
		t.Fatalf("ReplaceStructure: %v", err)
	}

	got, err := chapters.ListByProject(dbc, p.ID)
	if err != nil {
		t.Fatalf("ListByProject: %v", err)
	}
	if len(got) != 2 || got[0].Title != "First" || got[1].Title != "Second" {
		t.Fatalf("chapter order: got=%+v", got)
	}
	if len(got[0].Sessions) != 2 || got[0].Sessions[0].Title != "1.1" || got[0].Sessions[1].Title != "1.2" {
		t.Fatalf("session order: got=%+v", got[0].Sessions)
	}
	all, _ := sessions.ListByProject(dbc, p.ID)
	if len(all) != 3 || all[0].Title != "1.1" || all[2].Title != "2.1" {
		t.Fatalf("ListByProject sessions: got=%d", len(all))
	}
	if list, _ := articles.ListByProject(dbc, p.ID); len(list) != 0 {
		t.Fatalf("content of replaced sessions should be dropped, got=%d", len(list))
	}
}

func TestChapterNumbersUniquePerProject(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	p := testutil.SeedProject(t, ctx, db, "all")
	if err := db.Create(&types.Chapter{ProjectID: p.ID, Number: 1, Title: "a"}).Error; err != nil {
		t.Fatalf("first chapter: %v", err)
	}
	err := db.Create(&types.Chapter{ProjectID: p.ID, Number: 1, Title: "b"}).Error
	if !apierr.IsDuplicate(err) {
		t.Fatalf("duplicate chapter number: want duplicate error got=%v", err)
	}
	if apierr.KindOf(err) != apierr.KindValidation {
		t.Fatalf("kind: want=validation got=%s", apierr.KindOf(err))
	}
}

func TestProgramMatrixRepoUpsertResetsApproval(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	repo := NewProgramMatrixRepo(db, testutil.Logger(t))
	p := testutil.SeedProject(t, ctx, db, "all")

	if _, err := repo.GetByProject(dbc, p.ID); apierr.KindOf(err) != apierr.KindNotFound {
		t.Fatalf("missing matrix: want not_found got=%v", err)
	}
	if _, err := repo.Upsert(dbc, &types.ProgramMatrix{ProjectID: p.ID, Variant: "full", Narrative: "v1"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := repo.MarkApproved(dbc, p.ID); err != nil {
		t.Fatalf("MarkApproved: %v", err)
	}
	m, _ := repo.GetByProject(dbc, p.ID)
	if !m.Approved || m.ApprovedAt == nil {
		t.Fatalf("approved: got=%+v", m)
	}
	if _, err := repo.Upsert(dbc, &types.ProgramMatrix{ProjectID: p.ID, Variant: "full", Narrative: "v2"}); err != nil {
		t.Fatalf("Upsert v2: %v", err)
	}
	m, _ = repo.GetByProject(dbc, p.ID)
	if m.Approved || m.Narrative != "v2" {
		t.Fatalf("Upsert must reset approval: got=%+v", m)
	}
}
