package training

import (
	"context"
	"testing"

	"gorm.io/datatypes"

	"github.com/yungbote/trainforge-backend/internal/data/repos/testutil"
	types "github.com/yungbote/trainforge-backend/internal/domain/training"
	"github.com/yungbote/trainforge-backend/internal/platform/dbctx"
)

func TestArticleRepoReplaceKeepsOnePerSession(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	repo := NewArticleRepo(db, testutil.Logger(t))
	p := testutil.SeedProject(t, ctx, db, "articles")
	s := testutil.SeedStructure(t, ctx, db, p.ID, 1)[0].Sessions[0]

	first, err := repo.Replace(dbc, &types.Article{SessionID: s.ID, ProjectID: p.ID, Content: "first draft", Approved: true})
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	second, err := repo.Replace(dbc, &types.Article{SessionID: s.ID, ProjectID: p.ID, Content: "second draft"})
	if err != nil {
		t.Fatalf("Replace again: %v", err)
	}
	if first.ID == second.ID {
		t.Fatalf("regeneration should create a new row")
	}
	list, _ := repo.ListByProject(dbc, p.ID)
	if len(list) != 1 || list[0].Content != "second draft" || list[0].Approved {
		t.Fatalf("ListByProject: got=%+v", list)
	}
	if err := repo.UpdateFields(dbc, second.ID, map[string]interface{}{"approved": true}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	got, _ := repo.GetBySession(dbc, s.ID)
	if !got.Approved {
		t.Fatalf("approved flag not persisted")
	}
}

func TestQuizRepoReplaceOrdersQuestions(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	repo := NewQuizRepo(db, testutil.Logger(t))
	p := testutil.SeedProject(t, ctx, db, "quizzes")
	s := testutil.SeedStructure(t, ctx, db, p.ID, 1)[0].Sessions[0]

	q := &types.Quiz{SessionID: s.ID, ProjectID: p.ID, Title: "Check", Questions: []types.Question{
		{Prompt: "first?", Options: datatypes.JSON([]byte(`["a","b"]`)), CorrectIndex: 1},
		{Prompt: "second?", Options: datatypes.JSON([]byte(`["c","d"]`))},
	}}
	if _, err := repo.Replace(dbc, q); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if _, err := repo.Replace(dbc, &types.Quiz{SessionID: s.ID, ProjectID: p.ID, Title: "Again", Questions: []types.Question{{Prompt: "only?"}}}); err != nil {
		t.Fatalf("Replace again: %v", err)
	}
	got, err := repo.GetBySession(dbc, s.ID)
	if err != nil {
		t.Fatalf("GetBySession: %v", err)
	}
	if got.Title != "Again" || len(got.Questions) != 1 || got.Questions[0].Position != 1 {
		t.Fatalf("quiz: got=%+v", got)
	}
	var orphans int64
	db.Model(&types.Question{}).Where("quiz_id = ?", q.ID).Count(&orphans)
	if orphans != 0 {
		t.Fatalf("old questions left: %d", orphans)
	}
}
