package training

import (
	"context"
	"testing"

	"github.com/yungbote/trainforge-backend/internal/data/repos/testutil"
	types "github.com/yungbote/trainforge-backend/internal/domain/training"
	"github.com/yungbote/trainforge-backend/internal/platform/apierr"
	"github.com/yungbote/trainforge-backend/internal/platform/dbctx"
)

func TestProjectRepoDefaultsAndStatus(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	repo := NewProjectRepo(db, testutil.Logger(t))

	p, err := repo.Create(dbc, &types.Project{Name: "Compliance refresher"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := repo.GetByID(dbc, p.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != types.StatusInformationGathering || got.Language != "en" || got.QuizQuestionCount != 5 || got.Deliverables != "all" {
		t.Fatalf("defaults: got=%+v", got)
	}
	if err := repo.SetStatus(dbc, p.ID, types.StatusProgramDesign); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	got, _ = repo.GetByID(dbc, p.ID)
	if got.Status != types.StatusProgramDesign {
		t.Fatalf("status: want=%s got=%s", types.StatusProgramDesign, got.Status)
	}
}

func TestProjectRepoDeleteCascades(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	log := testutil.Logger(t)
	projects := NewProjectRepo(db, log)
	quizzes := NewQuizRepo(db, log)
	articles := NewArticleRepo(db, log)

	p := testutil.SeedProject(t, ctx, db, "all")
	other := testutil.SeedProject(t, ctx, db, "all")
	testutil.SeedSource(t, ctx, db, p.ID, types.FidelityStrict)
	chapters := testutil.SeedStructure(t, ctx, db, p.ID, 2)
	otherChapters := testutil.SeedStructure(t, ctx, db, other.ID, 1)
	s := chapters[0].Sessions[0]

	if _, err := articles.Replace(dbc, &types.Article{SessionID: s.ID, ProjectID: p.ID, Content: "text"}); err != nil {
		t.Fatalf("article: %v", err)
	}
	if _, err := quizzes.Replace(dbc, &types.Quiz{SessionID: s.ID, ProjectID: p.ID, Questions: []types.Question{{Prompt: "q?"}}}); err != nil {
		t.Fatalf("quiz: %v", err)
	}
	if _, err := articles.Replace(dbc, &types.Article{SessionID: otherChapters[0].Sessions[0].ID, ProjectID: other.ID, Content: "keep"}); err != nil {
		t.Fatalf("other article: %v", err)
	}

	if err := projects.Delete(dbc, p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := projects.GetByID(dbc, p.ID); apierr.KindOf(err) != apierr.KindNotFound {
		t.Fatalf("GetByID after delete: want not_found got=%v", err)
	}
	for table, model := range map[string]interface{}{
		"chapter": &types.Chapter{}, "session": &types.Session{}, "article": &types.Article{},
		"quiz": &types.Quiz{}, "question": &types.Question{}, "source_material": &types.SourceMaterial{},
	} {
		var n int64
		q := db.Model(model)
		if table != "question" {
			q = q.Where("project_id = ?", p.ID)
		}
		if err := q.Count(&n).Error; err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if n != 0 {
			t.Fatalf("%s rows left after delete: %d", table, n)
		}
	}
	if _, err := articles.GetBySession(dbc, otherChapters[0].Sessions[0].ID); err != nil {
		t.Fatalf("other project's article removed: %v", err)
	}
	if err := projects.Delete(dbc, p.ID); apierr.KindOf(err) != apierr.KindNotFound {
		t.Fatalf("second Delete: want not_found got=%v", err)
	}
}
