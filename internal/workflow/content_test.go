package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/trainforge-backend/internal/agents"
	"github.com/yungbote/trainforge-backend/internal/data/repos/testutil"
	types "github.com/yungbote/trainforge-backend/internal/domain/training"
	"github.com/yungbote/trainforge-backend/internal/llm"
	"github.com/yungbote/trainforge-backend/internal/platform/apierr"
	"github.com/yungbote/trainforge-backend/internal/platform/dbctx"
)

// contentProject seeds a project past matrix approval with distinctly titled sessions.
func contentProject(t *testing.T, h *harness, deliverables string, sessionsPerChapter ...int) (*types.Project, []*types.Chapter) {
	t.Helper()
	ctx := context.Background()
	p := testutil.SeedProject(t, ctx, h.db, deliverables)
	dbc := dbctx.Context{Ctx: ctx}
	if err := h.repos.Project.SetStatus(dbc, p.ID, types.StatusArticleCreation); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	testutil.SeedApprovedMatrix(t, ctx, h.db, p.ID)
	chapters := testutil.SeedStructure(t, ctx, h.db, p.ID, sessionsPerChapter...)
	for _, ch := range chapters {
		for i := range ch.Sessions {
			title := fmt.Sprintf("Topic %d-%d", ch.Number, ch.Sessions[i].Number)
			if err := h.repos.Session.UpdateFields(dbc, ch.Sessions[i].ID, map[string]interface{}{"title": title}); err != nil {
				t.Fatalf("UpdateFields: %v", err)
			}
			ch.Sessions[i].Title = title
		}
	}
	return p, chapters
}

func withArticleAgents(h *harness) {
	h.gateway.
		on(agents.ArticleWriter, echoPrompt("# Article")).
		on(agents.HistReviewer, reply(reviewOutput)).
		on(agents.FactChecker, reply(factCheckOutput))
}

func approvedArticleFor(t *testing.T, h *harness, s types.Session) *types.Article {
	t.Helper()
	a, err := h.orch.GenerateArticle(context.Background(), s.ID, GenerateOptions{}, nil)
	if err != nil {
		t.Fatalf("GenerateArticle(%s): %v", s.Title, err)
	}
	if a, err = h.orch.ApproveArticle(context.Background(), a.ID); err != nil {
		t.Fatalf("ApproveArticle: %v", err)
	}
	return a
}

func TestParseContentKind(t *testing.T) {
	if k, err := ParseContentKind(" Videos "); err != nil || k != KindVideos {
		t.Fatalf("ParseContentKind: want=%s got=%s err=%v", KindVideos, k, err)
	}
	if _, err := ParseContentKind("slides"); apierr.KindOf(err) != apierr.KindValidation {
		t.Fatalf("ParseContentKind(slides): want validation got=%v", err)
	}
}

func TestGenerateArticleStoresReviews(t *testing.T) {
	h := newHarness(t)
	withArticleAgents(h)
	_, chapters := contentProject(t, h, "all", 1)
	s := chapters[0].Sessions[0]

	var events Recorder
	a, err := h.orch.GenerateArticle(context.Background(), s.ID, GenerateOptions{}, &events)
	if err != nil {
		t.Fatalf("GenerateArticle: %v", err)
	}
	if a.WordCount != types.WordCount(a.Content) || a.WordCount == 0 {
		t.Fatalf("word count: want=%d got=%d", types.WordCount(a.Content), a.WordCount)
	}
	if !strings.Contains(a.HistNotes, "Reads well.") || !strings.Contains(a.FactCheckNotes, "accurate") {
		t.Fatalf("review notes: hist=%q fact=%q", a.HistNotes, a.FactCheckNotes)
	}
	var streamed strings.Builder
	for _, ev := range events.Events() {
		if ev.Type == EventText && ev.Step == types.StepArticleWriting {
			streamed.WriteString(ev.Content)
		}
	}
	if strings.TrimSpace(streamed.String()) != a.Content {
		t.Fatalf("streamed text should match the stored article")
	}

	// A revision replaces the article and resets approval.
	if _, err := h.orch.ApproveArticle(context.Background(), a.ID); err != nil {
		t.Fatalf("ApproveArticle: %v", err)
	}
	rev, err := h.orch.GenerateArticle(context.Background(), s.ID, GenerateOptions{Feedback: "Shorter please"}, nil)
	if err != nil {
		t.Fatalf("GenerateArticle(revision): %v", err)
	}
	if rev.Approved || rev.Feedback != "Shorter please" || !strings.Contains(rev.Content, "Previous version") {
		t.Fatalf("revision: got=%+v", rev)
	}
	var n int64
	h.db.Model(&types.Article{}).Where("session_id = ?", s.ID).Count(&n)
	if n != 1 {
		t.Fatalf("articles for session: want=1 got=%d", n)
	}
}

func TestContentGates(t *testing.T) {
	h := newHarness(t)
	withArticleAgents(h)
	h.gateway.on(agents.VideoNarrator, reply("Welcome to the session."))
	ctx := context.Background()

	_, chapters := contentProject(t, h, "articles", 1)
	s := chapters[0].Sessions[0]
	if _, err := h.orch.GenerateVideo(ctx, s.ID, GenerateOptions{}, nil); apierr.CodeOf(err) != "deliverable_not_selected" {
		t.Fatalf("video for articles-only project: want deliverable_not_selected got=%v", err)
	}

	_, chapters = contentProject(t, h, "all", 1)
	s = chapters[0].Sessions[0]
	if _, err := h.orch.GenerateVideo(ctx, s.ID, GenerateOptions{}, nil); apierr.CodeOf(err) != "article_not_approved" {
		t.Fatalf("video without article: want article_not_approved got=%v", err)
	}
	if _, err := h.orch.GenerateArticle(ctx, s.ID, GenerateOptions{}, nil); err != nil {
		t.Fatalf("GenerateArticle: %v", err)
	}
	if _, err := h.orch.GenerateVideo(ctx, s.ID, GenerateOptions{}, nil); apierr.CodeOf(err) != "article_not_approved" {
		t.Fatalf("video with unapproved article: want article_not_approved got=%v", err)
	}
}

func TestGenerateVideoAndQuiz(t *testing.T) {
	h := newHarness(t)
	withArticleAgents(h)
	script := strings.TrimSpace(strings.Repeat("word ", 300))
	h.gateway.
		on(agents.VideoNarrator, reply(script)).
		on(agents.QuizDesigner, reply("```json\n"+`{"title": "Check your understanding", "questions": [
			{"question": "When do you escalate?", "options": ["Always", "Outage over ten customers"], "correct_index": 1, "explanation": "Policy"},
			{"question": "Broken", "options": ["Only one"], "correct_index": 0}
		]}`+"\n```"))
	ctx := context.Background()
	_, chapters := contentProject(t, h, "all", 1)
	s := chapters[0].Sessions[0]
	approvedArticleFor(t, h, s)

	v, err := h.orch.GenerateVideo(ctx, s.ID, GenerateOptions{}, nil)
	if err != nil {
		t.Fatalf("GenerateVideo: %v", err)
	}
	if v.WordCount != 300 || v.EstimatedSeconds != 120 {
		t.Fatalf("video: words=%d seconds=%d", v.WordCount, v.EstimatedSeconds)
	}

	q, err := h.orch.GenerateQuiz(ctx, s.ID, GenerateOptions{}, nil)
	if err != nil {
		t.Fatalf("GenerateQuiz: %v", err)
	}
	if q.Title != "Check your understanding" || len(q.Questions) != 1 {
		t.Fatalf("quiz: title=%q questions=%d", q.Title, len(q.Questions))
	}
	if q.Questions[0].CorrectIndex != 1 || !strings.Contains(string(q.Questions[0].Options), "Outage over ten customers") {
		t.Fatalf("question: got=%+v", q.Questions[0])
	}
}

func TestGenerateQuizRejectsUnusableOutput(t *testing.T) {
	h := newHarness(t)
	h.gateway.on(agents.QuizDesigner, reply("Here are some questions you could ask."))
	_, chapters := contentProject(t, h, "quizzes", 1)
	_, err := h.orch.GenerateQuiz(context.Background(), chapters[0].Sessions[0].ID, GenerateOptions{}, nil)
	var ae *apierr.Error
	if !errors.As(err, &ae) || ae.Kind != apierr.KindParse || ae.Preview == "" {
		t.Fatalf("want parse error with preview, got=%v", err)
	}
}

func TestApprovingEverySessionAdvancesStatus(t *testing.T) {
	h := newHarness(t)
	withArticleAgents(h)
	ctx := context.Background()
	p, chapters := contentProject(t, h, "articles", 2)
	dbc := dbctx.Context{Ctx: ctx}

	approvedArticleFor(t, h, chapters[0].Sessions[0])
	if got, _ := h.repos.Project.GetByID(dbc, p.ID); got.Status != types.StatusArticleCreation {
		t.Fatalf("status after one approval: want=%s got=%s", types.StatusArticleCreation, got.Status)
	}
	approvedArticleFor(t, h, chapters[0].Sessions[1])
	got, _ := h.repos.Project.GetByID(dbc, p.ID)
	if got.Status != types.StatusCompleted {
		t.Fatalf("status after all approvals: want=%s got=%s", types.StatusCompleted, got.Status)
	}
	step, _ := h.repos.WorkflowStep.Latest(dbc, p.ID, types.StepArticlesApproved)
	if step == nil || step.AgentName != agents.User {
		t.Fatalf("articles_approved step: got=%+v", step)
	}
}

func TestBatchNeedsApprovedItem(t *testing.T) {
	h := newHarness(t)
	withArticleAgents(h)
	_, chapters := contentProject(t, h, "all", 2)
	if _, err := h.orch.Batch(context.Background(), chapters[0].ID, KindArticles, nil); apierr.CodeOf(err) != "batch_needs_approved_item" {
		t.Fatalf("Batch: want batch_needs_approved_item got=%v", err)
	}
}

func TestBatchContinuesPastFailures(t *testing.T) {
	h := newHarness(t)
	withArticleAgents(h)
	_, chapters := contentProject(t, h, "all", 4)
	ch := chapters[0]
	approvedArticleFor(t, h, ch.Sessions[0])

	failing := ch.Sessions[2]
	h.gateway.on(agents.ArticleWriter, func(req llm.Request) (string, error) {
		prompt := req.Messages[len(req.Messages)-1].Content
		if strings.Contains(prompt, failing.Title) {
			return "", errors.New("upstream refused")
		}
		return "# Article\n\n" + prompt, nil
	})

	var events Recorder
	res, err := h.orch.Batch(context.Background(), ch.ID, KindArticles, &events)
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}
	if len(res.Succeeded) != 2 || len(res.Failed) != 1 || res.Failed[0].SessionID != failing.ID {
		t.Fatalf("batch result: got=%+v", res)
	}
	step, _ := h.repos.WorkflowStep.LatestForSession(dbctx.Context{Ctx: context.Background()}, failing.ID, types.StepArticleWriting)
	if step != nil {
		t.Fatalf("failed step should not count as latest, got=%+v", step)
	}
}

func TestConcurrentBatchesKeepSessionsApart(t *testing.T) {
	h := newHarness(t)
	withArticleAgents(h)
	ctx := context.Background()
	_, chapters := contentProject(t, h, "all", 3, 3)
	for _, ch := range chapters {
		approvedArticleFor(t, h, ch.Sessions[0])
	}

	var wg sync.WaitGroup
	results := make([]*BatchResult, len(chapters))
	errs := make([]error, len(chapters))
	for i, ch := range chapters {
		wg.Add(1)
		go func(i int, chapterID uuid.UUID) {
			defer wg.Done()
			results[i], errs[i] = h.orch.Batch(ctx, chapterID, KindArticles, nil)
		}(i, ch.ID)
	}
	wg.Wait()

	for i := range chapters {
		if errs[i] != nil {
			t.Fatalf("batch %d: %v", i, errs[i])
		}
		if len(results[i].Succeeded) != 2 || len(results[i].Failed) != 0 {
			t.Fatalf("batch %d: got=%+v", i, results[i])
		}
	}

	dbc := dbctx.Context{Ctx: ctx}
	for _, ch := range chapters {
		for _, s := range ch.Sessions {
			a, err := h.repos.Article.GetBySession(dbc, s.ID)
			if err != nil {
				t.Fatalf("GetBySession(%s): %v", s.Title, err)
			}
			marker := fmt.Sprintf("Session %d.%d: %s", ch.Number, s.Number, s.Title)
			if !strings.Contains(a.Content, marker) {
				t.Fatalf("article for %s was written for another session", s.Title)
			}
		}
	}
}

func TestOutOfOrderApprovalsComplete(t *testing.T) {
	h := newHarness(t)
	withArticleAgents(h)
	h.gateway.
		on(agents.VideoNarrator, reply("Welcome to the session.")).
		on(agents.QuizDesigner, reply(`{"title": "Check", "questions": [
			{"question": "When do you escalate?", "options": ["Always", "Outage over ten customers"], "correct_index": 1}
		]}`))
	ctx := context.Background()
	p, chapters := contentProject(t, h, "all", 1)
	s := chapters[0].Sessions[0]
	dbc := dbctx.Context{Ctx: ctx}

	approvedArticleFor(t, h, s)
	if got, _ := h.repos.Project.GetByID(dbc, p.ID); got.Status != types.StatusVideoCreation {
		t.Fatalf("status after articles: want=%s got=%s", types.StatusVideoCreation, got.Status)
	}

	q, err := h.orch.GenerateQuiz(ctx, s.ID, GenerateOptions{}, nil)
	if err != nil {
		t.Fatalf("GenerateQuiz: %v", err)
	}
	if _, err := h.orch.ApproveQuiz(ctx, q.ID); err != nil {
		t.Fatalf("ApproveQuiz: %v", err)
	}
	if got, _ := h.repos.Project.GetByID(dbc, p.ID); got.Status != types.StatusVideoCreation {
		t.Fatalf("status after early quiz approval: want=%s got=%s", types.StatusVideoCreation, got.Status)
	}

	v, err := h.orch.GenerateVideo(ctx, s.ID, GenerateOptions{}, nil)
	if err != nil {
		t.Fatalf("GenerateVideo: %v", err)
	}
	if _, err := h.orch.ApproveVideo(ctx, v.ID); err != nil {
		t.Fatalf("ApproveVideo: %v", err)
	}
	if got, _ := h.repos.Project.GetByID(dbc, p.ID); got.Status != types.StatusCompleted {
		t.Fatalf("status after every approval: want=%s got=%s", types.StatusCompleted, got.Status)
	}
	for _, name := range []string{types.StepVideosApproved, types.StepQuizzesApproved} {
		n, err := h.repos.WorkflowStep.CountByName(dbc, p.ID, name)
		if err != nil || n != 1 {
			t.Fatalf("%s steps: want=1 got=%d err=%v", name, n, err)
		}
	}
}
