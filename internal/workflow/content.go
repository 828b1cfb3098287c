package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/trainforge-backend/internal/agents"
	types "github.com/yungbote/trainforge-backend/internal/domain/training"
	"github.com/yungbote/trainforge-backend/internal/platform/apierr"
	"github.com/yungbote/trainforge-backend/internal/platform/dbctx"
	"github.com/yungbote/trainforge-backend/internal/workflow/parse"
)

type ContentKind string

const (
	KindArticles ContentKind = "articles"
	KindVideos   ContentKind = "videos"
	KindQuizzes  ContentKind = "quizzes"
)

func ParseContentKind(s string) (ContentKind, error) {
	switch k := ContentKind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindArticles, KindVideos, KindQuizzes:
		return k, nil
	}
	return "", apierr.Validation("invalid_content_kind", fmt.Errorf("content kind must be articles, videos or quizzes"))
}

func (k ContentKind) selected(d types.Deliverables) bool {
	switch k {
	case KindArticles:
		return d.Articles
	case KindVideos:
		return d.Videos
	case KindQuizzes:
		return d.Quizzes
	}
	return false
}

func (k ContentKind) approvalStep() string {
	switch k {
	case KindArticles:
		return types.StepArticlesApproved
	case KindVideos:
		return types.StepVideosApproved
	}
	return types.StepQuizzesApproved
}

type GenerateOptions struct {
	// Feedback asks for a revision of the existing item.
	Feedback string
	// Batch uses the agents' bulk models.
	Batch bool
}

// loadSession gathers what every content step needs and checks the content gate.
func (o *Orchestrator) loadSession(ctx context.Context, sessionID uuid.UUID, kind ContentKind) (sessionContext, error) {
	dbc := dbctx.Context{Ctx: ctx}
	s, err := o.repos.Session.GetByID(dbc, sessionID)
	if err != nil {
		return sessionContext{}, err
	}
	ch, err := o.repos.Chapter.GetByID(dbc, s.ChapterID)
	if err != nil {
		return sessionContext{}, err
	}
	p, err := o.loadProject(ctx, s.ProjectID)
	if err != nil {
		return sessionContext{}, err
	}
	// A regenerated matrix starts unapproved even when the status is already past the gate.
	m, err := o.repos.ProgramMatrix.GetByProject(dbc, p.ID)
	if err != nil && apierr.KindOf(err) != apierr.KindNotFound {
		return sessionContext{}, err
	}
	if p.Status.Rank() < types.StatusArticleCreation.Rank() || m == nil || !m.Approved {
		return sessionContext{}, apierr.Validation("matrix_not_approved", fmt.Errorf("the matrix must be approved before content is generated"))
	}
	if !kind.selected(p.Wants()) {
		return sessionContext{}, apierr.Validation("deliverable_not_selected", fmt.Errorf("%s are not a deliverable of this project", kind))
	}
	sources, err := o.sources(ctx, p.ID)
	if err != nil {
		return sessionContext{}, err
	}
	return sessionContext{Project: p, Chapter: ch, Session: s, Sources: sources}, nil
}

// approvedArticle returns the session's approved article. Projects without article
// deliverables generate videos and quizzes from the session outline alone.
func (o *Orchestrator) approvedArticle(ctx context.Context, sc sessionContext) (string, error) {
	if !sc.Project.Wants().Articles {
		return "", nil
	}
	a, err := o.repos.Article.GetBySession(dbctx.Context{Ctx: ctx}, sc.Session.ID)
	if err != nil && apierr.KindOf(err) != apierr.KindNotFound {
		return "", err
	}
	if a == nil || !a.Approved {
		return "", apierr.Validation("article_not_approved", fmt.Errorf("session %d.%d needs an approved article first", sc.Chapter.Number, sc.Session.Number))
	}
	return a.Content, nil
}

func (o *Orchestrator) withSessionLock(ctx context.Context, sessionID uuid.UUID, fn func(ctx context.Context) error) error {
	return o.locks.WithLock(ctx, sessionLockKey(sessionID.String()), fn)
}

// GenerateArticle writes, reviews and fact-checks the session's article. The new article
// replaces any previous one and starts unapproved.
func (o *Orchestrator) GenerateArticle(ctx context.Context, sessionID uuid.UUID, opts GenerateOptions, sink Sink) (*types.Article, error) {
	sink = orDiscard(sink)
	var out *types.Article
	err := o.withSessionLock(ctx, sessionID, func(ctx context.Context) error {
		sc, err := o.loadSession(ctx, sessionID, KindArticles)
		if err != nil {
			return err
		}
		a, err := o.writeArticle(ctx, sink, sc, opts)
		out = a
		return err
	})
	return out, err
}

func (o *Orchestrator) writeArticle(ctx context.Context, sink Sink, sc sessionContext, opts GenerateOptions) (*types.Article, error) {
	dbc := dbctx.Context{Ctx: ctx}
	sid := sc.Session.ID
	previous := ""
	if opts.Feedback != "" {
		if prev, err := o.repos.Article.GetBySession(dbc, sid); err == nil {
			previous = prev.Content
		}
	}

	write, err := o.cp.run(ctx, sink, stepPlan{
		ProjectID: sc.Project.ID,
		SessionID: &sid,
		Phase:     types.PhaseContent,
		Step:      types.StepArticleWriting,
		Agent:     agents.ArticleWriter,
		Prompt:    articlePrompt(sc, previous, opts.Feedback),
		Batch:     opts.Batch,
		Stream:    true,
	})
	if err != nil {
		return nil, err
	}
	content := strings.TrimSpace(write.Response.Content)
	if content == "" {
		return nil, apierr.Parse("empty_article", errors.New("article writer returned no content"), write.Response.Content)
	}

	review, err := o.cp.run(ctx, sink, stepPlan{
		ProjectID: sc.Project.ID,
		SessionID: &sid,
		Phase:     types.PhaseReview,
		Step:      types.StepHistReview,
		Agent:     agents.HistReviewer,
		Prompt:    reviewPrompt(sc, content),
		Batch:     opts.Batch,
	})
	if err != nil {
		return nil, err
	}
	hist := parse.ParseReview(review.Response.Content)

	check, err := o.cp.run(ctx, sink, stepPlan{
		ProjectID: sc.Project.ID,
		SessionID: &sid,
		Phase:     types.PhaseReview,
		Step:      types.StepFactCheck,
		Agent:     agents.FactChecker,
		Prompt:    factCheckPrompt(sc, content),
		Batch:     opts.Batch,
	})
	if err != nil {
		return nil, err
	}
	facts := parse.ParseFactCheck(check.Response.Content)

	a, err := o.repos.Article.Replace(dbc, &types.Article{
		SessionID:      sid,
		ProjectID:      sc.Project.ID,
		Title:          sc.Session.Title,
		Content:        content,
		WordCount:      types.WordCount(content),
		HistNotes:      hist.Value.Encode(),
		FactCheckNotes: facts.Value.Encode(),
		Feedback:       opts.Feedback,
	})
	if err != nil {
		return nil, err
	}
	progressf(sink, types.StepArticleWriting, "Article saved for session %d.%d (%d words)", sc.Chapter.Number, sc.Session.Number, a.WordCount)
	return a, nil
}

func (o *Orchestrator) GenerateVideo(ctx context.Context, sessionID uuid.UUID, opts GenerateOptions, sink Sink) (*types.VideoScript, error) {
	sink = orDiscard(sink)
	var out *types.VideoScript
	err := o.withSessionLock(ctx, sessionID, func(ctx context.Context) error {
		sc, err := o.loadSession(ctx, sessionID, KindVideos)
		if err != nil {
			return err
		}
		article, err := o.approvedArticle(ctx, sc)
		if err != nil {
			return err
		}
		dbc := dbctx.Context{Ctx: ctx}
		sid := sc.Session.ID
		previous := ""
		if opts.Feedback != "" {
			if prev, err := o.repos.VideoScript.GetBySession(dbc, sid); err == nil {
				previous = prev.Script
			}
		}
		call, err := o.cp.run(ctx, sink, stepPlan{
			ProjectID: sc.Project.ID,
			SessionID: &sid,
			Phase:     types.PhaseContent,
			Step:      types.StepVideoScript,
			Agent:     agents.VideoNarrator,
			Prompt:    videoPrompt(sc, article, previous, opts.Feedback),
			Batch:     opts.Batch,
			Stream:    true,
		})
		if err != nil {
			return err
		}
		script := strings.TrimSpace(call.Response.Content)
		words := types.WordCount(script)
		v, err := o.repos.VideoScript.Replace(dbc, &types.VideoScript{
			SessionID:        sid,
			ProjectID:        sc.Project.ID,
			Title:            sc.Session.Title,
			Script:           script,
			WordCount:        words,
			EstimatedSeconds: types.EstimateSeconds(words),
			Feedback:         opts.Feedback,
		})
		if err != nil {
			return err
		}
		progressf(sink, types.StepVideoScript, "Video script saved for session %d.%d (about %d seconds)", sc.Chapter.Number, sc.Session.Number, v.EstimatedSeconds)
		out = v
		return nil
	})
	return out, err
}

func (o *Orchestrator) GenerateQuiz(ctx context.Context, sessionID uuid.UUID, opts GenerateOptions, sink Sink) (*types.Quiz, error) {
	sink = orDiscard(sink)
	var out *types.Quiz
	err := o.withSessionLock(ctx, sessionID, func(ctx context.Context) error {
		sc, err := o.loadSession(ctx, sessionID, KindQuizzes)
		if err != nil {
			return err
		}
		article, err := o.approvedArticle(ctx, sc)
		if err != nil {
			return err
		}
		sid := sc.Session.ID
		count := sc.Project.QuizQuestionCount
		if count <= 0 {
			count = 5
		}
		call, err := o.cp.run(ctx, sink, stepPlan{
			ProjectID: sc.Project.ID,
			SessionID: &sid,
			Phase:     types.PhaseContent,
			Step:      types.StepQuizDesign,
			Agent:     agents.QuizDesigner,
			Prompt:    quizPrompt(sc, article, count),
			Batch:     opts.Batch,
		})
		if err != nil {
			return err
		}
		parsed, err := parse.ParseQuiz(call.Response.Content)
		if err != nil {
			return err
		}
		q := &types.Quiz{
			SessionID: sid,
			ProjectID: sc.Project.ID,
			Title:     parsed.Value.Title,
			Feedback:  opts.Feedback,
		}
		if strings.TrimSpace(q.Title) == "" {
			q.Title = sc.Session.Title
		}
		for _, qq := range parsed.Value.Questions {
			options, _ := json.Marshal(qq.Options)
			q.Questions = append(q.Questions, types.Question{
				Prompt:       qq.Question,
				Options:      datatypes.JSON(options),
				CorrectIndex: int(qq.CorrectIndex),
				Explanation:  qq.Explanation,
			})
		}
		saved, err := o.repos.Quiz.Replace(dbctx.Context{Ctx: ctx}, q)
		if err != nil {
			return err
		}
		progressf(sink, types.StepQuizDesign, "Quiz saved for session %d.%d (%d questions)", sc.Chapter.Number, sc.Session.Number, len(saved.Questions))
		out = saved
		return nil
	})
	return out, err
}

type BatchFailure struct {
	SessionID uuid.UUID `json:"session_id"`
	Error     string    `json:"error"`
}

type BatchResult struct {
	Kind      ContentKind    `json:"kind"`
	Succeeded []uuid.UUID    `json:"succeeded"`
	Failed    []BatchFailure `json:"failed"`
}

// Batch generates the kind for every session of the chapter that lacks it, one session at a
// time. It needs one approved item of the kind in the chapter and keeps going past failures.
func (o *Orchestrator) Batch(ctx context.Context, chapterID uuid.UUID, kind ContentKind, sink Sink) (*BatchResult, error) {
	sink = orDiscard(sink)
	ch, err := o.repos.Chapter.GetByID(dbctx.Context{Ctx: ctx}, chapterID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(ch.Sessions))
	for _, s := range ch.Sessions {
		ids = append(ids, s.ID)
	}
	state, err := o.contentState(ctx, kind, ids)
	if err != nil {
		return nil, err
	}
	anyApproved := false
	for _, approved := range state {
		anyApproved = anyApproved || approved
	}
	if !anyApproved {
		return nil, apierr.Validation("batch_needs_approved_item", fmt.Errorf("approve one of the chapter's %s before generating the rest", kind))
	}

	var pending []types.Session
	for _, s := range ch.Sessions {
		if _, exists := state[s.ID]; !exists {
			pending = append(pending, s)
		}
	}
	res := &BatchResult{Kind: kind, Succeeded: []uuid.UUID{}, Failed: []BatchFailure{}}
	for i, s := range pending {
		progressf(sink, string(kind), "Generating %d of %d: %d.%d %s", i+1, len(pending), ch.Number, s.Number, s.Title)
		opts := GenerateOptions{Batch: true}
		switch kind {
		case KindArticles:
			_, err = o.GenerateArticle(ctx, s.ID, opts, sink)
		case KindVideos:
			_, err = o.GenerateVideo(ctx, s.ID, opts, sink)
		case KindQuizzes:
			_, err = o.GenerateQuiz(ctx, s.ID, opts, sink)
		}
		if err != nil {
			o.log.Warn("Batch item failed", "chapter_id", chapterID, "session_id", s.ID, "kind", kind, "error", err)
			progressf(sink, string(kind), "Session %d.%d failed: %v", ch.Number, s.Number, err)
			res.Failed = append(res.Failed, BatchFailure{SessionID: s.ID, Error: err.Error()})
			continue
		}
		res.Succeeded = append(res.Succeeded, s.ID)
	}
	return res, nil
}

// contentState maps each session that has an item of the kind to its approval flag.
func (o *Orchestrator) contentState(ctx context.Context, kind ContentKind, sessionIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	dbc := dbctx.Context{Ctx: ctx}
	out := map[uuid.UUID]bool{}
	switch kind {
	case KindArticles:
		items, err := o.repos.Article.ListBySessions(dbc, sessionIDs)
		if err != nil {
			return nil, err
		}
		for _, it := range items {
			out[it.SessionID] = it.Approved
		}
	case KindVideos:
		items, err := o.repos.VideoScript.ListBySessions(dbc, sessionIDs)
		if err != nil {
			return nil, err
		}
		for _, it := range items {
			out[it.SessionID] = it.Approved
		}
	case KindQuizzes:
		items, err := o.repos.Quiz.ListBySessions(dbc, sessionIDs)
		if err != nil {
			return nil, err
		}
		for _, it := range items {
			out[it.SessionID] = it.Approved
		}
	}
	return out, nil
}

func (o *Orchestrator) ApproveArticle(ctx context.Context, id uuid.UUID) (*types.Article, error) {
	dbc := dbctx.Context{Ctx: ctx}
	a, err := o.repos.Article.GetByID(dbc, id)
	if err != nil {
		return nil, err
	}
	if err := o.repos.Article.UpdateFields(dbc, id, map[string]interface{}{"approved": true}); err != nil {
		return nil, err
	}
	a.Approved = true
	return a, o.closeKindIfComplete(ctx, a.ProjectID, KindArticles)
}

func (o *Orchestrator) ApproveVideo(ctx context.Context, id uuid.UUID) (*types.VideoScript, error) {
	dbc := dbctx.Context{Ctx: ctx}
	v, err := o.repos.VideoScript.GetByID(dbc, id)
	if err != nil {
		return nil, err
	}
	if err := o.repos.VideoScript.UpdateFields(dbc, id, map[string]interface{}{"approved": true}); err != nil {
		return nil, err
	}
	v.Approved = true
	return v, o.closeKindIfComplete(ctx, v.ProjectID, KindVideos)
}

func (o *Orchestrator) ApproveQuiz(ctx context.Context, id uuid.UUID) (*types.Quiz, error) {
	dbc := dbctx.Context{Ctx: ctx}
	q, err := o.repos.Quiz.GetByID(dbc, id)
	if err != nil {
		return nil, err
	}
	if err := o.repos.Quiz.UpdateFields(dbc, id, map[string]interface{}{"approved": true}); err != nil {
		return nil, err
	}
	q.Approved = true
	return q, o.closeKindIfComplete(ctx, q.ProjectID, KindQuizzes)
}

// closeKindIfComplete records the phase approval once every session has an approved item.
// Kinds approved out of order close as soon as the status reaches their phase.
func (o *Orchestrator) closeKindIfComplete(ctx context.Context, projectID uuid.UUID, kind ContentKind) error {
	p, err := o.loadProject(ctx, projectID)
	if err != nil {
		return err
	}
	sessions, err := o.repos.Session.ListByProject(dbctx.Context{Ctx: ctx}, projectID)
	if err != nil || len(sessions) == 0 {
		return err
	}
	ids := make([]uuid.UUID, 0, len(sessions))
	for _, s := range sessions {
		ids = append(ids, s.ID)
	}
	for {
		closed, err := o.closePhase(ctx, p, kind, ids)
		if err != nil || !closed {
			return err
		}
		next, ok := kindForStatus(p.Status)
		if !ok {
			return nil
		}
		kind = next
	}
}

func (o *Orchestrator) closePhase(ctx context.Context, p *types.Project, kind ContentKind, ids []uuid.UUID) (bool, error) {
	step := kind.approvalStep()
	if _, changed := types.Advance(p.Status, step, p.Wants()); !changed {
		return false, nil
	}
	state, err := o.contentState(ctx, kind, ids)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if !state[id] {
			return false, nil
		}
	}
	if _, err := o.cp.record(ctx, p.ID, nil, types.PhaseReview, step, fmt.Sprintf("%d sessions approved", len(ids))); err != nil {
		return false, err
	}
	return true, o.advance(ctx, p, step)
}

func kindForStatus(s types.ProjectStatus) (ContentKind, bool) {
	switch s {
	case types.StatusArticleCreation:
		return KindArticles, true
	case types.StatusVideoCreation:
		return KindVideos, true
	case types.StatusQuizCreation:
		return KindQuizzes, true
	}
	return "", false
}
