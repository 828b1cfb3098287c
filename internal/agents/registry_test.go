package agents

import (
	"testing"
	"testing/fstest"

	"github.com/yungbote/trainforge-backend/internal/llm"
	"github.com/yungbote/trainforge-backend/internal/platform/apierr"
	"github.com/yungbote/trainforge-backend/internal/platform/logger"
)

func TestLoadEmbeddedDefinitions(t *testing.T) {
	r, err := Load("", logger.Nop())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for _, name := range []string{
		BriefParser, Interviewer, Researcher, ResearchValidator, DebriefWriter, SourceAnalyst,
		ProgramArchitect, InstructionalDesigner, ActivityDesigner, MatrixAuthor, ProgramDesigner,
		ArticleWriter, HistReviewer, FactChecker, VideoNarrator, QuizDesigner, FeedbackResponder, DebriefAssistant,
	} {
		a, err := r.Resolve(name, false)
		if err != nil {
			t.Fatalf("Resolve(%s): %v", name, err)
		}
		if a.Prompt == "" {
			t.Fatalf("Resolve(%s): empty prompt", name)
		}
		if a.Model.Model == "" {
			t.Fatalf("Resolve(%s): empty model", name)
		}
	}
}

func TestLoadFSSkipsMalformed(t *testing.T) {
	fsys := fstest.MapFS{
		"good.md":    {Data: []byte("---\nname: good\ndescription: ok\ntools: [web_search]\n---\nBody text.\n")},
		"noname.md":  {Data: []byte("---\ndescription: missing\n---\nBody\n")},
		"nohead.md":  {Data: []byte("just text")},
		"ignore.txt": {Data: []byte("---\nname: txt\n---\nx")},
	}
	r, err := LoadFS(fsys, logger.Nop())
	if err != nil {
		t.Fatalf("LoadFS: %v", err)
	}
	if got := len(r.List()); got != 1 {
		t.Fatalf("definitions: want=1 got=%d", got)
	}
	def, err := r.Get("good")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if def.Prompt != "Body text." {
		t.Fatalf("prompt: want=%q got=%q", "Body text.", def.Prompt)
	}
	if len(def.Tools) != 1 || def.Tools[0] != "web_search" {
		t.Fatalf("tools: got=%v", def.Tools)
	}
}

func TestUnknownAgentIsNotFound(t *testing.T) {
	r, err := LoadFS(fstest.MapFS{}, logger.Nop())
	if err != nil {
		t.Fatalf("LoadFS: %v", err)
	}
	_, err = r.Resolve("nope", false)
	if apierr.KindOf(err) != apierr.KindNotFound {
		t.Fatalf("kind: want=not_found got=%s", apierr.KindOf(err))
	}
}

func TestModelBatchAndFallback(t *testing.T) {
	r, _ := LoadFS(fstest.MapFS{}, logger.Nop())
	if m := r.Model(ArticleWriter, true); m.Model != haiku {
		t.Fatalf("batch model: want=%s got=%s", haiku, m.Model)
	}
	if m := r.Model(ArticleWriter, false); m.Model != sonnet {
		t.Fatalf("model: want=%s got=%s", sonnet, m.Model)
	}
	if m := r.Model(Researcher, true); m.Model != sonnet {
		t.Fatalf("batch without variant: want=%s got=%s", sonnet, m.Model)
	}
	m := r.Model("unregistered", false)
	if m.Provider != llm.ProviderAnthropic || m.Model != defaultModel.Model {
		t.Fatalf("fallback: got=%+v", m)
	}
}
