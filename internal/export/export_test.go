package export

import (
	"context"
	"strings"
	"testing"

	"gorm.io/datatypes"

	"github.com/yungbote/trainforge-backend/internal/data/repos"
	"github.com/yungbote/trainforge-backend/internal/data/repos/testutil"
	types "github.com/yungbote/trainforge-backend/internal/domain/training"
	"github.com/yungbote/trainforge-backend/internal/platform/dbctx"
)

func TestExportIncludesOnlyApprovedContent(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	set := repos.NewSet(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx}

	p := testutil.SeedProject(t, ctx, db, "all")
	chapters := testutil.SeedStructure(t, ctx, db, p.ID, 2)
	s1, s2 := chapters[0].Sessions[0], chapters[0].Sessions[1]

	a1, err := set.Article.Replace(dbc, &types.Article{SessionID: s1.ID, ProjectID: p.ID, Content: "# Approved body\n\nKeep calm."})
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if err := set.Article.UpdateFields(dbc, a1.ID, map[string]interface{}{"approved": true}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	if _, err := set.Article.Replace(dbc, &types.Article{SessionID: s2.ID, ProjectID: p.ID, Content: "Draft body"}); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	q, err := set.Quiz.Replace(dbc, &types.Quiz{SessionID: s1.ID, ProjectID: p.ID, Title: "Check", Questions: []types.Question{
		{Prompt: "Escalate when?", Options: datatypes.JSON(`["Never","Over ten customers"]`), CorrectIndex: 1},
	}})
	if err != nil {
		t.Fatalf("Quiz.Replace: %v", err)
	}
	if err := set.Quiz.UpdateFields(dbc, q.ID, map[string]interface{}{"approved": true}); err != nil {
		t.Fatalf("Quiz.UpdateFields: %v", err)
	}

	e := NewExporter(testutil.Logger(t), set)
	doc, err := e.Export(dbc, p.ID, FormatMarkdown)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	md := string(doc.Body)
	if !strings.HasSuffix(doc.Filename, ".md") {
		t.Fatalf("filename: got=%q", doc.Filename)
	}
	for _, want := range []string{"# " + p.Name, "## Chapter 1", "#### Approved body", "- [x] Over ten customers", "- [ ] Never"} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
	if strings.Contains(md, "Draft body") {
		t.Fatalf("unapproved article leaked into export")
	}

	doc, err = e.Export(dbc, p.ID, FormatHTML)
	if err != nil {
		t.Fatalf("Export(html): %v", err)
	}
	html := string(doc.Body)
	if !strings.Contains(html, "<h4>Approved body</h4>") || !strings.HasPrefix(html, "<!DOCTYPE html>") {
		t.Fatalf("html: got=%s", html)
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat(""); err != nil || f != FormatMarkdown {
		t.Fatalf("ParseFormat(\"\"): got=%s err=%v", f, err)
	}
	if f, err := ParseFormat("HTML"); err != nil || f != FormatHTML {
		t.Fatalf("ParseFormat(HTML): got=%s err=%v", f, err)
	}
	if _, err := ParseFormat("pdf"); err == nil {
		t.Fatalf("ParseFormat(pdf): want error")
	}
}

func TestSlug(t *testing.T) {
	if got := slug("Onboarding for Support: 2026!"); got != "onboarding-for-support-2026" {
		t.Fatalf("slug: got=%q", got)
	}
	if got := slug("***"); got != "training-program" {
		t.Fatalf("slug fallback: got=%q", got)
	}
}
