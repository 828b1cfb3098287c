package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/yungbote/trainforge-backend/internal/data/repos"
	types "github.com/yungbote/trainforge-backend/internal/domain/training"
	"github.com/yungbote/trainforge-backend/internal/platform/apierr"
	"github.com/yungbote/trainforge-backend/internal/platform/dbctx"
	"github.com/yungbote/trainforge-backend/internal/platform/logger"
)

type Format string

const (
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatMarkdown, "markdown":
		return FormatMarkdown, nil
	case FormatHTML:
		return FormatHTML, nil
	}
	return "", apierr.Validation("invalid_format", fmt.Errorf("format must be md or html"))
}

type Document struct {
	Filename    string
	ContentType string
	Body        []byte
}

// Exporter assembles a project's approved material into one document.
type Exporter struct {
	log   *logger.Logger
	repos repos.Set
	md    goldmark.Markdown
}

func NewExporter(baseLog *logger.Logger, set repos.Set) *Exporter {
	return &Exporter{
		log:   baseLog.With("service", "Exporter"),
		repos: set,
		md:    goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

func (e *Exporter) Export(dbc dbctx.Context, projectID uuid.UUID, f Format) (*Document, error) {
	p, err := e.repos.Project.GetByID(dbc, projectID)
	if err != nil {
		return nil, err
	}
	md, err := e.Markdown(dbc, p)
	if err != nil {
		return nil, err
	}
	base := slug(p.Name)
	if f == FormatHTML {
		body, err := e.HTML(p.Name, md)
		if err != nil {
			return nil, err
		}
		return &Document{Filename: base + ".html", ContentType: "text/html; charset=utf-8", Body: body}, nil
	}
	return &Document{Filename: base + ".md", ContentType: "text/markdown; charset=utf-8", Body: []byte(md)}, nil
}

// Markdown renders the matrix narrative, the structure and every approved article and quiz.
func (e *Exporter) Markdown(dbc dbctx.Context, p *types.Project) (string, error) {
	chapters, err := e.repos.Chapter.ListByProject(dbc, p.ID)
	if err != nil {
		return "", err
	}
	matrix, err := e.repos.ProgramMatrix.GetByProject(dbc, p.ID)
	if err != nil && apierr.KindOf(err) != apierr.KindNotFound {
		return "", err
	}
	articles, err := e.repos.Article.ListByProject(dbc, p.ID)
	if err != nil {
		return "", err
	}
	var sessionIDs []uuid.UUID
	for _, ch := range chapters {
		for _, s := range ch.Sessions {
			sessionIDs = append(sessionIDs, s.ID)
		}
	}
	quizzes, err := e.repos.Quiz.ListBySessions(dbc, sessionIDs)
	if err != nil {
		return "", err
	}
	approvedArticles := map[uuid.UUID]*types.Article{}
	for _, a := range articles {
		if a.Approved {
			approvedArticles[a.SessionID] = a
		}
	}
	approvedQuizzes := map[uuid.UUID]*types.Quiz{}
	for _, q := range quizzes {
		if q.Approved {
			approvedQuizzes[q.SessionID] = q
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", p.Name)
	brief := [][2]string{
		{"Objectives", p.Objectives},
		{"Audience", p.Audience},
		{"Outcomes", p.Outcomes},
	}
	for _, kv := range brief {
		if v := strings.TrimSpace(kv[1]); v != "" {
			fmt.Fprintf(&b, "\n**%s:** %s\n", kv[0], v)
		}
	}
	if matrix != nil && strings.TrimSpace(matrix.Narrative) != "" {
		fmt.Fprintf(&b, "\n## Program overview\n\n%s\n", strings.TrimSpace(matrix.Narrative))
	}
	for _, ch := range chapters {
		fmt.Fprintf(&b, "\n## Chapter %d: %s\n", ch.Number, ch.Title)
		if d := strings.TrimSpace(ch.Description); d != "" {
			fmt.Fprintf(&b, "\n%s\n", d)
		}
		for _, s := range ch.Sessions {
			fmt.Fprintf(&b, "\n### %d.%d %s\n", ch.Number, s.Number, s.Title)
			if d := strings.TrimSpace(s.Description); d != "" {
				fmt.Fprintf(&b, "\n%s\n", d)
			}
			if o := strings.TrimSpace(s.Objectives); o != "" {
				fmt.Fprintf(&b, "\n**Objectives:**\n\n%s\n", o)
			}
			if a, ok := approvedArticles[s.ID]; ok {
				fmt.Fprintf(&b, "\n%s\n", demoteHeadings(a.Content))
			}
			if q, ok := approvedQuizzes[s.ID]; ok {
				writeQuiz(&b, q)
			}
		}
	}
	return b.String(), nil
}

func writeQuiz(b *strings.Builder, q *types.Quiz) {
	title := strings.TrimSpace(q.Title)
	if title == "" {
		title = "Quiz"
	}
	fmt.Fprintf(b, "\n#### %s\n", title)
	for i, qq := range q.Questions {
		var options []string
		_ = json.Unmarshal(qq.Options, &options)
		fmt.Fprintf(b, "\n%d. %s\n", i+1, qq.Prompt)
		for j, opt := range options {
			mark := " "
			if j == qq.CorrectIndex {
				mark = "x"
			}
			fmt.Fprintf(b, "   - [%s] %s\n", mark, opt)
		}
		if e := strings.TrimSpace(qq.Explanation); e != "" {
			fmt.Fprintf(b, "\n   *%s*\n", e)
		}
	}
}

var headingRe = regexp.MustCompile(`(?m)^(#{1,3}) `)

// demoteHeadings pushes article headings below the session heading.
func demoteHeadings(md string) string {
	return headingRe.ReplaceAllString(strings.TrimSpace(md), "###$1 ")
}

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// HTML renders md through goldmark (GFM tables and task lists) inside a minimal page.
func (e *Exporter) HTML(title, md string) ([]byte, error) {
	var body bytes.Buffer
	if err := e.md.Convert([]byte(md), &body); err != nil {
		return nil, apierr.Internal("export_render_failed", err)
	}
	var page bytes.Buffer
	err := pageTmpl.Execute(&page, struct {
		Title string
		Body  template.HTML
	}{Title: title, Body: template.HTML(body.String())})
	if err != nil {
		return nil, apierr.Internal("export_render_failed", err)
	}
	return page.Bytes(), nil
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

func slug(name string) string {
	s := strings.Trim(slugRe.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if s == "" {
		return "training-program"
	}
	return s
}
