package workflow

import (
	"fmt"
	"strings"

	types "github.com/yungbote/trainforge-backend/internal/domain/training"
	"github.com/yungbote/trainforge-backend/internal/workflow/parse"
)

type promptBuilder struct{ b strings.Builder }

func (p *promptBuilder) section(title, body string) {
	body = strings.TrimSpace(body)
	if body == "" {
		return
	}
	if p.b.Len() > 0 {
		p.b.WriteString("\n\n")
	}
	fmt.Fprintf(&p.b, "## %s\n%s", title, body)
}

func (p *promptBuilder) line(format string, args ...any) {
	if p.b.Len() > 0 {
		p.b.WriteString("\n\n")
	}
	fmt.Fprintf(&p.b, format, args...)
}

func (p *promptBuilder) String() string { return p.b.String() }

func briefBlock(p *types.Project) string {
	var b strings.Builder
	field := func(label, v string) {
		if v = strings.TrimSpace(v); v != "" {
			fmt.Fprintf(&b, "- %s: %s\n", label, v)
		}
	}
	field("Program", p.Name)
	field("Objectives", p.Objectives)
	field("Audience", p.Audience)
	field("Expected outcomes", p.Outcomes)
	field("Constraints", p.Constraints)
	field("Angle", p.Angle)
	field("Language", p.Language)
	field("Deliverables", p.Deliverables)
	if len(p.CompanyContext) > 0 && string(p.CompanyContext) != "null" {
		field("Company context", string(p.CompanyContext))
	}
	return b.String()
}

// sourcesBlock lists strict-fidelity materials before context materials.
func sourcesBlock(sources []*types.SourceMaterial) string {
	var strict, background strings.Builder
	for _, s := range sources {
		target := &background
		if s.Strict() {
			target = &strict
		}
		title := s.Title
		if title == "" {
			title = s.Filename
		}
		fmt.Fprintf(target, "### %s\n%s\n\n", title, strings.TrimSpace(s.Content))
	}
	var out strings.Builder
	if strict.Len() > 0 {
		out.WriteString("STRICT FIDELITY: content must conform exactly to the following material.\n\n")
		out.WriteString(strict.String())
	}
	if background.Len() > 0 {
		out.WriteString("CONTEXT: background material, use where relevant.\n\n")
		out.WriteString(background.String())
	}
	return out.String()
}

func strictSources(sources []*types.SourceMaterial) []*types.SourceMaterial {
	var out []*types.SourceMaterial
	for _, s := range sources {
		if s.Strict() {
			out = append(out, s)
		}
	}
	return out
}

func researchPrompt(p *types.Project, sources []*types.SourceMaterial) string {
	var pb promptBuilder
	pb.section("Training brief", briefBlock(p))
	pb.section("Source materials", sourcesBlock(sources))
	pb.line("Research the subject, the audience and effective training approaches for this brief.")
	return pb.String()
}

func validationPrompt(p *types.Project, research string) string {
	var pb promptBuilder
	pb.section("Training brief", briefBlock(p))
	pb.section("Research to review", research)
	return pb.String()
}

func deepeningPrompt(p *types.Project, research string, v parse.Validation) string {
	var issues strings.Builder
	for _, g := range v.FlaggedGaps() {
		fmt.Fprintf(&issues, "- Gap (%s) %s: %s\n", g.Severity, g.Topic, g.Description)
	}
	for _, c := range v.Contradictions {
		fmt.Fprintf(&issues, "- Contradiction: %s\n", c.Description)
	}
	for _, a := range v.AlternativeViewpoints {
		fmt.Fprintf(&issues, "- Missing viewpoint: %s %s\n", a.Viewpoint, a.Rationale)
	}
	var pb promptBuilder
	pb.section("Training brief", briefBlock(p))
	pb.section("Existing research", research)
	pb.section("Issues found in review", issues.String())
	pb.line("Write an addendum that resolves every issue above. Do not repeat the existing research.")
	return pb.String()
}

func debriefPrompt(p *types.Project, research string, v *parse.Validation, previous, feedback string) string {
	var pb promptBuilder
	pb.section("Training brief", briefBlock(p))
	pb.section("Research", research)
	if v != nil && strings.TrimSpace(v.OverallQuality) != "" {
		pb.section("Research quality", v.OverallQuality)
	}
	pb.section("Previous debrief", previous)
	pb.section("Client feedback", feedback)
	return pb.String()
}

func feedbackPrompt(debrief, feedback string) string {
	var pb promptBuilder
	pb.section("Debrief", debrief)
	pb.section("Client feedback", feedback)
	pb.line("Acknowledge the feedback briefly and say how it would change the program. Do not rewrite the debrief.")
	return pb.String()
}

func sourceAnalysisPrompt(p *types.Project, sources []*types.SourceMaterial) string {
	var pb promptBuilder
	pb.section("Training brief", briefBlock(p))
	pb.section("Source materials", sourcesBlock(sources))
	return pb.String()
}

// designContext stacks the approved debrief and the earlier design steps for a specialist.
func designContext(p *types.Project, debrief, approvedDirection string, prior map[string]string, order []string) string {
	var pb promptBuilder
	pb.section("Training brief", briefBlock(p))
	pb.section("Approved debrief", debrief)
	pb.section("Chosen direction", approvedDirection)
	for _, name := range order {
		pb.section(stepTitle(name), prior[name])
	}
	return pb.String()
}

func stepTitle(step string) string {
	switch step {
	case types.StepSourceAnalysis:
		return "Source analysis"
	case types.StepArchitecture:
		return "Program architecture"
	case types.StepInstructionalDesign:
		return "Instructional design"
	case types.StepActivityDesign:
		return "Activity design"
	}
	return step
}

func programDesignPrompt(p *types.Project, sources []*types.SourceMaterial, previous string) string {
	var pb promptBuilder
	pb.section("Training brief", briefBlock(p))
	pb.section("Source materials", sourcesBlock(sources))
	if previous != "" {
		pb.section("Previous design", previous)
		pb.line("Produce a revised program overview and matrix that keeps what works in the previous design.")
	}
	return pb.String()
}

type sessionContext struct {
	Project *types.Project
	Chapter *types.Chapter
	Session *types.Session
	Sources []*types.SourceMaterial
}

func (sc sessionContext) block() string {
	var b strings.Builder
	fmt.Fprintf(&b, "- Chapter %d: %s\n", sc.Chapter.Number, sc.Chapter.Title)
	fmt.Fprintf(&b, "- Session %d.%d: %s\n", sc.Chapter.Number, sc.Session.Number, sc.Session.Title)
	if d := strings.TrimSpace(sc.Session.Description); d != "" {
		fmt.Fprintf(&b, "- Description: %s\n", d)
	}
	if o := strings.TrimSpace(sc.Session.Objectives); o != "" {
		fmt.Fprintf(&b, "- Objectives:\n%s\n", o)
	}
	return b.String()
}

func articlePrompt(sc sessionContext, previous, feedback string) string {
	var pb promptBuilder
	pb.section("Training brief", briefBlock(sc.Project))
	pb.section("Session", sc.block())
	pb.section("Source materials", sourcesBlock(sc.Sources))
	pb.section("Previous version", previous)
	pb.section("Reviewer feedback", feedback)
	return pb.String()
}

func reviewPrompt(sc sessionContext, article string) string {
	var pb promptBuilder
	pb.section("Session", sc.block())
	pb.section("Article", article)
	return pb.String()
}

func factCheckPrompt(sc sessionContext, article string) string {
	var pb promptBuilder
	pb.section("Strict source materials", sourcesBlock(strictSources(sc.Sources)))
	pb.section("Article", article)
	return pb.String()
}

func videoPrompt(sc sessionContext, article, previous, feedback string) string {
	var pb promptBuilder
	pb.section("Training brief", briefBlock(sc.Project))
	pb.section("Session", sc.block())
	pb.section("Approved article", article)
	pb.section("Previous script", previous)
	pb.section("Feedback", feedback)
	return pb.String()
}

func quizPrompt(sc sessionContext, article string, count int) string {
	var pb promptBuilder
	pb.section("Session", sc.block())
	pb.section("Approved article", article)
	pb.line("Write %d questions.", count)
	return pb.String()
}
