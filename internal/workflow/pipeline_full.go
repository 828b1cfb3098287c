package workflow

import (
	"context"
	"fmt"

	"github.com/yungbote/trainforge-backend/internal/agents"
	types "github.com/yungbote/trainforge-backend/internal/domain/training"
	"github.com/yungbote/trainforge-backend/internal/platform/apierr"
	"github.com/yungbote/trainforge-backend/internal/workflow/parse"
)

// fullPipeline runs every specialist agent as its own step.
type fullPipeline struct{ *core }

func (f *fullPipeline) Variant() Variant { return VariantFull }

// Design runs research, validation (with at most one deepening pass) and the debrief.
func (f *fullPipeline) Design(ctx context.Context, p *types.Project, sink Sink) (*DesignResult, error) {
	res := &DesignResult{Variant: VariantFull}
	if err := f.startDesign(ctx, p, VariantFull, res); err != nil {
		return nil, err
	}
	sources, err := f.sources(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	research, err := f.cp.run(ctx, sink, stepPlan{
		ProjectID: p.ID,
		Phase:     types.PhaseDesign,
		Step:      types.StepResearch,
		Agent:     agents.Researcher,
		Prompt:    researchPrompt(p, sources),
		Stream:    true,
	})
	if err != nil {
		return nil, err
	}
	res.Steps = append(res.Steps, research.Step)

	text, v, steps, err := f.validateResearch(ctx, sink, p, research.Response.Content)
	res.Steps = append(res.Steps, steps...)
	if err != nil {
		return nil, err
	}
	res.Validation = &v

	step, d, err := f.writeDebrief(ctx, sink, p, text, &v, "", "")
	if err != nil {
		return nil, err
	}
	res.Steps = append(res.Steps, step)
	res.Debrief = d
	if err := f.advance(ctx, p, types.StepDebrief); err != nil {
		return nil, err
	}
	res.Status = p.Status
	return res, nil
}

// validateResearch brackets the optional deepening call inside the validation step, so the
// stored validation records which gaps the deepening resolved. It returns the research text
// downstream steps should use.
func (f *fullPipeline) validateResearch(ctx context.Context, sink Sink, p *types.Project, research string) (string, parse.Validation, []*types.WorkflowStep, error) {
	call, err := f.cp.begin(ctx, sink, stepPlan{
		ProjectID: p.ID,
		Phase:     types.PhaseDesign,
		Step:      types.StepResearchValidation,
		Agent:     agents.ResearchValidator,
		Prompt:    validationPrompt(p, research),
	})
	if err != nil {
		return "", parse.Validation{}, nil, err
	}
	parsedV := parse.ParseValidation(call.Response.Content)
	v := parsedV.Value
	stored := func() string { return v.Encode() }
	if parsedV.Degraded {
		progressf(sink, types.StepResearchValidation, "Validation output was unreadable; continuing with the research as written")
		// Keep what the model said; it reads back as the same empty validation.
		stored = func() string { return call.Response.Content }
	}

	text := research
	var steps []*types.WorkflowStep
	if v.NeedsDeepening() {
		progressf(sink, types.StepResearchValidation, "Review flagged %d gaps and %d missing viewpoints", len(v.FlaggedGaps()), len(v.AlternativeViewpoints))
		deep, err := f.cp.begin(ctx, sink, stepPlan{
			ProjectID: p.ID,
			Phase:     types.PhaseDesign,
			Step:      types.StepResearchDeepening,
			Agent:     agents.Researcher,
			Prompt:    deepeningPrompt(p, research, v),
			Stream:    true,
		})
		if err != nil {
			if ferr := f.cp.finish(ctx, call, stored()); ferr == nil {
				steps = append(steps, call.Step)
			}
			return "", v, steps, err
		}
		text = research + "\n\n" + deep.Response.Content
		if err := f.cp.finish(ctx, deep, text); err != nil {
			return "", v, steps, err
		}
		v.MarkResolved()
		steps = append(steps, deep.Step)
	}
	if err := f.cp.finish(ctx, call, stored()); err != nil {
		return "", v, steps, err
	}
	steps = append([]*types.WorkflowStep{call.Step}, steps...)
	return text, v, steps, nil
}

type specialist struct {
	step  string
	agent string
}

var matrixSpecialists = []specialist{
	{types.StepArchitecture, agents.ProgramArchitect},
	{types.StepInstructionalDesign, agents.InstructionalDesigner},
	{types.StepActivityDesign, agents.ActivityDesigner},
}

// Matrix needs an approved debrief. Each specialist sees the outputs of the ones before it.
func (f *fullPipeline) Matrix(ctx context.Context, p *types.Project, sink Sink) (*MatrixResult, error) {
	debriefStep, err := f.requireLatest(ctx, p.ID, types.StepDebrief, "debrief_not_found", "the project has no debrief")
	if err != nil {
		return nil, err
	}
	approval, err := f.latest(ctx, p.ID, types.StepDebriefApproval)
	if err != nil {
		return nil, err
	}
	choice, ok := approvalFor(approval, debriefStep)
	if !ok {
		return nil, apierr.Validation("debrief_not_approved", fmt.Errorf("the latest debrief must be approved before the matrix is designed"))
	}
	debrief := parse.ParseDebrief(debriefStep.Result).Value
	direction := ""
	if choice.Alternative >= 0 && choice.Alternative < len(debrief.Alternatives) {
		direction = renderAlternative(debrief.Alternatives[choice.Alternative])
	}
	sources, err := f.sources(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	var steps []*types.WorkflowStep
	prior := map[string]string{}
	var order []string
	if len(sources) > 0 {
		call, err := f.cp.run(ctx, sink, stepPlan{
			ProjectID: p.ID,
			Phase:     types.PhaseMatrix,
			Step:      types.StepSourceAnalysis,
			Agent:     agents.SourceAnalyst,
			Prompt:    sourceAnalysisPrompt(p, sources),
		})
		if err != nil {
			return nil, err
		}
		steps = append(steps, call.Step)
		prior[types.StepSourceAnalysis] = call.Response.Content
		order = append(order, types.StepSourceAnalysis)
	} else {
		progressf(sink, types.StepSourceAnalysis, "No source materials; skipping source analysis")
	}

	debriefText := renderDebrief(debrief)
	for _, sp := range matrixSpecialists {
		call, err := f.cp.run(ctx, sink, stepPlan{
			ProjectID: p.ID,
			Phase:     types.PhaseMatrix,
			Step:      sp.step,
			Agent:     sp.agent,
			Prompt:    designContext(p, debriefText, direction, prior, order),
		})
		if err != nil {
			return nil, err
		}
		steps = append(steps, call.Step)
		prior[sp.step] = call.Response.Content
		order = append(order, sp.step)
	}

	call, err := f.cp.run(ctx, sink, stepPlan{
		ProjectID: p.ID,
		Phase:     types.PhaseMatrix,
		Step:      types.StepMatrix,
		Agent:     agents.MatrixAuthor,
		Prompt:    designContext(p, debriefText, direction, prior, order),
		Stream:    true,
	})
	if err != nil {
		return nil, err
	}
	steps = append(steps, call.Step)

	m, err := parse.ParseMatrix(call.Response.Content)
	if err != nil {
		return nil, err
	}
	out, err := f.persistMatrix(ctx, p, VariantFull, call.Step, m.Value)
	if err != nil {
		return nil, err
	}
	if err := f.advance(ctx, p, types.StepMatrix); err != nil {
		return nil, err
	}
	out.Steps = steps
	out.Status = p.Status
	return out, nil
}
