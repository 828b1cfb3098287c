package workflow

import (
	"context"

	"github.com/yungbote/trainforge-backend/internal/agents"
	types "github.com/yungbote/trainforge-backend/internal/domain/training"
	"github.com/yungbote/trainforge-backend/internal/workflow/parse"
)

// optimizedPipeline collapses research and structural design into one program-designer call.
type optimizedPipeline struct{ *core }

func (o *optimizedPipeline) Variant() Variant { return VariantOptimized }

func (o *optimizedPipeline) Design(ctx context.Context, p *types.Project, sink Sink) (*DesignResult, error) {
	res := &DesignResult{Variant: VariantOptimized}
	if err := o.startDesign(ctx, p, VariantOptimized, res); err != nil {
		return nil, err
	}
	m, steps, err := o.design(ctx, sink, p, types.StepProgramDesign, "")
	res.Steps = append(res.Steps, steps...)
	if err != nil {
		return nil, err
	}
	res.Matrix = m
	res.Status = p.Status
	return res, nil
}

// Matrix regenerates the matrix from the latest design.
func (o *optimizedPipeline) Matrix(ctx context.Context, p *types.Project, sink Sink) (*MatrixResult, error) {
	design, err := o.requireLatest(ctx, p.ID, types.StepProgramDesign, "design_not_found", "run the design phase before regenerating the matrix")
	if err != nil {
		return nil, err
	}
	previous := design.Result
	last, err := o.latest(ctx, p.ID, types.StepMatrix)
	if err != nil {
		return nil, err
	}
	if last != nil && last.CreatedAt.After(design.CreatedAt) {
		previous = last.Result
	}
	m, _, err := o.design(ctx, sink, p, types.StepMatrix, previous)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (o *optimizedPipeline) design(ctx context.Context, sink Sink, p *types.Project, step, previous string) (*MatrixResult, []*types.WorkflowStep, error) {
	sources, err := o.sources(ctx, p.ID)
	if err != nil {
		return nil, nil, err
	}
	phase := types.PhaseDesign
	if step == types.StepMatrix {
		phase = types.PhaseMatrix
	}
	call, err := o.cp.run(ctx, sink, stepPlan{
		ProjectID: p.ID,
		Phase:     phase,
		Step:      step,
		Agent:     agents.ProgramDesigner,
		Prompt:    programDesignPrompt(p, sources, previous),
		Stream:    true,
	})
	if err != nil {
		return nil, nil, err
	}
	steps := []*types.WorkflowStep{call.Step}
	m, err := parse.ParseMatrix(call.Response.Content)
	if err != nil {
		return nil, steps, err
	}
	out, err := o.persistMatrix(ctx, p, VariantOptimized, call.Step, m.Value)
	if err != nil {
		return nil, steps, err
	}
	if err := o.advance(ctx, p, step); err != nil {
		return nil, steps, err
	}
	out.Steps = steps
	out.Status = p.Status
	return out, steps, nil
}
