// Package workflow runs the training-program phases: design, matrix, content generation and
// the human approvals between them. Every agent invocation is checkpointed as a WorkflowStep.
package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/trainforge-backend/internal/agents"
	"github.com/yungbote/trainforge-backend/internal/conversation"
	"github.com/yungbote/trainforge-backend/internal/data/repos"
	types "github.com/yungbote/trainforge-backend/internal/domain/training"
	"github.com/yungbote/trainforge-backend/internal/llm"
	"github.com/yungbote/trainforge-backend/internal/platform/apierr"
	"github.com/yungbote/trainforge-backend/internal/platform/dbctx"
	"github.com/yungbote/trainforge-backend/internal/platform/logger"
	"github.com/yungbote/trainforge-backend/internal/workflow/parse"
)

type Variant string

const (
	VariantFull      Variant = "full"
	VariantOptimized Variant = "optimized"
)

func ParseVariant(s string) (Variant, error) {
	switch Variant(strings.ToLower(strings.TrimSpace(s))) {
	case "", VariantOptimized:
		return VariantOptimized, nil
	case VariantFull:
		return VariantFull, nil
	}
	return "", apierr.Validation("invalid_variant", fmt.Errorf("variant must be %q or %q", VariantFull, VariantOptimized))
}

type DesignResult struct {
	Variant    Variant               `json:"variant"`
	Status     types.ProjectStatus   `json:"status"`
	Steps      []*types.WorkflowStep `json:"steps"`
	Debrief    *parse.Debrief        `json:"debrief,omitempty"`
	Validation *parse.Validation     `json:"validation,omitempty"`
	Matrix     *MatrixResult         `json:"matrix,omitempty"`
}

type MatrixResult struct {
	Variant  Variant               `json:"variant"`
	Status   types.ProjectStatus   `json:"status"`
	Matrix   *types.ProgramMatrix  `json:"matrix"`
	Chapters []*types.Chapter      `json:"chapters"`
	Steps    []*types.WorkflowStep `json:"steps"`
}

// Pipeline is one strategy for the design and matrix phases. Both variants share the
// persistence contract.
type Pipeline interface {
	Variant() Variant
	Design(ctx context.Context, p *types.Project, sink Sink) (*DesignResult, error)
	Matrix(ctx context.Context, p *types.Project, sink Sink) (*MatrixResult, error)
}

// core holds what the pipelines and the orchestrator share.
type core struct {
	db    *gorm.DB
	log   *logger.Logger
	repos repos.Set
	cp    *checkpointer
}

type Orchestrator struct {
	*core
	locks     Locker
	pipelines map[Variant]Pipeline
}

// NewOrchestrator wires the pipelines. locks may be nil for a process-local session lock.
func NewOrchestrator(
	db *gorm.DB,
	baseLog *logger.Logger,
	set repos.Set,
	registry *agents.Registry,
	gateway llm.Gateway,
	locks Locker,
) *Orchestrator {
	log := baseLog.With("service", "WorkflowOrchestrator")
	c := &core{
		db:    db,
		log:   log,
		repos: set,
		cp:    newCheckpointer(log, set.WorkflowStep, registry, gateway),
	}
	if locks == nil {
		locks = conversation.NewMemoryStore(0)
	}
	return &Orchestrator{
		core:  c,
		locks: locks,
		pipelines: map[Variant]Pipeline{
			VariantFull:      &fullPipeline{core: c},
			VariantOptimized: &optimizedPipeline{core: c},
		},
	}
}

func (o *Orchestrator) Pipeline(v Variant) (Pipeline, error) {
	p, ok := o.pipelines[v]
	if !ok {
		return nil, apierr.Validation("invalid_variant", fmt.Errorf("unknown pipeline %q", v))
	}
	return p, nil
}

func (o *Orchestrator) Design(ctx context.Context, projectID uuid.UUID, v Variant, sink Sink) (*DesignResult, error) {
	pl, err := o.Pipeline(v)
	if err != nil {
		return nil, err
	}
	p, err := o.loadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return pl.Design(ctx, p, orDiscard(sink))
}

func (o *Orchestrator) Matrix(ctx context.Context, projectID uuid.UUID, v Variant, sink Sink) (*MatrixResult, error) {
	pl, err := o.Pipeline(v)
	if err != nil {
		return nil, err
	}
	p, err := o.loadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return pl.Matrix(ctx, p, orDiscard(sink))
}

func (c *core) loadProject(ctx context.Context, id uuid.UUID) (*types.Project, error) {
	return c.repos.Project.GetByID(dbctx.Context{Ctx: ctx}, id)
}

// advance applies the transition for a completed step and persists the new status.
func (c *core) advance(ctx context.Context, p *types.Project, step string) error {
	next, changed := types.Advance(p.Status, step, p.Wants())
	if !changed {
		return nil
	}
	if err := c.repos.Project.SetStatus(dbctx.Context{Ctx: ctx}, p.ID, next); err != nil {
		return err
	}
	c.log.Info("Project status advanced", "project_id", p.ID, "from", p.Status, "to", next, "step", step)
	p.Status = next
	return nil
}

// startDesign records the user's decision to begin design on a fresh project.
func (c *core) startDesign(ctx context.Context, p *types.Project, v Variant, res *DesignResult) error {
	if p.Status != types.StatusInformationGathering {
		return nil
	}
	step, err := c.cp.record(ctx, p.ID, nil, types.PhaseDesign, types.StepDesignStarted, string(v))
	if err != nil {
		return err
	}
	res.Steps = append(res.Steps, step)
	return c.advance(ctx, p, types.StepDesignStarted)
}

func (c *core) latest(ctx context.Context, projectID uuid.UUID, step string) (*types.WorkflowStep, error) {
	return c.repos.WorkflowStep.Latest(dbctx.Context{Ctx: ctx}, projectID, step)
}

func (c *core) requireLatest(ctx context.Context, projectID uuid.UUID, step, code, msg string) (*types.WorkflowStep, error) {
	s, err := c.latest(ctx, projectID, step)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, apierr.Validation(code, fmt.Errorf("%s", msg))
	}
	return s, nil
}

// latestResearch prefers a deepened research text over the plain research it extends.
func (c *core) latestResearch(ctx context.Context, projectID uuid.UUID) (string, error) {
	research, err := c.latest(ctx, projectID, types.StepResearch)
	if err != nil {
		return "", err
	}
	deep, err := c.latest(ctx, projectID, types.StepResearchDeepening)
	if err != nil {
		return "", err
	}
	switch {
	case deep != nil && (research == nil || !deep.CreatedAt.Before(research.CreatedAt)):
		return deep.Result, nil
	case research != nil:
		return research.Result, nil
	}
	return "", nil
}

func (c *core) latestValidation(ctx context.Context, projectID uuid.UUID) (*parse.Validation, error) {
	s, err := c.latest(ctx, projectID, types.StepResearchValidation)
	if err != nil || s == nil {
		return nil, err
	}
	v := parse.ParseValidation(s.Result).Value
	return &v, nil
}

func (c *core) sources(ctx context.Context, projectID uuid.UUID) ([]*types.SourceMaterial, error) {
	return c.repos.SourceMaterial.ListByProject(dbctx.Context{Ctx: ctx}, projectID)
}

// persistMatrix replaces the project's chapters, sessions and matrix in one transaction.
func (c *core) persistMatrix(ctx context.Context, p *types.Project, v Variant, step *types.WorkflowStep, m parse.Matrix) (*MatrixResult, error) {
	chapters := make([]*types.Chapter, 0, len(m.Chapters))
	for _, mc := range m.Chapters {
		ch := &types.Chapter{Number: mc.Number, Title: mc.Title, Description: mc.Description}
		for _, ms := range mc.Sessions {
			ch.Sessions = append(ch.Sessions, types.Session{
				Number:      ms.Number,
				Title:       ms.Title,
				Description: ms.Description,
				Objectives:  ms.Objectives,
			})
		}
		chapters = append(chapters, ch)
	}
	var stepID *uuid.UUID
	if step != nil {
		id := step.ID
		stepID = &id
	}
	out := &MatrixResult{Variant: v}
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		saved, err := c.repos.Chapter.ReplaceStructure(dbc, p.ID, chapters)
		if err != nil {
			return err
		}
		matrix, err := c.repos.ProgramMatrix.Upsert(dbc, &types.ProgramMatrix{
			ProjectID: p.ID,
			Variant:   string(v),
			Narrative: m.Narrative,
			Table:     m.Table,
			StepID:    stepID,
		})
		if err != nil {
			return err
		}
		out.Chapters = saved
		out.Matrix = matrix
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.log.Info("Matrix persisted", "project_id", p.ID, "variant", v, "chapters", len(chapters), "sessions", m.SessionCount())
	return out, nil
}

type DebriefView struct {
	Step       *types.WorkflowStep `json:"step"`
	Debrief    parse.Debrief       `json:"debrief"`
	Validation *parse.Validation   `json:"validation,omitempty"`
	Degraded   bool                `json:"degraded"`
	Approved   bool                `json:"approved"`
}

// Text renders the debrief as prose for prompts.
func (v *DebriefView) Text() string { return renderDebrief(v.Debrief) }

func (o *Orchestrator) Debrief(ctx context.Context, projectID uuid.UUID) (*DebriefView, error) {
	step, err := o.latest(ctx, projectID, types.StepDebrief)
	if err != nil {
		return nil, err
	}
	if step == nil {
		return nil, apierr.NotFound("debrief_not_found", "project %s has no debrief yet", projectID)
	}
	res := parse.ParseDebrief(step.Result)
	view := &DebriefView{Step: step, Debrief: res.Value, Degraded: res.Degraded}
	if view.Validation, err = o.latestValidation(ctx, projectID); err != nil {
		return nil, err
	}
	approval, err := o.latest(ctx, projectID, types.StepDebriefApproval)
	if err != nil {
		return nil, err
	}
	_, view.Approved = approvalFor(approval, step)
	return view, nil
}

type debriefApproval struct {
	DebriefStepID uuid.UUID `json:"debrief_step_id"`
	Alternative   int       `json:"alternative"`
}

// approvalFor reports whether the approval step was recorded for this debrief step.
// A regenerated debrief is unapproved until it is approved itself.
func approvalFor(approval, debrief *types.WorkflowStep) (debriefApproval, bool) {
	var choice debriefApproval
	if approval == nil || debrief == nil {
		return choice, false
	}
	if err := json.Unmarshal([]byte(approval.Result), &choice); err != nil {
		return choice, false
	}
	return choice, choice.DebriefStepID == debrief.ID
}

// ApproveDebrief records the human approval. A degraded debrief can still be approved;
// approval is the review gate for it. alternative defaults to the recommended direction.
func (o *Orchestrator) ApproveDebrief(ctx context.Context, projectID uuid.UUID, alternative *int) (*types.WorkflowStep, error) {
	p, err := o.loadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	view, err := o.Debrief(ctx, projectID)
	if err != nil {
		return nil, err
	}
	choice := int(view.Debrief.Recommended)
	if alternative != nil {
		choice = *alternative
	}
	if choice < 0 || choice >= len(view.Debrief.Alternatives) {
		return nil, apierr.Validation("invalid_alternative", fmt.Errorf("alternative must be between 0 and %d", len(view.Debrief.Alternatives)-1))
	}
	body, _ := json.Marshal(debriefApproval{DebriefStepID: view.Step.ID, Alternative: choice})
	step, err := o.cp.record(ctx, projectID, nil, types.PhaseReview, types.StepDebriefApproval, string(body))
	if err != nil {
		return nil, err
	}
	if err := o.advance(ctx, p, types.StepDebriefApproval); err != nil {
		return nil, err
	}
	return step, nil
}

type FeedbackResult struct {
	Step            *types.WorkflowStep `json:"step"`
	Acknowledgement string              `json:"acknowledgement,omitempty"`
	Debrief         *parse.Debrief      `json:"debrief,omitempty"`
}

// DebriefFeedback either acknowledges feedback without touching the debrief, or writes a
// new debrief step that addresses it.
func (o *Orchestrator) DebriefFeedback(ctx context.Context, projectID uuid.UUID, feedback string, regenerate bool, sink Sink) (*FeedbackResult, error) {
	sink = orDiscard(sink)
	feedback = strings.TrimSpace(feedback)
	if feedback == "" {
		return nil, apierr.Validation("feedback_required", fmt.Errorf("feedback is required"))
	}
	p, err := o.loadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	view, err := o.Debrief(ctx, projectID)
	if err != nil {
		return nil, err
	}
	current := renderDebrief(view.Debrief)

	if !regenerate {
		call, err := o.cp.run(ctx, sink, stepPlan{
			ProjectID: p.ID,
			Phase:     types.PhaseReview,
			Step:      types.StepDebriefFeedback,
			Agent:     agents.FeedbackResponder,
			Prompt:    feedbackPrompt(current, feedback),
			Stream:    true,
		})
		if err != nil {
			return nil, err
		}
		return &FeedbackResult{Step: call.Step, Acknowledgement: call.Response.Content}, nil
	}

	research, err := o.latestResearch(ctx, projectID)
	if err != nil {
		return nil, err
	}
	step, d, err := o.writeDebrief(ctx, sink, p, research, view.Validation, current, feedback)
	if err != nil {
		return nil, err
	}
	return &FeedbackResult{Step: step, Debrief: d}, nil
}

// writeDebrief stores the raw debrief on its step; readers parse it with the same fallback.
func (c *core) writeDebrief(ctx context.Context, sink Sink, p *types.Project, research string, v *parse.Validation, previous, feedback string) (*types.WorkflowStep, *parse.Debrief, error) {
	call, err := c.cp.run(ctx, sink, stepPlan{
		ProjectID: p.ID,
		Phase:     types.PhaseDesign,
		Step:      types.StepDebrief,
		Agent:     agents.DebriefWriter,
		Prompt:    debriefPrompt(p, research, v, previous, feedback),
	})
	if err != nil {
		return nil, nil, err
	}
	res := parse.ParseDebrief(call.Response.Content)
	if res.Degraded {
		progressf(sink, types.StepDebrief, "Debrief was not in the expected format; showing a best-effort version for review")
	}
	d := res.Value
	return call.Step, &d, nil
}

// ApproveMatrix marks the current matrix approved and opens content generation.
func (o *Orchestrator) ApproveMatrix(ctx context.Context, projectID uuid.UUID) (*types.ProgramMatrix, error) {
	p, err := o.loadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	m, err := o.repos.ProgramMatrix.GetByProject(dbc, projectID)
	if err != nil {
		return nil, err
	}
	if m.Approved {
		return m, nil
	}
	if err := o.repos.ProgramMatrix.MarkApproved(dbc, projectID); err != nil {
		return nil, err
	}
	if _, err := o.cp.record(ctx, projectID, nil, types.PhaseReview, types.StepMatrixApproval, m.ID.String()); err != nil {
		return nil, err
	}
	if err := o.advance(ctx, p, types.StepMatrixApproval); err != nil {
		return nil, err
	}
	return o.repos.ProgramMatrix.GetByProject(dbc, projectID)
}

func renderDebrief(d parse.Debrief) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(d.Summary))
	if len(d.KeyFindings) > 0 {
		b.WriteString("\n\nKey findings:\n")
		for _, f := range d.KeyFindings {
			fmt.Fprintf(&b, "- %s\n", f)
		}
	}
	for i, a := range d.Alternatives {
		fmt.Fprintf(&b, "\n\nAlternative %d: %s\n%s", i+1, a.Title, a.Description)
		if a.Approach != "" {
			fmt.Fprintf(&b, "\nApproach: %s", a.Approach)
		}
	}
	return strings.TrimSpace(b.String())
}

func renderAlternative(a parse.Alternative) string {
	parts := []string{a.Title, a.Description}
	if a.Approach != "" {
		parts = append(parts, "Approach: "+a.Approach)
	}
	return strings.Join(parts, "\n")
}
