package workflow

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/trainforge-backend/internal/agents"
	"github.com/yungbote/trainforge-backend/internal/data/repos"
	types "github.com/yungbote/trainforge-backend/internal/domain/training"
	"github.com/yungbote/trainforge-backend/internal/llm"
	"github.com/yungbote/trainforge-backend/internal/platform/dbctx"
	"github.com/yungbote/trainforge-backend/internal/platform/logger"
)

type stepPlan struct {
	ProjectID uuid.UUID
	SessionID *uuid.UUID
	Phase     string
	Step      string
	Agent     string
	Prompt    string
	History   []llm.Message
	// Batch selects the agent's bulk model.
	Batch bool
	// Stream forwards text chunks to the sink as they arrive.
	Stream bool
}

type stepCall struct {
	Step     *types.WorkflowStep
	Response *llm.Response
}

// checkpointer records a WorkflowStep around every agent invocation.
type checkpointer struct {
	log      *logger.Logger
	steps    repos.WorkflowStepRepo
	registry *agents.Registry
	gateway  llm.Gateway
}

func newCheckpointer(baseLog *logger.Logger, steps repos.WorkflowStepRepo, registry *agents.Registry, gateway llm.Gateway) *checkpointer {
	return &checkpointer{
		log:      baseLog.With("component", "Checkpointer"),
		steps:    steps,
		registry: registry,
		gateway:  gateway,
	}
}

// run creates the step, calls the agent and completes the step with the raw response.
func (c *checkpointer) run(ctx context.Context, sink Sink, plan stepPlan) (*stepCall, error) {
	call, err := c.begin(ctx, sink, plan)
	if err != nil {
		return nil, err
	}
	if err := c.finish(ctx, call, call.Response.Content); err != nil {
		return nil, err
	}
	return call, nil
}

// begin creates the running step and calls the agent. The caller must finish the step;
// a failed call has already been recorded.
func (c *checkpointer) begin(ctx context.Context, sink Sink, plan stepPlan) (*stepCall, error) {
	sink = orDiscard(sink)
	agent, err := c.registry.Resolve(plan.Agent, plan.Batch)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	step, err := c.steps.Create(dbc, &types.WorkflowStep{
		ProjectID: plan.ProjectID,
		SessionID: plan.SessionID,
		Phase:     plan.Phase,
		StepName:  plan.Step,
		AgentName: agent.Name,
		Status:    types.StepRunning,
		Model:     agent.Model.Model,
	})
	if err != nil {
		return nil, err
	}
	c.log.Info("Step started",
		"project_id", plan.ProjectID,
		"step", plan.Step,
		"agent", agent.Name,
		"model", agent.Model.Model,
	)
	sink.Emit(Event{Type: EventProgress, Step: plan.Step, Message: stepMessage(plan.Step)})

	messages := append(append([]llm.Message{}, plan.History...), llm.UserMessage(plan.Prompt))
	req := agent.Request(messages...)

	started := time.Now()
	var resp *llm.Response
	if plan.Stream {
		resp, err = c.gateway.Stream(ctx, req, func(chunk string) {
			sink.Emit(Event{Type: EventText, Step: plan.Step, Content: chunk})
		})
	} else {
		resp, err = c.gateway.Complete(ctx, req)
	}
	if err != nil {
		c.fail(ctx, step, err)
		return nil, err
	}
	c.log.Info("Step answered",
		"project_id", plan.ProjectID,
		"step", plan.Step,
		"agent", agent.Name,
		"model", resp.Model,
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
		"duration_ms", time.Since(started).Milliseconds(),
	)
	step.Model = resp.Model
	step.InputTokens = resp.Usage.InputTokens
	step.OutputTokens = resp.Usage.OutputTokens
	return &stepCall{Step: step, Response: resp}, nil
}

// finish completes the step with result, which may differ from the raw response when the
// phase stores a normalized value.
func (c *checkpointer) finish(ctx context.Context, call *stepCall, result string) error {
	step := call.Step
	err := c.steps.Complete(dbctx.Context{Ctx: ctx}, step.ID, repos.StepOutcome{
		Result:       result,
		Model:        step.Model,
		InputTokens:  step.InputTokens,
		OutputTokens: step.OutputTokens,
	})
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	step.Status = types.StepCompleted
	step.Result = result
	step.CompletedAt = &now
	return nil
}

func (c *checkpointer) fail(ctx context.Context, step *types.WorkflowStep, cause error) {
	c.log.Warn("Step failed", "project_id", step.ProjectID, "step", step.StepName, "agent", step.AgentName, "error", cause)
	// The request context may be the reason for the failure.
	if err := c.steps.Fail(dbctx.Context{Ctx: context.WithoutCancel(ctx)}, step.ID, cause); err != nil {
		c.log.Error("Could not record step failure", "step_id", step.ID, "error", err)
	}
	step.Status = types.StepFailed
	step.Error = cause.Error()
}

// record appends a completed step that involved no model call, such as a human approval.
func (c *checkpointer) record(ctx context.Context, projectID uuid.UUID, sessionID *uuid.UUID, phase, stepName, result string) (*types.WorkflowStep, error) {
	now := time.Now().UTC()
	step, err := c.steps.Create(dbctx.Context{Ctx: ctx}, &types.WorkflowStep{
		ProjectID:   projectID,
		SessionID:   sessionID,
		Phase:       phase,
		StepName:    stepName,
		AgentName:   agents.User,
		Status:      types.StepCompleted,
		Result:      result,
		StartedAt:   &now,
		CompletedAt: &now,
	})
	if err != nil {
		return nil, err
	}
	c.log.Info("Step recorded", "project_id", projectID, "step", stepName, "agent", agents.User)
	return step, nil
}

var stepMessages = map[string]string{
	types.StepResearch:            "Researching the training topic",
	types.StepResearchValidation:  "Validating research for gaps and contradictions",
	types.StepResearchDeepening:   "Deepening research on flagged gaps",
	types.StepDebrief:             "Writing the debrief",
	types.StepDebriefFeedback:     "Responding to feedback",
	types.StepSourceAnalysis:      "Analyzing source materials",
	types.StepArchitecture:        "Designing the program architecture",
	types.StepInstructionalDesign: "Applying instructional design",
	types.StepActivityDesign:      "Designing learning activities",
	types.StepMatrix:              "Authoring the program matrix",
	types.StepProgramDesign:       "Designing the program",
	types.StepArticleWriting:      "Writing the article",
	types.StepHistReview:          "Reviewing against the HIST standard",
	types.StepFactCheck:           "Fact-checking the article",
	types.StepVideoScript:         "Writing the video script",
	types.StepQuizDesign:          "Designing the quiz",
}

func stepMessage(step string) string {
	if m, ok := stepMessages[step]; ok {
		return m
	}
	return step
}
