package workflow

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"gorm.io/gorm"

	"github.com/yungbote/trainforge-backend/internal/agents"
	"github.com/yungbote/trainforge-backend/internal/data/repos"
	"github.com/yungbote/trainforge-backend/internal/data/repos/testutil"
	"github.com/yungbote/trainforge-backend/internal/llm"
)

type replyFunc func(req llm.Request) (string, error)

func reply(s string) replyFunc {
	return func(llm.Request) (string, error) { return s, nil }
}

// echoPrompt answers with the final user message, which lets tests trace output back to its input.
func echoPrompt(prefix string) replyFunc {
	return func(req llm.Request) (string, error) {
		last := ""
		if n := len(req.Messages); n > 0 {
			last = req.Messages[n-1].Content
		}
		return prefix + "\n\n" + last, nil
	}
}

// fakeGateway answers by agent name and counts calls per agent.
type fakeGateway struct {
	mu      sync.Mutex
	replies map[string]replyFunc
	calls   map[string]int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{replies: map[string]replyFunc{}, calls: map[string]int{}}
}

func (g *fakeGateway) on(agent string, fn replyFunc) *fakeGateway {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.replies[agent] = fn
	return g
}

func (g *fakeGateway) count(agent string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[agent]
}

func (g *fakeGateway) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	g.mu.Lock()
	g.calls[req.Agent]++
	fn, ok := g.replies[req.Agent]
	g.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("fake gateway: no reply for agent %q", req.Agent)
	}
	content, err := fn(req)
	if err != nil {
		return nil, err
	}
	return &llm.Response{
		Content: content,
		Model:   req.Model,
		Usage:   llm.Usage{InputTokens: 10, OutputTokens: len(strings.Fields(content))},
	}, nil
}

func (g *fakeGateway) Stream(ctx context.Context, req llm.Request, onChunk llm.ChunkFunc) (*llm.Response, error) {
	resp, err := g.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	half := len(resp.Content) / 2
	onChunk(resp.Content[:half])
	onChunk(resp.Content[half:])
	return resp, nil
}

type harness struct {
	db      *gorm.DB
	repos   repos.Set
	gateway *fakeGateway
	orch    *Orchestrator
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	registry, err := agents.Load("", log)
	if err != nil {
		t.Fatalf("agents.Load: %v", err)
	}
	set := repos.NewSet(db, log)
	gw := newFakeGateway()
	return &harness{
		db:      db,
		repos:   set,
		gateway: gw,
		orch:    NewOrchestrator(db, log, set, registry, gw, nil),
	}
}

const designOutput = `## Program Overview
A two-chapter program for new support engineers.

| Chapter | Session | Description | Objectives |
|---|---|---|---|
| 1. Foundations | 1.1 The support mindset | Why support matters | Describe the role |
|  | 1.2 Ticket anatomy | Fields and priorities | Classify a ticket |
|  | 1.3 Tools tour | The helpdesk stack | Open and route a ticket |
| 2. Escalation | 2.1 When to escalate | Thresholds and signals | Apply the outage rule |
| 2. Escalation | 2.2 Handoffs | Writing a clean handoff | Draft a handoff note |
`

const debriefOutput = "```json\n" + `{
  "summary": "Support engineers need a fast path to tier one resolution.",
  "key_findings": ["Most tickets are repeat issues"],
  "alternatives": [
    {"title": "Scenario led", "description": "Built around real tickets"},
    {"title": "Tool led", "description": "Built around the helpdesk"}
  ],
  "recommended": 1
}` + "\n```"

const reviewOutput = `{"compliant": true, "issues": [], "notes": "Reads well."}`

const factCheckOutput = `{"verdict": "accurate", "claims": [], "notes": "No strict sources to check."}`
