package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/trainforge-backend/internal/agents"
	"github.com/yungbote/trainforge-backend/internal/conversation"
	"github.com/yungbote/trainforge-backend/internal/llm"
	"github.com/yungbote/trainforge-backend/internal/platform/apierr"
	"github.com/yungbote/trainforge-backend/internal/platform/logger"
	"github.com/yungbote/trainforge-backend/internal/workflow"
)

// DebriefSource is satisfied by the workflow orchestrator.
type DebriefSource interface {
	Debrief(ctx context.Context, projectID uuid.UUID) (*workflow.DebriefView, error)
}

type ChatReply struct {
	Reply   string        `json:"reply"`
	History []llm.Message `json:"history"`
}

type DebriefChatService interface {
	Ask(ctx context.Context, projectID uuid.UUID, message string) (*ChatReply, error)
	History(ctx context.Context, projectID uuid.UUID) ([]llm.Message, error)
	Clear(ctx context.Context, projectID uuid.UUID) error
}

type debriefChatService struct {
	log      *logger.Logger
	debriefs DebriefSource
	registry *agents.Registry
	gateway  llm.Gateway
	store    conversation.Store
}

func NewDebriefChatService(baseLog *logger.Logger, debriefs DebriefSource, registry *agents.Registry, gateway llm.Gateway, store conversation.Store) DebriefChatService {
	return &debriefChatService{
		log:      baseLog.With("service", "DebriefChatService"),
		debriefs: debriefs,
		registry: registry,
		gateway:  gateway,
		store:    store,
	}
}

func (s *debriefChatService) Ask(ctx context.Context, projectID uuid.UUID, message string) (*ChatReply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apierr.Validation("missing_message", fmt.Errorf("message is required"))
	}
	view, err := s.debriefs.Debrief(ctx, projectID)
	if err != nil {
		return nil, err
	}
	agent, err := s.registry.Resolve(agents.DebriefAssistant, false)
	if err != nil {
		return nil, err
	}
	// The debrief rides in the system prompt so it is not stored with every turn.
	agent.Prompt = strings.TrimSpace(agent.Prompt) + "\n\n## Debrief\n" + view.Text()

	key := conversation.DebriefKey(projectID.String())
	out := &ChatReply{}
	err = s.store.WithLock(ctx, key, func(ctx context.Context) error {
		history, err := s.store.History(ctx, key)
		if err != nil {
			return err
		}
		user := llm.UserMessage(message)
		turns := append(append([]llm.Message{}, history...), user)
		resp, err := s.gateway.Complete(ctx, agent.Request(turns...))
		if err != nil {
			return err
		}
		assistant := llm.AssistantMessage(resp.Content)
		if err := s.store.Append(ctx, key, user, assistant); err != nil {
			return err
		}
		out.Reply = resp.Content
		out.History = append(turns, assistant)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *debriefChatService) History(ctx context.Context, projectID uuid.UUID) ([]llm.Message, error) {
	h, err := s.store.History(ctx, conversation.DebriefKey(projectID.String()))
	if err != nil {
		return nil, err
	}
	if h == nil {
		h = []llm.Message{}
	}
	return h, nil
}

func (s *debriefChatService) Clear(ctx context.Context, projectID uuid.UUID) error {
	return s.store.Delete(ctx, conversation.DebriefKey(projectID.String()))
}
