package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/trainforge-backend/internal/agents"
	"github.com/yungbote/trainforge-backend/internal/conversation"
	"github.com/yungbote/trainforge-backend/internal/llm"
	"github.com/yungbote/trainforge-backend/internal/platform/apierr"
	"github.com/yungbote/trainforge-backend/internal/platform/logger"
	"github.com/yungbote/trainforge-backend/internal/workflow"
	"github.com/yungbote/trainforge-backend/internal/workflow/parse"
)

const maxBriefInput = 100_000

type InterviewReply struct {
	Key     string        `json:"key"`
	Reply   string        `json:"reply"`
	History []llm.Message `json:"history"`
}

// IntakeService turns client conversations into a structured brief.
type IntakeService interface {
	ParseBrief(ctx context.Context, text string) (*parse.Brief, error)
	Interview(ctx context.Context, key, message string, sink workflow.Sink) (*InterviewReply, error)
	Transcript(ctx context.Context, key string) ([]llm.Message, error)
	ClearInterview(ctx context.Context, key string) error
	BriefFromInterview(ctx context.Context, key string) (*parse.Brief, error)
}

type intakeService struct {
	log      *logger.Logger
	registry *agents.Registry
	gateway  llm.Gateway
	store    conversation.Store
}

func NewIntakeService(baseLog *logger.Logger, registry *agents.Registry, gateway llm.Gateway, store conversation.Store) IntakeService {
	return &intakeService{
		log:      baseLog.With("service", "IntakeService"),
		registry: registry,
		gateway:  gateway,
		store:    store,
	}
}

func (s *intakeService) ParseBrief(ctx context.Context, text string) (*parse.Brief, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apierr.Validation("missing_text", fmt.Errorf("text is required"))
	}
	if len(text) > maxBriefInput {
		return nil, apierr.Validation("text_too_long", fmt.Errorf("text exceeds %d bytes", maxBriefInput))
	}
	agent, err := s.registry.Resolve(agents.BriefParser, false)
	if err != nil {
		return nil, err
	}
	resp, err := s.gateway.Complete(ctx, agent.Request(llm.UserMessage(text)))
	if err != nil {
		return nil, err
	}
	res, err := parse.ParseBrief(resp.Content)
	if err != nil {
		s.log.Warn("Brief parse failed", "model", resp.Model, "chars", len(resp.Content), "error", err)
		return nil, err
	}
	return &res.Value, nil
}

// Interview holds the key's lock across history read, model call and append, so
// concurrent messages to one interview are answered in order.
func (s *intakeService) Interview(ctx context.Context, key, message string, sink workflow.Sink) (*InterviewReply, error) {
	key = strings.TrimSpace(key)
	message = strings.TrimSpace(message)
	if key == "" || message == "" {
		return nil, apierr.Validation("missing_message", fmt.Errorf("interview key and message are required"))
	}
	if sink == nil {
		sink = workflow.Discard
	}
	agent, err := s.registry.Resolve(agents.Interviewer, false)
	if err != nil {
		return nil, err
	}
	storeKey := conversation.InterviewKey(key)
	out := &InterviewReply{Key: key}
	err = s.store.WithLock(ctx, storeKey, func(ctx context.Context) error {
		history, err := s.store.History(ctx, storeKey)
		if err != nil {
			return err
		}
		user := llm.UserMessage(message)
		turns := append(append([]llm.Message{}, history...), user)
		resp, err := s.gateway.Stream(ctx, agent.Request(turns...), func(chunk string) {
			sink.Emit(workflow.Event{Type: workflow.EventText, Content: chunk})
		})
		if err != nil {
			return err
		}
		assistant := llm.AssistantMessage(resp.Content)
		if err := s.store.Append(ctx, storeKey, user, assistant); err != nil {
			return err
		}
		out.Reply = resp.Content
		out.History = append(turns, assistant)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("Interview turn", "conversation_key", key, "turns", len(out.History))
	return out, nil
}

func (s *intakeService) Transcript(ctx context.Context, key string) ([]llm.Message, error) {
	history, err := s.store.History(ctx, conversation.InterviewKey(key))
	if err != nil {
		return nil, err
	}
	if history == nil {
		return nil, apierr.NotFound("interview_not_found", "no interview for key %s", key)
	}
	return history, nil
}

func (s *intakeService) ClearInterview(ctx context.Context, key string) error {
	return s.store.Delete(ctx, conversation.InterviewKey(key))
}

func (s *intakeService) BriefFromInterview(ctx context.Context, key string) (*parse.Brief, error) {
	history, err := s.Transcript(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.ParseBrief(ctx, renderTranscript(history))
}

func renderTranscript(turns []llm.Message) string {
	var b strings.Builder
	b.WriteString("Intake interview transcript:\n")
	for _, t := range turns {
		who := "Client"
		if t.Role == llm.RoleAssistant {
			who = "Interviewer"
		}
		fmt.Fprintf(&b, "\n%s: %s\n", who, strings.TrimSpace(t.Content))
	}
	return b.String()
}
