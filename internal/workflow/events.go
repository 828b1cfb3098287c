package workflow

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/yungbote/trainforge-backend/internal/realtime"
)

type EventType string

const (
	EventText     EventType = "text"
	EventProgress EventType = "progress"
	EventComplete EventType = "complete"
	EventDone     EventType = "done"
	EventError    EventType = "error"
)

// Event is one progress notification. Content carries streamed text, Message a status line.
type Event struct {
	Type    EventType `json:"type"`
	Content string    `json:"content,omitempty"`
	Message string    `json:"message,omitempty"`
	Step    string    `json:"step,omitempty"`
	Data    any       `json:"data,omitempty"`
}

// Terminal reports whether consumers must stop reading after ev.
func (ev Event) Terminal() bool {
	return ev.Type == EventComplete || ev.Type == EventDone || ev.Type == EventError
}

type Sink interface {
	Emit(ev Event)
}

type SinkFunc func(ev Event)

func (f SinkFunc) Emit(ev Event) { f(ev) }

var Discard Sink = SinkFunc(func(Event) {})

func orDiscard(s Sink) Sink {
	if s == nil {
		return Discard
	}
	return s
}

func progressf(s Sink, step string, format string, args ...any) {
	s.Emit(Event{Type: EventProgress, Step: step, Message: fmt.Sprintf(format, args...)})
}

// Tee forwards every event to each sink in order.
func Tee(sinks ...Sink) Sink {
	return SinkFunc(func(ev Event) {
		for _, s := range sinks {
			if s != nil {
				s.Emit(ev)
			}
		}
	})
}

// Broadcast mirrors events onto the project's hub channel. Text chunks are not broadcast.
func Broadcast(emitter realtime.Emitter, projectID uuid.UUID) Sink {
	if emitter == nil || projectID == uuid.Nil {
		return Discard
	}
	channel := realtime.ProjectChannel(projectID)
	return SinkFunc(func(ev Event) {
		if ev.Type == EventText {
			return
		}
		emitter.Emit(context.Background(), realtime.SSEMessage{
			Channel: channel,
			Event:   realtime.SSEEventWorkflow,
			Data:    ev,
		})
	})
}

// Recorder keeps every event; tests and batch callers read it back.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Emit(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}
