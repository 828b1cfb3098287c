package bus

import (
	"context"

	"github.com/yungbote/trainforge-backend/internal/realtime"
)

type Bus interface {
	Publish(ctx context.Context, msg realtime.SSEMessage) error
	StartForwarder(ctx context.Context, onMsg func(m realtime.SSEMessage)) error
	Close() error
}

// Emitter publishes through the bus so every process's hub receives the message.
type Emitter struct {
	Bus Bus
	// Fallback receives the message when publishing fails.
	Fallback realtime.Emitter
}

func (e *Emitter) Emit(ctx context.Context, msg realtime.SSEMessage) {
	if e == nil || e.Bus == nil {
		return
	}
	if err := e.Bus.Publish(ctx, msg); err != nil && e.Fallback != nil {
		e.Fallback.Emit(ctx, msg)
	}
}
