package realtime

import "context"

// Emitter delivers a message to every subscriber of its channel, locally or across processes.
type Emitter interface {
	Emit(ctx context.Context, msg SSEMessage)
}

type HubEmitter struct{ Hub *SSEHub }

func (e *HubEmitter) Emit(ctx context.Context, msg SSEMessage) {
	if e == nil || e.Hub == nil {
		return
	}
	e.Hub.Broadcast(msg)
}
