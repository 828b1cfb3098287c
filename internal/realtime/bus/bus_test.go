package bus

import (
	"context"
	"errors"
	"testing"

	"github.com/yungbote/trainforge-backend/internal/realtime"
)

type fakeBus struct {
	published []realtime.SSEMessage
	err       error
}

func (f *fakeBus) Publish(ctx context.Context, msg realtime.SSEMessage) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeBus) StartForwarder(ctx context.Context, onMsg func(m realtime.SSEMessage)) error {
	return nil
}

func (f *fakeBus) Close() error { return nil }

type recordingEmitter struct{ got []realtime.SSEMessage }

func (r *recordingEmitter) Emit(ctx context.Context, msg realtime.SSEMessage) {
	r.got = append(r.got, msg)
}

func TestEmitterPublishes(t *testing.T) {
	b := &fakeBus{}
	local := &recordingEmitter{}
	e := &Emitter{Bus: b, Fallback: local}
	e.Emit(context.Background(), realtime.SSEMessage{Channel: "project:x", Event: realtime.SSEEventWorkflow})
	if len(b.published) != 1 || len(local.got) != 0 {
		t.Fatalf("published=%d fallback=%d", len(b.published), len(local.got))
	}
}

func TestEmitterFallsBackWhenPublishFails(t *testing.T) {
	b := &fakeBus{err: errors.New("redis down")}
	local := &recordingEmitter{}
	e := &Emitter{Bus: b, Fallback: local}
	e.Emit(context.Background(), realtime.SSEMessage{Channel: "project:x", Event: realtime.SSEEventWorkflow})
	if len(local.got) != 1 {
		t.Fatalf("fallback: want=1 got=%d", len(local.got))
	}
}
