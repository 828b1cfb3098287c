package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/trainforge-backend/internal/http/response"
	"github.com/yungbote/trainforge-backend/internal/platform/logger"
	"github.com/yungbote/trainforge-backend/internal/workflow"
)

const streamBuffer = 64

// produceFunc runs one phase, reporting progress to sink. Its result becomes the complete frame.
type produceFunc func(ctx context.Context, sink workflow.Sink) (any, error)

type streamError struct {
	Code    string `json:"code"`
	Preview string `json:"preview,omitempty"`
}

// stream serves produce as Server-Sent Events. The producer is detached from the request
// context: a client that goes away stops receiving frames, but the phase still runs to
// completion and persists.
func stream(c *gin.Context, log *logger.Logger, produce produceFunc, extra ...workflow.Sink) {
	w := c.Writer
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	events := make(chan workflow.Event, streamBuffer)
	ctx := context.WithoutCancel(c.Request.Context())

	var g errgroup.Group
	g.Go(func() error {
		defer close(events)
		sink := workflow.Tee(append([]workflow.Sink{workflow.SinkFunc(func(ev workflow.Event) { events <- ev })}, extra...)...)
		result, err := produce(ctx, sink)
		if err != nil {
			log.Warn("stream phase failed", "path", c.FullPath(), "error", err)
			sink.Emit(errorEvent(err))
			return nil
		}
		sink.Emit(workflow.Event{Type: workflow.EventComplete, Data: result})
		sink.Emit(workflow.Event{Type: workflow.EventDone})
		return nil
	})
	g.Go(func() error {
		var writeErr error
		for ev := range events {
			if writeErr != nil {
				continue
			}
			writeErr = writeFrame(w, ev)
		}
		return writeErr
	})
	if err := g.Wait(); err != nil {
		log.Debug("stream client gone", "path", c.FullPath(), "error", err)
	}
}

func errorEvent(err error) workflow.Event {
	body := response.Body(err).Error
	return workflow.Event{
		Type:    workflow.EventError,
		Message: body.Message,
		Data:    streamError{Code: body.Code, Preview: body.Preview},
	}
}

func writeFrame(w gin.ResponseWriter, ev workflow.Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", b); err != nil {
		return err
	}
	w.Flush()
	return nil
}
