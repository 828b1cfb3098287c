package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/yungbote/trainforge-backend/internal/platform/apierr"
	"github.com/yungbote/trainforge-backend/internal/platform/logger"
)

type fakeClient struct {
	provider Provider
	errs     []error
	calls    int
	chunks   []string
	resp     Response
}

func (f *fakeClient) Provider() Provider { return f.provider }

func (f *fakeClient) next() error {
	f.calls++
	if f.calls <= len(f.errs) {
		return f.errs[f.calls-1]
	}
	return nil
}

func (f *fakeClient) Complete(ctx context.Context, req Request, shape Shape) (*Response, error) {
	if err := f.next(); err != nil {
		return nil, err
	}
	r := f.resp
	return &r, nil
}

func (f *fakeClient) Stream(ctx context.Context, req Request, shape Shape, onChunk ChunkFunc) (*Response, error) {
	for _, c := range f.chunks {
		onChunk(c)
	}
	if err := f.next(); err != nil {
		return nil, err
	}
	r := f.resp
	return &r, nil
}

type sleepRecorder struct{ delays []time.Duration }

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return nil
}

func newTestGateway(t *testing.T, c Client, rec *sleepRecorder) Gateway {
	t.Helper()
	return NewGateway(GatewayConfig{
		MaxRetries:  3,
		BaseDelay:   100 * time.Millisecond,
		CallTimeout: time.Second,
		Sleep:       rec.sleep,
	}, logger.Nop(), c)
}

func transientErr() error {
	return &ProviderError{Provider: ProviderOpenAI, StatusCode: http.StatusTooManyRequests, Body: "slow down"}
}

func TestGatewayRetriesTransientThenSucceeds(t *testing.T) {
	for n := 0; n < 3; n++ {
		errs := make([]error, n)
		for i := range errs {
			errs[i] = transientErr()
		}
		fc := &fakeClient{provider: ProviderOpenAI, errs: errs, resp: Response{Content: "ok", Model: "gpt-4o"}}
		rec := &sleepRecorder{}
		gw := newTestGateway(t, fc, rec)

		resp, err := gw.Complete(context.Background(), Request{Provider: ProviderOpenAI, Model: "gpt-4o"})
		if err != nil {
			t.Fatalf("n=%d Complete: %v", n, err)
		}
		if resp.Content != "ok" {
			t.Fatalf("n=%d content: want=ok got=%q", n, resp.Content)
		}
		if fc.calls != n+1 {
			t.Fatalf("n=%d calls: want=%d got=%d", n, n+1, fc.calls)
		}
		if len(rec.delays) != n {
			t.Fatalf("n=%d delays: want=%d got=%d", n, n, len(rec.delays))
		}
		for i := 1; i < len(rec.delays); i++ {
			if rec.delays[i] <= rec.delays[i-1] {
				t.Fatalf("n=%d delays not increasing: %v", n, rec.delays)
			}
		}
	}
}

func TestGatewayAuthErrorNeverRetries(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		fc := &fakeClient{provider: ProviderOpenAI, errs: []error{&ProviderError{Provider: ProviderOpenAI, StatusCode: status}}}
		rec := &sleepRecorder{}
		gw := newTestGateway(t, fc, rec)

		_, err := gw.Complete(context.Background(), Request{Provider: ProviderOpenAI, Model: "gpt-4o"})
		if apierr.KindOf(err) != apierr.KindAuth {
			t.Fatalf("status %d kind: want=auth got=%s (%v)", status, apierr.KindOf(err), err)
		}
		if apierr.HTTPStatus(err) != status {
			t.Fatalf("status %d http: got=%d", status, apierr.HTTPStatus(err))
		}
		if fc.calls != 1 || len(rec.delays) != 0 {
			t.Fatalf("status %d: want 1 call 0 delays, got calls=%d delays=%d", status, fc.calls, len(rec.delays))
		}
	}
}

func TestGatewayExhaustsRetries(t *testing.T) {
	errs := []error{transientErr(), transientErr(), transientErr(), transientErr(), transientErr()}
	fc := &fakeClient{provider: ProviderOpenAI, errs: errs}
	rec := &sleepRecorder{}
	gw := newTestGateway(t, fc, rec)

	_, err := gw.Complete(context.Background(), Request{Provider: ProviderOpenAI, Model: "gpt-4o"})
	if apierr.KindOf(err) != apierr.KindTransient {
		t.Fatalf("kind: want=transient got=%s", apierr.KindOf(err))
	}
	if fc.calls != 4 || len(rec.delays) != 3 {
		t.Fatalf("want 4 calls 3 delays, got calls=%d delays=%v", fc.calls, rec.delays)
	}
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond}
	for i := range want {
		if rec.delays[i] != want[i] {
			t.Fatalf("delay %d: want=%v got=%v", i, want[i], rec.delays[i])
		}
	}
}

func TestGatewayHonorsRetryAfter(t *testing.T) {
	fc := &fakeClient{provider: ProviderOpenAI, errs: []error{
		&ProviderError{Provider: ProviderOpenAI, StatusCode: 429, Wait: 5 * time.Second},
	}, resp: Response{Content: "ok"}}
	rec := &sleepRecorder{}
	gw := newTestGateway(t, fc, rec)
	if _, err := gw.Complete(context.Background(), Request{Provider: ProviderOpenAI, Model: "gpt-4o"}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if len(rec.delays) != 1 || rec.delays[0] != 5*time.Second {
		t.Fatalf("delays: want=[5s] got=%v", rec.delays)
	}
}

func TestGatewayRepeatedRetryAfterStillIncreases(t *testing.T) {
	wait := func() error {
		return &ProviderError{Provider: ProviderOpenAI, StatusCode: 429, Wait: 5 * time.Second}
	}
	fc := &fakeClient{provider: ProviderOpenAI, errs: []error{wait(), wait(), wait()}, resp: Response{Content: "ok"}}
	rec := &sleepRecorder{}
	gw := newTestGateway(t, fc, rec)
	if _, err := gw.Complete(context.Background(), Request{Provider: ProviderOpenAI, Model: "gpt-4o"}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	want := []time.Duration{5 * time.Second, 5*time.Second + 200*time.Millisecond, 5*time.Second + 600*time.Millisecond}
	if len(rec.delays) != len(want) {
		t.Fatalf("delays: want=%v got=%v", want, rec.delays)
	}
	for i := range want {
		if rec.delays[i] != want[i] {
			t.Fatalf("delay %d: want=%v got=%v", i, want[i], rec.delays[i])
		}
	}
}

func TestGatewayNonRetryableBadRequest(t *testing.T) {
	fc := &fakeClient{provider: ProviderOpenAI, errs: []error{&ProviderError{Provider: ProviderOpenAI, StatusCode: 400}}}
	rec := &sleepRecorder{}
	gw := newTestGateway(t, fc, rec)
	_, err := gw.Complete(context.Background(), Request{Provider: ProviderOpenAI, Model: "gpt-4o"})
	var pe *ProviderError
	if !errors.As(err, &pe) || pe.StatusCode != 400 {
		t.Fatalf("want ProviderError 400, got %v", err)
	}
	if fc.calls != 1 {
		t.Fatalf("calls: want=1 got=%d", fc.calls)
	}
}

func TestGatewayUnconfiguredProvider(t *testing.T) {
	gw := newTestGateway(t, &fakeClient{provider: ProviderOpenAI}, &sleepRecorder{})
	_, err := gw.Complete(context.Background(), Request{Provider: ProviderAnthropic, Model: "claude-sonnet-4-5"})
	if apierr.KindOf(err) != apierr.KindAuth {
		t.Fatalf("kind: want=auth got=%s", apierr.KindOf(err))
	}
	if err == nil || !strings.Contains(err.Error(), "ANTHROPIC_API_KEY") {
		t.Fatalf("want remediation message, got %v", err)
	}
}

func TestGatewayStreamFallsBackForNonStreamingModels(t *testing.T) {
	fc := &fakeClient{provider: ProviderOpenAI, chunks: []string{"never"}, resp: Response{Content: "whole answer"}}
	gw := newTestGateway(t, fc, &sleepRecorder{})
	var chunks []string
	resp, err := gw.Stream(context.Background(), Request{Provider: ProviderOpenAI, Model: "o1"}, func(c string) {
		chunks = append(chunks, c)
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if len(chunks) != 1 || chunks[0] != "whole answer" || resp.Content != "whole answer" {
		t.Fatalf("fallback chunks: got=%v resp=%q", chunks, resp.Content)
	}
}

func TestGatewayStreamDoesNotRetryAfterEmitting(t *testing.T) {
	fc := &fakeClient{provider: ProviderOpenAI, chunks: []string{"partial"}, errs: []error{transientErr()}}
	rec := &sleepRecorder{}
	gw := newTestGateway(t, fc, rec)
	_, err := gw.Stream(context.Background(), Request{Provider: ProviderOpenAI, Model: "gpt-4o"}, func(string) {})
	if err == nil {
		t.Fatalf("want error")
	}
	if fc.calls != 1 || len(rec.delays) != 0 {
		t.Fatalf("want no retry after emitted text, calls=%d delays=%d", fc.calls, len(rec.delays))
	}
}

func TestGatewayEstimatesMissingUsage(t *testing.T) {
	fc := &fakeClient{provider: ProviderOpenAI, resp: Response{Content: "four score and seven"}}
	gw := newTestGateway(t, fc, &sleepRecorder{})
	resp, err := gw.Complete(context.Background(), Request{Provider: ProviderOpenAI, Model: "gpt-4o", System: "twelve chars"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Usage.InputTokens == 0 || resp.Usage.OutputTokens == 0 {
		t.Fatalf("usage: want estimates, got %+v", resp.Usage)
	}
	if resp.Model != "gpt-4o" {
		t.Fatalf("model: want=gpt-4o got=%q", resp.Model)
	}
}
