package observability

import (
	"context"
	"testing"

	"github.com/yungbote/trainforge-backend/internal/platform/logger"
)

func TestParseHeaders(t *testing.T) {
	got := ParseHeaders(" authorization=Bearer abc , bad, =x, tenant = acme ")
	if len(got) != 2 || got["authorization"] != "Bearer abc" || got["tenant"] != "acme" {
		t.Fatalf("ParseHeaders: got=%v", got)
	}
	if len(ParseHeaders("")) != 0 {
		t.Fatalf("empty headers should parse to nothing")
	}
}

func TestClampRatio(t *testing.T) {
	for in, want := range map[float64]float64{-1: 0, 0.25: 0.25, 3: 1} {
		if got := clampRatio(in); got != want {
			t.Fatalf("clampRatio(%v): want=%v got=%v", in, want, got)
		}
	}
}

func TestInitTracingDisabledIsNoop(t *testing.T) {
	shutdown := InitTracing(context.Background(), logger.Nop(), TracingConfig{})
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
