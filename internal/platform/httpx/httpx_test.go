package httpx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"syscall"
	"testing"
	"time"
)

type statusErr int

func (s statusErr) Error() string       { return fmt.Sprintf("status %d", int(s)) }
func (s statusErr) HTTPStatusCode() int { return int(s) }

func TestIsRetryableError(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{statusErr(429), true},
		{statusErr(503), true},
		{statusErr(408), true},
		{statusErr(401), false},
		{statusErr(400), false},
		{fmt.Errorf("wrap: %w", syscall.ECONNRESET), true},
		{io.ErrUnexpectedEOF, true},
		{context.DeadlineExceeded, true},
		{context.Canceled, false},
		{nil, false},
	}
	for _, tc := range cases {
		if got := IsRetryableError(tc.err); got != tc.want {
			t.Fatalf("IsRetryableError(%v): want=%v got=%v", tc.err, tc.want, got)
		}
	}
}

func TestBackoffDoubles(t *testing.T) {
	base := 100 * time.Millisecond
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond}
	for i, w := range want {
		if got := Backoff(base, i+1); got != w {
			t.Fatalf("Backoff attempt %d: want=%v got=%v", i+1, w, got)
		}
	}
}

func TestParseRetryAfter(t *testing.T) {
	h := http.Header{}
	h.Set("Retry-After", "3")
	if got := ParseRetryAfter(h, time.Now()); got != 3*time.Second {
		t.Fatalf("ParseRetryAfter: want=3s got=%v", got)
	}
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	h.Set("Retry-After", now.Add(10*time.Second).Format(http.TimeFormat))
	if got := ParseRetryAfter(h, now); got != 10*time.Second {
		t.Fatalf("ParseRetryAfter date: want=10s got=%v", got)
	}
}
