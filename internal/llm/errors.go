package llm

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/yungbote/trainforge-backend/internal/platform/apierr"
	"github.com/yungbote/trainforge-backend/internal/platform/httpx"
)

// ProviderError is a non-2xx upstream response.
type ProviderError struct {
	Provider   Provider
	StatusCode int
	Body       string
	Wait       time.Duration
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s http %d: %s", e.Provider, e.StatusCode, apierr.Truncate(e.Body, 300))
}

func (e *ProviderError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func (e *ProviderError) RetryAfter() time.Duration {
	if e == nil {
		return 0
	}
	return e.Wait
}

func newProviderError(p Provider, resp *http.Response, body string) *ProviderError {
	pe := &ProviderError{Provider: p, Body: body}
	if resp != nil {
		pe.StatusCode = resp.StatusCode
		pe.Wait = httpx.ParseRetryAfter(resp.Header, time.Now())
	}
	return pe
}

func notConfigured(p Provider, envVar string) error {
	return apierr.Auth("provider_not_configured", 0,
		fmt.Errorf("%s provider is not configured: set %s", p, envVar))
}

// classify decides whether err is worth another attempt and normalizes auth failures.
func classify(err error) (retry bool, out error) {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		return ae.Kind == apierr.KindTransient, err
	}
	var sc httpx.HTTPStatusCoder
	if errors.As(err, &sc) && httpx.IsAuthHTTPStatus(sc.HTTPStatusCode()) {
		return false, apierr.Auth("provider_auth_failed", sc.HTTPStatusCode(),
			fmt.Errorf("model provider rejected credentials: %w", err))
	}
	if httpx.IsRetryableError(err) {
		return true, apierr.Transient("provider_unavailable", err)
	}
	return false, err
}

func retryAfterOf(err error) time.Duration {
	var ra httpx.RetryAfterer
	if errors.As(err, &ra) {
		return ra.RetryAfter()
	}
	return 0
}
