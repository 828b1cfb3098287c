package apierr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Kind classifies an error for retry and HTTP mapping decisions.
type Kind string

const (
	KindTransient  Kind = "transient"
	KindAuth       Kind = "auth"
	KindNotFound   Kind = "not_found"
	KindValidation Kind = "validation"
	KindParse      Kind = "parse"
	KindInternal   Kind = "internal"
)

// PreviewLimit bounds the raw model output echoed back on parse failures.
const PreviewLimit = 500

type Error struct {
	Kind    Kind
	Status  int
	Code    string
	Err     error
	Preview string
	Stack   []byte
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

// New keeps the status-first constructor used by handlers.
func New(status int, code string, err error) *Error {
	return &Error{Kind: kindForStatus(status), Status: status, Code: code, Err: err, Stack: debug.Stack()}
}

func E(kind Kind, code string, err error) *Error {
	return &Error{Kind: kind, Code: code, Err: err, Stack: debug.Stack()}
}

func Transient(code string, err error) *Error  { return E(KindTransient, code, err) }
func Validation(code string, err error) *Error { return E(KindValidation, code, err) }
func Internal(code string, err error) *Error   { return E(KindInternal, code, err) }

func NotFound(code, format string, args ...any) *Error {
	return E(KindNotFound, code, fmt.Errorf(format, args...))
}

// Auth marks a credential failure. status is the upstream status (401/403) when known.
func Auth(code string, status int, err error) *Error {
	e := E(KindAuth, code, err)
	if status == http.StatusForbidden {
		e.Status = http.StatusForbidden
	}
	return e
}

// Parse marks model output that did not match the expected grammar; raw is kept as a truncated preview.
func Parse(code string, err error, raw string) *Error {
	e := E(KindParse, code, err)
	e.Preview = Truncate(raw, PreviewLimit)
	return e
}

// KindOf resolves the kind of any error, looking through wrapping and storage sentinels.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var ae *Error
	if errors.As(err, &ae) && ae.Kind != "" {
		return ae.Kind
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return KindNotFound
	case IsDuplicate(err):
		return KindValidation
	case errors.Is(err, context.DeadlineExceeded):
		return KindTransient
	}
	return KindInternal
}

// HTTPStatus maps an error onto the response status code.
func HTTPStatus(err error) int {
	var ae *Error
	if errors.As(err, &ae) && ae.Status != 0 {
		return ae.Status
	}
	switch KindOf(err) {
	case KindAuth:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// CodeOf returns the machine-readable code, or a kind-derived default.
func CodeOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Code != "" {
		return ae.Code
	}
	if k := KindOf(err); k != "" {
		return string(k)
	}
	return "internal"
}

func IsDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

func Truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusBadRequest || status == http.StatusConflict || status == http.StatusUnprocessableEntity:
		return KindValidation
	case status == http.StatusTooManyRequests || status >= 500:
		return KindTransient
	default:
		return KindInternal
	}
}
