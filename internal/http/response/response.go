package response

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/trainforge-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Preview string `json:"preview,omitempty"`
	Stack   string `json:"stack,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

var includeStack atomic.Bool

// IncludeStacks controls whether error responses carry the captured stack trace.
func IncludeStacks(on bool) { includeStack.Store(on) }

// Body builds the envelope for err.
func Body(err error) ErrorEnvelope {
	out := APIError{Message: "unknown error", Code: apierr.CodeOf(err)}
	if err != nil {
		out.Message = err.Error()
	}
	var ae *apierr.Error
	if errors.As(err, &ae) {
		out.Preview = ae.Preview
		if includeStack.Load() && len(ae.Stack) > 0 {
			out.Stack = string(ae.Stack)
		}
	}
	return ErrorEnvelope{Error: out}
}

// Fail writes err with the status its kind maps to.
func Fail(c *gin.Context, err error) {
	c.JSON(apierr.HTTPStatus(err), Body(err))
}

// RespondError writes an explicit status and code, for request errors found before any service call.
func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{Error: APIError{Message: msg, Code: code}})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
