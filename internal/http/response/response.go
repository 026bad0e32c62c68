package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/memberhub-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// Result is the body of pipeline endpoints (ingestion, webhooks).
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Warning string `json:"warning,omitempty"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// AbortError writes the envelope and stops the handler chain.
func AbortError(c *gin.Context, status int, code string, err error) {
	RespondError(c, status, code, err)
	c.Abort()
}

// RespondAPIError maps err through its *apierr.Error status and code. Anything else is a
// 500 carrying the raw message.
func RespondAPIError(c *gin.Context, err error) {
	RespondError(c, apierr.StatusOf(err), apierr.CodeOf(err, "internal_error"), err)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
