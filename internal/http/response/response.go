package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/strideworks/coachbridge-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
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

// RespondServiceError unwraps apierr.Error for its status and code,
// falling back to the given defaults.
func RespondServiceError(c *gin.Context, err error, fallbackStatus int, fallbackCode string) {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		RespondError(c, ae.Status, ae.Code, ae)
		return
	}
	RespondError(c, fallbackStatus, fallbackCode, err)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
