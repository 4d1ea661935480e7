package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"prospectchat_backend/platform/apperr"
)

type ErrorResponse struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

func JSON(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, payload)
}

func OK(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusOK, payload)
}

func Error(c *gin.Context, status int, message string, details interface{}) {
	c.JSON(status, ErrorResponse{Error: message, Details: details})
}

// FromError maps a domain error to a JSON error response, using the
// apperr kind when present and hiding internals otherwise.
func FromError(c *gin.Context, err error) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		msg := appErr.Message
		if appErr.Kind == apperr.KindInternal {
			msg = "internal error"
		}
		Error(c, appErr.HTTPStatus(), msg, nil)
		return
	}
	Error(c, http.StatusInternalServerError, "internal error", nil)
}
