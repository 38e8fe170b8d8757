package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/validator"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Status    string      `json:"status"`
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// ErrorHandler renders the last error attached with c.Error. Handlers attach
// *apperrors.AppError values; anything else becomes a 500.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status, resp := render(err)
		resp.RequestID = c.GetString(ContextRequestID)

		event := log.Debug()
		if status >= http.StatusInternalServerError {
			event = log.Error()
		}
		event.
			Err(err).
			Str("request_id", resp.RequestID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Msg("Request error")

		c.JSON(status, resp)
	}
}

func render(err error) (int, ErrorResponse) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.Internal(err)
	}
	status := appErr.HTTPStatus()
	resp := ErrorResponse{Status: "error", Code: int(appErr.Code), Message: appErr.Message}

	var fields validator.Errors
	if errors.As(err, &fields) {
		resp.Details = fields
	}
	return status, resp
}
