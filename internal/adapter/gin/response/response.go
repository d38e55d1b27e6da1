package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// TimestampLayout is RFC 3339 in UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Timestamp   string            `json:"timestamp"`
	Status      int               `json:"status"`
	Error       string            `json:"error"`
	Message     string            `json:"message"`
	Path        string            `json:"path"`
	FieldErrors map[string]string `json:"fieldErrors,omitempty"`
}

// NewError builds an error body for status. The error label is the
// standard reason phrase of status.
func NewError(status int, message, path string, fieldErrors map[string]string) ErrorResponse {
	return ErrorResponse{
		Timestamp:   time.Now().UTC().Format(TimestampLayout),
		Status:      status,
		Error:       http.StatusText(status),
		Message:     message,
		Path:        path,
		FieldErrors: fieldErrors,
	}
}

// AbortWithError writes an error body and stops the handler chain.
func AbortWithError(c *gin.Context, status int, message string, fieldErrors map[string]string) {
	c.AbortWithStatusJSON(status, NewError(status, message, c.Request.URL.Path, fieldErrors))
}
