package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"user-management-api/pkg/logger"
)

// RequestID reuses the X-Request-ID header or generates one, echoes it on the
// response and stores it in the request context for log correlation.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(logger.RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		c.Header(logger.RequestIDHeader, id)
		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}
