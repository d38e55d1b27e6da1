package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-management-api/internal/adapter/gin/response"
	"user-management-api/pkg/logger"
)

// MsgUnexpectedError is returned to the client when a handler panics.
const MsgUnexpectedError = "An unexpected error occurred. Please try again later."

// Recovery returns a panic recovery middleware that answers with a 500
// error body and logs the panic with its stack.
func Recovery(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.WithContext(c.Request.Context(), log).Error("panic recovered",
					zap.String("error", fmt.Sprintf("%v", rec)),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
					zap.Stack("stack"),
				)

				if c.Writer.Written() {
					c.Abort()
					return
				}
				response.AbortWithError(c, http.StatusInternalServerError, MsgUnexpectedError, nil)
			}
		}()

		c.Next()
	}
}
