package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"user-management-api/internal/adapter/gin/response"
	grpcmiddleware "user-management-api/internal/adapter/grpc/middleware"
)

// MsgRateLimited is returned with 429 responses.
const MsgRateLimited = "Rate limit exceeded. Please try again later."

// RateLimiter returns a Gin middleware that takes one token per request from
// the bucket of the method, route and client IP. A nil limiter allows every
// request.
func RateLimiter(limiter *grpcmiddleware.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		key := fmt.Sprintf("%s:%s:%s", c.Request.Method, route, c.ClientIP())

		if !limiter.Allow(c.Request.Context(), key) {
			response.AbortWithError(c, http.StatusTooManyRequests, MsgRateLimited, nil)
			return
		}

		c.Next()
	}
}
