package router

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-management-api/internal/adapter/gin/handler"
	"user-management-api/internal/adapter/gin/middleware"
	"user-management-api/internal/adapter/gin/response"
	grpcmiddleware "user-management-api/internal/adapter/grpc/middleware"
)

// Messages for requests that match no handler.
const (
	MsgNoRoute  = "The requested endpoint does not exist."
	msgNoMethod = "HTTP method '%s' is not supported for this endpoint."
)

// healthTimeout bounds the storage ping behind /health.
const healthTimeout = 2 * time.Second

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures SetupRouter.
type Options struct {
	BasePath    string
	ServiceName string
	Storage     Pinger
	RateLimiter *grpcmiddleware.RateLimiter // nil disables rate limiting
}

// SetupRouter configures and returns a Gin router with all routes and middleware
func SetupRouter(userHandler *handler.UserHandler, opts Options, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true

	// Global middleware
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.RateLimiter(opts.RateLimiter))

	router.NoRoute(func(c *gin.Context) {
		response.AbortWithError(c, http.StatusNotFound, MsgNoRoute, nil)
	})
	router.NoMethod(func(c *gin.Context) {
		response.AbortWithError(c, http.StatusMethodNotAllowed, fmt.Sprintf(msgNoMethod, c.Request.Method), nil)
	})

	router.GET("/health", healthHandler(opts.ServiceName, opts.Storage, log))

	api := router.Group(opts.BasePath)
	{
		users := api.Group("/users")
		{
			users.POST("", userHandler.CreateUser)
			users.GET("", userHandler.ListUsers)
			users.GET("/:id", userHandler.GetUser)
			users.PUT("/:id", userHandler.UpdateUser)
			users.DELETE("/:id", userHandler.DeleteUser)
		}
	}

	return router
}

func healthHandler(service string, storage Pinger, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if storage != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
			defer cancel()

			if err := storage.Ping(ctx); err != nil {
				log.Warn("health check failed", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "unhealthy",
					"service": service,
				})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": service,
		})
	}
}
