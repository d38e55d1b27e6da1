package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	ginhandler "user-management-api/internal/adapter/gin/handler"
	ginrouter "user-management-api/internal/adapter/gin/router"
)

// SetupGinServer creates and configures the Gin REST API server
func SetupGinServer(handler *ginhandler.UserHandler, opts ginrouter.Options, ginAddr, env string, l *zap.Logger) *http.Server {
	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup Gin router with all middleware and routes
	router := ginrouter.SetupRouter(handler, opts, l)

	l.Info("Gin REST API configured",
		zap.String("address", ginAddr),
		zap.String("base_path", opts.BasePath),
	)

	return &http.Server{
		Addr:              ginAddr,
		Handler:           router,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
