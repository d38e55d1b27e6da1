package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	ginhandler "user-management-api/internal/adapter/gin/handler"
	ginrouter "user-management-api/internal/adapter/gin/router"
	"user-management-api/internal/adapter/grpc/middleware"
	"user-management-api/internal/config"
)

// Server struct holds all server dependencies
type Server struct {
	Config *config.Config
	Logger *zap.Logger
	Gin    *http.Server
	GRPC   *grpc.Server // nil when GRPC_ENABLED is false
}

// New creates a new server instance
func New(
	cfg *config.Config,
	l *zap.Logger,
	handler *ginhandler.UserHandler,
	storage ginrouter.Pinger,
	rateLimiter *middleware.RateLimiter,
) *Server {
	opts := ginrouter.Options{
		BasePath:    cfg.App.BasePath,
		ServiceName: cfg.Logger.ServiceName,
		Storage:     storage,
		RateLimiter: rateLimiter,
	}

	s := &Server{
		Config: cfg,
		Logger: l,
		Gin:    SetupGinServer(handler, opts, ":"+cfg.App.HTTPPort, cfg.Env, l),
	}
	if cfg.App.GRPCEnabled {
		s.GRPC = SetupGRPC(cfg.Logger.ServiceName, storage, rateLimiter, l)
	}
	return s
}

// Start runs the REST server and, when enabled, the gRPC server. It blocks
// until both have stopped and returns the first serve error.
func (s *Server) Start(ctx context.Context) error {
	lc := net.ListenConfig{}
	var g errgroup.Group

	httpLis, err := lc.Listen(ctx, "tcp", s.Gin.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.Gin.Addr, err)
	}
	g.Go(func() error {
		s.Logger.Info("Gin REST API running", zap.String("address", httpLis.Addr().String()))
		if err := s.Gin.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("gin server: %w", err)
		}
		return nil
	})

	if s.GRPC != nil {
		grpcLis, err := lc.Listen(ctx, "tcp", s.grpcAddress())
		if err != nil {
			_ = s.Gin.Close()
			_ = g.Wait()
			return fmt.Errorf("failed to listen on %s: %w", s.grpcAddress(), err)
		}
		g.Go(func() error {
			s.Logger.Info("gRPC server running", zap.String("address", grpcLis.Addr().String()))
			if err := s.GRPC.Serve(grpcLis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return fmt.Errorf("grpc server: %w", err)
			}
			return nil
		})
	}

	return g.Wait()
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error

	s.Logger.Info("shutting down Gin server...")
	if err := s.Gin.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("gin shutdown: %w", err))
	}

	if s.GRPC != nil {
		s.Logger.Info("shutting down gRPC server...")
		stopped := make(chan struct{})
		go func() {
			s.GRPC.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-ctx.Done():
			s.GRPC.Stop()
			errs = append(errs, fmt.Errorf("grpc shutdown: %w", ctx.Err()))
		}
	}

	return errors.Join(errs...)
}

// grpcAddress returns the gRPC server address
func (s *Server) grpcAddress() string {
	return ":" + s.Config.App.GRPCPort
}
