package server

import (
	"go.uber.org/zap"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	grpcadapter "user-management-api/internal/adapter/grpc"
	"user-management-api/internal/adapter/grpc/middleware"
	"user-management-api/pkg/logger"
)

// SetupGRPC creates the gRPC server that exposes the health service
func SetupGRPC(serviceName string, storage grpcadapter.Pinger, rateLimiter *middleware.RateLimiter, l *zap.Logger) *grpc.Server {
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			logger.RequestIDInterceptor(),
			logger.LoggingInterceptor(l),
			rateLimiter.UnaryInterceptor(),
		),
	)
	healthpb.RegisterHealthServer(grpcServer, grpcadapter.NewHealthServer(serviceName, storage, l))
	reflection.Register(grpcServer)

	return grpcServer
}
