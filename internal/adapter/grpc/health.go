package grpc

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"user-management-api/pkg/logger"
)

// pingTimeout bounds each storage ping.
const pingTimeout = 2 * time.Second

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthServer implements grpc.health.v1.Health by pinging storage. It
// answers for the empty service name and for the service name it was built with.
type HealthServer struct {
	healthpb.UnimplementedHealthServer
	service string
	storage Pinger
	log     *zap.Logger
}

// NewHealthServer creates a new gRPC health service.
func NewHealthServer(service string, storage Pinger, log *zap.Logger) *HealthServer {
	return &HealthServer{service: service, storage: storage, log: log}
}

// Check handles grpc.health.v1.Health/Check
func (s *HealthServer) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	if name := req.GetService(); name != "" && name != s.service {
		return nil, status.Errorf(codes.NotFound, "unknown service %q", name)
	}
	return &healthpb.HealthCheckResponse{Status: s.status(ctx)}, nil
}

// List handles grpc.health.v1.Health/List
func (s *HealthServer) List(ctx context.Context, _ *healthpb.HealthListRequest) (*healthpb.HealthListResponse, error) {
	st := s.status(ctx)
	return &healthpb.HealthListResponse{
		Statuses: map[string]*healthpb.HealthCheckResponse{
			"":        {Status: st},
			s.service: {Status: st},
		},
	}, nil
}

func (s *HealthServer) status(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := s.storage.Ping(ctx); err != nil {
		logger.WithContext(ctx, s.log).Warn("storage ping failed", zap.Error(err))
		return healthpb.HealthCheckResponse_NOT_SERVING
	}
	return healthpb.HealthCheckResponse_SERVING
}
