package grpc

import (
	"context"
	"net"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"stream-chat-service/internal/observability"
)

// ServiceName is the health service name reported for the chat service.
const ServiceName = "stream_chat.ChatService"

// Pinger checks a dependency.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthServer exposes the standard gRPC health protocol. Serving status
// follows the database.
type HealthServer struct {
	server   *grpclib.Server
	health   *health.Server
	db       Pinger
	interval time.Duration
	log      logrus.FieldLogger
}

// NewHealthServer builds the server with tracing and metrics interceptors.
func NewHealthServer(db Pinger, interval time.Duration, log logrus.FieldLogger) *HealthServer {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	server := grpclib.NewServer(
		grpclib.StatsHandler(otelgrpc.NewServerHandler()),
		grpclib.UnaryInterceptor(observability.GRPCServerMetricsUnaryInterceptor()),
	)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(server, hs)
	return &HealthServer{server: server, health: hs, db: db, interval: interval, log: log}
}

// Check pings the database once and updates the serving status.
func (s *HealthServer) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if err := s.db.PingContext(ctx); err != nil {
		s.log.WithError(err).Warn("database ping failed")
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
	return status
}

// Serve pings the database periodically and serves on lis until ctx ends.
func (s *HealthServer) Serve(ctx context.Context, lis net.Listener) error {
	s.Check(ctx)
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				pingCtx, cancel := context.WithTimeout(ctx, s.interval)
				s.Check(pingCtx)
				cancel()
			}
		}
	}()
	go func() {
		<-ctx.Done()
		s.health.Shutdown()
		s.server.GracefulStop()
	}()

	s.log.WithField("addr", lis.Addr().String()).Info("grpc health server listening")
	return s.server.Serve(lis)
}
