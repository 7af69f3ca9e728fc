// Package grpcserver runs the gRPC listener that orchestrators probe through
// the standard grpc.health.v1.Health service.
package grpcserver

import (
	"fmt"
	"log/slog"
	"net"

	"github.com/RIKASH04/Resulyhub/common/metrics"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service entry reported next to the overall "" one.
const ServiceName = "results.v1.ResultService"

type Server struct {
	server *grpc.Server
	health *health.Server
	port   string
	logger *slog.Logger
}

func New(port string, m *metrics.Metrics, logger *slog.Logger) *Server {
	var grpcMetrics *metrics.GrpcMetrics
	if m != nil {
		grpcMetrics = m.Grpc
	}

	server := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(grpcMetrics.UnaryServerInterceptor()),
	)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(server, healthServer)

	s := &Server{
		server: server,
		health: healthServer,
		port:   port,
		logger: logger,
	}
	s.SetServing(true)
	return s
}

// SetServing flips both the overall and the service status.
func (s *Server) SetServing(serving bool) {
	status := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if serving {
		status = grpc_health_v1.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

func (s *Server) Run() error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", s.port))
	if err != nil {
		return fmt.Errorf("failed to listen on gRPC port: %w", err)
	}
	return s.Serve(lis)
}

func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info("gRPC server starting", "addr", lis.Addr().String())
	return s.server.Serve(lis)
}

// Stop reports NOT_SERVING and drains in-flight calls.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}
