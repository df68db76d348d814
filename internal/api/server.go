package api

import (
	"github.com/signalsfoundry/indoor-coverage-sim/internal/logging"
	"github.com/signalsfoundry/indoor-coverage-sim/internal/observability"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServerConfig assembles a gRPC server around a CoverageService.
type ServerConfig struct {
	Service CoverageServer
	Logger  logging.Logger
	// Metrics is optional.
	Metrics *observability.RPCCollector
	// Options are appended after the interceptor chain, e.g. a stats
	// handler.
	Options []grpc.ServerOption
}

// NewServer builds a gRPC server with the coverage, health and reflection
// services registered. The returned health server reports SERVING for the
// coverage service until the caller changes it.
func NewServer(cfg ServerConfig) (*grpc.Server, *health.Server) {
	opts := append([]grpc.ServerOption{
		grpc.ChainUnaryInterceptor(UnaryInterceptors(cfg.Logger, cfg.Metrics)...),
	}, cfg.Options...)
	srv := grpc.NewServer(opts...)

	RegisterCoverageServer(srv, cfg.Service)

	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(srv, healthSrv)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthSrv.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	reflection.Register(srv)
	return srv, healthSrv
}
