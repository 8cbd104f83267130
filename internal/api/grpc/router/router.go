package router

import (
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/dtroode/finance-server/internal/api/grpc/middleware"
	"github.com/dtroode/finance-server/internal/logger"
)

// ServiceName is the health service name reported for the account API.
const ServiceName = "finance.Account"

// Router builds the gRPC server exposing health checks and reflection.
type Router struct {
	logger *logger.Logger
}

func New(logger *logger.Logger) *Router {
	return &Router{logger: logger}
}

// Register returns the server and its health service, already SERVING.
func (r *Router) Register() (*grpc.Server, *health.Server) {
	logging := middleware.NewLogging(r.logger)

	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			logging.HandleGRPC,
			recovery.UnaryServerInterceptor(recovery.WithRecoveryHandler(logging.Recovered)),
		),
		grpc.ChainStreamInterceptor(
			recovery.StreamServerInterceptor(recovery.WithRecoveryHandler(logging.Recovered)),
		),
	)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, hs)
	reflection.Register(s)

	return s, hs
}
