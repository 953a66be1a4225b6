// Package server assembles the identity gRPC server.
package server

import (
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"account-identity/backend/internal/server/interceptors"
)

// Deps holds the services exposed over gRPC.
type Deps struct {
	// Health is the standard health service; its status is driven by health.Checker.
	Health *health.Server
	// Metrics records RPC counts and latency. If nil, no metrics interceptor is installed.
	Metrics *interceptors.Metrics
	// Reflection registers the server reflection service (grpcurl, grpcui).
	Reflection bool
}

// skipMethods are RPCs the metrics interceptor ignores.
var skipMethods = map[string]bool{
	healthpb.Health_Check_FullMethodName: true,
	healthpb.Health_Watch_FullMethodName: true,
}

// New returns a grpc.Server traced through otelgrpc with the services in deps registered.
func New(deps Deps, opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.StatsHandler(otelgrpc.NewServerHandler()))
	if deps.Metrics != nil {
		opts = append(opts, grpc.ChainUnaryInterceptor(deps.Metrics.Unary(skipMethods)))
	}
	s := grpc.NewServer(opts...)
	RegisterServices(s, deps)
	return s
}

// RegisterServices registers the services in deps with s.
//
// Service → implementation:
//   - grpc.health.v1.Health             → google.golang.org/grpc/health (driven by internal/health)
//   - grpc.reflection.v1.ServerReflection → google.golang.org/grpc/reflection
func RegisterServices(s reflection.GRPCServer, deps Deps) {
	if deps.Health != nil {
		healthpb.RegisterHealthServer(s, deps.Health)
	}
	if deps.Reflection {
		reflection.Register(s)
	}
}
