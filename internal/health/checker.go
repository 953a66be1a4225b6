// Package health keeps the standard gRPC health service in step with the database.
package health

import (
	"context"
	"log"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Service is the name readiness is reported under, in addition to the overall "" entry.
const Service = "account.identity.v1"

// Pinger is used for readiness checks (e.g. *sql.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Checker probes its dependencies and publishes the result on a grpc health server.
type Checker struct {
	srv     *health.Server
	pingers []Pinger
	timeout time.Duration
}

// NewChecker returns a Checker writing to srv. Nil pingers are skipped.
func NewChecker(srv *health.Server, timeout time.Duration, pingers ...Pinger) *Checker {
	c := &Checker{srv: srv, timeout: timeout}
	for _, p := range pingers {
		if p != nil {
			c.pingers = append(c.pingers, p)
		}
	}
	return c
}

// Check pings every dependency once and sets SERVING or NOT_SERVING. It returns the status set.
func (c *Checker) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	for _, p := range c.pingers {
		pctx, cancel := context.WithTimeout(ctx, c.timeout)
		err := p.PingContext(pctx)
		cancel()
		if err != nil {
			log.Printf("health: ping failed: %v", err)
			status = healthpb.HealthCheckResponse_NOT_SERVING
			break
		}
	}
	c.srv.SetServingStatus("", status)
	c.srv.SetServingStatus(Service, status)
	return status
}

// Run checks immediately, then every interval until ctx is done.
func (c *Checker) Run(ctx context.Context, interval time.Duration) {
	c.Check(ctx)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			c.Check(ctx)
		}
	}
}
