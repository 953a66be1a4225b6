// server hosts the operational surface of the identity core: the gRPC health endpoint driven
// by database readiness, server reflection and a Prometheus metrics endpoint.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc/health"

	"account-identity/backend/internal/config"
	"account-identity/backend/internal/db"
	healthcheck "account-identity/backend/internal/health"
	"account-identity/backend/internal/logger"
	"account-identity/backend/internal/server"
	"account-identity/backend/internal/server/interceptors"
	"account-identity/backend/internal/telemetry/otel"
)

const healthInterval = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	ctx := context.Background()

	providers, err := otel.NewProviders(ctx, otel.Options{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: cfg.ServiceName,
		Insecure:    cfg.OTLPInsecure,
	})
	if err != nil {
		log.Fatalf("otel: %v", err)
	}
	providers.SetGlobal()

	if providers.Exporting {
		slog.SetDefault(logger.New(os.Stdout, cfg.Level(), providers.LoggerProvider))
	} else {
		slog.SetDefault(logger.New(os.Stdout, cfg.Level(), nil))
	}

	conn, err := db.Open(ctx, cfg.DatabaseURL, db.PoolOptions{MaxOpenConns: cfg.DBMaxOpenConns})
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	healthSrv := health.NewServer()
	checkCtx, stopChecks := context.WithCancel(ctx)
	defer stopChecks()
	go healthcheck.NewChecker(healthSrv, 2*time.Second, conn).Run(checkCtx, healthInterval)

	s := server.New(server.Deps{
		Health:     healthSrv,
		Metrics:    interceptors.NewMetrics(reg),
		Reflection: cfg.Env != "production",
	})

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatalf("listen: %v", err)
	}
	defer lis.Close()

	go func() {
		log.Printf("gRPC server listening on %s", cfg.GRPCAddr)
		if err := s.Serve(lis); err != nil {
			log.Fatalf("serve: %v", err)
		}
	}()

	var metricsSrv *http.Server
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		metricsSrv = &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			log.Printf("metrics listening on %s", cfg.MetricsAddr)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("metrics: %v", err)
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down gRPC server...")
	healthSrv.Shutdown()
	s.GracefulStop()
	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		_ = metricsSrv.Shutdown(shutdownCtx)
		cancel()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_ = providers.Shutdown(shutdownCtx)
	log.Println("gRPC server stopped")
}
