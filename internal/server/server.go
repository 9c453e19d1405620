package server

import (
	"RouterLedger/internal/core"
	"RouterLedger/internal/observability"
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Server bundles the three listeners: the HTTP/JSON API, the gRPC endpoint
// (health service + reflection, for k8s probes and grpcurl), and the
// metrics listener with the probe endpoints.
type Server struct {
	engine        *core.Engine
	grpcServer    *grpc.Server
	healthServer  *health.Server
	httpServer    *http.Server
	metricsServer *http.Server

	grpcAddr    string
	httpAddr    string
	metricsAddr string

	healthChecker *observability.HealthChecker
	metrics       *observability.Metrics
	logger        zerolog.Logger
}

// Deps holds the server's dependencies.
type Deps struct {
	Engine        *core.Engine
	HealthChecker *observability.HealthChecker
	Metrics       *observability.Metrics
}

func New(grpcAddr, httpAddr, metricsAddr string, deps Deps) *Server {
	grpcServer := grpc.NewServer()

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	reflection.Register(grpcServer)

	return &Server{
		engine:        deps.Engine,
		grpcServer:    grpcServer,
		healthServer:  healthServer,
		grpcAddr:      grpcAddr,
		httpAddr:      httpAddr,
		metricsAddr:   metricsAddr,
		healthChecker: deps.HealthChecker,
		metrics:       deps.Metrics,
		logger:        observability.NewLogger("server"),
	}
}

// StartGRPC starts the gRPC listener (blocking).
func (s *Server) StartGRPC(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.grpcAddr)
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}

	go func() {
		<-ctx.Done()
		s.logger.Info().Msg("gRPC server shutting down")
		s.grpcServer.GracefulStop()
	}()

	s.logger.Info().Str("addr", s.grpcAddr).Msg("gRPC server listening")
	return s.grpcServer.Serve(lis)
}

// StartHTTP starts the HTTP/JSON API listener (blocking).
func (s *Server) StartHTTP(ctx context.Context) error {
	mux, err := s.apiMux()
	if err != nil {
		return err
	}

	s.httpServer = &http.Server{
		Addr:    s.httpAddr,
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info().Msg("HTTP server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	s.logger.Info().Str("addr", s.httpAddr).Msg("HTTP API listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// StartMetrics starts the metrics/probe listener (blocking).
func (s *Server) StartMetrics(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if s.healthChecker != nil {
		mux.HandleFunc("/healthz", s.healthChecker.LivenessHandler)
		mux.HandleFunc("/readyz", s.healthChecker.ReadinessHandler)
	}

	s.metricsServer = &http.Server{
		Addr:    s.metricsAddr,
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.metricsServer.Shutdown(shutdownCtx)
	}()

	s.logger.Info().Str("addr", s.metricsAddr).Msg("metrics listening")
	if err := s.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
