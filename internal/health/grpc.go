package health

import (
	"context"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// GRPCServer exposes the monitor through the standard grpc.health.v1 service.
type GRPCServer struct {
	monitor  *Monitor
	health   *grpchealth.Server
	server   *grpc.Server
	interval time.Duration
}

// NewGRPCServer creates a gRPC health server that re-checks every interval.
func NewGRPCServer(monitor *Monitor, interval time.Duration) *GRPCServer {
	if interval <= 0 {
		interval = 10 * time.Second
	}

	hs := grpchealth.NewServer()
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	return &GRPCServer{
		monitor:  monitor,
		health:   hs,
		server:   srv,
		interval: interval,
	}
}

// Sync updates the served statuses from a fresh report. The empty service name is the
// overall status.
func (g *GRPCServer) Sync(ctx context.Context) {
	report := g.monitor.CheckHealth(ctx)

	overall := healthpb.HealthCheckResponse_SERVING
	if report.Status == StatusDown {
		overall = healthpb.HealthCheckResponse_NOT_SERVING
	}
	g.health.SetServingStatus("", overall)

	for name, status := range report.Services {
		st := healthpb.HealthCheckResponse_SERVING
		if status != ServiceHealthy {
			st = healthpb.HealthCheckResponse_NOT_SERVING
		}
		g.health.SetServingStatus(name, st)
	}
}

// Run keeps statuses in sync until ctx is done.
func (g *GRPCServer) Run(ctx context.Context) {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	g.Sync(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.Sync(ctx)
		}
	}
}

// Serve accepts connections on lis until Stop.
func (g *GRPCServer) Serve(lis net.Listener) error {
	slog.Info("gRPC health server listening", "addr", lis.Addr().String())
	return g.server.Serve(lis)
}

// Stop marks every service NOT_SERVING and stops the server gracefully, forcing it
// when ctx ends first.
func (g *GRPCServer) Stop(ctx context.Context) {
	g.health.Shutdown()

	done := make(chan struct{})
	go func() {
		g.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		g.server.Stop()
	}
}
