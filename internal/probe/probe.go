// Package probe exposes the service's health over the standard gRPC health
// protocol, driven by periodic database pings.
package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Service is the name reported alongside the overall ("") status.
const Service = "unigen"

const pingTimeout = 2 * time.Second

// Pinger checks a dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Probe keeps a gRPC health server in sync with a Pinger.
type Probe struct {
	health   *health.Server
	pinger   Pinger
	interval time.Duration
	logger   *slog.Logger
}

// New creates a probe. Until the first Check every service reports NOT_SERVING.
func New(pinger Pinger, interval time.Duration, logger *slog.Logger) *Probe {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Probe{
		health:   health.NewServer(),
		pinger:   pinger,
		interval: interval,
		logger:   logger,
	}
	p.set(healthpb.HealthCheckResponse_NOT_SERVING)
	return p
}

func (p *Probe) set(status healthpb.HealthCheckResponse_ServingStatus) {
	p.health.SetServingStatus("", status)
	p.health.SetServingStatus(Service, status)
}

// Check pings once and publishes the result.
func (p *Probe) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := p.pinger.Ping(ctx); err != nil {
		p.logger.Warn("Health check failed", "error", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	p.set(status)
	return status
}

// Run checks immediately and then every interval until ctx is done.
func (p *Probe) Run(ctx context.Context) {
	p.Check(ctx)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Check(ctx)
		}
	}
}

// Serve runs the gRPC health server on lis and the ping loop until ctx is
// done, then drains in-flight RPCs.
func (p *Probe) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, p.health)

	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		p.Run(loopCtx)
	}()

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(lis) }()
	p.logger.Info("Health server listening", "addr", lis.Addr().String())

	var err error
	select {
	case <-ctx.Done():
		p.health.Shutdown()
		srv.GracefulStop()
		err = <-serveErr
	case err = <-serveErr:
	}
	cancel()
	<-loopDone

	if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve grpc health: %w", err)
	}
	return nil
}
