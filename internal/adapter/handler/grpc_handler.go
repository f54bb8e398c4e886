package handler

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Pinger is any backing service whose reachability decides serving status.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthReporter publishes grpc.health.v1 status for the whole server ("")
// and for each named dependency, refreshed by Run.
type HealthReporter struct {
	server   *health.Server
	deps     map[string]Pinger
	interval time.Duration
	log      *logrus.Logger
}

func NewHealthReporter(deps map[string]Pinger, interval time.Duration, log *logrus.Logger) *HealthReporter {
	return &HealthReporter{
		server:   health.NewServer(),
		deps:     deps,
		interval: interval,
		log:      log,
	}
}

func (h *HealthReporter) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.server)
}

// Probe pings every dependency once and updates the published statuses.
func (h *HealthReporter) Probe(ctx context.Context) {
	overall := healthpb.HealthCheckResponse_SERVING
	for name, dep := range h.deps {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := dep.Ping(pingCtx)
		cancel()

		status := healthpb.HealthCheckResponse_SERVING
		if err != nil {
			status = healthpb.HealthCheckResponse_NOT_SERVING
			overall = healthpb.HealthCheckResponse_NOT_SERVING
			h.log.WithField("dependency", name).WithError(err).Warn("health probe failed")
		}
		h.server.SetServingStatus(name, status)
	}
	h.server.SetServingStatus("", overall)
}

// Run probes on every tick until ctx is done, then marks everything
// NOT_SERVING so clients stop routing here during shutdown.
func (h *HealthReporter) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	h.Probe(ctx)
	for {
		select {
		case <-ctx.Done():
			h.server.Shutdown()
			return nil
		case <-ticker.C:
			h.Probe(ctx)
		}
	}
}

func (h *HealthReporter) Check(ctx context.Context, service string) (healthpb.HealthCheckResponse_ServingStatus, error) {
	resp, err := h.server.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	return resp.GetStatus(), nil
}
