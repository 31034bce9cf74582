package gateway

import (
	"context"
	"net/http"
	"time"
)

// HealthStatus is the readiness report served on /health/ready
type HealthStatus struct {
	Healthy        bool     `json:"healthy"`
	StoreConnected bool     `json:"store_connected"`
	BusConnected   bool     `json:"bus_connected"`
	Connections    int      `json:"connections"`
	Errors         []string `json:"errors"`
}

// pinger is implemented by stores backed by a remote database
type pinger interface {
	Ping(ctx context.Context) error
}

// connectedBus is implemented by buses with a live connection to watch
type connectedBus interface {
	Connected() bool
}

// Check reports whether the store and the bus are usable. In-process stores
// and a missing bus count as connected.
func (s *Service) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Healthy:        true,
		StoreConnected: true,
		BusConnected:   true,
		Connections:    s.connectionManager.GetConnectionStats().TotalConnections,
		Errors:         []string{},
	}

	if p, ok := s.store.(pinger); ok {
		if err := p.Ping(ctx); err != nil {
			status.StoreConnected = false
			status.Healthy = false
			status.Errors = append(status.Errors, "store: "+err.Error())
		}
	}

	if b, ok := s.bus.(connectedBus); ok && !b.Connected() {
		status.BusConnected = false
		status.Healthy = false
		status.Errors = append(status.Errors, "bus: not connected")
	}

	return status
}

// HandleReady serves the readiness report, 503 when unhealthy
func (s *Service) HandleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := s.Check(ctx)
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}
