package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Service is the relay: session endpoints, the connect session service and
// the websocket channel, all over one store.
type Service struct {
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	sessionHandler    *SessionHandler
	sessionRPC        *SessionRPC
	store             SessionStore
	bus               Bus
}

// Config holds configuration for the relay service
type Config struct {
	ConnectionConfig ConnectionConfig
}

// DefaultConfig returns default configuration for the relay
func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
	}
}

// NewService creates a relay over store. bus may be nil.
func NewService(config Config, store SessionStore, bus Bus) *Service {
	connectionManager := NewConnectionManager(config.ConnectionConfig, store, bus)
	sessionHandler := NewSessionHandler(store)

	return &Service{
		connectionManager: connectionManager,
		wsHandler:         NewWebSocketHandler(connectionManager),
		sessionHandler:    sessionHandler,
		sessionRPC:        NewSessionRPC(sessionHandler),
		store:             store,
		bus:               bus,
	}
}

// Start runs the relay until ctx is cancelled
func (s *Service) Start(ctx context.Context) error {
	log.Info().Msg("starting pong relay service")

	s.connectionManager.Start(ctx)

	log.Info().Msg("pong relay service shutting down")
	return s.Stop()
}

// Stop releases the bus and the store
func (s *Service) Stop() error {
	if s.bus != nil {
		if err := s.bus.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close session bus")
		}
	}
	if err := s.store.Close(); err != nil {
		return fmt.Errorf("close session store: %w", err)
	}
	log.Info().Msg("pong relay service stopped")
	return nil
}

// RegisterRoutes registers every relay route on mux
func (s *Service) RegisterRoutes(mux *http.ServeMux) error {
	s.wsHandler.RegisterRoutes(mux)
	s.sessionHandler.RegisterRoutes(mux)
	if err := s.sessionRPC.RegisterRoutes(mux); err != nil {
		return fmt.Errorf("register session rpc: %w", err)
	}

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("failed to write health check response")
		}
	})
	mux.HandleFunc("GET /health/ready", s.HandleReady)
	mux.HandleFunc("GET /info", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.GetStats())
	})

	log.Info().Msg("pong relay routes registered")
	return nil
}

// ServiceStats is served on /info
type ServiceStats struct {
	Service string `json:"service"`
	Version string `json:"version"`
	NodeID  string `json:"node_id,omitempty"`
	ConnectionStats
}

// GetStats returns statistics about the relay
func (s *Service) GetStats() ServiceStats {
	stats := ServiceStats{
		Service:         "pong-relay",
		Version:         "1.0.0",
		ConnectionStats: s.connectionManager.GetConnectionStats(),
	}
	if s.bus != nil {
		stats.NodeID = s.bus.NodeID()
	}
	return stats
}
