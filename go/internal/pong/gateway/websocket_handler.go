package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/mcdev12/pong/go/internal/pong/events"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler handles WebSocket upgrade requests for players
type WebSocketHandler struct {
	connectionManager *ConnectionManager
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(cm *ConnectionManager) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
	}
}

// HandleConnection upgrades a player's socket. ?codec=msgpack selects binary
// frames for the greeting; afterwards replies follow the player's own frames.
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	codec := events.CodecByName(r.URL.Query().Get("codec"))

	// the upgrader has already answered the request on failure
	if err := h.connectionManager.UpgradeConnection(w, r, codec); err != nil {
		log.Error().
			Err(err).
			Str("remote_addr", r.RemoteAddr).
			Msg("failed to upgrade WebSocket connection")
	}
}

// HandleConnectionStats returns statistics about active connections
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.connectionManager.GetConnectionStats())
}

// RegisterRoutes registers WebSocket routes with an HTTP mux
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", h.HandleConnection)
	mux.HandleFunc("GET /ws/stats", h.HandleConnectionStats)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
