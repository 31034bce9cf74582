package gateway

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"
)

// CreateSessionResponse is returned by the create endpoints
type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// JoinInfoResponse describes a joinable session
type JoinInfoResponse struct {
	SessionID string       `json:"session_id"`
	WSURL     string       `json:"ws_url"`
	Players   int          `json:"players"`
	State     SessionState `json:"state"`
}

// ActiveSessionsResponse lists sessions that have not ended
type ActiveSessionsResponse struct {
	Sessions []*Session `json:"sessions"`
	Count    int        `json:"count"`
}

// SessionHandler serves the HTTP session endpoints
type SessionHandler struct {
	store SessionStore
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(store SessionStore) *SessionHandler {
	return &SessionHandler{store: store}
}

// Create allocates a session and logs it; shared by REST and RPC
func (h *SessionHandler) Create(ctx context.Context) (*Session, error) {
	session, err := h.store.Create(ctx)
	if err != nil {
		return nil, err
	}
	log.Info().Str("session_id", session.ID).Msg("session created")
	return session, nil
}

// Lookup reports whether id names a session that can still be joined
func (h *SessionHandler) Lookup(ctx context.Context, id string) (*Session, bool, error) {
	session, err := h.store.Get(ctx, NormalizeSessionID(id))
	if errors.Is(err, ErrSessionNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return session, session.State != SessionEnded, nil
}

// HandleCreateSession allocates a new session code
func (h *SessionHandler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.Create(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to create session")
		http.Error(w, "failed to create session", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, CreateSessionResponse{
		SessionID: session.ID,
		URL:       "/join/" + session.ID,
	})
}

// HandleJoin resolves a join-by-code link
func (h *SessionHandler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	session, ok, err := h.Lookup(r.Context(), r.PathValue("code"))
	if err != nil {
		log.Error().Err(err).Str("code", r.PathValue("code")).Msg("failed to look up session")
		http.Error(w, "failed to look up session", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, ErrSessionNotFound.Error(), http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, JoinInfoResponse{
		SessionID: session.ID,
		WSURL:     "/ws",
		Players:   session.Players(),
		State:     session.State,
	})
}

// HandleGetSession returns one session's seats and state
func (h *SessionHandler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.store.Get(r.Context(), NormalizeSessionID(r.PathValue("id")))
	if errors.Is(err, ErrSessionNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to get session")
		http.Error(w, "failed to get session", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// HandleActiveSessions lists sessions that have not ended
func (h *SessionHandler) HandleActiveSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.store.Active(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list sessions")
		http.Error(w, "failed to list sessions", http.StatusInternalServerError)
		return
	}
	if sessions == nil {
		sessions = []*Session{}
	}
	writeJSON(w, http.StatusOK, ActiveSessionsResponse{Sessions: sessions, Count: len(sessions)})
}

// RegisterRoutes registers the session routes
func (h *SessionHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/sessions", h.HandleCreateSession)
	mux.HandleFunc("GET /create-game", h.HandleCreateSession)
	mux.HandleFunc("GET /join/{code}", h.HandleJoin)
	mux.HandleFunc("GET /api/sessions/active", h.HandleActiveSessions)
	mux.HandleFunc("GET /api/sessions/{id}", h.HandleGetSession)
}
