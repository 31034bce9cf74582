package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	"github.com/mcdev12/pong/go/internal/pong/events"
	"github.com/rs/zerolog/log"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// CodeLength is the number of characters in a session code
const CodeLength = 8

// ValidateCode normalises a user-typed code. It is checked locally before any
// network call is made.
func ValidateCode(raw string) (string, error) {
	code := strings.TrimSpace(raw)
	if code == "" {
		return "", ErrEmptyCode
	}
	if len(code) != CodeLength {
		return "", fmt.Errorf("%w: got %d", ErrInvalidCode, len(code))
	}
	return strings.ToLower(code), nil
}

// Lobby talks to the relay's session service before a websocket is opened
type Lobby struct {
	baseURL string
	create  *connect.Client[emptypb.Empty, wrapperspb.StringValue]
	lookup  *connect.Client[wrapperspb.StringValue, wrapperspb.BoolValue]
}

// NewLobby creates a session service client for the relay at baseURL
func NewLobby(baseURL string, httpClient *http.Client) *Lobby {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	baseURL = strings.TrimRight(baseURL, "/")
	return &Lobby{
		baseURL: baseURL,
		create: connect.NewClient[emptypb.Empty, wrapperspb.StringValue](
			httpClient, baseURL+events.CreateSessionProcedure,
		),
		lookup: connect.NewClient[wrapperspb.StringValue, wrapperspb.BoolValue](
			httpClient, baseURL+events.LookupSessionProcedure,
		),
	}
}

// Create asks the relay for a new session code
func (l *Lobby) Create(ctx context.Context) (string, error) {
	resp, err := l.create.CallUnary(ctx, connect.NewRequest(&emptypb.Empty{}))
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	code := resp.Msg.GetValue()
	log.Info().Str("session_id", code).Msg("session created")
	return code, nil
}

// Join validates raw and checks that the relay knows the session
func (l *Lobby) Join(ctx context.Context, raw string) (string, error) {
	code, err := ValidateCode(raw)
	if err != nil {
		return "", err
	}

	resp, err := l.lookup.CallUnary(ctx, connect.NewRequest(wrapperspb.String(code)))
	if err != nil {
		return "", fmt.Errorf("failed to look up session: %w", err)
	}
	if !resp.Msg.GetValue() {
		return "", &RelayError{Message: events.GameNotFound}
	}
	return code, nil
}

// WebSocketURL is the relay's message channel endpoint
func (l *Lobby) WebSocketURL() string {
	switch {
	case strings.HasPrefix(l.baseURL, "https://"):
		return "wss://" + strings.TrimPrefix(l.baseURL, "https://") + "/ws"
	case strings.HasPrefix(l.baseURL, "http://"):
		return "ws://" + strings.TrimPrefix(l.baseURL, "http://") + "/ws"
	}
	return l.baseURL + "/ws"
}
