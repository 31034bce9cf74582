package events

import (
	"fmt"

	"github.com/mcdev12/pong/go/internal/pong/game"
)

// MessageType names a relay message
type MessageType string

const (
	// server -> client
	TypeConnected    MessageType = "connected"
	TypePlayerJoined MessageType = "player_joined"
	TypeGameStart    MessageType = "game_start"
	TypePlayerLeft   MessageType = "player_left"
	TypeError        MessageType = "error"

	// client -> server
	TypeJoinSession  MessageType = "join_session"
	TypeLeaveSession MessageType = "leave_session"

	// both directions, relayed peer to peer
	TypeGameUpdate MessageType = "game_update"
)

// Envelope is the single frame shape on the channel. Exactly one payload
// pointer is set, matching Type; join and leave carry only SessionID.
type Envelope struct {
	Type      MessageType `json:"type" msgpack:"type"`
	SessionID string      `json:"session_id,omitempty" msgpack:"session_id,omitempty"`

	Connected    *ConnectedPayload    `json:"connected,omitempty" msgpack:"connected,omitempty"`
	PlayerJoined *PlayerJoinedPayload `json:"player_joined,omitempty" msgpack:"player_joined,omitempty"`
	GameStart    *GameStartPayload    `json:"game_start,omitempty" msgpack:"game_start,omitempty"`
	Update       *game.Snapshot       `json:"snapshot,omitempty" msgpack:"snapshot,omitempty"`
	PlayerLeft   *PlayerLeftPayload   `json:"player_left,omitempty" msgpack:"player_left,omitempty"`
	Error        *ErrorPayload        `json:"error,omitempty" msgpack:"error,omitempty"`
}

// ConnectedPayload greets a fresh socket with its relay-assigned id
type ConnectedPayload struct {
	PlayerID string `json:"player_id" msgpack:"player_id"`
}

// PlayerJoinedPayload acknowledges a join to everyone in the session
type PlayerJoinedPayload struct {
	PlayerID     string    `json:"player_id" msgpack:"player_id"`
	Side         game.Side `json:"side" msgpack:"side"`
	TotalPlayers int       `json:"total_players" msgpack:"total_players"`
}

// GameStartPayload carries the side assignment once both seats are taken
type GameStartPayload struct {
	LeftPlayer  string `json:"left_player" msgpack:"left_player"`
	RightPlayer string `json:"right_player" msgpack:"right_player"`
}

// SideOf returns the side assigned to playerID
func (p GameStartPayload) SideOf(playerID string) (game.Side, error) {
	switch playerID {
	case p.LeftPlayer:
		return game.SideLeft, nil
	case p.RightPlayer:
		return game.SideRight, nil
	}
	return "", fmt.Errorf("%w: %s", ErrNotSeated, playerID)
}

// PlayerLeftPayload names the participant that went away
type PlayerLeftPayload struct {
	PlayerID string `json:"player_id" msgpack:"player_id"`
}

// ErrorPayload is a relay-side failure, shown to the user verbatim
type ErrorPayload struct {
	Message string `json:"message" msgpack:"message"`
}

func NewConnected(playerID string) *Envelope {
	return &Envelope{Type: TypeConnected, Connected: &ConnectedPayload{PlayerID: playerID}}
}

func NewJoinSession(sessionID string) *Envelope {
	return &Envelope{Type: TypeJoinSession, SessionID: sessionID}
}

func NewLeaveSession(sessionID string) *Envelope {
	return &Envelope{Type: TypeLeaveSession, SessionID: sessionID}
}

func NewPlayerJoined(sessionID, playerID string, side game.Side, total int) *Envelope {
	return &Envelope{
		Type:         TypePlayerJoined,
		SessionID:    sessionID,
		PlayerJoined: &PlayerJoinedPayload{PlayerID: playerID, Side: side, TotalPlayers: total},
	}
}

func NewGameStart(sessionID, left, right string) *Envelope {
	return &Envelope{
		Type:      TypeGameStart,
		SessionID: sessionID,
		GameStart: &GameStartPayload{LeftPlayer: left, RightPlayer: right},
	}
}

func NewGameUpdate(sessionID string, snap game.Snapshot) *Envelope {
	return &Envelope{Type: TypeGameUpdate, SessionID: sessionID, Update: &snap}
}

func NewPlayerLeft(sessionID, playerID string) *Envelope {
	return &Envelope{
		Type:       TypePlayerLeft,
		SessionID:  sessionID,
		PlayerLeft: &PlayerLeftPayload{PlayerID: playerID},
	}
}

func NewError(message string) *Envelope {
	return &Envelope{Type: TypeError, Error: &ErrorPayload{Message: message}}
}

// Validate checks that the payload required by Type is present
func (e *Envelope) Validate() error {
	var ok bool
	switch e.Type {
	case TypeConnected:
		ok = e.Connected != nil && e.Connected.PlayerID != ""
	case TypeJoinSession, TypeLeaveSession:
		ok = e.SessionID != ""
	case TypePlayerJoined:
		ok = e.PlayerJoined != nil
	case TypeGameStart:
		ok = e.GameStart != nil && e.GameStart.LeftPlayer != "" && e.GameStart.RightPlayer != ""
	case TypeGameUpdate:
		ok = e.Update != nil
	case TypePlayerLeft:
		ok = e.PlayerLeft != nil
	case TypeError:
		ok = e.Error != nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownType, e.Type)
	}
	if !ok {
		return fmt.Errorf("%w: %s missing payload", ErrMalformedEnvelope, e.Type)
	}
	return nil
}
