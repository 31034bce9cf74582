package gateway

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/pong/go/internal/pong/game"
)

// SessionState is the relay's view of a session
type SessionState string

const (
	SessionWaiting SessionState = "waiting"
	SessionActive  SessionState = "active"
	SessionEnded   SessionState = "ended"
)

// Session is a relay session: a code and two seats. The relay never looks at
// game state; it only tracks who sits where.
type Session struct {
	ID          string       `json:"session_id"`
	LeftPlayer  string       `json:"left_player,omitempty"`
	RightPlayer string       `json:"right_player,omitempty"`
	State       SessionState `json:"state"`
	CreatedAt   time.Time    `json:"created_at"`
}

// Players is the number of occupied seats
func (s *Session) Players() int {
	n := 0
	if s.LeftPlayer != "" {
		n++
	}
	if s.RightPlayer != "" {
		n++
	}
	return n
}

// Seated reports whether playerID holds either seat
func (s *Session) Seated(playerID string) bool {
	return playerID != "" && (s.LeftPlayer == playerID || s.RightPlayer == playerID)
}

// SideOf returns the seat held by playerID
func (s *Session) SideOf(playerID string) (game.Side, bool) {
	switch {
	case playerID == "":
		return "", false
	case s.LeftPlayer == playerID:
		return game.SideLeft, true
	case s.RightPlayer == playerID:
		return game.SideRight, true
	}
	return "", false
}

// Peer returns the player in the other seat, or "" if it is empty
func (s *Session) Peer(playerID string) string {
	switch {
	case playerID == "":
		return ""
	case playerID == s.LeftPlayer:
		return s.RightPlayer
	case playerID == s.RightPlayer:
		return s.LeftPlayer
	}
	return ""
}

// claim seats playerID in the first free seat, left first
func (s *Session) claim(playerID string) (game.Side, error) {
	switch {
	case s.State == SessionEnded:
		return "", ErrSessionEnded
	case s.Seated(playerID):
		return "", ErrAlreadySeated
	case s.LeftPlayer == "":
		s.LeftPlayer = playerID
	case s.RightPlayer == "":
		s.RightPlayer = playerID
	default:
		return "", ErrSessionFull
	}

	if s.Players() == 2 {
		s.State = SessionActive
	}
	side, _ := s.SideOf(playerID)
	return side, nil
}

// release frees playerID's seat. A session never returns to waiting: once
// someone leaves it is ended.
func (s *Session) release(playerID string) bool {
	switch playerID {
	case s.LeftPlayer:
		s.LeftPlayer = ""
	case s.RightPlayer:
		s.RightPlayer = ""
	default:
		return false
	}
	s.State = SessionEnded
	return true
}

// NewSessionID returns a fresh 8-character session code
func NewSessionID() string {
	return uuid.New().String()[:8]
}

// NormalizeSessionID makes codes case-insensitive
func NormalizeSessionID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
