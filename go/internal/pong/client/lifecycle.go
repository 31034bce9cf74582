package client

import (
	"fmt"

	"github.com/mcdev12/pong/go/internal/pong/events"
	"github.com/mcdev12/pong/go/internal/pong/game"
	"github.com/rs/zerolog/log"
)

// Phase is where this participant is in a session
type Phase string

const (
	PhaseIdle           Phase = "idle"
	PhaseJoining        Phase = "joining"
	PhaseWaitingForPeer Phase = "waiting_for_peer"
	PhaseActive         Phase = "active"
	PhaseEnded          Phase = "ended"
)

// Lifecycle tracks one participant's session from join to end. It is driven
// by relay notifications and never retries; ended is terminal.
type Lifecycle struct {
	phase     Phase
	sessionID string
	playerID  string
	side      game.Side
	endErr    error
}

// NewLifecycle returns a lifecycle in PhaseIdle
func NewLifecycle() *Lifecycle {
	return &Lifecycle{phase: PhaseIdle}
}

func (l *Lifecycle) Phase() Phase      { return l.phase }
func (l *Lifecycle) SessionID() string { return l.sessionID }
func (l *Lifecycle) PlayerID() string  { return l.playerID }
func (l *Lifecycle) Side() game.Side   { return l.side }
func (l *Lifecycle) Ended() bool       { return l.phase == PhaseEnded }

// Err is why the session ended: nil after a local leave, ErrPeerLeft or a
// *RelayError otherwise.
func (l *Lifecycle) Err() error { return l.endErr }

// Start moves idle -> joining and returns the join request to send
func (l *Lifecycle) Start(sessionID string) (*events.Envelope, error) {
	if l.phase != PhaseIdle {
		return nil, fmt.Errorf("%w: start from %s", ErrInvalidTransition, l.phase)
	}
	l.sessionID = sessionID
	l.transition(PhaseJoining)
	return events.NewJoinSession(sessionID), nil
}

// Handle applies a relay notification and returns the resulting phase. A
// non-nil error is for the user; it ends the session only while joining.
func (l *Lifecycle) Handle(env *events.Envelope) (Phase, error) {
	if l.phase == PhaseEnded {
		return l.phase, nil
	}

	switch env.Type {
	case events.TypeConnected:
		l.playerID = env.Connected.PlayerID

	case events.TypePlayerJoined:
		p := env.PlayerJoined
		if l.phase == PhaseJoining && (l.playerID == "" || p.PlayerID == l.playerID) {
			l.transition(PhaseWaitingForPeer)
		}

	case events.TypeGameStart:
		if l.phase != PhaseJoining && l.phase != PhaseWaitingForPeer {
			return l.phase, nil
		}
		side, err := env.GameStart.SideOf(l.playerID)
		if err != nil {
			return l.phase, fmt.Errorf("failed to resolve side: %w", err)
		}
		l.side = side
		l.transition(PhaseActive)

	case events.TypePlayerLeft:
		if l.phase == PhaseActive && env.PlayerLeft.PlayerID != l.playerID {
			l.end(ErrPeerLeft)
			return l.phase, ErrPeerLeft
		}

	case events.TypeError:
		err := &RelayError{Message: env.Error.Message}
		if l.phase == PhaseJoining {
			l.end(err)
		}
		return l.phase, err
	}

	return l.phase, nil
}

// Leave ends the session locally. It returns the leave request to send, or
// nil when there is nothing to tell the relay.
func (l *Lifecycle) Leave() *events.Envelope {
	notify := l.phase != PhaseIdle && l.phase != PhaseEnded
	l.end(nil)
	if !notify {
		return nil
	}
	return events.NewLeaveSession(l.sessionID)
}

func (l *Lifecycle) end(err error) {
	if l.phase == PhaseEnded {
		return
	}
	l.endErr = err
	l.transition(PhaseEnded)
}

func (l *Lifecycle) transition(to Phase) {
	from := l.phase
	l.phase = to

	evt := log.Info().
		Str("session_id", l.sessionID).
		Str("from", string(from)).
		Str("to", string(to))
	if l.side != "" {
		evt = evt.Str("side", string(l.side))
	}
	if l.endErr != nil {
		evt = evt.AnErr("reason", l.endErr)
	}
	evt.Msg("session phase changed")
}
