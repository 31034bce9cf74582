package client

import (
	"errors"
	"testing"

	"github.com/mcdev12/pong/go/internal/pong/events"
	"github.com/mcdev12/pong/go/internal/pong/game"
)

const testSession = "abcd1234"

func joinedLifecycle(t *testing.T, playerID string) *Lifecycle {
	t.Helper()
	l := NewLifecycle()
	if _, err := l.Start(testSession); err != nil {
		t.Fatalf("start: %v", err)
	}
	l.Handle(events.NewConnected(playerID))
	l.Handle(events.NewPlayerJoined(testSession, playerID, game.SideLeft, 1))
	return l
}

func activeLifecycle(t *testing.T) *Lifecycle {
	t.Helper()
	l := joinedLifecycle(t, "me")
	if phase, err := l.Handle(events.NewGameStart(testSession, "me", "them")); err != nil || phase != PhaseActive {
		t.Fatalf("game_start: %s, %v", phase, err)
	}
	return l
}

func TestLifecycleHappyPath(t *testing.T) {
	l := NewLifecycle()
	if l.Phase() != PhaseIdle {
		t.Fatalf("initial phase = %s", l.Phase())
	}

	join, err := l.Start(testSession)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if join.Type != events.TypeJoinSession || join.SessionID != testSession {
		t.Errorf("join envelope = %+v", join)
	}
	if l.Phase() != PhaseJoining {
		t.Errorf("after start = %s", l.Phase())
	}

	l.Handle(events.NewConnected("me"))
	if l.PlayerID() != "me" {
		t.Errorf("player id = %q", l.PlayerID())
	}

	// someone else's announcement does not move us
	l.Handle(events.NewPlayerJoined(testSession, "them", game.SideLeft, 1))
	if l.Phase() != PhaseJoining {
		t.Errorf("after other join = %s", l.Phase())
	}

	l.Handle(events.NewPlayerJoined(testSession, "me", game.SideRight, 2))
	if l.Phase() != PhaseWaitingForPeer {
		t.Errorf("after own join = %s", l.Phase())
	}

	phase, err := l.Handle(events.NewGameStart(testSession, "them", "me"))
	if err != nil || phase != PhaseActive {
		t.Fatalf("game_start: %s, %v", phase, err)
	}
	if l.Side() != game.SideRight {
		t.Errorf("side = %s, want right", l.Side())
	}
}

func TestLifecycleGameStartWhileJoining(t *testing.T) {
	l := NewLifecycle()
	l.Start(testSession)
	l.Handle(events.NewConnected("me"))

	if phase, _ := l.Handle(events.NewGameStart(testSession, "me", "them")); phase != PhaseActive {
		t.Errorf("phase = %s, want active", phase)
	}
	if l.Side() != game.SideLeft {
		t.Errorf("side = %s", l.Side())
	}
}

func TestLifecycleGameStartWithoutSeat(t *testing.T) {
	l := joinedLifecycle(t, "me")
	phase, err := l.Handle(events.NewGameStart(testSession, "a", "b"))
	if !errors.Is(err, events.ErrNotSeated) {
		t.Errorf("err = %v, want ErrNotSeated", err)
	}
	if phase != PhaseWaitingForPeer {
		t.Errorf("phase = %s, want unchanged", phase)
	}
}

func TestLifecycleRelayErrors(t *testing.T) {
	t.Run("while joining ends the session", func(t *testing.T) {
		l := NewLifecycle()
		l.Start(testSession)

		phase, err := l.Handle(events.NewError("Game not found"))
		var relayErr *RelayError
		if !errors.As(err, &relayErr) || relayErr.Message != "Game not found" {
			t.Fatalf("err = %v", err)
		}
		if phase != PhaseEnded || !errors.As(l.Err(), &relayErr) {
			t.Errorf("phase = %s, Err = %v", phase, l.Err())
		}
	})

	t.Run("while active is only reported", func(t *testing.T) {
		l := activeLifecycle(t)
		phase, err := l.Handle(events.NewError("Not in a game"))
		if err == nil || phase != PhaseActive {
			t.Errorf("phase = %s, err = %v", phase, err)
		}
	})
}

func TestLifecyclePlayerLeft(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(t *testing.T) *Lifecycle
		leaver    string
		wantPhase Phase
		wantErr   error
	}{
		{"peer leaves active game", activeLifecycle, "them", PhaseEnded, ErrPeerLeft},
		{"own echo ignored", activeLifecycle, "me", PhaseActive, nil},
		{"before game start", func(t *testing.T) *Lifecycle { return joinedLifecycle(t, "me") }, "them", PhaseWaitingForPeer, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := tt.setup(t)
			phase, err := l.Handle(events.NewPlayerLeft(testSession, tt.leaver))
			if phase != tt.wantPhase || !errors.Is(err, tt.wantErr) {
				t.Errorf("got %s, %v; want %s, %v", phase, err, tt.wantPhase, tt.wantErr)
			}
		})
	}
}

func TestLifecycleEndedIsTerminal(t *testing.T) {
	l := activeLifecycle(t)
	l.Handle(events.NewPlayerLeft(testSession, "them"))

	if phase, err := l.Handle(events.NewGameStart(testSession, "me", "them")); phase != PhaseEnded || err != nil {
		t.Errorf("after end: %s, %v", phase, err)
	}
	if _, err := l.Start(testSession); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("restart: %v, want ErrInvalidTransition", err)
	}
	if !errors.Is(l.Err(), ErrPeerLeft) {
		t.Errorf("Err = %v", l.Err())
	}
}

func TestLifecycleLeave(t *testing.T) {
	t.Run("active", func(t *testing.T) {
		l := activeLifecycle(t)
		env := l.Leave()
		if env == nil || env.Type != events.TypeLeaveSession || env.SessionID != testSession {
			t.Fatalf("leave = %+v", env)
		}
		if !l.Ended() || l.Err() != nil {
			t.Errorf("ended = %v, err = %v", l.Ended(), l.Err())
		}
		if again := l.Leave(); again != nil {
			t.Errorf("second leave = %+v, want nil", again)
		}
	})

	t.Run("idle", func(t *testing.T) {
		l := NewLifecycle()
		if env := l.Leave(); env != nil {
			t.Errorf("leave from idle = %+v", env)
		}
		if !l.Ended() {
			t.Error("leave should end the lifecycle")
		}
	})
}
