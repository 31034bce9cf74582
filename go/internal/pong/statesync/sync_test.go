package statesync

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/pong/go/internal/pong/game"
)

func newState(side game.Side) game.State {
	return game.NewState(game.DefaultField(), side, game.NewSeededRand(1))
}

func TestInterval(t *testing.T) {
	if got := Interval(60); got != time.Second/60 {
		t.Fatalf("Interval(60) = %v", got)
	}
	if got := Interval(0); got != time.Second/DefaultUpdateRate {
		t.Fatalf("Interval(0) should fall back to default, got %v", got)
	}
}

func TestMaybeEmit(t *testing.T) {
	s := newState(game.SideLeft)
	start := time.Unix(1700000000, 0)
	interval := Interval(60)

	if _, ok := MaybeEmit(s, time.Time{}, start, interval); !ok {
		t.Fatalf("first emit should always pass")
	}
	if _, ok := MaybeEmit(s, start, start.Add(interval-time.Nanosecond), interval); ok {
		t.Fatalf("emit inside the interval should be held back")
	}
	snap, ok := MaybeEmit(s, start, start.Add(interval), interval)
	if !ok {
		t.Fatalf("emit exactly one interval later should pass")
	}
	if snap != s.Snapshot() {
		t.Fatalf("emit should carry the full snapshot")
	}
}

func TestThrottleAtMostSixtyPerSecond(t *testing.T) {
	clock := clockwork.NewFakeClock()
	th := NewThrottle(60, clock)
	s := newState(game.SideLeft)

	emitted := 0
	for i := 0; i < 1000; i++ {
		if _, ok := th.Sample(s); ok {
			emitted++
		}
		clock.Advance(time.Millisecond)
	}

	if emitted > 60 {
		t.Fatalf("emitted %d snapshots in one second, want at most 60", emitted)
	}
	if emitted < 55 {
		t.Fatalf("emitted only %d snapshots in one second", emitted)
	}

	sent, suppressed := th.Stats()
	if sent != uint64(emitted) || sent+suppressed != 1000 {
		t.Fatalf("stats sent=%d suppressed=%d for %d emits", sent, suppressed, emitted)
	}
}

func TestThrottleEmitsEveryInterval(t *testing.T) {
	clock := clockwork.NewFakeClock()
	th := NewThrottle(60, clock)
	s := newState(game.SideRight)

	for i := 0; i < 60; i++ {
		if _, ok := th.Sample(s); !ok {
			t.Fatalf("sample %d should emit", i)
		}
		if _, ok := th.Sample(s); ok {
			t.Fatalf("sample %d emitted twice at the same instant", i)
		}
		clock.Advance(th.Interval())
	}
}

func TestApplyRemoteNeverTouchesOwnedPaddle(t *testing.T) {
	rng := game.NewSeededRand(99)

	for _, side := range []game.Side{game.SideLeft, game.SideRight} {
		local := newState(side)
		local.Owned.Y = 42

		for i := 0; i < 200; i++ {
			remote := newState(side.Opponent())
			remote.Owned.Y = rng.Float64() * 340
			// the remote's idea of our paddle is wrong on purpose
			remote.Peer.Y = rng.Float64() * 340
			remote.Shared.Ball.X = rng.Float64() * 800
			remote.Shared.Score = game.Score{Left: i, Right: i + 1}

			merged := ApplyRemote(local, remote.Snapshot())
			if merged.Owned != local.Owned {
				t.Fatalf("side %s: owned paddle changed from %+v to %+v", side, local.Owned, merged.Owned)
			}
			if merged.Peer != remote.Owned {
				t.Fatalf("side %s: peer paddle %+v, want %+v", side, merged.Peer, remote.Owned)
			}
			if merged.Shared != remote.Shared {
				t.Fatalf("side %s: shared %+v, want %+v", side, merged.Shared, remote.Shared)
			}
		}
	}
}

func TestApplyRemoteOverwritesUnconditionally(t *testing.T) {
	local := newState(game.SideLeft)
	local.Shared.Score = game.Score{Left: 5, Right: 5}

	remote := newState(game.SideRight)
	remote.Shared.Score = game.Score{Left: 1, Right: 0}

	merged := ApplyRemote(local, remote.Snapshot())
	if merged.Shared.Score != remote.Shared.Score {
		t.Fatalf("stale score should still win, got %+v", merged.Shared.Score)
	}
}

func TestApplyRemoteClampsOutOfRangeValues(t *testing.T) {
	local := newState(game.SideLeft)
	snap := newState(game.SideRight).Snapshot()
	snap.RightPaddle.Y = 900
	snap.Velocity = game.Vec{X: -30, Y: 12}

	merged := ApplyRemote(local, snap)
	if merged.Peer.Y != 340 {
		t.Fatalf("peer y should clamp to 340, got %v", merged.Peer.Y)
	}
	if merged.Shared.Velocity != (game.Vec{X: -8, Y: 8}) {
		t.Fatalf("velocity should clamp to ±8, got %+v", merged.Shared.Velocity)
	}
}
