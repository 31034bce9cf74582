package statesync

import (
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/pong/go/internal/pong/game"
)

// DefaultUpdateRate is how many snapshots per second a peer may send
const DefaultUpdateRate = 60

// Interval converts an update rate into the minimum gap between emits.
// Non-positive rates fall back to DefaultUpdateRate.
func Interval(updateRate int) time.Duration {
	if updateRate <= 0 {
		updateRate = DefaultUpdateRate
	}
	return time.Second / time.Duration(updateRate)
}

// MaybeEmit returns a full snapshot when at least interval has passed since
// lastEmit. A zero lastEmit always emits.
func MaybeEmit(s game.State, lastEmit, now time.Time, interval time.Duration) (game.Snapshot, bool) {
	if !lastEmit.IsZero() && now.Sub(lastEmit) < interval {
		return game.Snapshot{}, false
	}
	return s.Snapshot(), true
}

// ApplyRemote merges a peer snapshot into the local state. The peer paddle is
// replaced and the shared group (ball, velocity, scores) is overwritten
// unconditionally; the owned paddle is never read from the snapshot.
//
// There are no sequence numbers, so a reordered or stale snapshot can move the
// ball or scores backwards.
func ApplyRemote(local game.State, snap game.Snapshot) game.State {
	local.Peer = game.ClampPaddle(snap.Paddle(local.Side.Opponent()), local.Field)
	local.Shared = game.Shared{
		Ball:     snap.Ball,
		Velocity: game.ClampVelocity(snap.Velocity, local.Field.MaxSpeed),
		Score:    game.Score{Left: snap.LeftScore, Right: snap.RightScore},
	}
	return local
}

// Clock is the slice of clockwork the throttle needs.
// In production, use clockwork.NewRealClock(). In tests, a FakeClock.
type Clock interface {
	Now() time.Time
}

// Throttle wraps MaybeEmit with its own clock and last-emit bookkeeping.
// It is not safe for concurrent Sample calls; the client loop owns it.
type Throttle struct {
	clock    Clock
	interval time.Duration
	last     time.Time

	sent       atomic.Uint64
	suppressed atomic.Uint64
}

// NewThrottle creates a throttle for updateRate snapshots per second
func NewThrottle(updateRate int, clock Clock) *Throttle {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Throttle{
		clock:    clock,
		interval: Interval(updateRate),
	}
}

// Sample returns a snapshot of s if the throttle window has elapsed
func (t *Throttle) Sample(s game.State) (game.Snapshot, bool) {
	now := t.clock.Now()
	snap, ok := MaybeEmit(s, t.last, now, t.interval)
	if !ok {
		t.suppressed.Add(1)
		return snap, false
	}
	t.last = now
	t.sent.Add(1)
	return snap, true
}

// Interval returns the minimum gap between emits
func (t *Throttle) Interval() time.Duration {
	return t.interval
}

// Stats reports how many samples were emitted and how many were held back
func (t *Throttle) Stats() (sent, suppressed uint64) {
	return t.sent.Load(), t.suppressed.Load()
}
