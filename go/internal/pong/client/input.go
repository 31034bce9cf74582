package client

import (
	"sync"

	"github.com/mcdev12/pong/go/internal/pong/game"
)

// InputSource reports the keys held at the moment it is polled
type InputSource interface {
	Pressed() game.KeySet
}

// Observer is implemented by input sources that want to see the state after
// each tick, such as the autopilot.
type Observer interface {
	Observe(s game.State)
}

// Autopilot steers the owned paddle toward the ball. It stands in for a human
// in headless runs and soak tests.
type Autopilot struct {
	mu       sync.Mutex
	keys     game.KeySet
	deadZone float64
}

// NewAutopilot returns a bot that ignores offsets smaller than deadZone
func NewAutopilot(deadZone float64) *Autopilot {
	return &Autopilot{keys: game.NewKeySet(), deadZone: deadZone}
}

func (a *Autopilot) Pressed() game.KeySet {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.keys
}

func (a *Autopilot) Observe(s game.State) {
	c := game.ControlsFor(s.Side)
	centre := s.Owned.Y + s.Owned.Height/2
	target := s.Shared.Ball.Y + s.Shared.Ball.Size/2

	var keys game.KeySet
	switch {
	case target < centre-a.deadZone:
		keys = game.NewKeySet(c.Up)
	case target > centre+a.deadZone:
		keys = game.NewKeySet(c.Down)
	default:
		keys = game.NewKeySet()
	}

	a.mu.Lock()
	a.keys = keys
	a.mu.Unlock()
}
