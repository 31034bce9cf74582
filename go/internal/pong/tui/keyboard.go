package tui

import (
	"sync"
	"time"

	"github.com/gdamore/tcell"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/pong/go/internal/pong/game"
	"github.com/rs/zerolog/log"
)

// DefaultHold is how long a key counts as held after its last press event.
// It spans the gap before the terminal's key repeat starts.
const DefaultHold = 150 * time.Millisecond

// MapKey translates a terminal key event to a game key
func MapKey(ev *tcell.EventKey) (game.Key, bool) {
	switch ev.Key() {
	case tcell.KeyUp:
		return game.KeyArrowUp, true
	case tcell.KeyDown:
		return game.KeyArrowDown, true
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return game.KeyEscape, true
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'w', 'W':
			return game.KeyW, true
		case 's', 'S':
			return game.KeyS, true
		case ' ':
			return game.KeySpace, true
		case 'q', 'Q':
			return game.KeyEscape, true
		}
	}
	return "", false
}

// Keyboard is a client.InputSource fed by terminal key events. Terminals
// report presses but not releases, so a key stays held for the hold window
// after each press or auto-repeat.
type Keyboard struct {
	mu      sync.Mutex
	clock   clockwork.Clock
	hold    time.Duration
	pressed map[game.Key]time.Time
}

// NewKeyboard creates a keyboard. A nil clock is the real clock.
func NewKeyboard(clock clockwork.Clock, hold time.Duration) *Keyboard {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if hold <= 0 {
		hold = DefaultHold
	}
	return &Keyboard{
		clock:   clock,
		hold:    hold,
		pressed: make(map[game.Key]time.Time),
	}
}

// Press records a key event
func (k *Keyboard) Press(key game.Key) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.pressed[key] = k.clock.Now()
}

// Pressed returns the keys whose last press is inside the hold window
func (k *Keyboard) Pressed() game.KeySet {
	k.mu.Lock()
	defer k.mu.Unlock()

	now := k.clock.Now()
	keys := make(game.KeySet, len(k.pressed))
	for key, at := range k.pressed {
		if now.Sub(at) < k.hold {
			keys[key] = true
		} else {
			delete(k.pressed, key)
		}
	}
	return keys
}

// Listen feeds screen key events into the keyboard until the screen is
// finalized
func (k *Keyboard) Listen(screen tcell.Screen) {
	for {
		ev := screen.PollEvent()
		if ev == nil {
			log.Debug().Msg("keyboard listener stopped")
			return
		}

		switch ev := ev.(type) {
		case *tcell.EventKey:
			if key, ok := MapKey(ev); ok {
				k.Press(key)
			}
		case *tcell.EventResize:
			screen.Sync()
		}
	}
}
