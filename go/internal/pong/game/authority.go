package game

import "strings"

// Key names a physical key, lower-cased like a browser KeyboardEvent.key
type Key string

const (
	KeyW         Key = "w"
	KeyS         Key = "s"
	KeyArrowUp   Key = "arrowup"
	KeyArrowDown Key = "arrowdown"
	KeySpace     Key = "space"
	KeyEscape    Key = "escape"
)

// KeySet is the set of keys currently held down
type KeySet map[Key]bool

// NewKeySet builds a KeySet from key names, normalising case
func NewKeySet(keys ...Key) KeySet {
	ks := make(KeySet, len(keys))
	for _, k := range keys {
		ks[Key(strings.ToLower(string(k)))] = true
	}
	return ks
}

// Held reports whether k is pressed
func (ks KeySet) Held(k Key) bool {
	return ks[k]
}

// Controls are the up/down bindings for one side
type Controls struct {
	Up   Key
	Down Key
}

// ControlsFor returns the bindings for a side: W/S on the left, arrows on the right
func ControlsFor(side Side) Controls {
	if side == SideLeft {
		return Controls{Up: KeyW, Down: KeyS}
	}
	return Controls{Up: KeyArrowUp, Down: KeyArrowDown}
}

// Move is a vertical paddle direction: -1 up, +1 down, 0 still
type Move int

const (
	MoveUp   Move = -1
	MoveNone Move = 0
	MoveDown Move = 1
)

// Delta converts the move into a y offset at the given paddle speed
func (m Move) Delta(speed float64) float64 {
	return float64(m) * speed
}

// ApplyInput maps held keys to a move for the paddle this instance owns.
// Bindings of the opposite side are ignored, so local input can never
// steer the peer's paddle.
func ApplyInput(keys KeySet, side Side) Move {
	c := ControlsFor(side)
	var m Move
	if keys.Held(c.Up) {
		m += MoveUp
	}
	if keys.Held(c.Down) {
		m += MoveDown
	}
	return m
}

// PauseToggle turns the space key into a local pause switch. Toggling fires on
// the press edge only, so holding space does not flicker. The paused flag is
// never transmitted; each peer pauses on its own.
type PauseToggle struct {
	paused bool
	held   bool
}

// Update feeds the current key set and reports whether the pause state flipped
func (p *PauseToggle) Update(keys KeySet) bool {
	down := keys.Held(KeySpace)
	flipped := down && !p.held
	p.held = down
	if flipped {
		p.paused = !p.paused
	}
	return flipped
}

// Paused reports whether the local simulation is paused
func (p *PauseToggle) Paused() bool {
	return p.paused
}
