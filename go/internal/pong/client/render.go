package client

import (
	"github.com/mcdev12/pong/go/internal/pong/game"
	"github.com/rs/zerolog/log"
)

// Status is the connection indicator shown to the user
type Status string

const (
	StatusConnected    Status = "Connected"
	StatusDisconnected Status = "Disconnected"
)

// View is everything a renderer needs for one frame
type View struct {
	SessionID string
	Phase     Phase
	Status    Status
	Paused    bool
	State     game.State
	// Message is the latest user-facing notice: relay errors, peer left
	Message string
}

// Renderer draws frames. It is called from the client loop only.
type Renderer interface {
	Render(v View)
}

// LogRenderer is the headless renderer: it logs phase, status and score
// changes instead of drawing.
type LogRenderer struct {
	last View
	seen bool
}

func (r *LogRenderer) Render(v View) {
	if r.seen &&
		r.last.Phase == v.Phase &&
		r.last.Status == v.Status &&
		r.last.Paused == v.Paused &&
		r.last.Message == v.Message &&
		r.last.State.Shared.Score == v.State.Shared.Score {
		return
	}
	r.last, r.seen = v, true

	evt := log.Info().
		Str("session_id", v.SessionID).
		Str("phase", string(v.Phase)).
		Str("status", string(v.Status)).
		Bool("paused", v.Paused).
		Int("left_score", v.State.Shared.Score.Left).
		Int("right_score", v.State.Shared.Score.Right)
	if v.Message != "" {
		evt = evt.Str("message", v.Message)
	}
	evt.Msg("frame")
}

type nopRenderer struct{}

func (nopRenderer) Render(View) {}
