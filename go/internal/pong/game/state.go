package game

import "fmt"

// Side identifies which paddle a participant controls for the lifetime of a session
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// Opponent returns the other side
func (s Side) Opponent() Side {
	if s == SideLeft {
		return SideRight
	}
	return SideLeft
}

// Valid reports whether s is one of the two known sides
func (s Side) Valid() bool {
	return s == SideLeft || s == SideRight
}

// ParseSide converts a wire value into a Side
func ParseSide(v string) (Side, error) {
	s := Side(v)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownSide, v)
	}
	return s, nil
}

// Vec is a 2D vector in playfield units
type Vec struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
}

// Paddle is a paddle rectangle. X is fixed per side, only Y moves.
type Paddle struct {
	X      float64 `json:"x" msgpack:"x"`
	Y      float64 `json:"y" msgpack:"y"`
	Width  float64 `json:"width" msgpack:"width"`
	Height float64 `json:"height" msgpack:"height"`
	Speed  float64 `json:"speed" msgpack:"speed"`
}

// Ball is the ball's top-left corner and edge length
type Ball struct {
	X    float64 `json:"x" msgpack:"x"`
	Y    float64 `json:"y" msgpack:"y"`
	Size float64 `json:"size" msgpack:"size"`
}

// Score holds both counters
type Score struct {
	Left  int `json:"left" msgpack:"left"`
	Right int `json:"right" msgpack:"right"`
}

// Field is the immutable playfield geometry and tuning shared by both instances
type Field struct {
	Width        float64 `yaml:"width"`
	Height       float64 `yaml:"height"`
	PaddleWidth  float64 `yaml:"paddle_width"`
	PaddleHeight float64 `yaml:"paddle_height"`
	PaddleSpeed  float64 `yaml:"paddle_speed"`
	PaddleInset  float64 `yaml:"paddle_inset"`
	BallSize     float64 `yaml:"ball_size"`
	BallSpeed    float64 `yaml:"ball_speed"`
	MaxSpeed     float64 `yaml:"max_speed"`
	SpinFactor   float64 `yaml:"spin_factor"`
}

// DefaultField returns the classic 800x400 table
func DefaultField() Field {
	return Field{
		Width:        800,
		Height:       400,
		PaddleWidth:  10,
		PaddleHeight: 60,
		PaddleSpeed:  5,
		PaddleInset:  20,
		BallSize:     8,
		BallSpeed:    4,
		MaxSpeed:     8,
		SpinFactor:   2,
	}
}

// Validate checks that the geometry can hold a paddle and a ball
func (f Field) Validate() error {
	switch {
	case f.Width <= 0 || f.Height <= 0:
		return fmt.Errorf("%w: playfield %vx%v", ErrInvalidField, f.Width, f.Height)
	case f.PaddleHeight <= 0 || f.PaddleHeight > f.Height:
		return fmt.Errorf("%w: paddle height %v", ErrInvalidField, f.PaddleHeight)
	case f.BallSize <= 0 || f.BallSize > f.Height:
		return fmt.Errorf("%w: ball size %v", ErrInvalidField, f.BallSize)
	case f.MaxSpeed <= 0:
		return fmt.Errorf("%w: max speed %v", ErrInvalidField, f.MaxSpeed)
	}
	return nil
}

// PaddleFor builds the starting paddle for a side, vertically centred
func (f Field) PaddleFor(side Side) Paddle {
	x := f.PaddleInset
	if side == SideRight {
		x = f.Width - f.PaddleInset - f.PaddleWidth
	}
	return Paddle{
		X:      x,
		Y:      f.Height/2 - f.PaddleHeight/2,
		Width:  f.PaddleWidth,
		Height: f.PaddleHeight,
		Speed:  f.PaddleSpeed,
	}
}

// Shared is the field group with no fixed writer: ball, velocity and scores.
// Whichever snapshot arrives last wins.
type Shared struct {
	Ball     Ball
	Velocity Vec
	Score    Score
}

// State is one instance's view of the game, partitioned by ownership.
//
// Owned is only ever written by local input (Advance). Peer is only ever written by
// the synchronizer when a remote snapshot arrives. Shared is written by both the local
// simulation and remote snapshots.
type State struct {
	Field  Field
	Side   Side
	Owned  Paddle
	Peer   Paddle
	Shared Shared
}

// NewState builds the opening state for the given side with a served ball
func NewState(field Field, side Side, rng Rand) State {
	s := State{
		Field: field,
		Side:  side,
		Owned: field.PaddleFor(side),
		Peer:  field.PaddleFor(side.Opponent()),
	}
	s.Shared.Ball, s.Shared.Velocity = Serve(field, rng)
	return s
}

// Paddle returns the paddle on the given side regardless of who owns it
func (s State) Paddle(side Side) Paddle {
	if side == s.Side {
		return s.Owned
	}
	return s.Peer
}

// Left returns the left paddle
func (s State) Left() Paddle { return s.Paddle(SideLeft) }

// Right returns the right paddle
func (s State) Right() Paddle { return s.Paddle(SideRight) }

// Snapshot is the wire-level aggregate exchanged between peers
type Snapshot struct {
	Ball        Ball   `json:"ball" msgpack:"ball"`
	LeftPaddle  Paddle `json:"left_paddle" msgpack:"left_paddle"`
	RightPaddle Paddle `json:"right_paddle" msgpack:"right_paddle"`
	LeftScore   int    `json:"left_score" msgpack:"left_score"`
	RightScore  int    `json:"right_score" msgpack:"right_score"`
	Velocity    Vec    `json:"ball_velocity" msgpack:"ball_velocity"`
}

// Snapshot captures the full state for transmission
func (s State) Snapshot() Snapshot {
	return Snapshot{
		Ball:        s.Shared.Ball,
		LeftPaddle:  s.Left(),
		RightPaddle: s.Right(),
		LeftScore:   s.Shared.Score.Left,
		RightScore:  s.Shared.Score.Right,
		Velocity:    s.Shared.Velocity,
	}
}

// Paddle returns the snapshot's paddle for a side
func (s Snapshot) Paddle(side Side) Paddle {
	if side == SideLeft {
		return s.LeftPaddle
	}
	return s.RightPaddle
}
