package game

// EventKind classifies what happened during a resolve pass
type EventKind string

const (
	EventWallBounce EventKind = "WallBounce"
	EventPaddleHit  EventKind = "PaddleHit"
	EventScore      EventKind = "Score"
)

// Event is emitted by Resolve. Side is the paddle that was hit for
// EventPaddleHit and the side that scored for EventScore.
type Event struct {
	Kind EventKind
	Side Side
}

// Resolve applies wall reflection, paddle contacts and scoring, in that order,
// to a state that has just been advanced. At most one side scores per call.
// rng is only consulted when the ball is re-served after a point.
func Resolve(s State, rng Rand) (State, []Event) {
	var events []Event
	f := s.Field
	ball := &s.Shared.Ball
	vel := &s.Shared.Velocity

	// top and bottom walls
	bottom := f.Height - ball.Size
	if ball.Y <= 0 || ball.Y >= bottom {
		vel.Y = -vel.Y
		ball.Y = clamp(ball.Y, 0, bottom)
		events = append(events, Event{Kind: EventWallBounce})
	}

	// A contact only counts while the ball travels toward the paddle, so a ball
	// that is still overlapping on the next tick is not flipped back.
	if left := s.Left(); vel.X < 0 && Contact(*ball, left, SideLeft) {
		vel.X = -vel.X
		*vel = applySpin(*vel, *ball, left, f)
		events = append(events, Event{Kind: EventPaddleHit, Side: SideLeft})
	}
	if right := s.Right(); vel.X > 0 && Contact(*ball, right, SideRight) {
		vel.X = -vel.X
		*vel = applySpin(*vel, *ball, right, f)
		events = append(events, Event{Kind: EventPaddleHit, Side: SideRight})
	}

	switch {
	case ball.X <= 0:
		s.Shared.Score.Right++
		*ball, *vel = Serve(f, rng)
		events = append(events, Event{Kind: EventScore, Side: SideRight})
	case ball.X >= f.Width:
		s.Shared.Score.Left++
		*ball, *vel = Serve(f, rng)
		events = append(events, Event{Kind: EventScore, Side: SideLeft})
	}

	return s, events
}

// Contact reports whether the ball's leading edge overlaps the paddle on the
// given side, horizontally and vertically.
func Contact(b Ball, p Paddle, side Side) bool {
	if b.Y < p.Y || b.Y > p.Y+p.Height {
		return false
	}
	if side == SideLeft {
		return b.X <= p.X+p.Width && b.X >= p.X
	}
	return b.X+b.Size >= p.X && b.X <= p.X+p.Width
}

// applySpin bends the return angle by where the ball struck the paddle: centre
// hits leave vy alone, edge hits add up to ±SpinFactor.
func applySpin(v Vec, b Ball, p Paddle, f Field) Vec {
	hit := (b.Y - p.Y) / p.Height
	spin := (hit - 0.5) * 2
	v.Y += spin * f.SpinFactor
	return ClampVelocity(v, f.MaxSpeed)
}

// ClampVelocity bounds both components to ±max
func ClampVelocity(v Vec, max float64) Vec {
	return Vec{X: clamp(v.X, -max, max), Y: clamp(v.Y, -max, max)}
}

// ClampPaddle keeps a paddle's y inside the field
func ClampPaddle(p Paddle, f Field) Paddle {
	p.Y = clampPaddleY(p.Y, p.Height, f.Height)
	return p
}
