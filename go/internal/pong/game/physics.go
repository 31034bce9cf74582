package game

// Advance runs one simulation tick: the owned paddle moves by the input and the
// ball moves by its velocity. Movement is per tick, not scaled by wall-clock time,
// so callers must invoke it once per frame of the fixed 60 Hz cadence.
func Advance(s State, move Move) State {
	s.Owned.Y = clampPaddleY(s.Owned.Y+move.Delta(s.Owned.Speed), s.Owned.Height, s.Field.Height)

	s.Shared.Ball.X += s.Shared.Velocity.X
	s.Shared.Ball.Y += s.Shared.Velocity.Y
	return s
}

// clampPaddleY keeps a paddle fully on the table
func clampPaddleY(y, paddleHeight, fieldHeight float64) float64 {
	return clamp(y, 0, fieldHeight-paddleHeight)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
