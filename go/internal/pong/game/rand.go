package game

import (
	"encoding/binary"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

// Rand is the only source of nondeterminism in the simulation. Each instance
// seeds its own; seeds are never exchanged.
type Rand interface {
	Float64() float64
}

// NewRand returns an independently seeded generator for one instance
func NewRand() *rand.Rand {
	id := uuid.New()
	return rand.New(rand.NewPCG(
		uint64(time.Now().UnixNano()),
		binary.LittleEndian.Uint64(id[:8]),
	))
}

// NewSeededRand returns a reproducible generator, used by tests and replays
func NewSeededRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// maxServeAngle bounds the serve direction to ±45° from horizontal
const maxServeAngle = math.Pi / 4

// Serve places the ball at the field centre and picks a new velocity
func Serve(f Field, rng Rand) (Ball, Vec) {
	angle := (rng.Float64() - 0.5) * 2 * maxServeAngle
	dir := -1.0
	if rng.Float64() > 0.5 {
		dir = 1
	}

	ball := Ball{X: f.Width / 2, Y: f.Height / 2, Size: f.BallSize}
	vel := Vec{
		X: math.Cos(angle) * f.BallSpeed * dir,
		Y: math.Sin(angle) * f.BallSpeed,
	}
	return ball, vel
}
