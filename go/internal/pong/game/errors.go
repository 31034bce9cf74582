package game

import "errors"

var (
	// ErrUnknownSide is returned when a side string is neither left nor right
	ErrUnknownSide = errors.New("unknown side")

	// ErrInvalidField is returned for playfield geometry that cannot be simulated
	ErrInvalidField = errors.New("invalid playfield")
)
