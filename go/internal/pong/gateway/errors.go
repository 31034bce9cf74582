package gateway

import "errors"

// Join and lookup failures. The messages are sent to players verbatim.
var (
	ErrSessionNotFound = errors.New("Game not found")
	ErrSessionFull     = errors.New("Game is full")
	ErrSessionEnded    = errors.New("Game has ended")
	ErrAlreadySeated   = errors.New("Already in a game")
	ErrNotSeated       = errors.New("Not in a game")
)

// errorMessage maps a store error to the text sent in an error envelope
func errorMessage(err error) string {
	for _, known := range []error{ErrSessionNotFound, ErrSessionFull, ErrSessionEnded, ErrAlreadySeated, ErrNotSeated} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return "Internal error"
}
