package client

import "errors"

var (
	ErrDisconnected      = errors.New("relay connection lost")
	ErrPeerLeft          = errors.New("opponent left the game")
	ErrInvalidCode       = errors.New("game code must be 8 characters long")
	ErrEmptyCode         = errors.New("please enter a game code")
	ErrInvalidTransition = errors.New("invalid lifecycle transition")
)

// RelayError is an error message sent by the relay. Its text is shown to the
// user unchanged.
type RelayError struct {
	Message string
}

func (e *RelayError) Error() string {
	return e.Message
}
