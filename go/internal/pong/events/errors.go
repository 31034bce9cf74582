package events

import "errors"

var (
	ErrUnknownType       = errors.New("unknown message type")
	ErrMalformedEnvelope = errors.New("malformed envelope")
	ErrUnsupportedFrame  = errors.New("unsupported websocket frame type")
	ErrNotSeated         = errors.New("player is not seated in this game")
)
