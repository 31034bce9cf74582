package config

import "errors"

var (
	ErrInvalidRate  = errors.New("rates must be positive")
	ErrUnknownCodec = errors.New("unknown codec")
	ErrUnknownStore = errors.New("unknown session store")
)
