package events

import (
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

// Codec turns envelopes into websocket frames and back
type Codec interface {
	Encode(env *Envelope) ([]byte, error)
	Decode(data []byte) (*Envelope, error)
	// FrameType is the websocket message type the codec writes
	FrameType() int
	Name() string
}

// JSONCodec rides on text frames. Browsers and debugging tools speak it.
type JSONCodec struct{}

func (JSONCodec) Encode(env *Envelope) ([]byte, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s envelope: %w", env.Type, err)
	}
	return data, nil
}

func (JSONCodec) Decode(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if err := env.Validate(); err != nil {
		return nil, err
	}
	return &env, nil
}

func (JSONCodec) FrameType() int { return websocket.TextMessage }
func (JSONCodec) Name() string   { return "json" }

// MsgpackCodec rides on binary frames
type MsgpackCodec struct{}

func (MsgpackCodec) Encode(env *Envelope) ([]byte, error) {
	data, err := msgpack.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s envelope: %w", env.Type, err)
	}
	return data, nil
}

func (MsgpackCodec) Decode(data []byte) (*Envelope, error) {
	var env Envelope
	if err := msgpack.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if err := env.Validate(); err != nil {
		return nil, err
	}
	return &env, nil
}

func (MsgpackCodec) FrameType() int { return websocket.BinaryMessage }
func (MsgpackCodec) Name() string   { return "msgpack" }

// CodecForFrame picks the codec matching an inbound frame
func CodecForFrame(frameType int) (Codec, error) {
	switch frameType {
	case websocket.TextMessage:
		return JSONCodec{}, nil
	case websocket.BinaryMessage:
		return MsgpackCodec{}, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnsupportedFrame, frameType)
}

// CodecByName resolves a configured codec name, defaulting to JSON
func CodecByName(name string) Codec {
	if name == "msgpack" {
		return MsgpackCodec{}
	}
	return JSONCodec{}
}
