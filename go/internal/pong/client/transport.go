package client

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mcdev12/pong/go/internal/pong/events"
	"github.com/rs/zerolog/log"
)

// Transport is the persistent message channel to the relay.
//
// Inbound delivers decoded envelopes in arrival order. Done is closed once the
// channel is gone; no further envelopes arrive after that.
type Transport interface {
	Send(ctx context.Context, env *events.Envelope) error
	Inbound() <-chan *events.Envelope
	Done() <-chan struct{}
	Close() error
}

// TransportConfig holds websocket client settings
type TransportConfig struct {
	Codec            events.Codec
	WriteTimeout     time.Duration
	HandshakeTimeout time.Duration
	MaxMessageSize   int64
	InboundBuffer    int
}

// DefaultTransportConfig returns JSON over text frames with the relay's limits
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		Codec:            events.JSONCodec{},
		WriteTimeout:     10 * time.Second,
		HandshakeTimeout: 5 * time.Second,
		MaxMessageSize:   4096,
		InboundBuffer:    64,
	}
}

// WebSocketTransport is a Transport over a gorilla websocket
type WebSocketTransport struct {
	conn    *websocket.Conn
	config  TransportConfig
	inbound chan *events.Envelope
	done    chan struct{}
	closing chan struct{}

	writeMu   sync.Mutex
	closeOnce sync.Once
}

// Dial connects to the relay's websocket endpoint
func Dial(ctx context.Context, url string, config TransportConfig) (*WebSocketTransport, error) {
	if config.Codec == nil {
		config.Codec = events.JSONCodec{}
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: config.HandshakeTimeout,
	}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial relay: %w", err)
	}

	t := &WebSocketTransport{
		conn:    conn,
		config:  config,
		inbound: make(chan *events.Envelope, config.InboundBuffer),
		done:    make(chan struct{}),
		closing: make(chan struct{}),
	}
	go t.readPump()

	log.Info().
		Str("url", url).
		Str("codec", config.Codec.Name()).
		Msg("connected to relay")

	return t, nil
}

// Send writes one envelope. Writes are serialized; the caller does not wait
// for any acknowledgement.
func (t *WebSocketTransport) Send(ctx context.Context, env *events.Envelope) error {
	data, err := t.config.Codec.Encode(env)
	if err != nil {
		return err
	}

	select {
	case <-t.done:
		return ErrDisconnected
	default:
	}

	deadline := time.Now().Add(t.config.WriteTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	t.conn.SetWriteDeadline(deadline)
	if err := t.conn.WriteMessage(t.config.Codec.FrameType(), data); err != nil {
		return fmt.Errorf("failed to write %s: %w", env.Type, err)
	}
	return nil
}

func (t *WebSocketTransport) Inbound() <-chan *events.Envelope { return t.inbound }
func (t *WebSocketTransport) Done() <-chan struct{}            { return t.done }

// Close sends a close frame and tears the connection down
func (t *WebSocketTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.closing)
		t.writeMu.Lock()
		t.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		t.writeMu.Unlock()
		err = t.conn.Close()
	})
	return err
}

// readPump decodes frames and hands them to the client loop
func (t *WebSocketTransport) readPump() {
	defer func() {
		close(t.done)
		t.conn.Close()
	}()

	t.conn.SetReadLimit(t.config.MaxMessageSize)

	for {
		frameType, data, err := t.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error().Err(err).Msg("unexpected relay close")
			}
			return
		}

		codec, err := events.CodecForFrame(frameType)
		if err != nil {
			log.Warn().Err(err).Msg("ignoring frame")
			continue
		}
		env, err := codec.Decode(data)
		if err != nil {
			log.Warn().Err(err).Str("codec", codec.Name()).Msg("dropping malformed message")
			continue
		}

		// block rather than drop: lifecycle notifications must not be lost
		select {
		case t.inbound <- env:
		case <-t.closing:
			return
		}
	}
}
