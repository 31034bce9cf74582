package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/pong/go/internal/pong/events"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// BusMessage carries an envelope to the relay nodes that hold the other
// seats of a session.
type BusMessage struct {
	Origin    string           `json:"origin"`
	SessionID string           `json:"session_id"`
	Exclude   string           `json:"exclude,omitempty"`
	Envelope  *events.Envelope `json:"envelope"`
}

// Bus fans session messages out across relay nodes. Subscribers never see
// their own node's messages.
type Bus interface {
	Publish(ctx context.Context, msg BusMessage) error
	Subscribe(ctx context.Context, handler func(BusMessage)) error
	NodeID() string
	Close() error
}

// NATSConfig holds configuration for the NATS bus
type NATSConfig struct {
	URL           string
	SubjectPrefix string
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultNATSConfig returns default NATS bus configuration
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		SubjectPrefix: "pong.sessions",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
	}
}

// NATSBus is a Bus over core NATS subjects, one per session
type NATSBus struct {
	nc     *nats.Conn
	config NATSConfig
	nodeID string
	sub    *nats.Subscription
}

// NewNATSBus connects to NATS
func NewNATSBus(config NATSConfig) (*NATSBus, error) {
	opts := []nats.Option{
		nats.Name("pong-relay"),
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	return &NATSBus{
		nc:     nc,
		config: config,
		nodeID: uuid.New().String()[:8],
	}, nil
}

func (b *NATSBus) NodeID() string { return b.nodeID }

// Connected reports whether the NATS connection is up
func (b *NATSBus) Connected() bool { return b.nc.IsConnected() }

func (b *NATSBus) subject(sessionID string) string {
	return b.config.SubjectPrefix + "." + sessionID
}

// Publish sends msg on the session's subject, stamped with this node's id
func (b *NATSBus) Publish(ctx context.Context, msg BusMessage) error {
	msg.Origin = b.nodeID
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal bus message: %w", err)
	}
	if err := b.nc.Publish(b.subject(msg.SessionID), data); err != nil {
		return fmt.Errorf("publish to %s: %w", b.subject(msg.SessionID), err)
	}
	return nil
}

// Subscribe delivers other nodes' messages for every session until ctx is done
func (b *NATSBus) Subscribe(ctx context.Context, handler func(BusMessage)) error {
	sub, err := b.nc.Subscribe(b.config.SubjectPrefix+".*", func(m *nats.Msg) {
		var msg BusMessage
		if err := json.Unmarshal(m.Data, &msg); err != nil {
			log.Warn().Err(err).Str("subject", m.Subject).Msg("dropping malformed bus message")
			return
		}
		if msg.Origin == b.nodeID || msg.Envelope == nil {
			return
		}
		handler(msg)
	})
	if err != nil {
		return fmt.Errorf("subscribe to %s.*: %w", b.config.SubjectPrefix, err)
	}
	b.sub = sub

	log.Info().
		Str("node_id", b.nodeID).
		Str("subject", b.config.SubjectPrefix+".*").
		Msg("session bus subscribed")

	go func() {
		<-ctx.Done()
		if err := sub.Unsubscribe(); err != nil && b.nc.IsConnected() {
			log.Warn().Err(err).Msg("failed to unsubscribe session bus")
		}
	}()
	return nil
}

// Close drains pending messages and closes the connection
func (b *NATSBus) Close() error {
	if err := b.nc.Drain(); err != nil {
		b.nc.Close()
		return fmt.Errorf("drain NATS: %w", err)
	}
	return nil
}
