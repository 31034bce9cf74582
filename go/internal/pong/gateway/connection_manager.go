package gateway

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mcdev12/pong/go/internal/pong/events"
	"github.com/rs/zerolog/log"
)

// ConnectionManager owns the relay's websocket connections and routes
// messages between the two seats of each session. It never inspects game
// state.
type ConnectionManager struct {
	// Connections organized by session ID; unseated connections are only in all
	sessions map[string]map[*Connection]bool
	all      map[*Connection]bool
	mu       sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig
	store    SessionStore
	bus      Bus

	deliverCh chan Delivery
}

// Connection is one player's websocket. Its ID doubles as the player ID.
type Connection struct {
	ID      string
	Conn    *websocket.Conn
	Send    chan *events.Envelope
	Manager *ConnectionManager

	ConnectedAt time.Time

	mu        sync.Mutex
	sessionID string
	codec     events.Codec
	closed    bool
}

// ConnectionConfig holds configuration for WebSocket connections
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	StoreTimeout    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBuffer      int
	CheckOrigin     func(r *http.Request) bool
}

// Delivery is an envelope addressed to a session. Exclude skips one player,
// which is how updates reach only the other seat.
type Delivery struct {
	SessionID string
	Exclude   string
	Envelope  *events.Envelope
	// Remote marks deliveries that came in over the bus; they are not
	// republished.
	Remote bool
}

// DefaultConnectionConfig returns default WebSocket configuration
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		StoreTimeout:    5 * time.Second,
		MaxMessageSize:  4096,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		SendBuffer:      256,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// NewConnectionManager creates a connection manager. bus may be nil for a
// single relay node.
func NewConnectionManager(config ConnectionConfig, store SessionStore, bus Bus) *ConnectionManager {
	return &ConnectionManager{
		sessions: make(map[string]map[*Connection]bool),
		all:      make(map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:    config,
		store:     store,
		bus:       bus,
		deliverCh: make(chan Delivery, 1000),
	}
}

// Start processes deliveries until ctx is cancelled
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("connection manager started")

	if cm.bus != nil {
		err := cm.bus.Subscribe(ctx, func(msg BusMessage) {
			cm.enqueue(Delivery{
				SessionID: msg.SessionID,
				Exclude:   msg.Exclude,
				Envelope:  msg.Envelope,
				Remote:    true,
			})
		})
		if err != nil {
			log.Error().Err(err).Msg("session bus unavailable, serving local sessions only")
		}
	}

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("connection manager shutting down")
			return
		case d := <-cm.deliverCh:
			cm.handleDelivery(ctx, d)
		}
	}
}

// UpgradeConnection upgrades an HTTP connection to WebSocket and greets the
// player with its ID. codec is used for replies until the player's first
// frame picks one.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request, codec events.Codec) error {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		Conn:        conn,
		Send:        make(chan *events.Envelope, cm.config.SendBuffer),
		Manager:     cm,
		ConnectedAt: time.Now(),
		codec:       codec,
	}

	cm.registerConnection(connection)

	// greet before reading so the id always precedes any join reply
	connection.enqueue(events.NewConnected(connection.ID))

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("player_id", connection.ID).
		Str("codec", codec.Name()).
		Msg("WebSocket connection established")

	return nil
}

// registerConnection adds a connection to the manager
func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.all[conn] = true
}

// unregisterConnection removes a connection from every index and stops its
// writer
func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	delete(cm.all, conn)
	cm.mu.Unlock()

	conn.closeSend()
}

func (cm *ConnectionManager) addToSession(sessionID string, conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.sessions[sessionID] == nil {
		cm.sessions[sessionID] = make(map[*Connection]bool)
	}
	cm.sessions[sessionID][conn] = true

	log.Debug().
		Str("player_id", conn.ID).
		Str("session_id", sessionID).
		Int("local_players", len(cm.sessions[sessionID])).
		Msg("connection seated")
}

func (cm *ConnectionManager) removeFromSession(sessionID string, conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if connections, exists := cm.sessions[sessionID]; exists {
		delete(connections, conn)
		if len(connections) == 0 {
			delete(cm.sessions, sessionID)
		}
	}
}

// Deliver queues an envelope for a session
func (cm *ConnectionManager) Deliver(sessionID, exclude string, env *events.Envelope) {
	cm.enqueue(Delivery{SessionID: sessionID, Exclude: exclude, Envelope: env})
}

func (cm *ConnectionManager) enqueue(d Delivery) {
	select {
	case cm.deliverCh <- d:
	default:
		log.Warn().
			Str("session_id", d.SessionID).
			Str("type", string(d.Envelope.Type)).
			Msg("delivery channel full, dropping message")
	}
}

// handleDelivery hands an envelope to the local connections of a session and
// publishes it for other relay nodes
func (cm *ConnectionManager) handleDelivery(ctx context.Context, d Delivery) {
	cm.mu.RLock()
	var targets []*Connection
	for conn := range cm.sessions[d.SessionID] {
		if conn.ID == d.Exclude {
			continue
		}
		targets = append(targets, conn)
	}
	cm.mu.RUnlock()

	for _, conn := range targets {
		if !conn.enqueue(d.Envelope) {
			// slow or dead consumer
			log.Warn().
				Str("player_id", conn.ID).
				Str("session_id", d.SessionID).
				Msg("connection send buffer full, closing connection")
			conn.Conn.Close()
		}
	}

	if !d.Remote && cm.bus != nil {
		err := cm.bus.Publish(ctx, BusMessage{SessionID: d.SessionID, Exclude: d.Exclude, Envelope: d.Envelope})
		if err != nil {
			log.Error().Err(err).Str("session_id", d.SessionID).Msg("failed to publish to session bus")
		}
	}

	if d.Envelope.Type != events.TypeGameUpdate {
		log.Debug().
			Str("type", string(d.Envelope.Type)).
			Str("session_id", d.SessionID).
			Int("connections", len(targets)).
			Bool("remote", d.Remote).
			Msg("message delivered")
	}
}

// handleClientMessage processes one frame received from a player
func (cm *ConnectionManager) handleClientMessage(c *Connection, frameType int, data []byte) {
	codec, err := events.CodecForFrame(frameType)
	if err != nil {
		c.reply(events.NewError("Unsupported frame type"))
		return
	}
	c.setCodec(codec)

	env, err := codec.Decode(data)
	if err != nil {
		log.Warn().Err(err).Str("player_id", c.ID).Msg("malformed client message")
		c.reply(events.NewError("Invalid message"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), cm.config.StoreTimeout)
	defer cancel()

	switch env.Type {
	case events.TypeJoinSession:
		cm.join(ctx, c, env.SessionID)
	case events.TypeGameUpdate:
		cm.relayUpdate(c, env)
	case events.TypeLeaveSession:
		cm.leave(ctx, c)
	default:
		c.reply(events.NewError("Unsupported message type"))
	}
}

// join seats a player and announces it. The second seat starts the game.
func (cm *ConnectionManager) join(ctx context.Context, c *Connection, sessionID string) {
	if c.SessionID() != "" {
		c.reply(events.NewError(ErrAlreadySeated.Error()))
		return
	}

	session, side, err := cm.store.Claim(ctx, sessionID, c.ID)
	if err != nil {
		log.Info().
			Err(err).
			Str("player_id", c.ID).
			Str("session_id", sessionID).
			Msg("join rejected")
		c.reply(events.NewError(errorMessage(err)))
		return
	}

	c.setSessionID(session.ID)
	cm.addToSession(session.ID, c)

	log.Info().
		Str("player_id", c.ID).
		Str("session_id", session.ID).
		Str("side", string(side)).
		Int("players", session.Players()).
		Msg("player joined")

	cm.Deliver(session.ID, "", events.NewPlayerJoined(session.ID, c.ID, side, session.Players()))
	if session.State == SessionActive {
		cm.Deliver(session.ID, "", events.NewGameStart(session.ID, session.LeftPlayer, session.RightPlayer))
	}
}

// relayUpdate forwards a snapshot to the other seat only
func (cm *ConnectionManager) relayUpdate(c *Connection, env *events.Envelope) {
	sessionID := c.SessionID()
	if sessionID == "" {
		c.reply(events.NewError(ErrNotSeated.Error()))
		return
	}
	// the seat decides the session, not the payload
	env.SessionID = sessionID
	cm.Deliver(sessionID, c.ID, env)
}

// leave releases the player's seat and tells the other seat
func (cm *ConnectionManager) leave(ctx context.Context, c *Connection) {
	sessionID := c.SessionID()
	if sessionID == "" {
		return
	}
	c.setSessionID("")
	cm.removeFromSession(sessionID, c)

	session, err := cm.store.Release(ctx, sessionID, c.ID)
	if err != nil {
		log.Error().Err(err).Str("player_id", c.ID).Str("session_id", sessionID).Msg("failed to release seat")
	} else {
		log.Info().
			Str("player_id", c.ID).
			Str("session_id", sessionID).
			Int("remaining", session.Players()).
			Msg("player left")
	}

	cm.Deliver(sessionID, c.ID, events.NewPlayerLeft(sessionID, c.ID))
}

// disconnect cleans up after a closed socket
func (cm *ConnectionManager) disconnect(c *Connection) {
	ctx, cancel := context.WithTimeout(context.Background(), cm.config.StoreTimeout)
	defer cancel()

	cm.leave(ctx, c)
	cm.unregisterConnection(c)

	log.Info().Str("player_id", c.ID).Msg("connection unregistered")
}

// ConnectionStats is a snapshot of the relay's connections
type ConnectionStats struct {
	TotalConnections   int            `json:"total_connections"`
	ActiveSessions     int            `json:"active_sessions"`
	SessionConnections map[string]int `json:"session_connections"`
}

// GetConnectionStats returns statistics about active connections
func (cm *ConnectionManager) GetConnectionStats() ConnectionStats {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	counts := make(map[string]int, len(cm.sessions))
	for sessionID, connections := range cm.sessions {
		counts[sessionID] = len(connections)
	}

	return ConnectionStats{
		TotalConnections:   len(cm.all),
		ActiveSessions:     len(cm.sessions),
		SessionConnections: counts,
	}
}

func (c *Connection) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

func (c *Connection) setSessionID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionID = id
}

// Codec returns the codec used for frames sent to this player
func (c *Connection) Codec() events.Codec {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.codec
}

func (c *Connection) setCodec(codec events.Codec) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.codec = codec
}

// enqueue queues env for the writer without blocking. It reports false only
// when the buffer is full; a closing connection drops silently.
func (c *Connection) enqueue(env *events.Envelope) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return true
	}
	select {
	case c.Send <- env:
		return true
	default:
		return false
	}
}

// reply sends a direct answer to this player
func (c *Connection) reply(env *events.Envelope) {
	if !c.enqueue(env) {
		log.Warn().Str("player_id", c.ID).Str("type", string(env.Type)).Msg("dropping reply, send buffer full")
	}
}

func (c *Connection) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// writePump handles sending messages to the WebSocket connection
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case env, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				// Channel was closed
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			codec := c.Codec()
			data, err := codec.Encode(env)
			if err != nil {
				log.Error().Err(err).Str("player_id", c.ID).Msg("failed to encode message")
				continue
			}
			if err := c.Conn.WriteMessage(codec.FrameType(), data); err != nil {
				log.Error().
					Err(err).
					Str("player_id", c.ID).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().
					Err(err).
					Str("player_id", c.ID).
					Msg("failed to send ping")
				return
			}
		}
	}
}

// readPump handles reading messages from the WebSocket connection
func (c *Connection) readPump() {
	defer func() {
		c.Manager.disconnect(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		return nil
	})

	for {
		frameType, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Error().
					Err(err).
					Str("player_id", c.ID).
					Msg("unexpected WebSocket close error")
			}
			break
		}

		c.Manager.handleClientMessage(c, frameType, message)
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}
