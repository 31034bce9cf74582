package client

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/pong/go/internal/pong/events"
	"github.com/mcdev12/pong/go/internal/pong/game"
	"github.com/mcdev12/pong/go/internal/pong/statesync"
	"github.com/rs/zerolog/log"
)

// Config holds the simulation settings for one participant
type Config struct {
	Field      game.Field
	TickRate   int
	UpdateRate int
	// ExitOnDisconnect makes Run return as soon as the relay goes away instead
	// of waiting for the user to leave.
	ExitOnDisconnect bool
}

// DefaultConfig returns 60 Hz ticks and 60 Hz updates on the default field
func DefaultConfig() Config {
	return Config{
		Field:      game.DefaultField(),
		TickRate:   60,
		UpdateRate: statesync.DefaultUpdateRate,
	}
}

// Loop is the fixed-rate tick source
type Loop struct {
	ticker   clockwork.Ticker
	interval time.Duration
}

// NewLoop starts a ticker at tickRate frames per second
func NewLoop(clock clockwork.Clock, tickRate int) *Loop {
	interval := statesync.Interval(tickRate)
	return &Loop{ticker: clock.NewTicker(interval), interval: interval}
}

func (l *Loop) Ticks() <-chan time.Time { return l.ticker.Chan() }
func (l *Loop) Interval() time.Duration { return l.interval }
func (l *Loop) Stop()                   { l.ticker.Stop() }

// Client runs one participant. A single goroutine (Run) owns the game state:
// ticks, inbound messages and merges are serialized through one select.
type Client struct {
	config    Config
	transport Transport
	input     InputSource
	renderer  Renderer
	clock     clockwork.Clock
	rng       game.Rand

	lifecycle *Lifecycle
	throttle  *statesync.Throttle
	pause     game.PauseToggle
	state     game.State
	status    Status
	message   string
}

// New wires a client. A nil renderer draws nothing, a nil clock is the real
// clock and a nil rng is seeded independently for this instance.
func New(config Config, transport Transport, input InputSource, renderer Renderer, clock clockwork.Clock, rng game.Rand) *Client {
	if renderer == nil {
		renderer = nopRenderer{}
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if rng == nil {
		rng = game.NewRand()
	}
	return &Client{
		config:    config,
		transport: transport,
		input:     input,
		renderer:  renderer,
		clock:     clock,
		rng:       rng,
		lifecycle: NewLifecycle(),
		throttle:  statesync.NewThrottle(config.UpdateRate, clock),
		status:    StatusConnected,
	}
}

// Run joins sessionID and plays until the session ends or ctx is cancelled.
// It returns nil after a local leave, ErrPeerLeft, a *RelayError, or
// ErrDisconnected when the relay went away.
func (c *Client) Run(ctx context.Context, sessionID string) error {
	join, err := c.lifecycle.Start(sessionID)
	if err != nil {
		return err
	}
	if err := c.transport.Send(ctx, join); err != nil {
		return err
	}

	loop := NewLoop(c.clock, c.config.TickRate)
	defer loop.Stop()

	log.Info().
		Str("session_id", sessionID).
		Dur("tick", loop.Interval()).
		Dur("update_interval", c.throttle.Interval()).
		Msg("client loop started")

	inbound := c.transport.Inbound()
	done := c.transport.Done()

	for {
		select {
		case <-ctx.Done():
			c.leave(context.Background())
			return ctx.Err()

		case <-done:
			c.drain(inbound)
			c.transportLost()
			done, inbound = nil, nil
			if c.config.ExitOnDisconnect {
				return ErrDisconnected
			}

		case env := <-inbound:
			c.HandleMessage(env)

		case <-loop.Ticks():
			c.Step(ctx)
		}

		if c.lifecycle.Ended() {
			if c.status == StatusDisconnected && c.lifecycle.Err() == nil {
				return ErrDisconnected
			}
			return c.lifecycle.Err()
		}
	}
}

// Step runs one frame: poll input, simulate, resolve, maybe emit, render.
// Nothing is simulated until the session is active, while paused, or after
// the relay has gone away.
func (c *Client) Step(ctx context.Context) {
	keys := c.input.Pressed()
	if keys.Held(game.KeyEscape) {
		c.leave(ctx)
		c.render()
		return
	}

	if c.lifecycle.Phase() != PhaseActive || c.status == StatusDisconnected {
		c.render()
		return
	}

	if c.pause.Update(keys) && !c.pause.Paused() {
		// resuming serves a fresh ball locally; the peer is not told
		c.state.Shared.Ball, c.state.Shared.Velocity = game.Serve(c.state.Field, c.rng)
	}
	if c.pause.Paused() {
		c.render()
		return
	}

	move := game.ApplyInput(keys, c.state.Side)
	c.state = game.Advance(c.state, move)

	var evts []game.Event
	c.state, evts = game.Resolve(c.state, c.rng)
	for _, e := range evts {
		if e.Kind == game.EventScore {
			log.Info().
				Str("session_id", c.lifecycle.SessionID()).
				Str("scorer", string(e.Side)).
				Int("left", c.state.Shared.Score.Left).
				Int("right", c.state.Shared.Score.Right).
				Msg("point scored")
		}
	}

	if obs, ok := c.input.(Observer); ok {
		obs.Observe(c.state)
	}

	if snap, ok := c.throttle.Sample(c.state); ok {
		c.send(ctx, events.NewGameUpdate(c.lifecycle.SessionID(), snap))
	}

	c.render()
}

// HandleMessage applies one inbound envelope to the lifecycle or the state.
// The returned error is informational; the session state says whether it ended.
func (c *Client) HandleMessage(env *events.Envelope) error {
	if env.Type == events.TypeGameUpdate {
		if c.lifecycle.Phase() == PhaseActive {
			c.state = statesync.ApplyRemote(c.state, *env.Update)
		}
		return nil
	}

	before := c.lifecycle.Phase()
	after, err := c.lifecycle.Handle(env)

	if before != PhaseActive && after == PhaseActive {
		c.state = game.NewState(c.config.Field, c.lifecycle.Side(), c.rng)
		c.pause = game.PauseToggle{}
		if obs, ok := c.input.(Observer); ok {
			obs.Observe(c.state)
		}
	}

	if err != nil {
		c.message = err.Error()
		var relayErr *RelayError
		if errors.As(err, &relayErr) {
			log.Warn().Str("session_id", c.lifecycle.SessionID()).Str("message", relayErr.Message).Msg("relay error")
		} else {
			log.Info().Err(err).Str("session_id", c.lifecycle.SessionID()).Msg("session notice")
		}
	}

	c.render()
	return err
}

// State returns a copy of the current game state
func (c *Client) State() game.State { return c.state }

// Phase returns the lifecycle phase
func (c *Client) Phase() Phase { return c.lifecycle.Phase() }

// Status returns the connection indicator
func (c *Client) Status() Status { return c.status }

// View returns the frame that would be rendered now
func (c *Client) View() View {
	return View{
		SessionID: c.lifecycle.SessionID(),
		Phase:     c.lifecycle.Phase(),
		Status:    c.status,
		Paused:    c.pause.Paused(),
		State:     c.state,
		Message:   c.message,
	}
}

func (c *Client) render() {
	c.renderer.Render(c.View())
}

func (c *Client) leave(ctx context.Context) {
	if env := c.lifecycle.Leave(); env != nil && c.status == StatusConnected {
		c.send(ctx, env)
	}
}

// drain handles whatever the read pump queued before the channel closed
func (c *Client) drain(inbound <-chan *events.Envelope) {
	for {
		select {
		case env := <-inbound:
			c.HandleMessage(env)
		default:
			return
		}
	}
}

func (c *Client) transportLost() {
	c.status = StatusDisconnected
	c.message = ErrDisconnected.Error()
	log.Warn().Str("session_id", c.lifecycle.SessionID()).Msg("relay connection lost")
	c.render()
}

// send is fire-and-forget: a failed write is logged and the frame dropped
func (c *Client) send(ctx context.Context, env *events.Envelope) {
	if err := c.transport.Send(ctx, env); err != nil {
		log.Warn().Err(err).Str("type", string(env.Type)).Msg("failed to send message")
	}
}
