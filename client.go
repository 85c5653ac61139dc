// Package rpcline is the public facade of a transport-agnostic RPC client
// runtime. It owns the current Handler, runs the connection lifecycle state
// machine, and publishes state transitions on a hot stream.
package rpcline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/risa-org/rpcline/correlation"
	"github.com/risa-org/rpcline/handler"
	"github.com/risa-org/rpcline/message"
	"github.com/risa-org/rpcline/metrics"
	"github.com/risa-org/rpcline/state"
	"github.com/risa-org/rpcline/transport"
	"github.com/rs/zerolog"
)

// Client is the public facade: callers construct one from a Disconnected
// handler configured for a concrete protocol/transport and drive it through
// Connect/Disconnect/Close.
type Client struct {
	mu                  sync.Mutex
	stateNow            state.State
	currentHandler      handler.Handler
	disconnectedHandler handler.Handler

	publisher *state.Publisher
	metrics   *metrics.Recorder
	log       zerolog.Logger
}

// New constructs a Client whose Disconnected handler (reused every time the
// client returns to the disconnected state) is disconnectedHandler.
func New(disconnectedHandler handler.Handler, log zerolog.Logger, recorder *metrics.Recorder) *Client {
	if recorder == nil {
		recorder = metrics.Noop()
	}
	return &Client{
		stateNow:            state.NewDisconnected(),
		currentHandler:      disconnectedHandler,
		disconnectedHandler: disconnectedHandler,
		publisher:           state.NewPublisher(),
		metrics:             recorder,
		log:                 log.With().Str("component", "rpcline_client").Logger(),
	}
}

// StateNow returns a synchronous snapshot of the current lifecycle state.
func (c *Client) StateNow() state.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateNow
}

// State returns a hot channel of state transitions. Delivery is best
// effort: a slow subscriber does not delay other subscribers or the
// producer.
func (c *Client) State() <-chan state.State {
	return c.publisher.Subscribe()
}

// IsClosed reports whether the client has reached the terminal Closed
// state.
func (c *Client) IsClosed() bool {
	return c.StateNow().Kind() == state.KindClosed
}

// checkNotClosingOrClosed is the guard every public operation runs first.
func (c *Client) checkNotClosingOrClosed() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stateNow.IsClosingOrClosed() {
		return ErrClosedClient
	}
	return nil
}

// publish serialises a state transition: apart from Close, which sets
// Closing and Closed itself, it is the only place stateNow is written and
// Submit is called, and both happen under the same mutex, so subscribers
// observe transitions in the order they occur. Once Closed, no further
// values are published.
func (c *Client) publish(s state.State) {
	c.mu.Lock()
	if c.stateNow.Kind() == state.KindClosed {
		c.mu.Unlock()
		return
	}
	c.stateNow = s
	c.publisher.Submit(s)
	c.mu.Unlock()

	c.log.Trace().Stringer("state", s).Msg("state transition")
}

func (c *Client) swapHandler(h handler.Handler) {
	c.mu.Lock()
	c.currentHandler = h
	c.mu.Unlock()
}

func (c *Client) handlerNow() handler.Handler {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentHandler
}

// Connect runs the full connect algorithm from spec section 4.4.1:
//
//  1. best-effort disconnect (errors swallowed) — this is what lets
//     Connect be called twice in a row, or called while already connected.
//  2. publish Connecting(params).
//  3. delegate to the current handler's DoConnect and publish the
//     resulting state(s).
//  4. on context cancellation mid-wait, publish ConnectionFailed(cause)
//     and propagate the cancellation error.
func (c *Client) Connect(ctx context.Context, params transport.Params) (handler.ConnectResult, error) {
	if err := c.checkNotClosingOrClosed(); err != nil {
		return handler.ConnectResult{}, err
	}

	_ = c.disconnect(ctx, true)

	c.publish(state.NewConnecting(params))
	c.metrics.ConnectAttempted()

	result := c.handlerNow().DoConnect(ctx, params)

	switch result.Kind {
	case handler.ConnectSucceeded:
		c.swapHandler(result.NewHandler)
		c.publish(state.NewConnectionSucceeded(result.Response))
		c.publish(state.NewConnected())
		c.metrics.ConnectSucceeded()
		return result, nil
	case handler.ConnectFailed:
		c.publish(state.NewConnectionFailed(nil, result.ServerMessage))
		c.metrics.ConnectFailed()
		return result, nil
	case handler.ConnectError:
		c.publish(state.NewConnectionFailed(result.Cause, nil))
		c.metrics.ConnectFailed()
		// A cancelled/deadline-exceeded context is an interrupted
		// handshake: propagate it in addition to publishing
		// ConnectionFailed, unlike an ordinary handshake error.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, ctxErr
		}
		return result, nil
	default:
		return result, nil
	}
}

// Disconnect closes the current handler (if connected) and replaces it with
// the Disconnected singleton, publishing Disconnected. Errors from the
// handler's Close are returned to the caller; call disconnect(ctx, true)
// internally when the error should be swallowed instead (as Connect does).
func (c *Client) Disconnect(ctx context.Context) error {
	if err := c.checkNotClosingOrClosed(); err != nil {
		return err
	}
	return c.disconnect(ctx, false)
}

func (c *Client) disconnect(ctx context.Context, swallow bool) error {
	h := c.handlerNow()
	if !h.IsConnected() {
		return nil
	}

	err := h.Close()
	c.swapHandler(c.disconnectedHandler)
	c.publish(state.NewDisconnected())

	if err != nil {
		c.log.Debug().Err(err).Msg("error closing handler during disconnect")
		if swallow {
			return nil
		}
		return err
	}
	return nil
}

// Send forwards to the current handler after the closing guard.
func (c *Client) Send(ctx context.Context, msg message.Message) error {
	if err := c.checkNotClosingOrClosed(); err != nil {
		return err
	}
	return c.handlerNow().Send(ctx, msg)
}

// SendAndForget forwards to the current handler after the closing guard.
func (c *Client) SendAndForget(ctx context.Context, msg message.Message) error {
	if err := c.checkNotClosingOrClosed(); err != nil {
		return err
	}
	return c.handlerNow().SendAndForget(ctx, msg)
}

// SendAndWait forwards to the current handler after the closing guard.
func (c *Client) SendAndWait(ctx context.Context, msg message.Message, timeout time.Duration) (message.Response, error) {
	if err := c.checkNotClosingOrClosed(); err != nil {
		return nil, err
	}
	resp, err := c.handlerNow().SendAndWait(ctx, msg, timeout)
	if err != nil {
		c.metrics.AskFailed()
		if errors.Is(err, correlation.ErrQueueOverflow) {
			c.metrics.QueueOverflow()
		}
	} else {
		c.metrics.AskSucceeded()
	}
	return resp, err
}

// Receive forwards to the current handler after the closing guard.
func (c *Client) Receive(ctx context.Context, timeout time.Duration) (transport.ReadOutcome, error) {
	if err := c.checkNotClosingOrClosed(); err != nil {
		return transport.ReadOutcome{}, err
	}
	return c.handlerNow().Receive(ctx, timeout)
}

// Close is terminal teardown. It is idempotent: repeat calls are no-ops.
// The current handler is closed, a final Closed value is published, and the
// publisher itself is closed so subscribers see their channel end.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.stateNow.IsClosingOrClosed() {
		c.mu.Unlock()
		return nil
	}
	c.stateNow = state.NewClosing()
	c.publisher.Submit(c.stateNow)
	h := c.currentHandler
	c.mu.Unlock()

	c.log.Trace().Msg("close requested")

	if h.IsConnected() {
		if err := h.Close(); err != nil {
			c.log.Debug().Err(err).Msg("error closing handler during client close")
		}
	}

	c.mu.Lock()
	c.stateNow = state.NewClosed()
	c.mu.Unlock()

	c.publisher.Close(state.NewClosed())
	c.log.Trace().Msg("close completed")
	return nil
}
