package handler

import (
	"context"
	"time"

	"github.com/risa-org/rpcline/message"
	"github.com/risa-org/rpcline/transport"
	"github.com/rs/zerolog"
)

// Connected is the handler variant used once login has succeeded. It owns
// the transport exclusively (invariant I2: closing the handler closes the
// transport) and delegates every I/O method to it.
type Connected struct {
	t   transport.Adapter
	log zerolog.Logger
}

// NewConnected wraps an already-negotiated transport in a Connected
// handler.
func NewConnected(t transport.Adapter, log zerolog.Logger) *Connected {
	return &Connected{t: t, log: log.With().Str("component", "connected_handler").Logger()}
}

func (c *Connected) IsConnected() bool { return !c.t.IsClosed() }

func (c *Connected) Receive(ctx context.Context, timeout time.Duration) (transport.ReadOutcome, error) {
	return c.t.Receive(ctx, timeout)
}

func (c *Connected) Send(ctx context.Context, msg message.Message) error {
	return c.t.Send(ctx, msg)
}

func (c *Connected) SendAndForget(ctx context.Context, msg message.Message) error {
	return c.t.SendAndForget(ctx, msg)
}

func (c *Connected) SendAndWait(ctx context.Context, msg message.Message, timeout time.Duration) (message.Response, error) {
	return c.t.SendAndWait(ctx, msg, timeout)
}

func (c *Connected) IsClosed() bool { return c.t.IsClosed() }

func (c *Connected) Close() error { return c.t.Close() }

// DoConnect always fails: a Connected handler cannot renegotiate in place.
// The client's connect algorithm disconnects first and retries against a
// fresh Disconnected handler.
func (c *Connected) DoConnect(ctx context.Context, params transport.Params) ConnectResult {
	return Error(ErrAlreadyConnected)
}

var _ Handler = (*Connected)(nil)
