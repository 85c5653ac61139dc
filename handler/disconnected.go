package handler

import (
	"context"
	"time"

	"github.com/risa-org/rpcline/message"
	"github.com/risa-org/rpcline/transport"
	"github.com/rs/zerolog"
)

// Disconnected is the handler variant used whenever the client is not
// connected. All I/O methods fail with ErrNotConnected; DoConnect is the
// only operation that does anything.
type Disconnected struct {
	dial     transport.Factory
	loginMsg LoginMessageFactory
	classify LoginClassifier
	log      zerolog.Logger
}

// NewDisconnected builds a Disconnected handler. dial opens a fresh
// transport from connection parameters; loginMsg builds the login message
// to send through it; classify interprets the response.
func NewDisconnected(dial transport.Factory, loginMsg LoginMessageFactory, classify LoginClassifier, log zerolog.Logger) *Disconnected {
	return &Disconnected{dial: dial, loginMsg: loginMsg, classify: classify, log: log}
}

func (d *Disconnected) IsConnected() bool { return false }

func (d *Disconnected) Receive(ctx context.Context, timeout time.Duration) (transport.ReadOutcome, error) {
	return transport.ReadOutcome{}, ErrNotConnected
}

func (d *Disconnected) Send(ctx context.Context, msg message.Message) error {
	return ErrNotConnected
}

func (d *Disconnected) SendAndForget(ctx context.Context, msg message.Message) error {
	return ErrNotConnected
}

func (d *Disconnected) SendAndWait(ctx context.Context, msg message.Message, timeout time.Duration) (message.Response, error) {
	return nil, ErrNotConnected
}

func (d *Disconnected) IsClosed() bool { return true }

func (d *Disconnected) Close() error { return nil }

// DoConnect opens a fresh transport configured from params, issues a login
// message through SendAndWait, and pattern-matches the response:
//
//   - login-OK      -> Succeeded(response, Connected(transport)); transport kept.
//   - login-failure -> Failed(response); transport closed.
//   - malformed     -> Failed(message); transport closed.
//   - timeout/error -> Error(cause); transport closed.
func (d *Disconnected) DoConnect(ctx context.Context, params transport.Params) ConnectResult {
	t, err := d.dial(ctx, params)
	if err != nil {
		d.log.Debug().Err(err).Msg("failed to open transport for login")
		return Error(err)
	}

	login := d.loginMsg(params)
	resp, err := t.SendAndWait(ctx, login, params.ConnectTimeout)
	if err != nil {
		d.log.Debug().Err(err).Msg("login handshake failed")
		closeAndLog(t, d.log)
		return Error(err)
	}

	ok, failed := d.classify(resp)
	switch {
	case ok:
		return Succeeded(resp, NewConnected(t, d.log))
	case failed:
		closeAndLog(t, d.log)
		return Failed(resp)
	default:
		closeAndLog(t, d.log)
		return Failed(resp)
	}
}

func closeAndLog(t transport.Adapter, log zerolog.Logger) {
	if err := t.Close(); err != nil {
		log.Debug().Err(err).Msg("error closing transport during handshake cleanup")
	}
}

var _ Handler = (*Disconnected)(nil)
