package handler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/risa-org/rpcline/message"
	"github.com/risa-org/rpcline/transport"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// fakeAdapter is a minimal transport.Adapter for handler tests. It answers
// SendAndWait with a preconfigured response or error and records whether it
// was closed.
type fakeAdapter struct {
	waitResp message.Response
	waitErr  error
	closed   bool
}

func (f *fakeAdapter) Receive(ctx context.Context, timeout time.Duration) (transport.ReadOutcome, error) {
	return transport.Nothing(), nil
}

func (f *fakeAdapter) Send(ctx context.Context, msg message.Message) error { return nil }

func (f *fakeAdapter) SendAndForget(ctx context.Context, msg message.Message) error { return nil }

func (f *fakeAdapter) SendAndWait(ctx context.Context, msg message.Message, timeout time.Duration) (message.Response, error) {
	return f.waitResp, f.waitErr
}

func (f *fakeAdapter) IsClosed() bool { return f.closed }

func (f *fakeAdapter) Close() error {
	f.closed = true
	return nil
}

func loginMsg(params transport.Params) message.Message {
	return message.NewRequest([]byte("login"))
}

func TestDisconnectedAllIOFailsNotConnected(t *testing.T) {
	d := NewDisconnected(nil, loginMsg, nil, zerolog.Nop())

	_, err := d.Receive(context.Background(), time.Second)
	require.ErrorIs(t, err, ErrNotConnected)

	err = d.Send(context.Background(), message.NewRequest([]byte("x")))
	require.ErrorIs(t, err, ErrNotConnected)

	err = d.SendAndForget(context.Background(), message.NewRequest([]byte("x")))
	require.ErrorIs(t, err, ErrNotConnected)

	_, err = d.SendAndWait(context.Background(), message.NewRequest([]byte("x")), time.Second)
	require.ErrorIs(t, err, ErrNotConnected)
}

func TestDisconnectedDoConnectSucceeds(t *testing.T) {
	fake := &fakeAdapter{waitResp: message.NewResponse(message.NewRequest(nil), []byte("ok"))}
	dial := func(ctx context.Context, params transport.Params) (transport.Adapter, error) { return fake, nil }
	classify := func(resp message.Response) (bool, bool) { return true, false }

	d := NewDisconnected(dial, loginMsg, classify, zerolog.Nop())
	result := d.DoConnect(context.Background(), transport.Params{ConnectTimeout: time.Second})

	require.Equal(t, ConnectSucceeded, result.Kind)
	require.NotNil(t, result.NewHandler)
	require.True(t, result.NewHandler.IsConnected())
	require.False(t, fake.closed, "transport must be kept on success")
}

func TestDisconnectedDoConnectFailsOnRejection(t *testing.T) {
	fake := &fakeAdapter{waitResp: message.NewResponse(message.NewRequest(nil), []byte("bad credentials"))}
	dial := func(ctx context.Context, params transport.Params) (transport.Adapter, error) { return fake, nil }
	classify := func(resp message.Response) (bool, bool) { return false, true }

	d := NewDisconnected(dial, loginMsg, classify, zerolog.Nop())
	result := d.DoConnect(context.Background(), transport.Params{ConnectTimeout: time.Second})

	require.Equal(t, ConnectFailed, result.Kind)
	require.NotNil(t, result.ServerMessage)
	require.True(t, fake.closed, "transport must be closed on rejection")
}

func TestDisconnectedDoConnectErrorsOnTransportFailure(t *testing.T) {
	boom := errors.New("connection refused")
	dial := func(ctx context.Context, params transport.Params) (transport.Adapter, error) { return nil, boom }

	d := NewDisconnected(dial, loginMsg, nil, zerolog.Nop())
	result := d.DoConnect(context.Background(), transport.Params{ConnectTimeout: time.Second})

	require.Equal(t, ConnectError, result.Kind)
	require.ErrorIs(t, result.Cause, boom)
}

func TestDisconnectedDoConnectErrorsOnHandshakeTimeout(t *testing.T) {
	fake := &fakeAdapter{waitErr: transport.ErrTimeout}
	dial := func(ctx context.Context, params transport.Params) (transport.Adapter, error) { return fake, nil }

	d := NewDisconnected(dial, loginMsg, nil, zerolog.Nop())
	result := d.DoConnect(context.Background(), transport.Params{ConnectTimeout: time.Second})

	require.Equal(t, ConnectError, result.Kind)
	require.ErrorIs(t, result.Cause, transport.ErrTimeout)
	require.True(t, fake.closed, "transport must be closed on handshake error")
}

func TestConnectedDelegatesToTransportAndRejectsReconnect(t *testing.T) {
	fake := &fakeAdapter{}
	c := NewConnected(fake, zerolog.Nop())

	require.True(t, c.IsConnected())

	result := c.DoConnect(context.Background(), transport.Params{})
	require.Equal(t, ConnectError, result.Kind)
	require.ErrorIs(t, result.Cause, ErrAlreadyConnected)

	require.NoError(t, c.Close())
	require.True(t, fake.closed)
}
