package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/risa-org/rpcline/message"
	"github.com/risa-org/rpcline/transport"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
)

// serverPair starts a test HTTP server that upgrades every connection to a
// WebSocket and hands the server-side Adapter to serverCh, then dials a
// client Adapter against it.
func serverPair(t *testing.T) (*Adapter, *Adapter, func()) {
	t.Helper()
	log := zerolog.Nop()
	serverCh := make(chan *Adapter, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		serverCh <- New(conn, log)
	}))

	url := "ws" + srv.URL[len("http"):]
	client, err := Dial(context.Background(), url, log)
	require.NoError(t, err)

	server := <-serverCh
	cleanup := func() {
		client.Close()
		server.Close()
		srv.Close()
	}
	return server, client, cleanup
}

func TestWebSocketSendAndReceive(t *testing.T) {
	server, client, cleanup := serverPair(t)
	defer cleanup()

	req := message.NewRequest([]byte("hello"))
	require.NoError(t, client.SendAndForget(context.Background(), req))

	outcome, err := server.Receive(context.Background(), 2*time.Second)
	require.NoError(t, err)
	require.Equal(t, transport.OutcomeReceived, outcome.Kind)
	require.Equal(t, req.ID(), outcome.Message.ID())
}

func TestWebSocketSendAndWaitCorrelatesResponse(t *testing.T) {
	server, client, cleanup := serverPair(t)
	defer cleanup()

	req := message.NewRequest([]byte("ping"))

	errCh := make(chan error, 1)
	respCh := make(chan message.Response, 1)
	go func() {
		resp, err := client.SendAndWait(context.Background(), req, 2*time.Second)
		respCh <- resp
		errCh <- err
	}()

	outcome, err := server.Receive(context.Background(), 2*time.Second)
	require.NoError(t, err)

	resp := message.NewResponse(outcome.Message, []byte("pong"))
	require.NoError(t, server.SendAndForget(context.Background(), resp))

	require.NoError(t, <-errCh)
	got := <-respCh
	require.True(t, got.IsResponseFor(req))
}

func TestWebSocketSendAndWaitTimesOut(t *testing.T) {
	_, client, cleanup := serverPair(t)
	defer cleanup()

	req := message.NewRequest([]byte("ping"))
	_, err := client.SendAndWait(context.Background(), req, 50*time.Millisecond)
	require.ErrorIs(t, err, transport.ErrTimeout)
}

func TestWebSocketClosedTransportFailsOperations(t *testing.T) {
	_, client, cleanup := serverPair(t)
	defer cleanup()

	require.NoError(t, client.Close())
	require.True(t, client.IsClosed())

	err := client.SendAndForget(context.Background(), message.NewRequest([]byte("x")))
	require.ErrorIs(t, err, transport.ErrClosedTransport)
}
