// Package transport defines the byte-level I/O contract every concrete
// transport (TCP, UDP, WebSocket, or anything else) must satisfy, plus the
// factory seam handlers use to open one from connection parameters.
//
// The handler and client layers only ever talk to the Adapter interface —
// they never import tcp, udp, or websocket directly. This is how you get "same core
// logic, swappable backends."
package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/risa-org/rpcline/message"
)

// ErrClosedTransport is returned by any operation attempted on a transport
// that has already closed. A closed transport is permanent.
var ErrClosedTransport = errors.New("transport closed")

// ErrTimeout is returned by SendAndWait when no correlated response
// arrives before the deadline.
var ErrTimeout = errors.New("timed out waiting for response")

// ProtocolError wraps a decode or handshake failure that is semantically
// malformed rather than a plain I/O error.
type ProtocolError struct {
	Cause error
}

func (e *ProtocolError) Error() string { return fmt.Sprintf("protocol error: %v", e.Cause) }
func (e *ProtocolError) Unwrap() error { return e.Cause }

// NewProtocolError wraps cause as a ProtocolError.
func NewProtocolError(cause error) error {
	return &ProtocolError{Cause: cause}
}

// OutcomeKind distinguishes the three shapes a Receive call can return.
type OutcomeKind int

const (
	// OutcomeNothing means the timeout elapsed with no data.
	OutcomeNothing OutcomeKind = iota
	// OutcomeReceived means an uncorrelated message arrived.
	OutcomeReceived
	// OutcomeResponse means a message arrived that the transport was able
	// to correlate to a previously sent original.
	OutcomeResponse
)

// ReadOutcome is the sum type returned by Receive: exactly one of Nothing,
// Received(message), or Response(original, response).
type ReadOutcome struct {
	Kind     OutcomeKind
	Message  message.Message  // set when Kind == OutcomeReceived
	Original message.Message  // set when Kind == OutcomeResponse
	Response message.Response // set when Kind == OutcomeResponse
}

// Nothing builds the "timeout elapsed" outcome.
func Nothing() ReadOutcome { return ReadOutcome{Kind: OutcomeNothing} }

// Received builds the "uncorrelated message arrived" outcome.
func Received(m message.Message) ReadOutcome {
	return ReadOutcome{Kind: OutcomeReceived, Message: m}
}

// CorrelatedResponse builds the "correlated response arrived" outcome.
func CorrelatedResponse(original message.Message, response message.Response) ReadOutcome {
	return ReadOutcome{Kind: OutcomeResponse, Original: original, Response: response}
}

// Adapter is the contract every concrete transport must satisfy.
type Adapter interface {
	// Receive blocks up to timeout for the next incoming message. It fails
	// with ErrClosedTransport if the transport is already closed. Must be
	// callable concurrently with Send/SendAndForget.
	Receive(ctx context.Context, timeout time.Duration) (ReadOutcome, error)

	// Send dispatches msg and remembers the pairing so a later Receive may
	// report it as a Response. Does not block waiting for that response.
	Send(ctx context.Context, msg message.Message) error

	// SendAndForget dispatches msg without remembering it; any response
	// that arrives is delivered as OutcomeReceived instead.
	SendAndForget(ctx context.Context, msg message.Message) error

	// SendAndWait dispatches msg, then blocks until a correlated response
	// arrives or timeout elapses. Messages that arrive out of order during
	// the wait are preserved for a later Receive.
	SendAndWait(ctx context.Context, msg message.Message, timeout time.Duration) (message.Response, error)

	// IsClosed reports whether Close has already run.
	IsClosed() bool

	// Close tears the transport down. Safe to call multiple times —
	// subsequent calls are no-ops.
	Close() error
}

// Params carries the connection parameters passed to Connect. The core
// treats Payload as opaque. The reference transports' factories read only
// ConnectTimeout (their address is fixed when the factory is built) and do
// not look at Payload.
type Params struct {
	// ConnectTimeout bounds how long dialing the underlying connection may
	// take (where the factory honours it), and is also the timeout the
	// Disconnected handler gives the login handshake's SendAndWait.
	ConnectTimeout time.Duration

	// Payload is caller-defined data (for example the credentials a
	// LoginMessageFactory turns into a login message), opaque to the core.
	Payload any
}

// Factory opens a fresh Adapter from connection parameters. Handlers hold a
// Factory rather than a concrete constructor so the same Disconnected
// handler logic works for any transport.
type Factory func(ctx context.Context, params Params) (Adapter, error)
