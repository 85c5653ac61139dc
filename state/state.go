// Package state defines the client's lifecycle state values and the hot
// publisher that broadcasts transitions between them.
package state

import (
	"fmt"

	"github.com/risa-org/rpcline/message"
)

// Kind identifies which lifecycle state a State value represents.
type Kind int

const (
	KindDisconnected Kind = iota
	KindConnecting
	KindConnectionSucceeded
	KindConnected
	KindConnectionFailed
	KindClosing
	KindClosed
)

func (k Kind) String() string {
	switch k {
	case KindDisconnected:
		return "Disconnected"
	case KindConnecting:
		return "Connecting"
	case KindConnectionSucceeded:
		return "ConnectionSucceeded"
	case KindConnected:
		return "Connected"
	case KindConnectionFailed:
		return "ConnectionFailed"
	case KindClosing:
		return "Closing"
	case KindClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// State is a value drawn from the closed set of client lifecycle states.
type State interface {
	// Kind reports which of the seven states this value represents.
	Kind() Kind

	// IsClosingOrClosed is the guard predicate every public client
	// operation checks before proceeding.
	IsClosingOrClosed() bool

	fmt.Stringer
}

type baseState struct{ kind Kind }

func (b baseState) Kind() Kind              { return b.kind }
func (b baseState) IsClosingOrClosed() bool { return b.kind == KindClosing || b.kind == KindClosed }
func (b baseState) String() string          { return b.kind.String() }

// Disconnected is the initial state and the state the client returns to
// when a connected handler is closed by Disconnect (or by the disconnect
// Connect performs first). A failed connection attempt leaves the client in
// ConnectionFailed instead.
type Disconnected struct{ baseState }

// NewDisconnected builds the Disconnected state.
func NewDisconnected() Disconnected { return Disconnected{baseState{KindDisconnected}} }

// Connecting is published as soon as Connect begins the handshake. Params
// is whatever transport.Params value the caller passed to Connect.
type Connecting struct {
	baseState
	Params any
}

// NewConnecting builds the Connecting state carrying params.
func NewConnecting(params any) Connecting {
	return Connecting{baseState{KindConnecting}, params}
}

// ConnectionSucceeded is published once the login handshake completes
// successfully, immediately before Connected.
type ConnectionSucceeded struct {
	baseState
	Response message.Message
}

// NewConnectionSucceeded builds the ConnectionSucceeded state.
func NewConnectionSucceeded(resp message.Message) ConnectionSucceeded {
	return ConnectionSucceeded{baseState{KindConnectionSucceeded}, resp}
}

// Connected is the only state from which ordinary I/O operations succeed.
type Connected struct{ baseState }

// NewConnected builds the Connected state.
func NewConnected() Connected { return Connected{baseState{KindConnected}} }

// ConnectionFailed is published when a connect attempt does not reach
// Connected, whether due to a rejected login (Response set, Cause nil) or a
// transport/handshake error (Cause set, Response nil).
type ConnectionFailed struct {
	baseState
	Cause    error
	Response message.Response
}

// NewConnectionFailed builds the ConnectionFailed state.
func NewConnectionFailed(cause error, resp message.Response) ConnectionFailed {
	return ConnectionFailed{baseState{KindConnectionFailed}, cause, resp}
}

// Closing is published once Close begins terminal teardown.
type Closing struct{ baseState }

// NewClosing builds the Closing state.
func NewClosing() Closing { return Closing{baseState{KindClosing}} }

// Closed is the terminal state. Once published, no further state values
// follow and no further operations succeed.
type Closed struct{ baseState }

// NewClosed builds the Closed state.
func NewClosed() Closed { return Closed{baseState{KindClosed}} }
