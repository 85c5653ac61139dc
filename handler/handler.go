// Package handler implements the two-variant handler the client swaps in
// and out across a connect/disconnect cycle: Disconnected (owns nothing,
// attempts login) and Connected (owns a transport, delegates I/O to it).
package handler

import (
	"context"
	"errors"

	"github.com/risa-org/rpcline/message"
	"github.com/risa-org/rpcline/transport"
)

// ErrNotConnected is returned by every I/O method on the Disconnected
// handler.
var ErrNotConnected = errors.New("not connected")

// ErrAlreadyConnected is returned by DoConnect on the Connected handler;
// the client's reconnection policy handles re-entry by disconnecting first.
var ErrAlreadyConnected = errors.New("already connected")

// Handler is the contract shared by both variants: the transport I/O
// capability set, plus DoConnect.
type Handler interface {
	transport.Adapter

	// DoConnect attempts to negotiate a new connection. Disconnected opens
	// a transport and performs the login handshake; Connected always
	// fails with ErrAlreadyConnected.
	DoConnect(ctx context.Context, params transport.Params) ConnectResult

	// IsConnected reports whether this handler variant is Connected.
	IsConnected() bool
}

// ConnectResultKind distinguishes the three shapes DoConnect can return.
type ConnectResultKind int

const (
	ConnectSucceeded ConnectResultKind = iota
	ConnectFailed
	ConnectError
)

// ConnectResult is the sum type DoConnect returns: exactly one of
// Succeeded(response, newHandler), Failed(serverMessage), or Error(cause).
type ConnectResult struct {
	Kind ConnectResultKind

	// Response and NewHandler are set when Kind == ConnectSucceeded.
	Response   message.Response
	NewHandler Handler

	// ServerMessage is set when Kind == ConnectFailed.
	ServerMessage message.Response

	// Cause is set when Kind == ConnectError.
	Cause error
}

// Succeeded builds a ConnectSucceeded result.
func Succeeded(response message.Response, newHandler Handler) ConnectResult {
	return ConnectResult{Kind: ConnectSucceeded, Response: response, NewHandler: newHandler}
}

// Failed builds a ConnectFailed result.
func Failed(serverMessage message.Response) ConnectResult {
	return ConnectResult{Kind: ConnectFailed, ServerMessage: serverMessage}
}

// Error builds a ConnectError result.
func Error(cause error) ConnectResult {
	return ConnectResult{Kind: ConnectError, Cause: cause}
}

// LoginClassifier tells the Disconnected handler how to interpret a login
// response: the core never inspects payloads, so a concrete protocol must
// supply this seam. ok means the response counted as a successful login;
// if ok is false, failed distinguishes a well-formed rejection (true) from
// a malformed or unrecognised response (false), both of which end up as a
// ConnectFailed result per spec.
type LoginClassifier func(resp message.Response) (ok bool, failed bool)

// LoginMessageFactory builds the login message to send during the
// handshake, typically closing over caller-supplied credentials.
type LoginMessageFactory func(params transport.Params) message.Message
