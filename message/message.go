// Package message defines the minimal message model shared by every
// transport, handler, and client in rpcline. A message carries a unique id
// and a predicate for deciding whether it answers another message; payloads
// stay opaque to the core.
package message

import "github.com/google/uuid"

// Message is any value that can flow across a transport.
type Message interface {
	// ID returns the id assigned to this message. Ids must be unique among
	// in-flight requests on a single transport.
	ID() uuid.UUID

	// IsResponseFor reports whether this message is a response correlated
	// to other. Uncorrelated messages (server pushes, notifications) always
	// return false here.
	IsResponseFor(other Message) bool
}

// Response is a Message that explicitly carries the id of the request it
// answers. Not every correlated message needs to implement Response —
// IsResponseFor is the only contract the core relies on — but concrete
// transports generally find it convenient to expose one.
type Response interface {
	Message

	// CorrelationID returns the id of the request this response answers.
	CorrelationID() uuid.UUID
}

// Payloader is satisfied by any Message that can expose its raw bytes. The
// core never requires it, but login classifiers and application code use it
// to inspect a response without depending on a concrete transport's wire
// type.
type Payloader interface {
	Bytes() []byte
}

// Envelope is a minimal concrete Message usable directly by the reference
// transports. Real protocols will usually wrap a richer payload type; the
// core never inspects Payload.
type Envelope struct {
	MsgID         uuid.UUID
	CorrelationOf uuid.UUID // zero value means "not a response"
	Payload       []byte
}

// NewRequest builds an Envelope with a freshly generated id and no
// correlation, suitable for an outgoing request.
func NewRequest(payload []byte) Envelope {
	return Envelope{MsgID: uuid.New(), Payload: payload}
}

// NewResponse builds an Envelope correlated to req.
func NewResponse(req Message, payload []byte) Envelope {
	return Envelope{MsgID: uuid.New(), CorrelationOf: req.ID(), Payload: payload}
}

func (e Envelope) ID() uuid.UUID { return e.MsgID }

func (e Envelope) IsResponseFor(other Message) bool {
	return e.CorrelationOf != uuid.Nil && e.CorrelationOf == other.ID()
}

func (e Envelope) CorrelationID() uuid.UUID { return e.CorrelationOf }

func (e Envelope) Bytes() []byte { return e.Payload }

var _ Response = Envelope{}
var _ Payloader = Envelope{}
