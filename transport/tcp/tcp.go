// Package tcp is a reference transport.Adapter implementation over a raw
// TCP connection. It is illustrative, not part of the core: the core only
// depends on the transport.Adapter interface.
//
// Wire format for each frame:
//
//	[16 bytes: message id][1 byte: kind][16 bytes: correlation id][4 bytes: payload length][N bytes: payload]
//
// kind is 0 for a plain message and 1 for a response. The correlation id
// field is only meaningful when kind == 1. TCP is a stream protocol with no
// concept of message boundaries, so this framing is what lets a single
// Read give us exactly one message at a time.
package tcp

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/risa-org/rpcline/correlation"
	"github.com/risa-org/rpcline/message"
	"github.com/risa-org/rpcline/transport"
	"github.com/rs/zerolog"
)

const (
	kindMessage  byte = 0
	kindResponse byte = 1
	frameHeader       = 16 + 1 + 16 + 4
)

// wireEnvelope is the concrete Message this transport reads and writes.
type wireEnvelope struct {
	id            uuid.UUID
	isResponse    bool
	correlationOf uuid.UUID
	payload       []byte
}

func (w wireEnvelope) ID() uuid.UUID { return w.id }

func (w wireEnvelope) IsResponseFor(other message.Message) bool {
	return w.isResponse && w.correlationOf == other.ID()
}

func (w wireEnvelope) CorrelationID() uuid.UUID { return w.correlationOf }

func (w wireEnvelope) Bytes() []byte { return w.payload }

var _ message.Response = wireEnvelope{}
var _ message.Payloader = wireEnvelope{}

// Adapter implements transport.Adapter over a net.Conn.
type Adapter struct {
	conn          net.Conn
	log           zerolog.Logger
	inbox         chan message.Message
	sent          *correlation.Map
	closeOnce     sync.Once
	closed        chan struct{}
	writeMu       sync.Mutex
	queueCapacity int
}

// Option configures an Adapter at construction time.
type Option func(*Adapter)

// WithReceiveQueueCapacity bounds the number of uncorrelated messages a
// SendAndWait call will stash before failing with a receive queue
// overflow. The default is correlation.DefaultCapacity.
func WithReceiveQueueCapacity(n int) Option {
	return func(a *Adapter) { a.queueCapacity = n }
}

// New wraps an already-established net.Conn in a transport Adapter and
// starts its background reader.
func New(conn net.Conn, log zerolog.Logger, opts ...Option) *Adapter {
	a := &Adapter{
		conn:          conn,
		log:           log.With().Str("component", "tcp_transport").Logger(),
		inbox:         make(chan message.Message, 64),
		sent:          correlation.NewMap(),
		closed:        make(chan struct{}),
		queueCapacity: correlation.DefaultCapacity,
	}
	for _, opt := range opts {
		opt(a)
	}
	go a.readLoop()
	return a
}

// Dial opens a fresh TCP connection to addr and wraps it in an Adapter.
// NewFactory wraps it as this package's transport.Factory.
func Dial(ctx context.Context, addr string, timeout time.Duration, log zerolog.Logger, opts ...Option) (*Adapter, error) {
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return New(conn, log, opts...), nil
}

// NewFactory builds a transport.Factory that dials addr for every fresh
// connection attempt. params.Payload is ignored; addr is baked in at
// construction because the core's ConnectionParameters are opaque to it.
func NewFactory(addr string, log zerolog.Logger, opts ...Option) transport.Factory {
	return func(ctx context.Context, params transport.Params) (transport.Adapter, error) {
		return Dial(ctx, addr, params.ConnectTimeout, log, opts...)
	}
}

func (a *Adapter) Send(ctx context.Context, msg message.Message) error {
	if err := a.SendAndForget(ctx, msg); err != nil {
		return err
	}
	a.sent.Track(msg)
	return nil
}

func (a *Adapter) SendAndForget(ctx context.Context, msg message.Message) error {
	if a.IsClosed() {
		return transport.ErrClosedTransport
	}

	frame, err := encode(msg)
	if err != nil {
		return transport.NewProtocolError(err)
	}

	a.writeMu.Lock()
	defer a.writeMu.Unlock()
	if _, err := a.conn.Write(frame); err != nil {
		a.Close()
		return transport.ErrClosedTransport
	}
	return nil
}

func (a *Adapter) SendAndWait(ctx context.Context, msg message.Message, timeout time.Duration) (message.Response, error) {
	if err := a.Send(ctx, msg); err != nil {
		return nil, err
	}

	requeue := correlation.NewQueue(a.queueCapacity)
	deadline := time.After(timeout)

	defer func() {
		for {
			m, ok := requeue.Pop()
			if !ok {
				return
			}
			select {
			case a.inbox <- m:
			default:
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			a.sent.Forget(msg.ID())
			return nil, ctx.Err()
		case <-deadline:
			a.sent.Forget(msg.ID())
			return nil, transport.ErrTimeout
		case m, ok := <-a.inbox:
			if !ok {
				return nil, transport.ErrClosedTransport
			}
			if resp, ok := m.(message.Response); ok && resp.IsResponseFor(msg) {
				a.sent.Forget(msg.ID())
				return resp, nil
			}
			if err := requeue.Push(m); err != nil {
				a.sent.Forget(msg.ID())
				return nil, err
			}
		}
	}
}

func (a *Adapter) Receive(ctx context.Context, timeout time.Duration) (transport.ReadOutcome, error) {
	if a.IsClosed() {
		return transport.ReadOutcome{}, transport.ErrClosedTransport
	}

	var after <-chan time.Time
	if timeout > 0 {
		after = time.After(timeout)
	}

	select {
	case <-ctx.Done():
		return transport.ReadOutcome{}, ctx.Err()
	case <-after:
		return transport.Nothing(), nil
	case m, ok := <-a.inbox:
		if !ok {
			return transport.ReadOutcome{}, transport.ErrClosedTransport
		}
		if resp, ok := m.(message.Response); ok {
			if orig, found := a.sent.Resolve(resp.CorrelationID()); found {
				return transport.CorrelatedResponse(orig, resp), nil
			}
		}
		return transport.Received(m), nil
	}
}

func (a *Adapter) IsClosed() bool {
	select {
	case <-a.closed:
		return true
	default:
		return false
	}
}

func (a *Adapter) Close() error {
	var err error
	a.closeOnce.Do(func() {
		close(a.closed)
		err = a.conn.Close()
	})
	return err
}

func (a *Adapter) readLoop() {
	defer func() {
		close(a.inbox)
		a.Close()
	}()

	for {
		msg, err := readFrame(a.conn)
		if err != nil {
			if err != io.EOF {
				a.log.Debug().Err(err).Msg("tcp read loop stopping")
			}
			return
		}
		select {
		case a.inbox <- msg:
		case <-a.closed:
			return
		}
	}
}

func encode(msg message.Message) ([]byte, error) {
	id := msg.ID()
	kind := kindMessage
	var corr uuid.UUID
	if resp, ok := msg.(message.Response); ok {
		if resp.CorrelationID() != uuid.Nil {
			kind = kindResponse
			corr = resp.CorrelationID()
		}
	}

	var payload []byte
	if env, ok := msg.(message.Envelope); ok {
		payload = env.Payload
	} else if wm, ok := msg.(wireEnvelope); ok {
		payload = wm.payload
	}

	frame := make([]byte, frameHeader+len(payload))
	copy(frame[0:16], id[:])
	frame[16] = kind
	copy(frame[17:33], corr[:])
	binary.BigEndian.PutUint32(frame[33:37], uint32(len(payload)))
	copy(frame[37:], payload)
	return frame, nil
}

func readFrame(r io.Reader) (message.Message, error) {
	header := make([]byte, frameHeader)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}

	var id, corr uuid.UUID
	copy(id[:], header[0:16])
	kind := header[16]
	copy(corr[:], header[17:33])
	length := binary.BigEndian.Uint32(header[33:37])

	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, err
		}
	}

	return wireEnvelope{
		id:            id,
		isResponse:    kind == kindResponse,
		correlationOf: corr,
		payload:       payload,
	}, nil
}
