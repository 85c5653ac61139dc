// Package websocket is a reference transport.Adapter implementation over a
// WebSocket connection, using JSON framing. Unlike tcp, WebSocket already
// has message boundaries built in, so there is no length-prefix framing to
// write.
package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/risa-org/rpcline/correlation"
	"github.com/risa-org/rpcline/message"
	"github.com/risa-org/rpcline/transport"
	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

type wireEnvelope struct {
	MsgID         uuid.UUID `json:"id"`
	IsResponse    bool      `json:"is_response"`
	CorrelationOf uuid.UUID `json:"correlation_of"`
	Payload       []byte    `json:"payload"`
}

// Adapter implements transport.Adapter over a *websocket.Conn.
type Adapter struct {
	conn          *websocket.Conn
	log           zerolog.Logger
	inbox         chan message.Message
	sent          *correlation.Map
	closeOnce     sync.Once
	ctx           context.Context
	cancel        context.CancelFunc
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

// New wraps an already-established *websocket.Conn in a transport Adapter.
func New(conn *websocket.Conn, log zerolog.Logger, opts ...Option) *Adapter {
	ctx, cancel := context.WithCancel(context.Background())
	a := &Adapter{
		conn:          conn,
		log:           log.With().Str("component", "websocket_transport").Logger(),
		inbox:         make(chan message.Message, 64),
		sent:          correlation.NewMap(),
		ctx:           ctx,
		cancel:        cancel,
		queueCapacity: correlation.DefaultCapacity,
	}
	for _, opt := range opts {
		opt(a)
	}
	go a.readLoop()
	return a
}

// Dial opens a WebSocket connection to url and wraps it in an Adapter.
func Dial(ctx context.Context, url string, log zerolog.Logger, opts ...Option) (*Adapter, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	conn.SetReadLimit(-1)
	return New(conn, log, opts...), nil
}

// NewFactory builds a transport.Factory that dials url for every fresh
// connection attempt.
func NewFactory(url string, log zerolog.Logger, opts ...Option) transport.Factory {
	return func(ctx context.Context, params transport.Params) (transport.Adapter, error) {
		dialCtx := ctx
		if params.ConnectTimeout > 0 {
			var cancel context.CancelFunc
			dialCtx, cancel = context.WithTimeout(ctx, params.ConnectTimeout)
			defer cancel()
		}
		return Dial(dialCtx, url, log, opts...)
	}
}

type readResponse struct {
	wireEnvelope
}

func (r readResponse) ID() uuid.UUID { return r.wireEnvelope.MsgID }
func (r readResponse) IsResponseFor(other message.Message) bool {
	return r.IsResponse && r.CorrelationOf == other.ID()
}
func (r readResponse) CorrelationID() uuid.UUID { return r.CorrelationOf }

func (r readResponse) Bytes() []byte { return r.Payload }

var _ message.Response = readResponse{}
var _ message.Payloader = readResponse{}

func toWire(msg message.Message) wireEnvelope {
	w := wireEnvelope{MsgID: msg.ID()}
	if resp, ok := msg.(message.Response); ok && resp.CorrelationID() != uuid.Nil {
		w.IsResponse = true
		w.CorrelationOf = resp.CorrelationID()
	}
	if env, ok := msg.(message.Envelope); ok {
		w.Payload = env.Payload
	}
	return w
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
	if err := wsjson.Write(ctx, a.conn, toWire(msg)); err != nil {
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
	return a.ctx.Err() != nil
}

func (a *Adapter) Close() error {
	var err error
	a.closeOnce.Do(func() {
		a.cancel()
		err = a.conn.Close(websocket.StatusNormalClosure, "closed")
	})
	return err
}

func (a *Adapter) readLoop() {
	defer func() {
		close(a.inbox)
		a.Close()
	}()

	for {
		var w wireEnvelope
		if err := wsjson.Read(a.ctx, a.conn, &w); err != nil {
			if a.ctx.Err() == nil {
				a.log.Debug().Err(err).Msg("websocket read loop stopping")
			}
			return
		}

		msg := readResponse{w}
		select {
		case a.inbox <- msg:
		case <-a.ctx.Done():
			return
		}
	}
}
