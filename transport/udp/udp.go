// Package udp is a reference transport.Adapter implementation over a
// connected UDP socket. Datagrams already have boundaries, so unlike the
// tcp package this transport does not need a length prefix — each read
// frame is exactly one encodeFrame() call's worth of bytes, with the same
// header layout the tcp package uses.
package udp

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/risa-org/rpcline/correlation"
	"github.com/risa-org/rpcline/message"
	"github.com/risa-org/rpcline/transport"
	"github.com/rs/zerolog"
)

const maxDatagramSize = 65507

// Adapter implements transport.Adapter over a "connected" UDP socket (one
// fixed remote peer per Adapter, matching an RPC client's usage).
type Adapter struct {
	conn          *net.UDPConn
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

// WithReceiveQueueCapacity bounds the number of uncorrelated datagrams a
// SendAndWait call will stash before failing with a receive queue
// overflow. The default is correlation.DefaultCapacity.
func WithReceiveQueueCapacity(n int) Option {
	return func(a *Adapter) { a.queueCapacity = n }
}

// New wraps an already-connected *net.UDPConn in a transport Adapter.
func New(conn *net.UDPConn, log zerolog.Logger, opts ...Option) *Adapter {
	a := &Adapter{
		conn:          conn,
		log:           log.With().Str("component", "udp_transport").Logger(),
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

// Dial opens a UDP socket "connected" to addr (filters incoming datagrams
// to that peer) and wraps it in an Adapter.
func Dial(ctx context.Context, addr string, log zerolog.Logger, opts ...Option) (*Adapter, error) {
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, err
	}
	return New(conn, log, opts...), nil
}

// NewFactory builds a transport.Factory that dials addr for every fresh
// connection attempt. The ConnectTimeout in params is informative only —
// UDP dialing does not itself block on the network.
func NewFactory(addr string, log zerolog.Logger, opts ...Option) transport.Factory {
	return func(ctx context.Context, params transport.Params) (transport.Adapter, error) {
		return Dial(ctx, addr, log, opts...)
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

	frame, err := encodeFrame(msg)
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

	buf := make([]byte, maxDatagramSize)
	for {
		n, err := a.conn.Read(buf)
		if err != nil {
			a.log.Debug().Err(err).Msg("udp read loop stopping")
			return
		}

		msg, err := decodeFrame(buf[:n])
		if err != nil {
			a.log.Warn().Err(err).Msg("dropping malformed datagram")
			continue
		}

		select {
		case a.inbox <- msg:
		case <-a.closed:
			return
		}
	}
}
