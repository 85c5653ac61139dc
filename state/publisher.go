package state

import "sync"

// defaultBufferSize is generous enough that a subscriber reading in a
// tight loop never sees a drop under normal load while still bounding
// memory if nobody is listening.
const defaultBufferSize = 32

// Publisher is a hot, multicast stream of State transitions. Subscribers
// that fall behind do not slow down the producer — Submit never blocks.
type Publisher struct {
	mu     sync.Mutex
	subs   []chan State
	closed bool
}

// NewPublisher creates an empty Publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// Subscribe registers a new subscriber and returns its channel. The channel
// is closed when the Publisher closes. Subscribing after Close returns an
// already-closed channel.
func (p *Publisher) Subscribe() <-chan State {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch := make(chan State, defaultBufferSize)
	if p.closed {
		close(ch)
		return ch
	}
	p.subs = append(p.subs, ch)
	return ch
}

// Submit delivers s to every current subscriber, non-blockingly. Calls
// after Close are dropped.
func (p *Publisher) Submit(s State) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	for _, ch := range p.subs {
		select {
		case ch <- s:
		default:
		}
	}
}

// Close submits a final value to every subscriber (typically Closed) and
// then closes every subscriber channel. Calls after the first are no-ops.
func (p *Publisher) Close(final State) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	for _, ch := range p.subs {
		select {
		case ch <- final:
		default:
		}
		close(ch)
	}
	p.closed = true
	p.subs = nil
}
