package correlation

import (
	"sync"

	"github.com/google/uuid"
	"github.com/risa-org/rpcline/message"
)

// Map tracks messages that have been sent and are awaiting a correlated
// response. It is owned by a single transport instance; the sender writes
// to it on Send, and the receiver removes from it on delivery and on
// timeout or cancellation. Closing the transport does not clear the map;
// any entries left are dropped together with the closed transport.
type Map struct {
	mu   sync.Mutex
	sent map[uuid.UUID]message.Message
}

// NewMap creates an empty outstanding-request map.
func NewMap() *Map {
	return &Map{sent: make(map[uuid.UUID]message.Message)}
}

// Track records msg as awaiting a response.
func (m *Map) Track(msg message.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent[msg.ID()] = msg
}

// Resolve removes and returns the original message correlated to id, if
// one is outstanding.
func (m *Map) Resolve(id uuid.UUID) (message.Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	orig, ok := m.sent[id]
	if ok {
		delete(m.sent, id)
	}
	return orig, ok
}

// Forget removes id from the map without returning anything — used when a
// SendAndWait times out or is cancelled and the pending entry must not
// linger.
func (m *Map) Forget(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sent, id)
}

// Len reports how many requests are currently outstanding.
func (m *Map) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}
