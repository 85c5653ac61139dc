package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPublisherDeliversInOrder(t *testing.T) {
	p := NewPublisher()
	sub := p.Subscribe()

	p.Submit(NewConnecting(nil))
	p.Submit(NewConnectionSucceeded(nil))
	p.Submit(NewConnected())

	require.Equal(t, KindConnecting, mustReceive(t, sub).Kind())
	require.Equal(t, KindConnectionSucceeded, mustReceive(t, sub).Kind())
	require.Equal(t, KindConnected, mustReceive(t, sub).Kind())
}

func TestPublisherCloseEmitsFinalThenCompletes(t *testing.T) {
	p := NewPublisher()
	sub := p.Subscribe()

	p.Close(NewClosed())

	require.Equal(t, KindClosed, mustReceive(t, sub).Kind())

	_, ok := <-sub
	require.False(t, ok, "channel should be closed after the final value")
}

func TestPublisherDropsAfterClose(t *testing.T) {
	p := NewPublisher()
	p.Close(NewClosed())

	// Submit after close must not panic and must be a no-op.
	p.Submit(NewConnecting(nil))
}

func TestPublisherSlowSubscriberDoesNotBlockProducer(t *testing.T) {
	p := NewPublisher()
	sub := p.Subscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < defaultBufferSize*4; i++ {
			p.Submit(NewConnected())
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Submit blocked on a slow subscriber")
	}

	// Drain what we can without asserting a count — delivery is best effort.
	for {
		select {
		case <-sub:
		default:
			return
		}
	}
}

func mustReceive(t *testing.T, ch <-chan State) State {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for state")
		return nil
	}
}
