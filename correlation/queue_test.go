package correlation

import (
	"errors"
	"testing"

	"github.com/risa-org/rpcline/message"
	"github.com/stretchr/testify/require"
)

func TestQueueFIFOOrder(t *testing.T) {
	q := NewQueue(10)
	first := message.NewRequest([]byte("1"))
	second := message.NewRequest([]byte("2"))

	require.NoError(t, q.Push(first))
	require.NoError(t, q.Push(second))

	got, ok := q.Pop()
	require.True(t, ok)
	require.Equal(t, first.ID(), got.ID())

	got, ok = q.Pop()
	require.True(t, ok)
	require.Equal(t, second.ID(), got.ID())

	_, ok = q.Pop()
	require.False(t, ok)
}

func TestQueueOverflow(t *testing.T) {
	q := NewQueue(2)
	require.NoError(t, q.Push(message.NewRequest([]byte("1"))))
	require.NoError(t, q.Push(message.NewRequest([]byte("2"))))

	err := q.Push(message.NewRequest([]byte("3")))
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrQueueOverflow))

	var overflow *OverflowError
	require.True(t, errors.As(err, &overflow))
	require.Equal(t, 2, overflow.Capacity)
}

func TestQueueUnboundedWhenCapacityNonPositive(t *testing.T) {
	q := NewQueue(0)
	for i := 0; i < 50; i++ {
		require.NoError(t, q.Push(message.NewRequest([]byte("x"))))
	}
	require.Equal(t, 50, q.Len())
}
