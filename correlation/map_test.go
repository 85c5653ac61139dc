package correlation

import (
	"testing"

	"github.com/risa-org/rpcline/message"
	"github.com/stretchr/testify/require"
)

func TestMapTrackAndResolve(t *testing.T) {
	m := NewMap()
	req := message.NewRequest([]byte("ping"))
	m.Track(req)

	require.Equal(t, 1, m.Len())

	orig, ok := m.Resolve(req.ID())
	require.True(t, ok)
	require.Equal(t, req.ID(), orig.ID())
	require.Equal(t, 0, m.Len())
}

func TestMapResolveUnknownID(t *testing.T) {
	m := NewMap()
	req := message.NewRequest([]byte("ping"))

	_, ok := m.Resolve(req.ID())
	require.False(t, ok)
}

func TestMapForget(t *testing.T) {
	m := NewMap()
	req := message.NewRequest([]byte("ping"))
	m.Track(req)
	m.Forget(req.ID())

	_, ok := m.Resolve(req.ID())
	require.False(t, ok)
}
