package transport

import (
	"errors"
	"testing"

	"github.com/risa-org/rpcline/message"
	"github.com/stretchr/testify/require"
)

func TestReadOutcomeConstructors(t *testing.T) {
	require.Equal(t, OutcomeNothing, Nothing().Kind)

	m := message.NewRequest([]byte("x"))
	received := Received(m)
	require.Equal(t, OutcomeReceived, received.Kind)
	require.Equal(t, m.ID(), received.Message.ID())

	resp := message.NewResponse(m, []byte("y"))
	corr := CorrelatedResponse(m, resp)
	require.Equal(t, OutcomeResponse, corr.Kind)
	require.Equal(t, m.ID(), corr.Original.ID())
	require.True(t, corr.Response.IsResponseFor(m))
}

func TestProtocolErrorWraps(t *testing.T) {
	cause := errors.New("bad frame")
	err := NewProtocolError(cause)

	var protoErr *ProtocolError
	require.True(t, errors.As(err, &protoErr))
	require.ErrorIs(t, err, cause)
}
