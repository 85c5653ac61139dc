package message

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRequestHasUniqueID(t *testing.T) {
	a := NewRequest([]byte("ping"))
	b := NewRequest([]byte("ping"))

	require.NotEqual(t, a.ID(), b.ID(), "two requests got the same id — that should never happen")
}

func TestResponseCorrelatesToRequest(t *testing.T) {
	req := NewRequest([]byte("ping"))
	resp := NewResponse(req, []byte("pong"))

	require.True(t, resp.IsResponseFor(req))
	require.Equal(t, req.ID(), resp.CorrelationID())
}

func TestUncorrelatedResponseDoesNotMatch(t *testing.T) {
	req := NewRequest([]byte("ping"))
	other := NewRequest([]byte("other"))
	resp := NewResponse(other, []byte("pong"))

	require.False(t, resp.IsResponseFor(req))
}

func TestZeroValueEnvelopeIsNotAResponse(t *testing.T) {
	req := NewRequest([]byte("ping"))
	var uncorrelated Envelope

	require.False(t, uncorrelated.IsResponseFor(req))
}
