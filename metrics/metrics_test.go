package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestNoopRecorderDoesNotPanic(t *testing.T) {
	r := Noop()
	r.ConnectAttempted()
	r.ConnectSucceeded()
	r.ConnectFailed()
	r.AskSucceeded()
	r.AskFailed()
	r.QueueOverflow()
}

func TestRecorderRegistersAndCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg, "rpcline_test")

	r.ConnectAttempted()
	r.ConnectAttempted()
	r.ConnectSucceeded()

	mfs, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, mfs)

	counts := map[string]float64{}
	for _, mf := range mfs {
		counts[mf.GetName()] = mf.GetMetric()[0].GetCounter().GetValue()
	}
	require.Equal(t, 2.0, counts["rpcline_test_connect_attempts_total"])
	require.Equal(t, 1.0, counts["rpcline_test_connect_successes_total"])
}
