// Package metrics provides an optional Prometheus recorder for client
// lifecycle events. A Client works perfectly well without one — Noop
// satisfies the same Recorder shape with methods that do nothing — but
// wiring a real Recorder is how an application observes connect churn, ask
// outcomes, and receive-queue overflows in production.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Recorder counts client lifecycle events. All methods are safe to call
// concurrently: they delegate straight to Prometheus collectors, which are
// already concurrency-safe.
type Recorder struct {
	connectAttempts  prometheus.Counter
	connectSuccesses prometheus.Counter
	connectFailures  prometheus.Counter
	asksSucceeded    prometheus.Counter
	asksFailed       prometheus.Counter
	queueOverflows   prometheus.Counter
	noop             bool
}

// New creates a Recorder and registers its collectors with reg. Pass
// prometheus.DefaultRegisterer to use the global registry, or a dedicated
// *prometheus.Registry in tests to avoid cross-test collisions.
func New(reg prometheus.Registerer, namespace string) *Recorder {
	r := &Recorder{
		connectAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "connect_attempts_total",
			Help: "Number of Connect calls started.",
		}),
		connectSuccesses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "connect_successes_total",
			Help: "Number of Connect calls that reached Connected.",
		}),
		connectFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "connect_failures_total",
			Help: "Number of Connect calls that ended in ConnectionFailed.",
		}),
		asksSucceeded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "asks_succeeded_total",
			Help: "Number of SendAndWait calls that returned a response.",
		}),
		asksFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "asks_failed_total",
			Help: "Number of SendAndWait calls that returned an error.",
		}),
		queueOverflows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "receive_queue_overflows_total",
			Help: "Number of times the bounded receive queue rejected a message.",
		}),
	}

	reg.MustRegister(
		r.connectAttempts,
		r.connectSuccesses,
		r.connectFailures,
		r.asksSucceeded,
		r.asksFailed,
		r.queueOverflows,
	)
	return r
}

// Noop returns a Recorder whose methods do nothing, for callers that do not
// want metrics wired up.
func Noop() *Recorder {
	return &Recorder{noop: true}
}

func (r *Recorder) ConnectAttempted() {
	if r.noop {
		return
	}
	r.connectAttempts.Inc()
}

func (r *Recorder) ConnectSucceeded() {
	if r.noop {
		return
	}
	r.connectSuccesses.Inc()
}

func (r *Recorder) ConnectFailed() {
	if r.noop {
		return
	}
	r.connectFailures.Inc()
}

func (r *Recorder) AskSucceeded() {
	if r.noop {
		return
	}
	r.asksSucceeded.Inc()
}

func (r *Recorder) AskFailed() {
	if r.noop {
		return
	}
	r.asksFailed.Inc()
}

func (r *Recorder) QueueOverflow() {
	if r.noop {
		return
	}
	r.queueOverflows.Inc()
}
