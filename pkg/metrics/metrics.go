// Package metrics provides the optional Prometheus instrumentation for the
// group client core: request/response correlation and sync-loop activity
// counters and gauges.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the counters and histograms exported by groupclient and
// groupops. The instance returned by NoOp is always safe to call into; a nil
// *Metrics is not.
type Metrics struct {
	RequestsTotal      *prometheus.CounterVec   // labels: action, outcome
	RequestDuration     *prometheus.HistogramVec // labels: action
	PendingRequests     prometheus.Gauge
	FramesRoutedTotal   *prometheus.CounterVec // labels: kind (response, notify, push_single, push_batch, unhandled)
	SyncPagesTotal      *prometheus.CounterVec // labels: group_id, kind (messages, events)
	CursorAcksTotal     *prometheus.CounterVec // labels: group_id, kind
}

// New registers and returns a fresh Metrics set against reg. Pass
// prometheus.NewRegistry() for test isolation or a shared registry for
// production wiring.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "groupclient_requests_total",
			Help: "Total send_request calls by action and outcome.",
		}, []string{"action", "outcome"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "groupclient_request_duration_seconds",
			Help:    "send_request round-trip latency by action.",
			Buckets: prometheus.DefBuckets,
		}, []string{"action"}),
		PendingRequests: factory.NewGauge(prometheus.GaugeOpts{
			Name: "groupclient_pending_requests",
			Help: "Current number of in-flight requests awaiting a response.",
		}),
		FramesRoutedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "groupclient_frames_routed_total",
			Help: "Total inbound frames routed by kind.",
		}, []string{"kind"}),
		SyncPagesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "groupclient_sync_pages_total",
			Help: "Total pages pulled by sync_group by group and kind.",
		}, []string{"group_id", "kind"}),
		CursorAcksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "groupclient_cursor_acks_total",
			Help: "Total ack_messages/ack_events calls by group and kind.",
		}, []string{"group_id", "kind"}),
	}
}

var (
	noopOnce sync.Once
	noop     *Metrics
)

// NoOp returns a Metrics instance backed by its own private registry, for
// embedders that want the instrumentation call sites to stay unconditional
// without wiring a real registry.
func NoOp() *Metrics {
	noopOnce.Do(func() {
		noop = New(prometheus.NewRegistry())
	})
	return noop
}
