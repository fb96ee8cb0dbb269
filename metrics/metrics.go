// Package metrics instruments the proxy and transport server with
// Prometheus collectors, grounded on the pack's own transport-layer
// instrumentation (dveeden-tiflow's pkg/p2p server and
// Sentinel-Gate-Sentinelgate's request metrics).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CallsIssued counts successfully-sent MetaCall invocations.
	CallsIssued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "qibus",
		Subsystem: "proxy",
		Name:      "calls_issued_total",
		Help:      "Total MetaCall invocations handed to a socket.",
	})

	// CallsResolved counts pending-call resolutions by outcome label:
	// value, error, transport_unavailable, unknown_method,
	// unknown_return_type, decode_error, malformed_error, encode_error.
	CallsResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "qibus",
		Subsystem: "proxy",
		Name:      "calls_resolved_total",
		Help:      "Total pending calls resolved, by outcome.",
	}, []string{"outcome"})

	// PendingCalls is the current size of the pending-call registry.
	PendingCalls = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "qibus",
		Subsystem: "proxy",
		Name:      "pending_calls",
		Help:      "Number of in-flight MetaCall invocations awaiting resolution.",
	})

	// SignalConnects / SignalDisconnects count Connect/Disconnect calls.
	SignalConnects = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "qibus",
		Subsystem: "proxy",
		Name:      "signal_connects_total",
		Help:      "Total local signal subscriptions established.",
	})
	SignalDisconnects = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "qibus",
		Subsystem: "proxy",
		Name:      "signal_disconnects_total",
		Help:      "Total local signal subscriptions removed.",
	})

	// AcceptedConnections counts sockets handed to a TransportServer's
	// pending-connection queue.
	AcceptedConnections = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "qibus",
		Subsystem: "server",
		Name:      "accepted_connections_total",
		Help:      "Total inbound connections accepted by a TransportServer.",
	})

	// PendingConnectionQueueDepth is the current depth of a
	// TransportServer's pending-connection queue.
	PendingConnectionQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "qibus",
		Subsystem: "server",
		Name:      "pending_connection_queue_depth",
		Help:      "Sockets accepted but not yet drained via NextPendingConnection.",
	})
)
