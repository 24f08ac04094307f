// Package metrics defines gracht's Prometheus collectors, grounded on the
// teacher's go/network/metrics.go package-level promauto vars. Each
// collector is registered once at package init via promauto and is safe
// to reference from any number of client/server instances.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WorkerQueueDepth is the current number of queued jobs per worker,
	// sampled on dispatch and on dequeue.
	WorkerQueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "gracht_worker_queue_depth",
		Help: "number of jobs currently queued for a server worker",
	}, []string{"worker"})

	// DispatchLatency is a histogram of handler execution time, labeled
	// by protocol and action. No code in this module observes into it,
	// so it stays empty.
	DispatchLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gracht_dispatch_latency_seconds",
		Help:    "time spent executing a dispatched protocol action handler",
		Buckets: prometheus.DefBuckets,
	}, []string{"protocol", "action"})

	// ArenaBytesFree tracks free bytes remaining in a server's receive
	// arena; the server sets its "role" label to the server's name. The
	// client does not report its arena here.
	ArenaBytesFree = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "gracht_arena_bytes_free",
		Help: "free bytes remaining in an arena",
	}, []string{"role"})

	// ClientInFlight tracks the number of outstanding synchronous calls
	// on a client.
	ClientInFlight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "gracht_client_in_flight",
		Help: "number of in-flight synchronous calls awaiting a response",
	}, []string{"client"})

	// AwaiterWakeups counts how many times mark_awaiters signalled a
	// waiting goroutine, labeled by whether the wake satisfied an All or
	// an Any/Async wait.
	AwaiterWakeups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gracht_awaiter_wakeups_total",
		Help: "count of awaiter condition signals",
	}, []string{"mode"})

	// ServerClients tracks the number of connected clients known to a
	// server's client table.
	ServerClients = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "gracht_server_clients",
		Help: "number of client records held by a server",
	}, []string{"server"})

	// ControlErrors counts control-protocol error events sent to
	// clients, labeled by the triggering kind (not found, too big, ...).
	ControlErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gracht_control_errors_total",
		Help: "count of control-protocol error events sent to clients",
	}, []string{"kind"})
)
