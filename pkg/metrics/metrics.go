// Package metrics registers the Prometheus instruments clayctl exposes
// for its codec operations: call counts, latencies, and the
// repair-bandwidth counter that lets an operator verify the MSR
// bandwidth property (spec.md §8, Testable Property 3) holds in
// production traffic, not just in tests.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	EncodeTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "clay_encode_total",
		Help: "Total Encode calls.",
	})
	EncodeLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "clay_encode_duration_seconds",
		Help:    "Latency of Encode calls.",
		Buckets: prometheus.DefBuckets,
	})

	DecodeTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "clay_decode_total",
		Help: "Total Decode/DecodeConcat calls.",
	})
	DecodeLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "clay_decode_duration_seconds",
		Help:    "Latency of Decode/DecodeConcat calls.",
		Buckets: prometheus.DefBuckets,
	})
	DecodeInsufficientShares = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "clay_decode_insufficient_shares_total",
		Help: "Decode calls that failed with InsufficientShares.",
	})

	RepairTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "clay_repair_total",
		Help: "Total RepairOne calls.",
	})
	RepairLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "clay_repair_duration_seconds",
		Help:    "Latency of RepairOne calls.",
		Buckets: prometheus.DefBuckets,
	})
	RepairBytesRead = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "clay_repair_bytes_read_total",
		Help: "Bytes read from helper chunks to satisfy repairs, summed across all helpers.",
	})
	RepairFastPathTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "clay_repair_fastpath_total",
		Help: "Repairs that found a helper set and proceeded on the single-node fast path.",
	})
	RepairFallbackTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "clay_repair_fallback_total",
		Help: "Repairs for which no helper set was found; no repair or general decode is attempted for them.",
	})
)

// Register adds every instrument in this package to reg. Call once at
// process startup before serving /metrics.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		EncodeTotal, EncodeLatency,
		DecodeTotal, DecodeLatency, DecodeInsufficientShares,
		RepairTotal, RepairLatency, RepairBytesRead,
		RepairFastPathTotal, RepairFallbackTotal,
	)
}
