// Package metrics provides the in-process counters and latency histogram
// behind Engine.MetricsSnapshot.
//
// Counters are cache-line padded atomics; incrementing on the hot path is
// allocation-free. When disabled, every operation is a no-op.
package metrics
