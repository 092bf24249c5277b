// Package prometheus exposes session metrics as a Prometheus collector.
//
// [NewPrometheusExporter] wraps a [goSession.Manager]. Register the exporter
// with any [prometheus.Registerer], or mount [PrometheusExporter.Handler],
// which serves it from a private registry. Counters are named
// gosession_*_total; latency histograms are gosession_*_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in the global Prometheus registry.
//   - Mutate manager state.
package prometheus
