// Package otel exports session counters and latency histograms through
// OpenTelemetry.
//
// [NewOTelExporter] registers one Int64ObservableCounter per counter. Each
// latency histogram becomes a "<name>_bucket" gauge carrying cumulative counts
// under an "le" attribute, plus a "<name>_count" gauge. Audit events that
// never reached the sink are a single counter split by a "reason" attribute.
// One callback reads [goSession.Manager.MetricsSnapshot] per collection.
//
// # What this package must NOT do
//
//   - Own the MeterProvider; callers supply the Meter.
//   - Mutate manager state.
package otel
