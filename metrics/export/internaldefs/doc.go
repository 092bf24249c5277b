// Package internaldefs holds the metric names and bucket layout shared by the
// exporters.
//
// Both the Prometheus and OTel exporters read these definitions, so a metric
// has the same name and buckets whichever backend scrapes it.
//
// # What this package must NOT do
//
//   - Import any exporter package.
//   - Perform I/O.
package internaldefs
