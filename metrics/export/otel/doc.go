// Package otel provides OpenTelemetry metric exporter bindings for authsync counters
// and histograms.
//
// [NewOTelExporter] registers Int64ObservableCounter instruments for each authsync
// metric and Int64ObservableGauge per histogram bucket. A single callback reads
// [authsync.Engine.MetricsSnapshot] on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the OTel MeterProvider; callers supply the Meter.
//   - Mutate engine state.
package otel
