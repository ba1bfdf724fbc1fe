// Package otel exposes goGuard metrics as OpenTelemetry instruments.
//
// [NewExporter] registers an Int64ObservableCounter per guard counter and an
// Int64ObservableGauge per latency bucket. One callback reads
// Guard.MetricsSnapshot on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the OTel MeterProvider; callers supply the Meter.
//   - Mutate guard state.
package otel
