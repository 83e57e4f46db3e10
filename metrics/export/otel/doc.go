// Package otel publishes noted client metrics through an OpenTelemetry meter.
//
// [NewExporter] creates one Int64ObservableCounter per counter and one
// Int64ObservableGauge per cumulative latency bucket, all fed by a single callback
// that reads MetricsSnapshot at collection time. Callers own the MeterProvider.
package otel
