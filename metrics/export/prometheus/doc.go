// Package prometheus renders noted client metrics in the Prometheus text exposition
// format.
//
// [Exporter.Handler] serves every counter as noted_*_total and the request latency
// as the noted_request_latency_seconds histogram. Nothing is registered globally;
// callers mount the handler.
package prometheus
