// Package telemetry exposes the server's Prometheus collectors: dataset size
// gauges, load/reload counters, and the per-route API request counter. All
// collectors register on the default registry and are served by Handler on
// /metrics.
package telemetry
