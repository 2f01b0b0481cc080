// Package instrumentation wires OpenTelemetry metrics and tracing for the
// Gmail tool server. The exporter is selected by configuration: Prometheus
// (pull, served over /metrics), OTLP HTTP (push), or stdout for development.
//
// Recorded metrics cover tool invocations, Gmail API requests (via an
// instrumented HTTP transport), and the HTTP API surface. All recorders are
// nil-safe so callers never need to guard on instrumentation being enabled.
package instrumentation
