// Package telemetry sets up OpenTelemetry tracing and metrics for repodigest.
//
// Telemetry is disabled by default. When enabled, spans and metrics are
// exported over OTLP (gRPC or HTTP) and the providers are registered
// globally, so instrumented packages such as internal/digest pick them up
// through otel.Tracer and otel.Meter.
//
// Export failures never stop the service: New returns a degraded instance
// and logs why.
//
// Tests use NewTestTelemetry, which records spans in memory and collects
// metrics through a manual reader.
package telemetry
