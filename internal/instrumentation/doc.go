// Package instrumentation wires OpenTelemetry metrics and tracing for donna.
//
// NewProvider installs global meter and tracer providers according to Config
// (Prometheus by default, OTLP or stdout on request) and exposes a Metrics
// recorder. Every downstream call records provider_operations_total and
// provider_operation_duration_seconds, labelled by provider, operation and
// status, and runs inside a provider.<name>.<operation> client span.
//
// Label values are kept low-cardinality: invitee addresses never become
// labels, only their domains do (ExtractUserDomain).
//
// The AuditLogger writes one record per booking. Invitees are hashed unless
// AUDIT_LOGGING_INCLUDE_PII is set.
package instrumentation
