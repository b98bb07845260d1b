// Package instrumentation provides OpenTelemetry (OTEL) instrumentation for
// the strategy-auth library.
//
// It enables observability across the host and strategy layers through:
// - Metrics: Counters and histograms for HTTP traffic and auth flows
// - Traces: Distributed tracing for begin/callback request flows
//
// # Quick Start
//
//	import "github.com/authkit/strategy-auth/instrumentation"
//
//	inst, err := instrumentation.New(instrumentation.Config{
//		ServiceName:    "my-auth-host",
//		ServiceVersion: "1.0.0",
//		Enabled:        true,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer inst.Shutdown(context.Background())
//
//	// Pass to the host configuration
//	host, _ := auth.NewHost(&auth.Config{Instrumentation: inst})
//
// # Available Metrics
//
// HTTP Layer:
//   - auth.http.requests.total{method, endpoint, status} - Total HTTP requests
//   - auth.http.request.duration{endpoint} - Request duration in milliseconds
//
// Auth Flows:
//   - auth.flow.begin.total{strategy} - Authentication flows started
//   - auth.flow.callback.total{strategy, success} - Provider callbacks processed
//
// Strategy/Provider API:
//   - auth.strategy.api.calls.total{strategy, operation, status} - Provider API calls
//   - auth.strategy.api.duration{strategy, operation} - API call duration in milliseconds
//   - auth.strategy.api.errors.total{strategy, operation, error_type} - Provider API errors
//
// Security:
//   - auth.rate_limit.exceeded{limiter_type} - Rate limit violations
//   - auth.audit.events.total{event_type} - Audit events emitted
//
// # Performance
//
// When instrumentation is not configured or disabled, no-op providers are
// used and recording has effectively zero overhead.
//
// # Security Considerations
//
// IMPORTANT: This package collects observability data, not credentials.
// Never record actual token values, authorization codes, or client secrets
// as span attributes or metric labels; only metadata (token types, expiry,
// validation results). Traces and metrics are persisted, replicated, and
// often visible to wider audiences than production systems.
//
// Privacy: client IP addresses may be PII in some jurisdictions. Gate IP
// attributes on Config.LogClientIPs via ShouldLogClientIPs.
package instrumentation
