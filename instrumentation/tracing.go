package instrumentation

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Common span attribute keys
//
// SECURITY WARNING: Never log actual sensitive values (access tokens, refresh
// tokens, authorization codes, client secrets, identity tokens) in traces or
// metrics. Only log metadata such as token types, expiry times, and
// validation results.
//
// These constants define attribute key names for observability, not for
// logging sensitive credential values. Traces are often:
//   - Persisted for extended periods
//   - Accessible to wider audiences than production systems
//   - Replicated across monitoring infrastructure
//   - Subject to compliance requirements (GDPR, PCI-DSS, etc.)
const (
	// Auth flow attributes - SAFE to use for metadata only
	AttrStrategy         = "auth.strategy"          // Strategy name (google, mock, ...)
	AttrFlow             = "auth.flow"              // Callback flow taken (code, id_token)
	AttrUserID           = "auth.user_id"           // User identifier (non-secret)
	AttrScope            = "auth.scope"             // Requested scopes
	AttrState            = "auth.state"             // OAuth state parameter
	AttrTokenType        = "auth.token_type"        //nolint:gosec // Token type (Bearer, etc.) - NOT the actual token
	AttrError            = "auth.error"             // Error kind
	AttrErrorDescription = "auth.error_description" // Error description

	// Provider API attributes
	AttrProviderOperation = "provider.operation"
	AttrProviderStatus    = "provider.status"
	AttrProviderErrorType = "provider.error_type"

	// Security attributes
	AttrRateLimiterType = "security.rate_limiter.type"
	AttrClientIP        = "security.client_ip"
	AttrAuditEventType  = "security.audit.event_type"

	// HTTP attributes (in addition to standard semantic conventions)
	AttrHTTPEndpoint   = "http.endpoint"
	AttrHTTPMethod     = "http.method"
	AttrHTTPStatusCode = "http.status_code"
)

// RecordError records an error on a span with proper status codes (nil-safe)
func RecordError(span trace.Span, err error) {
	if span != nil && err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanSuccess marks a span as successful (nil-safe)
func SetSpanSuccess(span trace.Span) {
	if span != nil {
		span.SetStatus(codes.Ok, "")
	}
}

// SetSpanError sets an error status on a span (nil-safe)
func SetSpanError(span trace.Span, message string) {
	if span != nil {
		span.SetStatus(codes.Error, message)
	}
}

// SetSpanAttributes sets attributes on a span (nil-safe)
func SetSpanAttributes(span trace.Span, attrs ...attribute.KeyValue) {
	if span != nil {
		span.SetAttributes(attrs...)
	}
}

// AddAuthFlowAttributes adds common auth flow attributes to a span (nil-safe)
func AddAuthFlowAttributes(span trace.Span, strategy, userID, scope string) {
	if strategy != "" {
		SetSpanAttributes(span, attribute.String(AttrStrategy, strategy))
	}
	if userID != "" {
		SetSpanAttributes(span, attribute.String(AttrUserID, userID))
	}
	if scope != "" {
		SetSpanAttributes(span, attribute.String(AttrScope, scope))
	}
}

// AddStrategyAPIAttributes adds provider API call attributes to a span (nil-safe)
func AddStrategyAPIAttributes(span trace.Span, strategy, operation string) {
	SetSpanAttributes(span,
		attribute.String(AttrStrategy, strategy),
		attribute.String(AttrProviderOperation, operation),
	)
}

// AddHTTPAttributes adds HTTP request attributes to a span (nil-safe)
func AddHTTPAttributes(span trace.Span, method, endpoint string, statusCode int) {
	SetSpanAttributes(span,
		attribute.String(AttrHTTPMethod, method),
		attribute.String(AttrHTTPEndpoint, endpoint),
		attribute.Int(AttrHTTPStatusCode, statusCode),
	)
}

// AddSecurityAttributes adds security-related attributes to a span (nil-safe)
//
// PRIVACY NOTE: Client IP addresses may be considered Personally Identifiable
// Information (PII). Check instrumentation.ShouldLogClientIPs() before
// calling this function:
//
//	if inst.ShouldLogClientIPs() {
//	    AddSecurityAttributes(span, clientIP)
//	}
func AddSecurityAttributes(span trace.Span, clientIP string) {
	if clientIP != "" {
		SetSpanAttributes(span, attribute.String(AttrClientIP, clientIP))
	}
}
