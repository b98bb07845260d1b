package auth

import (
	"log/slog"
	"net/http"

	"github.com/authkit/strategy-auth/instrumentation"
)

// OptionsResolver derives request-scoped option overrides from an incoming
// request. Multi-tenant hosts implement it to select OAuth client
// credentials per request; proxied hosts use it to pin the external scheme.
// A nil resolver means no overrides.
type OptionsResolver func(r *http.Request) RequestOptions

// Config holds the host configuration.
type Config struct {
	// PathPrefix is the base path strategies are mounted under. A
	// strategy named "google" serves "{PathPrefix}/google" and
	// "{PathPrefix}/google/callback".
	// Default: "/auth"
	PathPrefix string

	// ResolveOptions derives request-scoped option overrides
	// (client credentials, proto scheme) for each request. Optional.
	ResolveOptions OptionsResolver

	// RateLimit configures per-IP rate limiting on the auth endpoints.
	RateLimit RateLimitConfig

	// Security holds host security settings.
	Security SecurityConfig

	// Logger for structured logging (optional, uses default if not provided)
	Logger *slog.Logger

	// Instrumentation provides metrics and tracing. Optional; when nil,
	// no metrics or spans are recorded.
	Instrumentation *instrumentation.Instrumentation
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	// Rate is requests per second allowed per IP. Zero disables limiting.
	Rate int

	// Burst is the maximum burst size allowed per IP.
	Burst int

	// TrustProxy enables trusting X-Forwarded-For and X-Real-IP headers.
	// Only enable behind a trusted reverse proxy.
	TrustProxy bool

	// TrustedProxyCount is the number of trusted proxies in front of this
	// host, used to pick the client IP out of X-Forwarded-For.
	// Default: 1
	TrustedProxyCount int
}

// SecurityConfig holds host security settings
type SecurityConfig struct {
	// EnableAuditLogging enables security audit logging of auth flow
	// events. Sensitive values (user ids, emails) are hashed before
	// logging.
	EnableAuditLogging bool
}
