// Package security provides the cross-cutting security features shared by
// authentication strategy hosts: per-IP rate limiting, request ID
// propagation, client IP extraction behind proxies, security response
// headers, and audit logging with PII protection.
//
// # Rate Limiting
//
// The RateLimiter provides per-identifier rate limiting using a token bucket
// algorithm with automatic memory management through LRU (Least Recently
// Used) eviction, so distributed attacks cannot grow its state without bound.
//
// Default configuration:
//   - MaxEntries: 10,000 unique identifiers
//   - CleanupInterval: 5 minutes
//   - IdleTimeout: 30 minutes
//
// Example:
//
//	limiter := security.NewRateLimiter(10, 20, logger)
//	defer limiter.Stop()
//
//	if !limiter.Allow(clientIP) {
//	    // Rate limit exceeded
//	    return http.StatusTooManyRequests
//	}
//
// The LRU eviction strategy ensures that legitimate users (who make repeated
// requests) are less likely to be evicted, while one-time attack IPs are
// evicted first. GetStats exposes entry counts, evictions, and memory
// pressure for monitoring.
//
// # Audit Logging
//
// The Auditor records authentication lifecycle events (flow started, flow
// completed, failures, rate limit violations) through slog. User identifiers
// are hashed before logging so audit trails never carry raw PII.
package security
