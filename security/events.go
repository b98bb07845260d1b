package security

// Event type constants for security audit logging. Using constants keeps
// event names consistent across the codebase and prevents typos when logging
// security-relevant events.
const (
	// Authentication flow events

	// EventAuthStarted is logged when an authentication flow begins (the
	// user agent is redirected to the provider).
	EventAuthStarted = "auth_started"

	// EventAuthCompleted is logged when a provider callback is processed
	// successfully and a normalized auth result is produced.
	EventAuthCompleted = "auth_completed"

	// EventAuthFailure is logged when a callback fails (exchange error,
	// rejected identity token, missing code, provider error).
	EventAuthFailure = "auth_failure"

	// Security violation events

	// EventRateLimitExceeded is logged when a rate limit is exceeded.
	EventRateLimitExceeded = "rate_limit_exceeded"

	// EventSuspiciousActivity is logged for general suspicious behavior.
	EventSuspiciousActivity = "suspicious_activity"
)
