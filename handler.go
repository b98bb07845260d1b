package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/authkit/strategy-auth/instrumentation"
	"github.com/authkit/strategy-auth/security"
)

const (
	endpointBegin    = "begin"
	endpointCallback = "callback"
)

// Handler is a thin HTTP adapter for a strategy Host. It resolves the
// strategy from the path, builds the RequestContext, delegates to the
// strategy, and renders the Result or error list as JSON. Hosts with their
// own session/rendering layers can skip it and drive strategies directly.
type Handler struct {
	host   *Host
	logger *slog.Logger
	tracer trace.Tracer // OpenTelemetry tracer for HTTP layer
}

// NewHandler creates a new HTTP handler for the host
func NewHandler(host *Host) *Handler {
	h := &Handler{
		host:   host,
		logger: host.logger,
	}

	// Initialize tracer if instrumentation is enabled
	if host.config.Instrumentation != nil {
		h.tracer = host.config.Instrumentation.Tracer("http")
	}

	return h
}

// RegisterRoutes mounts the begin and callback endpoints for every
// registered strategy under the host's path prefix:
//
//	{prefix}/{strategy}          -> ServeBegin
//	{prefix}/{strategy}/callback -> ServeCallback
//
// Both routes run behind the request ID middleware.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	prefix := h.host.config.PathPrefix
	mux.Handle(prefix+"/{strategy}", security.RequestIDMiddleware(http.HandlerFunc(h.ServeBegin)))
	mux.Handle(prefix+"/{strategy}/callback", security.RequestIDMiddleware(http.HandlerFunc(h.ServeCallback)))
}

// ServeBegin starts an authentication flow: it builds the provider
// authorization URL via the strategy and redirects the user agent to it.
// GET and POST are accepted so hosts can trigger login from forms.
func (h *Handler) ServeBegin(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()

	// Create span if tracing is enabled
	var span trace.Span
	ctx := r.Context()
	if h.tracer != nil {
		ctx, span = h.tracer.Start(ctx, "auth.http.begin")
		defer span.End()
		r = r.WithContext(ctx)
	}

	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		h.recordHTTPMetrics(endpointBegin, r.Method, http.StatusMethodNotAllowed, startTime)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	clientIP := security.GetClientIP(r, h.host.config.RateLimit.TrustProxy, h.host.config.RateLimit.TrustedProxyCount)
	if h.checkIPRateLimit(w, r, clientIP, endpointBegin, startTime, span) {
		return
	}

	strategy, ok := h.lookupStrategy(w, r, endpointBegin, startTime, span)
	if !ok {
		return
	}

	rc := h.newRequestContext(r, strategy.Name())
	security.SetSecurityHeaders(w, rc.Scheme()+"://"+rc.Host())

	instrumentation.SetSpanAttributes(span,
		attribute.String(instrumentation.AttrStrategy, strategy.Name()),
	)

	authURL := strategy.BeginAuth(rc)

	h.host.auditor.LogAuthStarted(strategy.Name(), clientIP)
	h.recordBegin(ctx, strategy.Name())
	h.recordHTTPMetrics(endpointBegin, r.Method, http.StatusFound, startTime)
	instrumentation.SetSpanSuccess(span)

	// Redirect to provider
	http.Redirect(w, r, authURL, http.StatusFound)
}

// ServeCallback finishes an authentication flow: it hands the provider
// callback to the strategy and renders either the normalized Result or the
// recorded error list. GET and POST are accepted; providers using form-post
// response modes deliver callbacks via POST.
func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()

	var span trace.Span
	ctx := r.Context()
	if h.tracer != nil {
		ctx, span = h.tracer.Start(ctx, "auth.http.callback")
		defer span.End()
		r = r.WithContext(ctx)
	}

	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		h.recordHTTPMetrics(endpointCallback, r.Method, http.StatusMethodNotAllowed, startTime)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	clientIP := security.GetClientIP(r, h.host.config.RateLimit.TrustProxy, h.host.config.RateLimit.TrustedProxyCount)
	if h.checkIPRateLimit(w, r, clientIP, endpointCallback, startTime, span) {
		return
	}

	strategy, ok := h.lookupStrategy(w, r, endpointCallback, startTime, span)
	if !ok {
		return
	}

	rc := h.newRequestContext(r, strategy.Name())
	security.SetSecurityHeaders(w, rc.Scheme()+"://"+rc.Host())

	instrumentation.SetSpanAttributes(span,
		attribute.String(instrumentation.AttrStrategy, strategy.Name()),
	)

	// Providers report user-denied or misconfigured requests through
	// error/error_description callback parameters. Surface those verbatim
	// instead of running the completion dispatch.
	if errParam := rc.Param("error"); errParam != "" {
		rc.Fail(errParam, rc.Param("error_description"))
		h.logger.Warn("Provider returned error on callback",
			"strategy", strategy.Name(),
			"error", errParam)
		h.failCallback(ctx, w, rc, strategy.Name(), clientIP, r.Method, startTime, span, http.StatusBadRequest)
		return
	}

	result, err := strategy.CompleteAuth(ctx, rc)
	if err != nil {
		instrumentation.RecordError(span, err)
		h.failCallback(ctx, w, rc, strategy.Name(), clientIP, r.Method, startTime, span, statusForErrors(rc.Errors()))
		return
	}

	h.host.auditor.LogAuthCompleted(strategy.Name(), result.UID, clientIP)
	h.recordCallback(ctx, strategy.Name(), true)
	h.recordHTTPMetrics(endpointCallback, r.Method, http.StatusOK, startTime)
	instrumentation.SetSpanSuccess(span)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}

// newRequestContext builds the strategy request context and installs any
// host-resolved option overrides.
func (h *Handler) newRequestContext(r *http.Request, strategyName string) *RequestContext {
	rc := NewRequestContext(r, h.host.MountPath(strategyName))
	if h.host.config.ResolveOptions != nil {
		rc.SetOptions(h.host.config.ResolveOptions(r))
	}
	return rc
}

// lookupStrategy resolves the strategy named in the request path. On a miss
// it writes the 404 response and returns ok=false.
func (h *Handler) lookupStrategy(w http.ResponseWriter, r *http.Request, endpoint string, startTime time.Time, span trace.Span) (Strategy, bool) {
	name := r.PathValue("strategy")
	strategy, ok := h.host.Strategy(name)
	if !ok {
		h.logger.Warn("Request for unregistered strategy", "strategy", name)
		h.recordHTTPMetrics(endpoint, r.Method, http.StatusNotFound, startTime)
		instrumentation.SetSpanError(span, "unknown strategy")
		h.writeError(w, "unknown_strategy", "no strategy registered under this path", http.StatusNotFound)
		return nil, false
	}
	return strategy, true
}

// checkIPRateLimit enforces the per-IP limiter. Returns true if the request
// was rejected.
func (h *Handler) checkIPRateLimit(w http.ResponseWriter, r *http.Request, clientIP, endpoint string, startTime time.Time, span trace.Span) bool {
	if h.host.rateLimiter == nil {
		return false
	}
	if h.host.rateLimiter.Allow(clientIP) {
		return false
	}

	h.logger.Warn("Rate limit exceeded", "ip", clientIP, "endpoint", endpoint)
	h.host.auditor.LogRateLimitExceeded(clientIP)
	h.recordRateLimitExceeded(r.Context(), endpoint)
	h.recordHTTPMetrics(endpoint, r.Method, http.StatusTooManyRequests, startTime)
	instrumentation.SetSpanError(span, "rate limit exceeded")
	h.writeError(w, "rate_limit_exceeded", "Too many requests. Please try again later.", http.StatusTooManyRequests)
	return true
}

// failCallback renders the context's error list and records the failure in
// audit and metrics.
func (h *Handler) failCallback(ctx context.Context, w http.ResponseWriter, rc *RequestContext, strategyName, clientIP, method string, startTime time.Time, span trace.Span, status int) {
	errs := rc.Errors()
	if first := errs.First(); first != nil {
		h.host.auditor.LogAuthFailure(strategyName, clientIP, first.Kind)
		instrumentation.SetSpanError(span, first.Kind)
	}

	h.recordCallback(ctx, strategyName, false)
	h.recordHTTPMetrics(endpointCallback, method, status, startTime)
	h.writeErrorList(w, errs, status)
}

// statusForErrors maps the first recorded error kind onto an HTTP status for
// the reference JSON rendering.
func statusForErrors(errs ErrorList) int {
	first := errs.First()
	if first == nil {
		return http.StatusInternalServerError
	}
	switch first.Kind {
	case ErrorKindMissingCode:
		return http.StatusBadRequest
	case ErrorKindToken:
		return http.StatusUnauthorized
	case ErrorKindOAuth2:
		return http.StatusBadGateway
	default:
		// Provider error codes (invalid_grant, access_denied, ...)
		return http.StatusBadRequest
	}
}

func (h *Handler) writeError(w http.ResponseWriter, kind, message string, status int) {
	h.writeErrorList(w, ErrorList{NewError(kind, message)}, status)
}

func (h *Handler) writeErrorList(w http.ResponseWriter, errs ErrorList, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"errors": errs,
	})
}

// recordHTTPMetrics records HTTP request metrics (total count and duration)
func (h *Handler) recordHTTPMetrics(endpoint, method string, status int, startTime time.Time) {
	if h.host.config.Instrumentation == nil {
		return
	}

	metrics := h.host.config.Instrumentation.Metrics()
	duration := time.Since(startTime).Seconds() * 1000 // convert to milliseconds
	metrics.RecordHTTPRequest(context.Background(), method, endpoint, status, duration)
}

// recordBegin records the start of an authentication flow
func (h *Handler) recordBegin(ctx context.Context, strategy string) {
	if h.host.config.Instrumentation == nil {
		return
	}
	h.host.config.Instrumentation.Metrics().RecordBegin(ctx, strategy)
}

// recordCallback records the outcome of a processed callback
func (h *Handler) recordCallback(ctx context.Context, strategy string, success bool) {
	if h.host.config.Instrumentation == nil {
		return
	}
	h.host.config.Instrumentation.Metrics().RecordCallback(ctx, strategy, success)
}

// recordRateLimitExceeded records a rate limit violation
func (h *Handler) recordRateLimitExceeded(ctx context.Context, endpoint string) {
	if h.host.config.Instrumentation == nil {
		return
	}
	h.host.config.Instrumentation.Metrics().RecordRateLimitExceeded(ctx, endpoint)
}
