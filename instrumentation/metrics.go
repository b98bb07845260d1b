package instrumentation

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all metric instruments for the strategy-auth library
type Metrics struct {
	// HTTP Layer Metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram

	// Auth Flow Metrics
	FlowBeginTotal    metric.Int64Counter
	FlowCallbackTotal metric.Int64Counter

	// Strategy/Provider API Metrics
	StrategyAPICallsTotal metric.Int64Counter
	StrategyAPIDuration   metric.Float64Histogram
	StrategyAPIErrors     metric.Int64Counter

	// Security Metrics
	RateLimitExceeded metric.Int64Counter
	AuditEventsTotal  metric.Int64Counter
}

// newMetrics creates and registers all metric instruments
func newMetrics(inst *Instrumentation) (*Metrics, error) {
	m := &Metrics{}

	httpMeter := inst.Meter("http")
	flowMeter := inst.Meter("flows")
	strategyMeter := inst.Meter("strategy")
	securityMeter := inst.Meter("security")

	// HTTP Layer Metrics
	var err error
	m.HTTPRequestsTotal, err = httpMeter.Int64Counter(
		"auth.http.requests.total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http.requests.total counter: %w", err)
	}

	m.HTTPRequestDuration, err = httpMeter.Float64Histogram(
		"auth.http.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http.request.duration histogram: %w", err)
	}

	// Auth Flow Metrics
	m.FlowBeginTotal, err = flowMeter.Int64Counter(
		"auth.flow.begin.total",
		metric.WithDescription("Number of authentication flows started"),
		metric.WithUnit("{flow}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create flow.begin.total counter: %w", err)
	}

	m.FlowCallbackTotal, err = flowMeter.Int64Counter(
		"auth.flow.callback.total",
		metric.WithDescription("Number of provider callbacks processed"),
		metric.WithUnit("{callback}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create flow.callback.total counter: %w", err)
	}

	// Strategy/Provider API Metrics
	m.StrategyAPICallsTotal, err = strategyMeter.Int64Counter(
		"auth.strategy.api.calls.total",
		metric.WithDescription("Total number of provider API calls made by strategies"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create strategy.api.calls.total counter: %w", err)
	}

	m.StrategyAPIDuration, err = strategyMeter.Float64Histogram(
		"auth.strategy.api.duration",
		metric.WithDescription("Provider API call duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create strategy.api.duration histogram: %w", err)
	}

	m.StrategyAPIErrors, err = strategyMeter.Int64Counter(
		"auth.strategy.api.errors.total",
		metric.WithDescription("Total number of provider API errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create strategy.api.errors.total counter: %w", err)
	}

	// Security Metrics
	m.RateLimitExceeded, err = securityMeter.Int64Counter(
		"auth.rate_limit.exceeded",
		metric.WithDescription("Number of rate limit violations"),
		metric.WithUnit("{violation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate_limit.exceeded counter: %w", err)
	}

	m.AuditEventsTotal, err = securityMeter.Int64Counter(
		"auth.audit.events.total",
		metric.WithDescription("Total number of audit events"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create audit.events.total counter: %w", err)
	}

	return m, nil
}

// Helper methods for common metric recording patterns

// RecordHTTPRequest records an HTTP request metric
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, endpoint string, statusCode int, durationMs float64) {
	attrs := []attribute.KeyValue{
		attribute.String("method", method),
		attribute.String("endpoint", endpoint),
		attribute.Int("status", statusCode),
	}

	m.HTTPRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.HTTPRequestDuration.Record(ctx, durationMs, metric.WithAttributes(attribute.String("endpoint", endpoint)))
}

// RecordBegin records the start of an authentication flow
func (m *Metrics) RecordBegin(ctx context.Context, strategy string) {
	m.FlowBeginTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("strategy", strategy),
	))
}

// RecordCallback records a processed provider callback and its outcome
func (m *Metrics) RecordCallback(ctx context.Context, strategy string, success bool) {
	m.FlowCallbackTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("strategy", strategy),
		attribute.Bool("success", success),
	))
}

// RecordStrategyAPICall records a provider API call made by a strategy
// (token exchange, userinfo fetch, tokeninfo verification)
func (m *Metrics) RecordStrategyAPICall(ctx context.Context, strategy, operation string, statusCode int, durationMs float64, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("strategy", strategy),
		attribute.String("operation", operation),
		attribute.Int("status", statusCode),
	}

	m.StrategyAPICallsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.StrategyAPIDuration.Record(ctx, durationMs, metric.WithAttributes(
		attribute.String("strategy", strategy),
		attribute.String("operation", operation),
	))

	if err != nil {
		errorType := "unknown"
		if statusCode >= 400 && statusCode < 500 {
			errorType = "client_error"
		} else if statusCode >= 500 {
			errorType = "server_error"
		}

		m.StrategyAPIErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("strategy", strategy),
			attribute.String("operation", operation),
			attribute.String("error_type", errorType),
		))
	}
}

// RecordRateLimitExceeded records a rate limit violation
func (m *Metrics) RecordRateLimitExceeded(ctx context.Context, limiterType string) {
	m.RateLimitExceeded.Add(ctx, 1, metric.WithAttributes(
		attribute.String("limiter_type", limiterType),
	))
}

// RecordAuditEvent records an audit event
func (m *Metrics) RecordAuditEvent(ctx context.Context, eventType string) {
	m.AuditEventsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event_type", eventType),
	))
}
