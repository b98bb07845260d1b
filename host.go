package auth

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/authkit/strategy-auth/internal/util"
	"github.com/authkit/strategy-auth/security"
)

// Host owns the registered strategies and the cross-cutting collaborators
// they share: logger, rate limiter, auditor, instrumentation. Register all
// strategies before serving; the registry is read-only afterwards.
type Host struct {
	config      *Config
	logger      *slog.Logger
	strategies  map[string]Strategy
	rateLimiter *security.RateLimiter
	auditor     *security.Auditor
}

// NewHost creates a new strategy host
func NewHost(config *Config) (*Host, error) {
	if config == nil {
		config = &Config{}
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	config = applyHostDefaults(config, logger)

	h := &Host{
		config:     config,
		logger:     logger,
		strategies: make(map[string]Strategy),
		auditor:    security.NewAuditor(logger, config.Security.EnableAuditLogging),
	}

	if config.RateLimit.Rate > 0 {
		h.rateLimiter = security.NewRateLimiter(config.RateLimit.Rate, config.RateLimit.Burst, logger)
	}

	return h, nil
}

// applyHostDefaults normalizes the host configuration in place.
func applyHostDefaults(config *Config, logger *slog.Logger) *Config {
	if config.PathPrefix == "" {
		config.PathPrefix = "/auth"
	}
	if !strings.HasPrefix(config.PathPrefix, "/") {
		config.PathPrefix = "/" + config.PathPrefix
	}
	config.PathPrefix = util.NormalizeURL(config.PathPrefix)

	if config.RateLimit.TrustedProxyCount == 0 {
		config.RateLimit.TrustedProxyCount = 1
	}
	if config.RateLimit.TrustProxy {
		logger.Warn("Trusting proxy headers for client IPs",
			"recommendation", "only enable behind trusted reverse proxies",
			"trusted_proxy_count", config.RateLimit.TrustedProxyCount)
	}

	return config
}

// Register adds a strategy to the host. Strategy names must be unique; the
// name becomes the mount path segment.
func (h *Host) Register(s Strategy) error {
	if s == nil {
		return fmt.Errorf("strategy is required")
	}
	name := s.Name()
	if name == "" {
		return fmt.Errorf("strategy name is required")
	}
	if strings.ContainsAny(name, "/?#") {
		return fmt.Errorf("strategy name %q is not mountable", name)
	}
	if _, exists := h.strategies[name]; exists {
		return fmt.Errorf("strategy %q already registered", name)
	}

	h.strategies[name] = s
	h.logger.Info("Registered strategy", "strategy", name, "mount", h.MountPath(name))
	return nil
}

// Strategy looks up a registered strategy by name.
func (h *Host) Strategy(name string) (Strategy, bool) {
	s, ok := h.strategies[name]
	return s, ok
}

// StrategyNames returns the registered strategy names, sorted.
func (h *Host) StrategyNames() []string {
	names := make([]string, 0, len(h.strategies))
	for name := range h.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MountPath returns the mount path for a strategy name, e.g. "/auth/google".
func (h *Host) MountPath(name string) string {
	return h.config.PathPrefix + "/" + name
}

// Auditor returns the host's security auditor.
func (h *Host) Auditor() *security.Auditor {
	return h.auditor
}

// Stop releases background resources (the rate limiter's cleanup goroutine).
func (h *Host) Stop() {
	if h.rateLimiter != nil {
		h.rateLimiter.Stop()
	}
}
