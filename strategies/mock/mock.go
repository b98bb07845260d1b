// Package mock provides a configurable Strategy implementation for testing hosts.
package mock

import (
	"context"
	"sync"

	"golang.org/x/oauth2"

	auth "github.com/authkit/strategy-auth"
)

// Strategy is a configurable implementation of auth.Strategy for testing.
// Every lifecycle method delegates to an overridable func field and counts
// the call.
type Strategy struct {
	// NameFunc is called when Name() is invoked
	NameFunc func() string

	// BeginAuthFunc is called when BeginAuth() is invoked
	BeginAuthFunc func(rc *auth.RequestContext) string

	// CompleteAuthFunc is called when CompleteAuth() is invoked
	CompleteAuthFunc func(ctx context.Context, rc *auth.RequestContext) (*auth.Result, error)

	// UIDFunc is called when UID() is invoked
	UIDFunc func(rc *auth.RequestContext) string

	// InfoFunc is called when Info() is invoked
	InfoFunc func(rc *auth.RequestContext) auth.UserInfo

	// CredentialsFunc is called when Credentials() is invoked
	CredentialsFunc func(rc *auth.RequestContext) auth.Credentials

	// ExtraFunc is called when Extra() is invoked
	ExtraFunc func(rc *auth.RequestContext) auth.Extra

	// CleanupFunc is called when Cleanup() is invoked
	CleanupFunc func(rc *auth.RequestContext)

	// CallCounts tracks how many times each method was called
	CallCounts map[string]int

	// mu protects CallCounts from concurrent access
	mu sync.RWMutex
}

// Compile-time interface check
var _ auth.Strategy = (*Strategy)(nil)

// New creates a mock strategy with working defaults: BeginAuth produces a
// fake authorization URL carrying the callback URL and state, and
// CompleteAuth succeeds whenever the callback carries a code parameter and
// records a missing_code failure otherwise.
func New() *Strategy {
	return &Strategy{
		CallCounts: make(map[string]int),
		NameFunc: func() string {
			return "mock"
		},
		BeginAuthFunc: func(rc *auth.RequestContext) string {
			return "https://mock.example.com/authorize?redirect_uri=" + rc.CallbackURL() + "&state=" + rc.Param("state")
		},
		CompleteAuthFunc: func(ctx context.Context, rc *auth.RequestContext) (*auth.Result, error) {
			if rc.Param("code") == "" {
				rc.Fail(auth.ErrorKindMissingCode, "callback carried no code")
				return nil, rc.Err()
			}
			return &auth.Result{
				Strategy: "mock",
				UID:      "mock-user-123",
				Info: auth.UserInfo{
					Name:          "Mock User",
					Email:         "mock@example.com",
					EmailVerified: true,
					GivenName:     "Mock",
					FamilyName:    "User",
				},
				Credentials: auth.Credentials{
					Token:        "mock-access-token",
					RefreshToken: "mock-refresh-token",
					TokenType:    "Bearer",
					Scopes:       []string{"email profile"},
				},
				Extra: auth.Extra{
					RawToken: &oauth2.Token{
						AccessToken:  "mock-access-token",
						TokenType:    "Bearer",
						RefreshToken: "mock-refresh-token",
					},
				},
			}, nil
		},
		UIDFunc: func(rc *auth.RequestContext) string {
			return "mock-user-123"
		},
		InfoFunc: func(rc *auth.RequestContext) auth.UserInfo {
			return auth.UserInfo{Name: "Mock User", Email: "mock@example.com"}
		},
		CredentialsFunc: func(rc *auth.RequestContext) auth.Credentials {
			return auth.Credentials{Token: "mock-access-token", TokenType: "Bearer"}
		},
		ExtraFunc: func(rc *auth.RequestContext) auth.Extra {
			return auth.Extra{}
		},
		CleanupFunc: func(rc *auth.RequestContext) {},
	}
}

// Name returns the strategy name
func (m *Strategy) Name() string {
	// LOCK PATTERN: Lock only to update counter and read function reference
	// Release lock BEFORE calling user function to prevent deadlocks
	// (user function might call other mock methods)
	m.mu.Lock()
	m.CallCounts["Name"]++
	fn := m.NameFunc
	m.mu.Unlock()

	// Call user function WITHOUT holding lock (deadlock prevention)
	if fn == nil {
		return "mock" // Safe default
	}
	return fn()
}

// BeginAuth builds the fake provider authorization URL
func (m *Strategy) BeginAuth(rc *auth.RequestContext) string {
	m.mu.Lock()
	m.CallCounts["BeginAuth"]++
	fn := m.BeginAuthFunc
	m.mu.Unlock()
	if fn == nil {
		return "https://mock.example.com/authorize" // Safe default
	}
	return fn(rc)
}

// CompleteAuth runs the configured completion behavior
func (m *Strategy) CompleteAuth(ctx context.Context, rc *auth.RequestContext) (*auth.Result, error) {
	m.mu.Lock()
	m.CallCounts["CompleteAuth"]++
	fn := m.CompleteAuthFunc
	m.mu.Unlock()
	if fn == nil {
		rc.Fail(auth.ErrorKindOAuth2, "CompleteAuthFunc not configured")
		return nil, rc.Err()
	}
	return fn(ctx, rc)
}

// UID returns the configured user identifier
func (m *Strategy) UID(rc *auth.RequestContext) string {
	m.mu.Lock()
	m.CallCounts["UID"]++
	fn := m.UIDFunc
	m.mu.Unlock()
	if fn == nil {
		return ""
	}
	return fn(rc)
}

// Info returns the configured user info
func (m *Strategy) Info(rc *auth.RequestContext) auth.UserInfo {
	m.mu.Lock()
	m.CallCounts["Info"]++
	fn := m.InfoFunc
	m.mu.Unlock()
	if fn == nil {
		return auth.UserInfo{}
	}
	return fn(rc)
}

// Credentials returns the configured credentials
func (m *Strategy) Credentials(rc *auth.RequestContext) auth.Credentials {
	m.mu.Lock()
	m.CallCounts["Credentials"]++
	fn := m.CredentialsFunc
	m.mu.Unlock()
	if fn == nil {
		return auth.Credentials{}
	}
	return fn(rc)
}

// Extra returns the configured raw payloads
func (m *Strategy) Extra(rc *auth.RequestContext) auth.Extra {
	m.mu.Lock()
	m.CallCounts["Extra"]++
	fn := m.ExtraFunc
	m.mu.Unlock()
	if fn == nil {
		return auth.Extra{}
	}
	return fn(rc)
}

// Cleanup runs the configured cleanup behavior
func (m *Strategy) Cleanup(rc *auth.RequestContext) {
	m.mu.Lock()
	m.CallCounts["Cleanup"]++
	fn := m.CleanupFunc
	m.mu.Unlock()
	if fn == nil {
		return
	}
	fn(rc)
}

// ResetCallCounts resets all call counters
func (m *Strategy) ResetCallCounts() {
	m.mu.Lock()
	m.CallCounts = make(map[string]int)
	m.mu.Unlock()
}

// GetCallCount returns the number of times a method was called
func (m *Strategy) GetCallCount(method string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.CallCounts[method]
}
