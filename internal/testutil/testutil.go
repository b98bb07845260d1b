package testutil

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// NewMockHTTPServer creates a test HTTP server with the given handler
func NewMockHTTPServer(handler http.HandlerFunc) *httptest.Server {
	return httptest.NewServer(handler)
}

// NewMockHTTPSServer creates a test HTTPS server with the given handler
func NewMockHTTPSServer(handler http.HandlerFunc) *httptest.Server {
	return httptest.NewTLSServer(handler)
}

// GenerateTestToken creates a test OAuth2 token
func GenerateTestToken() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  GenerateRandomString(32),
		TokenType:    "Bearer",
		RefreshToken: GenerateRandomString(32),
		Expiry:       time.Now().Add(1 * time.Hour),
	}
}

// GenerateTestTokenWithExpiry creates a test OAuth2 token with specific expiry
func GenerateTestTokenWithExpiry(expiry time.Time) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  GenerateRandomString(32),
		TokenType:    "Bearer",
		RefreshToken: GenerateRandomString(32),
		Expiry:       expiry,
	}
}

// GenerateTestProfile creates a decoded userinfo response as strategies see it
func GenerateTestProfile() map[string]any {
	return map[string]any{
		"sub":            "test-user-123",
		"email":          "test@example.com",
		"email_verified": true,
		"name":           "Test User",
		"given_name":     "Test",
		"family_name":    "User",
		"picture":        "https://example.com/photo.jpg",
		"locale":         "en",
	}
}

// testSigningKey signs identity token fixtures. Strategies never verify
// signatures themselves (that is the tokeninfo endpoint's job), so any
// stable key works.
var testSigningKey = []byte("strategy-auth-test-signing-key")

// MintIDToken creates a signed identity token (HS256) carrying the given
// claims, for callback fixtures and unverified-claim decoding tests.
func MintIDToken(t *testing.T, claims map[string]any) string {
	t.Helper()

	mapClaims := jwt.MapClaims{
		"iss": "https://accounts.google.com",
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	for k, v := range claims {
		mapClaims[k] = v
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, mapClaims)
	signed, err := token.SignedString(testSigningKey)
	if err != nil {
		t.Fatalf("failed to sign test id_token: %v", err)
	}
	return signed
}

// GenerateRandomString generates a random base64-encoded string
func GenerateRandomString(length int) string {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("failed to generate random string: %v", err))
	}
	return base64.RawURLEncoding.EncodeToString(b)[:length]
}

// RewriteTransport is an http.RoundTripper that redirects requests for
// well-known provider hosts to a test server, so code using production
// endpoint constants can be exercised against httptest servers.
type RewriteTransport struct {
	// URL is the test server base URL requests are redirected to.
	URL *url.URL

	// Base is the underlying transport. Defaults to http.DefaultTransport.
	Base http.RoundTripper

	// Hosts limits rewriting to the given hosts. Empty means rewrite all.
	Hosts []string
}

// NewRewriteTransport builds a RewriteTransport pointing at a test server.
func NewRewriteTransport(t *testing.T, server *httptest.Server, hosts ...string) *RewriteTransport {
	t.Helper()
	u, err := url.Parse(server.URL)
	if err != nil {
		t.Fatalf("failed to parse test server URL: %v", err)
	}
	return &RewriteTransport{URL: u, Hosts: hosts}
}

// RoundTrip implements http.RoundTripper
func (rt *RewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if rt.matches(req.URL.Host) {
		clone := req.Clone(req.Context())
		clone.URL.Scheme = rt.URL.Scheme
		clone.URL.Host = rt.URL.Host
		clone.Host = rt.URL.Host
		req = clone
	}

	base := rt.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

func (rt *RewriteTransport) matches(host string) bool {
	if len(rt.Hosts) == 0 {
		return true
	}
	for _, h := range rt.Hosts {
		if strings.EqualFold(h, host) {
			return true
		}
	}
	return false
}

// AssertNoError fails the test if err is not nil
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error but got nil")
	}
}

// AssertEqual fails the test if got != want
func AssertEqual(t *testing.T, got, want interface{}) {
	t.Helper()
	if got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

// AssertStringContains fails the test if s does not contain substr
func AssertStringContains(t *testing.T, s, substr string) {
	t.Helper()
	if !strings.Contains(s, substr) {
		t.Errorf("string %q does not contain %q", s, substr)
	}
}
