package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	auth "github.com/authkit/strategy-auth"
	"github.com/authkit/strategy-auth/strategies/mock"
)

type errorResponse struct {
	Errors []struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"errors"`
}

// newTestServer mounts a handler for the given host configuration and
// strategies on an httptest server.
func newTestServer(t *testing.T, config *auth.Config, strategies ...auth.Strategy) (*httptest.Server, *auth.Host) {
	t.Helper()

	host, err := auth.NewHost(config)
	if err != nil {
		t.Fatalf("NewHost() error = %v", err)
	}
	t.Cleanup(host.Stop)

	for _, s := range strategies {
		if err := host.Register(s); err != nil {
			t.Fatalf("Register(%s) error = %v", s.Name(), err)
		}
	}

	mux := http.NewServeMux()
	auth.NewHandler(host).RegisterRoutes(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, host
}

// noRedirectClient returns redirect responses instead of following them.
func noRedirectClient() *http.Client {
	return &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func decodeErrors(t *testing.T, resp *http.Response) errorResponse {
	t.Helper()
	var body errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding error response: %v", err)
	}
	if len(body.Errors) == 0 {
		t.Fatal("expected at least one error in response")
	}
	return body
}

func TestHandler_Begin(t *testing.T) {
	server, _ := newTestServer(t, nil, mock.New())

	resp, err := noRedirectClient().Get(server.URL + "/auth/mock?state=xyzzy")
	if err != nil {
		t.Fatalf("GET begin: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		t.Fatalf("begin status = %d, want %d", resp.StatusCode, http.StatusFound)
	}

	location := resp.Header.Get("Location")
	if !strings.HasPrefix(location, "https://mock.example.com/authorize") {
		t.Errorf("Location = %q, want mock authorize URL", location)
	}
	if !strings.Contains(location, "state=xyzzy") {
		t.Errorf("Location %q does not carry the state parameter", location)
	}
	if got := resp.Header.Get("X-Request-ID"); got == "" {
		t.Error("expected X-Request-ID response header")
	}
}

func TestHandler_BeginMethodNotAllowed(t *testing.T) {
	server, _ := newTestServer(t, nil, mock.New())

	req, _ := http.NewRequest(http.MethodDelete, server.URL+"/auth/mock", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE begin: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusMethodNotAllowed)
	}
}

func TestHandler_UnknownStrategy(t *testing.T) {
	server, _ := newTestServer(t, nil, mock.New())

	resp, err := http.Get(server.URL + "/auth/nonexistent")
	if err != nil {
		t.Fatalf("GET begin: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
	body := decodeErrors(t, resp)
	if body.Errors[0].Kind != "unknown_strategy" {
		t.Errorf("error kind = %q, want unknown_strategy", body.Errors[0].Kind)
	}
}

func TestHandler_CallbackSuccess(t *testing.T) {
	server, _ := newTestServer(t, nil, mock.New())

	resp, err := http.Get(server.URL + "/auth/mock/callback?code=test-code")
	if err != nil {
		t.Fatalf("GET callback: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("callback status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var result auth.Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if result.Strategy != "mock" {
		t.Errorf("result.Strategy = %q, want mock", result.Strategy)
	}
	if result.UID != "mock-user-123" {
		t.Errorf("result.UID = %q, want mock-user-123", result.UID)
	}
	if result.Credentials.Token != "mock-access-token" {
		t.Errorf("result.Credentials.Token = %q", result.Credentials.Token)
	}
}

func TestHandler_CallbackProviderError(t *testing.T) {
	server, _ := newTestServer(t, nil, mock.New())

	q := url.Values{}
	q.Set("error", "access_denied")
	q.Set("error_description", "The user denied the request.")
	resp, err := http.Get(server.URL + "/auth/mock/callback?" + q.Encode())
	if err != nil {
		t.Fatalf("GET callback: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
	body := decodeErrors(t, resp)
	if body.Errors[0].Kind != "access_denied" {
		t.Errorf("error kind = %q, want access_denied", body.Errors[0].Kind)
	}
	if body.Errors[0].Message != "The user denied the request." {
		t.Errorf("error message = %q", body.Errors[0].Message)
	}
}

func TestHandler_CallbackErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		kind       string
		wantStatus int
	}{
		{"missing code", auth.ErrorKindMissingCode, http.StatusBadRequest},
		{"token failure", auth.ErrorKindToken, http.StatusUnauthorized},
		{"provider transport failure", auth.ErrorKindOAuth2, http.StatusBadGateway},
		{"provider error code", "invalid_grant", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mock.New()
			m.CompleteAuthFunc = func(ctx context.Context, rc *auth.RequestContext) (*auth.Result, error) {
				rc.Fail(tt.kind, "boom")
				return nil, rc.Err()
			}
			server, _ := newTestServer(t, nil, m)

			resp, err := http.Get(server.URL + "/auth/mock/callback?code=x")
			if err != nil {
				t.Fatalf("GET callback: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			body := decodeErrors(t, resp)
			if body.Errors[0].Kind != tt.kind {
				t.Errorf("error kind = %q, want %q", body.Errors[0].Kind, tt.kind)
			}
		})
	}
}

func TestHandler_CallbackMissingCode(t *testing.T) {
	server, _ := newTestServer(t, nil, mock.New())

	resp, err := http.Get(server.URL + "/auth/mock/callback")
	if err != nil {
		t.Fatalf("GET callback: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
	body := decodeErrors(t, resp)
	if body.Errors[0].Kind != auth.ErrorKindMissingCode {
		t.Errorf("error kind = %q, want %q", body.Errors[0].Kind, auth.ErrorKindMissingCode)
	}
}

func TestHandler_RateLimit(t *testing.T) {
	config := &auth.Config{
		RateLimit: auth.RateLimitConfig{Rate: 1, Burst: 1},
	}
	server, _ := newTestServer(t, config, mock.New())

	client := noRedirectClient()

	resp, err := client.Get(server.URL + "/auth/mock")
	if err != nil {
		t.Fatalf("first request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("first request status = %d, want %d", resp.StatusCode, http.StatusFound)
	}

	limited := false
	for i := 0; i < 5; i++ {
		resp, err := client.Get(server.URL + "/auth/mock")
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		status := resp.StatusCode
		if status == http.StatusTooManyRequests {
			body := decodeErrors(t, resp)
			if body.Errors[0].Kind != "rate_limit_exceeded" {
				t.Errorf("error kind = %q, want rate_limit_exceeded", body.Errors[0].Kind)
			}
			limited = true
			resp.Body.Close()
			break
		}
		resp.Body.Close()
	}
	if !limited {
		t.Error("burst of requests was never rate limited")
	}
}

func TestHandler_ResolveOptions(t *testing.T) {
	m := mock.New()
	m.BeginAuthFunc = func(rc *auth.RequestContext) string {
		return "https://mock.example.com/authorize?redirect_uri=" + url.QueryEscape(rc.CallbackURL())
	}

	config := &auth.Config{
		ResolveOptions: func(r *http.Request) auth.RequestOptions {
			return auth.RequestOptions{ProtoScheme: "https"}
		},
	}
	server, _ := newTestServer(t, config, m)

	resp, err := noRedirectClient().Get(server.URL + "/auth/mock")
	if err != nil {
		t.Fatalf("GET begin: %v", err)
	}
	defer resp.Body.Close()

	location := resp.Header.Get("Location")
	if !strings.Contains(location, url.QueryEscape("https://")) {
		t.Errorf("Location = %q, want https callback from proto_scheme override", location)
	}
}

func TestHandler_CallbackPost(t *testing.T) {
	server, _ := newTestServer(t, nil, mock.New())

	resp, err := http.PostForm(server.URL+"/auth/mock/callback", url.Values{"code": {"test-code"}})
	if err != nil {
		t.Fatalf("POST callback: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("POST callback status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}
