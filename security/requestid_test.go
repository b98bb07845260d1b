package security

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestGenerateRequestID(t *testing.T) {
	id := GenerateRequestID()

	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("GenerateRequestID() = %q, not a UUID: %v", id, err)
	}
	if !isValidRequestID(id) {
		t.Errorf("generated ID %q must pass our own validation", id)
	}
	if id == GenerateRequestID() {
		t.Error("two generated IDs should differ")
	}
}

func TestRequestIDContextRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-abc-123")
	if got := GetRequestID(ctx); got != "req-abc-123" {
		t.Errorf("GetRequestID() = %q, want req-abc-123", got)
	}
	if got := GetRequestID(context.Background()); got != "" {
		t.Errorf("GetRequestID() on bare context = %q, want empty", got)
	}
}

func TestIsValidRequestID(t *testing.T) {
	longest := strings.Repeat("a", 128)

	tests := []struct {
		name  string
		id    string
		valid bool
	}{
		{"alphanumeric", "abc123", true},
		{"hyphens and underscores", "req_id-123", true},
		{"uuid", "550e8400-e29b-41d4-a716-446655440000", true},
		{"single character", "a", true},
		{"max length", longest, true},
		{"over max length", longest + "a", false},
		{"empty", "", false},
		{"crlf injection", "id\r\nX-Injected: evil", false},
		{"null byte", "id\x00123", false},
		{"whitespace", "id 123", false},
		{"html", "<script>alert(1)</script>", false},
		{"proxy format with equals", "Root=1-abc-def", false},
		{"slash", "id/123", false},
		{"dot", "id.123", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isValidRequestID(tt.id); got != tt.valid {
				t.Errorf("isValidRequestID(%q) = %v, want %v", tt.id, got, tt.valid)
			}
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		upstream string
		keep     bool
	}{
		{"no upstream header", "", false},
		{"valid upstream ID kept", "upstream-req-42", true},
		{"injected upstream ID replaced", "id\r\nX-Evil: 1", false},
		{"oversized upstream ID replaced", strings.Repeat("a", 200), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = GetRequestID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/auth/google", nil)
			if tt.upstream != "" {
				req.Header.Set(RequestIDHeader, tt.upstream)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			echoed := rec.Header().Get(RequestIDHeader)
			if echoed == "" || seen == "" {
				t.Fatal("request ID missing from response header or context")
			}
			if echoed != seen {
				t.Errorf("response header %q != context ID %q", echoed, seen)
			}

			if tt.keep {
				if seen != tt.upstream {
					t.Errorf("upstream ID %q was replaced with %q", tt.upstream, seen)
				}
				return
			}
			if seen == tt.upstream {
				t.Error("invalid or missing upstream ID should be replaced")
			}
			if _, err := uuid.Parse(seen); err != nil {
				t.Errorf("replacement ID %q is not a UUID: %v", seen, err)
			}
		})
	}
}

func TestRequestIDMiddleware_StableWithinRequest(t *testing.T) {
	var first, second string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		first = GetRequestID(r.Context())
		second = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/google/callback", nil))

	if first == "" || first != second {
		t.Errorf("request ID not stable within a request: %q vs %q", first, second)
	}
}
