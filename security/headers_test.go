package security

import (
	"net/http/httptest"
	"testing"
)

func TestSetSecurityHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	SetSecurityHeaders(w, "https://app.example.com")

	want := map[string]string{
		"X-Frame-Options":         "DENY",
		"X-Content-Type-Options":  "nosniff",
		"X-XSS-Protection":        "1; mode=block",
		"Content-Security-Policy": "default-src 'none'; frame-ancestors 'none'",
		"Referrer-Policy":         "no-referrer",
		"Cache-Control":           "no-store, no-cache, must-revalidate, private",
		"Pragma":                  "no-cache",
	}

	for name, value := range want {
		if got := w.Header().Get(name); got != value {
			t.Errorf("%s = %q, want %q", name, got, value)
		}
	}
}

func TestSetSecurityHeaders_HSTS(t *testing.T) {
	tests := []struct {
		name       string
		requestURL string
		wantHSTS   bool
	}{
		{"https request", "https://app.example.com", true},
		{"http request", "http://localhost:8080", false},
		{"unparseable url", "://bad", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			SetSecurityHeaders(w, tt.requestURL)

			got := w.Header().Get("Strict-Transport-Security")
			if tt.wantHSTS && got != hstsValue {
				t.Errorf("Strict-Transport-Security = %q, want %q", got, hstsValue)
			}
			if !tt.wantHSTS && got != "" {
				t.Errorf("Strict-Transport-Security = %q, want unset", got)
			}
		})
	}
}
