package security

import (
	"net/http"
	"net/url"
)

// baseSecurityHeaders are applied to every begin and callback response.
// Auth responses carry codes, tokens, or error detail; they must never be
// cached, framed, or sniffed.
var baseSecurityHeaders = map[string]string{
	"X-Frame-Options":         "DENY",
	"X-Content-Type-Options":  "nosniff",
	"X-XSS-Protection":        "1; mode=block",
	"Content-Security-Policy": "default-src 'none'; frame-ancestors 'none'",
	"Referrer-Policy":         "no-referrer",
	"Cache-Control":           "no-store, no-cache, must-revalidate, private",
	"Pragma":                  "no-cache",
}

// hstsValue pins HTTPS for one year, including subdomains.
const hstsValue = "max-age=31536000; includeSubDomains"

// SetSecurityHeaders hardens an auth endpoint response. requestURL decides
// whether Strict-Transport-Security is added: only https requests get it, so
// plain-http development setups stay reachable.
func SetSecurityHeaders(w http.ResponseWriter, requestURL string) {
	for name, value := range baseSecurityHeaders {
		w.Header().Set(name, value)
	}

	if parsed, err := url.Parse(requestURL); err == nil && parsed.Scheme == "https" {
		w.Header().Set("Strict-Transport-Security", hstsValue)
	}
}
