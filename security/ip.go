package security

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// Proxy headers consulted when proxy trust is enabled.
const (
	headerForwardedFor = "X-Forwarded-For"
	headerRealIP       = "X-Real-IP"
)

// GetClientIP resolves the client IP the rate limiter and auditor key on.
//
// With trustProxy disabled the connection's remote address is used
// unconditionally: both proxy headers are client-supplied and would let a
// caller pick their own rate-limit bucket. With it enabled, X-Forwarded-For
// is consulted first (skipping trustedProxyCount proxies from the right),
// then X-Real-IP, then the remote address. Only enable trustProxy behind a
// reverse proxy that overwrites these headers.
func GetClientIP(r *http.Request, trustProxy bool, trustedProxyCount int) string {
	if trustProxy {
		if ip := forwardedClientIP(r.Header.Get(headerForwardedFor), trustedProxyCount); ip != "" {
			return ip
		}
		if ip := validIP(r.Header.Get(headerRealIP)); ip != "" {
			return ip
		}
	}
	return remoteIP(r.RemoteAddr)
}

// forwardedClientIP picks the client entry out of an X-Forwarded-For chain.
// The chain reads "client, proxy1, proxy2, ..." with the proxies we control
// appended rightmost, so the client sits trustedProxyCount entries in from
// the right. Entries added by untrusted hops further left are ignored.
func forwardedClientIP(chain string, trustedProxyCount int) string {
	if chain == "" {
		return ""
	}

	hops := strings.Split(chain, ",")
	if trustedProxyCount < 1 {
		trustedProxyCount = 1
	}

	idx := len(hops) - trustedProxyCount - 1
	if idx < 0 {
		idx = 0
	}
	return validIP(strings.TrimSpace(hops[idx]))
}

// validIP returns s when it parses as an IP address, "" otherwise. Header
// values that are not addresses (spoofed or mangled) are discarded rather
// than used as limiter keys.
func validIP(s string) string {
	if s == "" {
		return ""
	}
	if _, err := netip.ParseAddr(s); err != nil {
		return ""
	}
	return s
}

// remoteIP strips the port from a connection's remote address. Addresses
// that do not split (unix sockets, test harnesses) pass through as-is.
func remoteIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
