package auth

import (
	"net/http"
	"net/url"

	"github.com/authkit/strategy-auth/internal/util"
)

// headerForwardedProto is the header consulted (and written by the
// proto_scheme override) when deriving the request scheme behind a proxy.
const headerForwardedProto = "X-Forwarded-Proto"

// RequestOptions carries host-resolved, request-scoped option overrides.
// Multi-tenant hosts use them to swap OAuth client credentials per request;
// proxied hosts use ProtoScheme to pin the externally visible scheme.
type RequestOptions struct {
	// ClientID and ClientSecret override the strategy's static OAuth
	// client credentials for this request. The override applies only when
	// BOTH are set; a lone half is ignored and the static credentials are
	// used.
	ClientID     string
	ClientSecret string

	// ProtoScheme forces the scheme used for callback URL construction
	// (e.g. "https" behind a TLS-terminating proxy). Setting it also
	// writes the X-Forwarded-Proto header on the context so any code that
	// re-derives the scheme sees a consistent view.
	ProtoScheme string
}

// RequestContext is the explicit per-request state shared between the host
// and a strategy during one authentication phase. It carries the request
// inputs (params, scheme, host, headers), a strategy-private store for state
// stashed between CompleteAuth and the projections, and the accumulated
// error list.
//
// A RequestContext is used by a single goroutine for a single request; it is
// not safe for concurrent use.
type RequestContext struct {
	params  url.Values
	headers http.Header
	scheme  string
	host    string
	mount   string

	opts RequestOptions

	store  map[string]any
	errors ErrorList
}

// NewRequestContext builds a RequestContext from an incoming HTTP request.
// mount is the strategy's mount path (e.g. "/auth/google"); the callback URL
// is derived from it. Query and form parameters are merged, query values
// first, matching net/http's Form semantics.
func NewRequestContext(r *http.Request, mount string) *RequestContext {
	params := r.URL.Query()
	if err := r.ParseForm(); err == nil {
		params = r.Form
	}

	scheme := r.Header.Get(headerForwardedProto)
	if scheme == "" {
		if r.TLS != nil {
			scheme = "https"
		} else {
			scheme = "http"
		}
	}

	return &RequestContext{
		params:  params,
		headers: r.Header.Clone(),
		scheme:  scheme,
		host:    r.Host,
		mount:   util.NormalizeURL(mount),
	}
}

// Param returns the first value of the named request parameter, or "" when
// absent.
func (rc *RequestContext) Param(name string) string {
	return rc.params.Get(name)
}

// Scheme returns the effective request scheme: the ProtoScheme override when
// set, otherwise the scheme derived from the request.
func (rc *RequestContext) Scheme() string {
	return rc.scheme
}

// Host returns the request host (including port when present).
func (rc *RequestContext) Host() string {
	return rc.host
}

// MountPath returns the strategy mount path the context was built for.
func (rc *RequestContext) MountPath() string {
	return rc.mount
}

// Header returns the context's header view. It is a clone of the incoming
// request headers plus any markers written by option overrides.
func (rc *RequestContext) Header() http.Header {
	if rc.headers == nil {
		rc.headers = http.Header{}
	}
	return rc.headers
}

// CallbackURL returns the absolute URL the provider should redirect back to:
// the context scheme and host joined with the mount path plus "/callback".
func (rc *RequestContext) CallbackURL() string {
	return rc.scheme + "://" + rc.host + rc.mount + "/callback"
}

// SetOptions installs request-scoped option overrides. A ProtoScheme
// override takes effect immediately: the context scheme is rewritten and the
// X-Forwarded-Proto header is set to match.
func (rc *RequestContext) SetOptions(opts RequestOptions) {
	rc.opts = opts
	if opts.ProtoScheme != "" {
		rc.scheme = opts.ProtoScheme
		rc.Header().Set(headerForwardedProto, opts.ProtoScheme)
	}
}

// Options returns the installed request-scoped option overrides.
func (rc *RequestContext) Options() RequestOptions {
	return rc.opts
}

// Set stashes a value in the strategy-private store. Strategies namespace
// their keys with the strategy name so multiple strategies can share one
// context.
func (rc *RequestContext) Set(key string, value any) {
	if rc.store == nil {
		rc.store = make(map[string]any)
	}
	rc.store[key] = value
}

// Get retrieves a stashed value. The second return reports presence.
func (rc *RequestContext) Get(key string) (any, bool) {
	v, ok := rc.store[key]
	return v, ok
}

// Delete removes a stashed value.
func (rc *RequestContext) Delete(key string) {
	delete(rc.store, key)
}

// Fail records a terminal failure on the context and returns it. Failures
// accumulate; CompleteAuth returns the full list.
func (rc *RequestContext) Fail(kind, message string) *Error {
	e := NewError(kind, message)
	rc.errors = append(rc.errors, e)
	return e
}

// Errors returns the failures recorded so far, in order.
func (rc *RequestContext) Errors() ErrorList {
	return rc.errors
}

// Err returns the accumulated failures as an error, or nil when none were
// recorded. The concrete type is ErrorList.
func (rc *RequestContext) Err() error {
	if len(rc.errors) == 0 {
		return nil
	}
	return rc.errors
}
