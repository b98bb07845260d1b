package auth

import (
	"context"
)

// Strategy is the contract between the host and one identity provider's
// authentication flow. Implementations keep all per-request state on the
// RequestContext's private store, never on the Strategy value itself, so a
// single Strategy instance serves concurrent requests.
type Strategy interface {
	// Name returns the strategy name used in mount paths (e.g. "google").
	Name() string

	// BeginAuth builds the provider authorization URL for the incoming
	// request. URL construction is pure: no network calls and no error
	// path. The host redirects the user agent to the returned URL.
	BeginAuth(rc *RequestContext) string

	// CompleteAuth consumes the provider callback request. On success it
	// stashes the exchanged credentials and fetched identity on the
	// context and returns the normalized Result. On failure it records
	// one or more Errors on the context and returns them as an ErrorList;
	// a Result is never returned alongside errors.
	CompleteAuth(ctx context.Context, rc *RequestContext) (*Result, error)

	// UID returns the provider-scoped stable user identifier from the
	// state stashed by CompleteAuth. Pure projection.
	UID(rc *RequestContext) string

	// Info returns the normalized display fields from the stashed state.
	// Pure projection.
	Info(rc *RequestContext) UserInfo

	// Credentials returns the normalized token view from the stashed
	// state. Pure projection.
	Credentials(rc *RequestContext) Credentials

	// Extra returns the raw provider payloads from the stashed state for
	// hosts that need more than the normalized views. Pure projection.
	Extra(rc *RequestContext) Extra

	// Cleanup removes the strategy's stashed state from the context.
	// Projections called after Cleanup return zero values.
	Cleanup(rc *RequestContext)
}
