package auth

import (
	"time"

	"golang.org/x/oauth2"
)

const (
	// DefaultClockSkewGracePeriod is the grace period applied by
	// Credentials.Expired to absorb clock drift between this host, the
	// provider, and NTP-synced peers.
	DefaultClockSkewGracePeriod = 5 * time.Second
)

// Result is the normalized outcome of one successful authentication. It is a
// plain value: construct it once, never mutate it afterwards.
type Result struct {
	// Strategy is the name of the strategy that produced this result.
	Strategy string `json:"strategy"`

	// UID is the provider-scoped stable user identifier.
	UID string `json:"uid"`

	// Info holds the normalized display fields.
	Info UserInfo `json:"info"`

	// Credentials holds the normalized token view.
	Credentials Credentials `json:"credentials"`

	// Extra holds the raw provider payloads for hosts that need them.
	Extra Extra `json:"extra"`
}

// UserInfo holds the display fields mapped from the provider's user profile.
// The user identifier is deliberately not part of Info; it lives in
// Result.UID.
type UserInfo struct {
	// Name is the user's full display name.
	Name string `json:"name,omitempty"`

	// Email is the user's email address.
	Email string `json:"email,omitempty"`

	// EmailVerified indicates if the provider has verified the email.
	EmailVerified bool `json:"email_verified,omitempty"`

	// GivenName is the user's first name.
	GivenName string `json:"given_name,omitempty"`

	// FamilyName is the user's last name.
	FamilyName string `json:"family_name,omitempty"`

	// Picture is the URL of the user's profile picture.
	Picture string `json:"picture,omitempty"`

	// Locale is the user's preferred locale.
	Locale string `json:"locale,omitempty"`

	// ProfileURL is the URL of the user's public profile page.
	ProfileURL string `json:"profile_url,omitempty"`
}

// Credentials is the normalized token view of a completed exchange.
type Credentials struct {
	// Token is the access token string.
	Token string `json:"token"`

	// RefreshToken is the refresh token, when the provider issued one.
	RefreshToken string `json:"refresh_token,omitempty"`

	// TokenType is the token type reported by the provider
	// (typically "Bearer").
	TokenType string `json:"token_type,omitempty"`

	// ExpiresAt is the access token expiry. Zero when the provider did
	// not report one.
	ExpiresAt time.Time `json:"expires_at,omitzero"`

	// Expires reports whether the provider supplied an expiry at all.
	Expires bool `json:"expires"`

	// Scopes is the granted scope list as parsed from the provider's
	// scope string. The provider reports scopes space-delimited but this
	// field is split on commas, so a multi-scope grant usually arrives as
	// a single element; consumers that need individual scopes split it
	// themselves.
	Scopes []string `json:"scopes,omitempty"`
}

// Expired reports whether the access token is past its expiry, with a clock
// skew grace period. Credentials without an expiry never expire.
func (c Credentials) Expired() bool {
	if !c.Expires || c.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(c.ExpiresAt.Add(DefaultClockSkewGracePeriod))
}

// ExpiresWithin reports whether the access token expires inside the given
// window. Credentials without an expiry never expire.
func (c Credentials) ExpiresWithin(window time.Duration) bool {
	if !c.Expires || c.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().Add(window).After(c.ExpiresAt)
}

// Extra carries the raw provider payloads behind a Result, for hosts that
// need more than the normalized views.
type Extra struct {
	// RawToken is the token exactly as returned by the exchange,
	// including provider-specific extra fields. For flows that verified
	// an identity token without an exchange this is an empty placeholder
	// token.
	RawToken *oauth2.Token `json:"raw_token,omitempty"`

	// RawProfile is the decoded user profile JSON, unmodified.
	RawProfile map[string]any `json:"raw_profile,omitempty"`

	// IDToken is the raw identity token from the exchange response, when
	// the provider issued one.
	IDToken string `json:"id_token,omitempty"`

	// IDClaims is the identity token payload decoded WITHOUT signature
	// verification, for auditing and debugging only. Trust decisions must
	// never be based on these claims.
	IDClaims map[string]any `json:"id_claims,omitempty"`
}
