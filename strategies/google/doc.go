// Package google provides the Google OAuth 2.0 / OpenID Connect
// authentication strategy.
//
// This package implements the auth.Strategy interface against Google's
// authorization server. It supports:
//   - OAuth 2.0 authorization code flow (code exchange + userinfo fetch)
//   - Identity-token verification via Google's tokeninfo endpoint,
//     gated by a configured client-id allow-list
//   - Hosted domain (hd), prompt, access_type, login_hint, and
//     include_granted_scopes authorization parameters
//   - Per-request client credential overrides for multi-tenant hosts
//
// Scope strings pass through to the authorization URL exactly as supplied,
// by the request's "scope" parameter or the configured DefaultScope. The
// default scope is "email,profile".
//
// Example usage:
//
//	strategy, err := google.New(&google.Config{
//	    ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
//	    ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
//	    DefaultScope: "email,profile",
//	    HostedDomain: "example.com",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// The strategy fetches the authenticated user's profile from Google's
// userinfo endpoint and normalizes it into an auth.Result with credentials,
// display fields, and the raw provider payloads.
package google
