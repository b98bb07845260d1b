// Package auth implements a pluggable authentication strategy kit for web
// hosts. A Strategy encapsulates one identity provider's login flow behind a
// fixed seven-operation lifecycle; the host owns sessions, routing, and
// rendering, and talks to strategies only through this package's types.
//
// The lifecycle is split into two phases plus projections:
//   - BeginAuth builds the provider redirect URL from the incoming request.
//     It is pure: no network, no error path.
//   - CompleteAuth consumes the provider callback, performs the credential
//     exchange and identity verification, and either returns a normalized
//     Result or records structured errors on the RequestContext.
//   - UID, Info, Credentials, and Extra project the stashed per-request state
//     into normalized views; Cleanup discards that state.
//
// Strategies never retry, never persist anything, and never talk to the
// session layer. Every failure is terminal for the request and is reported as
// an Error with a stable Kind so hosts can branch on failure classes without
// string matching.
//
// Strategy implementations live in subpackages:
//   - strategies/google: Google OAuth 2.0 / OpenID Connect
//   - strategies/mock: configurable test double
//
// Example usage:
//
//	strategy, err := google.New(&google.Config{
//	    ClientID:     "your-client-id",
//	    ClientSecret: "your-client-secret",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	host, _ := auth.NewHost(&auth.Config{})
//	_ = host.Register(strategy)
//
//	mux := http.NewServeMux()
//	auth.NewHandler(host).RegisterRoutes(mux)
package auth
