package auth

import (
	"fmt"
	"strings"
)

// Stable error kinds recorded by strategies. Provider-reported OAuth error
// codes (e.g. "invalid_grant", "access_denied") are passed through verbatim
// as kinds and therefore have no constants here.
const (
	// ErrorKindMissingCode tags a callback that carried neither an
	// authorization code nor an identity token.
	ErrorKindMissingCode = "missing_code"

	// ErrorKindToken tags identity/token verification failures: an
	// unauthorized access token or a rejected identity token.
	ErrorKindToken = "token"

	// ErrorKindOAuth2 tags transport-level and unexpected-response
	// failures while talking to the provider.
	ErrorKindOAuth2 = "OAuth2"
)

// Error is one terminal authentication failure. Kind is a stable machine
// string hosts branch on; Message carries human-readable detail.
type Error struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewError creates a new authentication error
func NewError(kind, message string) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
	}
}

// Common errors as reusable constructors
var (
	// ErrMissingCode indicates the callback carried neither a code nor an
	// identity token.
	ErrMissingCode = func() *Error {
		return NewError(ErrorKindMissingCode, "callback carried neither an authorization code nor an id_token")
	}

	// ErrUnauthorized indicates the provider rejected the access token.
	ErrUnauthorized = func() *Error {
		return NewError(ErrorKindToken, "unauthorized")
	}

	// ErrUnknownClientID indicates an identity token issued for a client
	// id outside the configured allow-list.
	ErrUnknownClientID = func(aud string) *Error {
		return NewError(ErrorKindToken, fmt.Sprintf("Unknown client id %s", aud))
	}

	// ErrTokenVerification indicates the identity token could not be
	// verified at all.
	ErrTokenVerification = func() *Error {
		return NewError(ErrorKindToken, "Token verification failed")
	}
)

// ErrorList is the ordered collection of failures recorded during one
// authentication phase. It implements error so CompleteAuth can return it
// directly.
type ErrorList []*Error

// Error implements the error interface
func (l ErrorList) Error() string {
	switch len(l) {
	case 0:
		return "no errors"
	case 1:
		return l[0].Error()
	}
	msgs := make([]string, len(l))
	for i, e := range l {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("%d errors: %s", len(l), strings.Join(msgs, "; "))
}

// First returns the first recorded error, or nil for an empty list.
func (l ErrorList) First() *Error {
	if len(l) == 0 {
		return nil
	}
	return l[0]
}

// Has reports whether any recorded error carries the given kind.
func (l ErrorList) Has(kind string) bool {
	for _, e := range l {
		if e.Kind == kind {
			return true
		}
	}
	return false
}
