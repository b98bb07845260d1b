// Package testutil provides testing utilities and test fixtures for the
// strategy-auth library. It includes helpers for creating token and profile
// test data, minting signed identity tokens, assertions, and an
// http.RoundTripper that redirects well-known provider URLs to test servers.
package testutil
