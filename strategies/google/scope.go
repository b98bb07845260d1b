package google

import "strings"

// scopeFields splits the requested scope string on whitespace for the
// authorization URL, where entries are re-joined with spaces. The string is
// otherwise passed through as given: entries are never rewritten or
// expanded, so callers control the exact scope value the provider sees.
func scopeFields(scope string) []string {
	return strings.Fields(scope)
}

// SplitScopes splits a provider-reported scope string on commas. Google
// reports granted scopes space-delimited, so a multi-scope grant usually
// comes back as a single element; see auth.Credentials.Scopes.
func SplitScopes(scope string) []string {
	return strings.Split(scope, ",")
}

// ParseClientIDList parses a colon-separated client id list, as commonly
// stored in a single environment variable, into the AllowedClientIDs slice.
// Empty entries are dropped.
func ParseClientIDList(list string) []string {
	parts := strings.Split(list, ":")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}
