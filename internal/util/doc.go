// Package util provides common utility functions used across the
// strategy-auth library.
//
// This package contains helper functions for string manipulation and URL
// normalization that don't fit into domain-specific packages. They are used
// internally by multiple packages to avoid code duplication and maintain
// consistent behavior across the codebase.
//
// Key utilities:
//   - SafeTruncate: Safely truncates strings for logging sensitive data
//   - NormalizeURL: Trims trailing slashes for URL/path comparison
package util
