// Package util provides small shared helpers: handle generation and
// client network address extraction.
package util

import (
	"regexp"
	"strings"

	"github.com/mozillazg/go-unidecode"
)

var (
	// handleInvalid matches anything outside the handle alphabet.
	handleInvalid = regexp.MustCompile(`[^a-z0-9-]+`)
	// multipleHyphens matches runs of consecutive hyphens.
	multipleHyphens = regexp.MustCompile(`-{2,}`)
)

// Handleize converts a display name into a URL-safe account handle.
// Non-ASCII characters are transliterated, the result is lowercased,
// and everything outside [a-z0-9-] collapses to hyphens.
func Handleize(s string) string {
	result := unidecode.Unidecode(s)
	result = strings.ToLower(result)
	result = strings.ReplaceAll(result, " ", "-")
	result = handleInvalid.ReplaceAllString(result, "")
	result = multipleHyphens.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}

// IsValidHandle checks that a string is a well-formed account handle:
// lowercase letters, digits and single interior hyphens only.
func IsValidHandle(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-') {
			return false
		}
	}
	if s[0] == '-' || s[len(s)-1] == '-' {
		return false
	}
	return !strings.Contains(s, "--")
}
