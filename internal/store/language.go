package store

import (
	"strings"

	"golang.org/x/text/language"
)

// NormalizeLanguage canonicalizes a feed-supplied language tag ("EN-us" →
// "en-US"). Unparseable tags are kept verbatim rather than dropped; feeds are
// messy and the value is display-only. Empty input yields nil.
func NormalizeLanguage(tag string) *string {
	trimmed := strings.TrimSpace(tag)
	if trimmed == "" {
		return nil
	}
	parsed, err := language.Parse(trimmed)
	if err != nil {
		return &trimmed
	}
	canonical := parsed.String()
	return &canonical
}
