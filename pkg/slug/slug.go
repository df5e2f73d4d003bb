// Package slug derives URL-safe identifiers from titles.
package slug

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLength caps generated slugs before any collision suffix is added.
const MaxLength = 80

// Fallback is used when a title has no sluggable characters.
const Fallback = "article"

var (
	invalidChars = regexp.MustCompile(`[^a-z0-9-]+`)
	repeatedDash = regexp.MustCompile(`-+`)
)

// Generate converts a title to a lowercase, hyphenated ASCII slug.
//
// "Setting up a Free-Zone Company in Dubái!" -> "setting-up-a-free-zone-company-in-dubai"
func Generate(input string) string {
	ascii := RemoveDiacritics(input)
	lower := strings.ToLower(ascii)

	hyphenated := strings.Join(strings.Fields(lower), "-")
	cleaned := invalidChars.ReplaceAllString(hyphenated, "")
	normalized := repeatedDash.ReplaceAllString(cleaned, "-")
	trimmed := strings.Trim(normalized, "-")

	if len(trimmed) > MaxLength {
		trimmed = strings.Trim(trimmed[:MaxLength], "-")
	}
	if trimmed == "" {
		return Fallback
	}
	return trimmed
}

// RemoveDiacritics strips combining marks: "Crème brûlée" -> "Creme brulee".
func RemoveDiacritics(input string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, input)
	if err != nil {
		return input
	}
	return out
}

// ExistsFunc reports whether a slug is already taken.
type ExistsFunc func(ctx context.Context, candidate string) (bool, error)

// Unique returns base, or base with the first free numeric suffix
// (base-2, base-3, ...) when base is taken.
func Unique(ctx context.Context, base string, exists ExistsFunc) (string, error) {
	candidate := base
	for n := 2; ; n++ {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check slug %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}
