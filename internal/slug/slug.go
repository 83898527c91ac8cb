// Package slug derives URL-safe identifiers from human-readable names.
package slug

import (
	"regexp"
	"strings"
)

var (
	whitespace = regexp.MustCompile(`[\s\p{Z}]+`)
	nonWord    = regexp.MustCompile(`[^\w-]+`)
	hyphenRun  = regexp.MustCompile(`-{2,}`)
)

// Make lowercases and trims name, turns whitespace runs into hyphens, drops
// everything that is not a word character or a hyphen and collapses repeated
// hyphens. Make is idempotent: Make(Make(s)) == Make(s).
//
// Examples:
//   - "Summer T-Shirt" → "summer-t-shirt"
//   - "  Red   Dress! " → "red-dress"
//   - "Café au lait" → "caf-au-lait"
func Make(name string) string {
	s := strings.TrimSpace(strings.ToLower(name))
	s = whitespace.ReplaceAllString(s, "-")
	s = nonWord.ReplaceAllString(s, "")
	return hyphenRun.ReplaceAllString(s, "-")
}
