// Package textutils normalizes merchant descriptions and provides the
// case-insensitive substring matching shared by mappings, aliases and the
// ignore list.
package textutils

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var spaces = regexp.MustCompile(`\s+`)

// NormalizeDescription trims, collapses internal whitespace and applies
// Unicode NFC so visually identical descriptions compare equal.
func NormalizeDescription(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = norm.NFC.String(s)
	return strings.TrimSpace(spaces.ReplaceAllString(s, " "))
}

// Fold returns the case-folded form of s used for every case-insensitive comparison.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// ContainsFold reports whether needle occurs in haystack ignoring case.
func ContainsFold(haystack, needle string) bool {
	return strings.Contains(Fold(haystack), Fold(needle))
}
