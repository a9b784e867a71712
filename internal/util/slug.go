// Package util holds small text helpers shared by the services and stores.
package util

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	whitespaceRun   = regexp.MustCompile(`\s+`)
)

// NameKey reduces a personal name to its identity key so that spelling
// variants of the same author resolve to one record.
//
//	"Ursula K. Le Guin"  -> "ursula-k-le-guin"
//	"ursula k le guin"   -> "ursula-k-le-guin"
//	"Gabriel García Márquez" -> "gabriel-garcia-marquez"
func NameKey(name string) string {
	// Decompose accents, then drop everything outside ASCII.
	s := norm.NFKD.String(name)
	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)

	s = strings.ToLower(s)
	s = nonAlphanumeric.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// CleanName trims a display name and collapses inner whitespace.
// "  Ursula   K. Le Guin " -> "Ursula K. Le Guin".
func CleanName(name string) string {
	return whitespaceRun.ReplaceAllString(strings.TrimSpace(name), " ")
}

// TitleKey is the identity key for a book title within an author's works.
func TitleKey(title string) string {
	return NameKey(title)
}
