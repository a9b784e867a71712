// Package id generates the prefixed identifiers used for every stored record.
package id

import (
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Record prefixes. The prefix makes an identifier's kind visible in logs and URLs.
const (
	PrefixUser     = "user"
	PrefixBook     = "book"
	PrefixUserBook = "ub"
	PrefixSession  = "rs"
	PrefixNote     = "note"
)

// Generate returns prefix-nanoid, e.g. "rs-V1StGXR8_Z5jdHi6B-myT".
// It fails only when the system entropy source does.
func Generate(prefix string) (string, error) {
	raw, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + raw, nil
}

// MustGenerate is like Generate but panics on failure.
func MustGenerate(prefix string) string {
	v, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return v
}

// HasPrefix reports whether v was generated with prefix and carries a body.
func HasPrefix(v, prefix string) bool {
	body, ok := strings.CutPrefix(v, prefix+"-")
	return ok && body != ""
}
