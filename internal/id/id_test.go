package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for range 1000 {
		v, err := Generate(PrefixSession)
		require.NoError(t, err)
		require.False(t, seen[v], "duplicate id %s", v)
		seen[v] = true
	}
}

func TestGenerate_Format(t *testing.T) {
	for _, prefix := range []string{PrefixUser, PrefixBook, PrefixUserBook, PrefixSession, PrefixNote} {
		t.Run(prefix, func(t *testing.T) {
			v, err := Generate(prefix)
			require.NoError(t, err)

			assert.True(t, strings.HasPrefix(v, prefix+"-"))
			assert.Len(t, v, len(prefix)+1+21)
			assert.True(t, HasPrefix(v, prefix))

			for _, r := range strings.TrimPrefix(v, prefix+"-") {
				ok := (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-'
				assert.True(t, ok, "unexpected rune %q in %s", r, v)
			}
		})
	}
}

func TestHasPrefix(t *testing.T) {
	assert.True(t, HasPrefix("rs-abc", PrefixSession))
	assert.False(t, HasPrefix("rs-", PrefixSession))
	assert.False(t, HasPrefix("ub-abc", PrefixSession))
}

func TestMustGenerate(t *testing.T) {
	assert.NotPanics(t, func() {
		assert.True(t, HasPrefix(MustGenerate(PrefixNote), PrefixNote))
	})
}
