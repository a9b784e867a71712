package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaginationParams_Normalize(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"zero defaults", 0, DefaultPageLimit},
		{"negative defaults", -4, DefaultPageLimit},
		{"in range kept", 20, 20},
		{"too large clamped", 10_000, MaxPageLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PaginationParams{Limit: tt.limit}.Normalize().Limit)
		})
	}
}

func TestSessionCursor_RoundTrip(t *testing.T) {
	at := time.Date(2025, 3, 1, 10, 0, 0, 123456789, time.FixedZone("X", 3600))
	c := SessionCursor{StartedAt: at, ID: "rs-abc"}

	got, ok, err := DecodeSessionCursor(c.Encode())
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, at.Equal(got.StartedAt))
	assert.Equal(t, "rs-abc", got.ID)
}

func TestDecodeSessionCursor_Invalid(t *testing.T) {
	_, ok, err := DecodeSessionCursor("")
	require.NoError(t, err)
	assert.False(t, ok)

	for _, bad := range []string{"%%%", "bm9waXBl", SessionCursor{ID: ""}.Encode()} {
		_, _, err := DecodeSessionCursor(bad)
		assert.Error(t, err, bad)
	}
}
