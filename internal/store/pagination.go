package store

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

// Pagination limits.
const (
	DefaultPageLimit = 50
	MaxPageLimit     = 500
)

// PaginationParams contains pagination request parameters.
type PaginationParams struct {
	Limit  int    // Items per page
	Cursor string // Opaque cursor from a previous page; empty for the first page
}

// PaginatedResult contains one page of items.
type PaginatedResult[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
}

// Normalize clamps Limit into [1, MaxPageLimit], defaulting to DefaultPageLimit.
func (p PaginationParams) Normalize() PaginationParams {
	switch {
	case p.Limit <= 0:
		p.Limit = DefaultPageLimit
	case p.Limit > MaxPageLimit:
		p.Limit = MaxPageLimit
	}
	return p
}

// SessionCursor is the keyset position of a session in newest-first order.
type SessionCursor struct {
	StartedAt time.Time
	ID        string
}

// Encode returns the opaque form of c.
func (c SessionCursor) Encode() string {
	raw := c.StartedAt.UTC().Format(time.RFC3339Nano) + "|" + c.ID
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeSessionCursor parses a cursor produced by Encode. An empty cursor
// yields ok=false.
func DecodeSessionCursor(cursor string) (c SessionCursor, ok bool, err error) {
	if cursor == "" {
		return SessionCursor{}, false, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return SessionCursor{}, false, fmt.Errorf("invalid cursor: %w", err)
	}
	ts, sessionID, found := strings.Cut(string(raw), "|")
	if !found || sessionID == "" {
		return SessionCursor{}, false, fmt.Errorf("invalid cursor: malformed position")
	}
	startedAt, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return SessionCursor{}, false, fmt.Errorf("invalid cursor: %w", err)
	}
	return SessionCursor{StartedAt: startedAt, ID: sessionID}, true, nil
}
