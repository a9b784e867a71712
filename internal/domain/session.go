package domain

import (
	"time"

	domainerrors "github.com/readtrackapp/readtrack-server/internal/errors"
)

// ReadingSession is one timed sitting with a book. It is created open and
// closes exactly once; a closed session always carries EndedAt and
// DurationMinutes together.
type ReadingSession struct {
	Record
	UserID          string     `json:"user_id"`
	UserBookID      string     `json:"user_book_id"`
	StartedAt       time.Time  `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	DurationMinutes *int       `json:"duration_minutes,omitempty"`
	PagesRead       int        `json:"pages_read"`
}

// NewReadingSession opens a session at now.
func NewReadingSession(id, userID, userBookID string, now time.Time) *ReadingSession {
	s := &ReadingSession{
		Record:     Record{ID: id},
		UserID:     userID,
		UserBookID: userBookID,
		StartedAt:  now,
	}
	s.InitTimestamps(now)
	return s
}

// IsOpen reports whether the session has not been closed yet.
func (s *ReadingSession) IsOpen() bool {
	return s.EndedAt == nil
}

// OwnedBy reports whether userID owns the session.
func (s *ReadingSession) OwnedBy(userID string) bool {
	return s.UserID == userID
}

// Close ends the session at now with the caller-supplied page count.
// The page count is not reconciled against the book's page position.
func (s *ReadingSession) Close(pagesRead int, now time.Time) error {
	if !s.IsOpen() {
		return domainerrors.Conflictf("reading session %s is already closed", s.ID)
	}
	if pagesRead < 0 {
		return domainerrors.InvalidInputf("pages read must not be negative, got %d", pagesRead)
	}

	minutes := ElapsedMinutes(s.StartedAt, now)
	ended := now
	s.EndedAt = &ended
	s.DurationMinutes = &minutes
	s.PagesRead = pagesRead
	s.Touch(now)
	return nil
}

// Minutes returns the closed duration, or 0 while open.
func (s *ReadingSession) Minutes() int {
	if s.DurationMinutes == nil {
		return 0
	}
	return *s.DurationMinutes
}

// ElapsedMinutes is floor(seconds(end-start)/60). A clock that ran backwards
// yields 0 rather than a negative duration.
func ElapsedMinutes(start, end time.Time) int {
	seconds := int64(end.Sub(start) / time.Second)
	if seconds <= 0 {
		return 0
	}
	return int(seconds / 60)
}
