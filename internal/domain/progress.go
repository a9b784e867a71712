package domain

import (
	"time"

	domainerrors "github.com/readtrackapp/readtrack-server/internal/errors"
)

// ReadingStatus is the derived reading state of a book for one user.
type ReadingStatus string

// ReadingStatus values.
const (
	StatusNotStarted ReadingStatus = "not_started"
	StatusReading    ReadingStatus = "reading"
	StatusCompleted  ReadingStatus = "completed"
)

// Valid reports whether s is a known status.
func (s ReadingStatus) Valid() bool {
	switch s {
	case StatusNotStarted, StatusReading, StatusCompleted:
		return true
	default:
		return false
	}
}

// Rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// BookProgress is a user's personal relation to a catalog book (the "user
// book"): page position, derived status, favorite flag and rating.
// There is at most one per (user, book).
type BookProgress struct {
	Record
	UserID      string        `json:"user_id"`
	BookID      string        `json:"book_id"`
	Status      ReadingStatus `json:"status"`
	CurrentPage int           `json:"current_page"`
	IsFavorite  bool          `json:"is_favorite"`
	Rating      *int          `json:"rating,omitempty"`
	StartedAt   *time.Time    `json:"started_at,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
}

// NewBookProgress creates a not-started relation at page 0.
func NewBookProgress(id, userID, bookID string, now time.Time) *BookProgress {
	p := &BookProgress{
		Record: Record{ID: id},
		UserID: userID,
		BookID: bookID,
		Status: StatusNotStarted,
	}
	p.InitTimestamps(now)
	return p
}

// OwnedBy reports whether userID owns the relation.
func (p *BookProgress) OwnedBy(userID string) bool {
	return p.UserID == userID
}

// ApplyPageUpdate moves the page position and derives the status from it.
//
// Reaching the last page completes the book from any status. Any other page
// above zero marks it reading, unless it is already completed: completion is
// never undone by moving the page back. Page zero leaves the status as it was,
// so a reading book does not fall back to not_started. StartedAt and
// CompletedAt are stamped the first time each status is reached and never
// cleared.
func (p *BookProgress) ApplyPageUpdate(newPage, totalPages int, now time.Time) error {
	if newPage < 0 || newPage > totalPages {
		return domainerrors.InvalidInputf("page %d is outside 0..%d", newPage, totalPages)
	}

	switch {
	case newPage >= totalPages:
		p.Status = StatusCompleted
	case newPage > 0 && p.Status != StatusCompleted:
		p.Status = StatusReading
	}

	if p.Status == StatusReading && p.StartedAt == nil {
		p.StartedAt = stamp(now)
	}
	if p.Status == StatusCompleted && p.CompletedAt == nil {
		p.CompletedAt = stamp(now)
	}

	p.CurrentPage = newPage
	p.Touch(now)
	return nil
}

// SetRating stores a 1-5 rating.
func (p *BookProgress) SetRating(rating int, now time.Time) error {
	if rating < MinRating || rating > MaxRating {
		return domainerrors.InvalidInputf("rating must be between %d and %d, got %d", MinRating, MaxRating, rating)
	}
	p.Rating = &rating
	p.Touch(now)
	return nil
}

// ToggleFavorite flips the favorite flag and returns the new value.
func (p *BookProgress) ToggleFavorite(now time.Time) bool {
	p.IsFavorite = !p.IsFavorite
	p.Touch(now)
	return p.IsFavorite
}

func stamp(t time.Time) *time.Time {
	return &t
}
