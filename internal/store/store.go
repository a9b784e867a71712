// Package store defines the persistence contract for the reading tracker.
//
// Every mutation runs inside Store.Update so that multi-record changes (a
// session close plus its streak step, or a book delete cascade) commit or
// roll back as one unit. Backends live in the sqlite and kv subpackages.
package store

import (
	"context"

	"github.com/readtrackapp/readtrack-server/internal/clock"
	"github.com/readtrackapp/readtrack-server/internal/domain"
)

// Store is a process-wide handle on the backing database. It is opened once at
// startup and closed at shutdown.
type Store interface {
	// Update runs fn in a read-write transaction and commits when fn returns
	// nil. A backend may run fn more than once when a concurrent commit
	// conflicts with it, so fn must not have effects outside tx.
	Update(ctx context.Context, fn func(tx Tx) error) error

	// View runs fn with read-only access.
	View(ctx context.Context, fn func(tx Tx) error) error

	// Backend names the implementation, e.g. "sqlite".
	Backend() string

	Close() error
}

// Tx is the set of record operations available inside Update or View.
// Write methods called from View fail.
type Tx interface {
	Users
	Authors
	Books
	Progress
	Sessions
	Notes
	Streaks
}

// Users stores accounts. Email is unique, compared case-insensitively.
type Users interface {
	CreateUser(ctx context.Context, u *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
}

// Authors stores catalog authors. NameKey is unique.
type Authors interface {
	CreateAuthor(ctx context.Context, a *domain.Author) error
	GetAuthor(ctx context.Context, id string) (*domain.Author, error)
	GetAuthorByNameKey(ctx context.Context, key string) (*domain.Author, error)
}

// Books stores the shared catalog.
type Books interface {
	CreateBook(ctx context.Context, b *domain.Book) error
	GetBook(ctx context.Context, id string) (*domain.Book, error)
	// GetBookByISBN matches the normalized ISBN.
	GetBookByISBN(ctx context.Context, isbn string) (*domain.Book, error)
	// GetBookByTitle matches an author's book by normalized title.
	GetBookByTitle(ctx context.Context, authorID, title string) (*domain.Book, error)
}

// ProgressFilter narrows ListProgress.
type ProgressFilter struct {
	Status        domain.ReadingStatus
	FavoritesOnly bool
	// Limit caps the result; 0 means no cap.
	Limit int
}

// Progress stores per-user book relations. (UserID, BookID) is unique.
type Progress interface {
	CreateProgress(ctx context.Context, p *domain.BookProgress) error
	GetProgress(ctx context.Context, id string) (*domain.BookProgress, error)
	GetProgressByBook(ctx context.Context, userID, bookID string) (*domain.BookProgress, error)
	UpdateProgress(ctx context.Context, p *domain.BookProgress) error
	DeleteProgress(ctx context.Context, id string) error
	// ListProgress returns a user's relations, most recently updated first.
	ListProgress(ctx context.Context, userID string, filter ProgressFilter) ([]*domain.BookProgress, error)
}

// SessionQuery selects reading sessions. UserBookID is optional.
type SessionQuery struct {
	UserID     string
	UserBookID string
	Page       PaginationParams
}

// Sessions stores reading sessions.
type Sessions interface {
	CreateSession(ctx context.Context, s *domain.ReadingSession) error
	GetSession(ctx context.Context, id string) (*domain.ReadingSession, error)
	UpdateSession(ctx context.Context, s *domain.ReadingSession) error
	// ListSessions pages through sessions, newest StartedAt first.
	ListSessions(ctx context.Context, q SessionQuery) (*PaginatedResult[*domain.ReadingSession], error)
	DeleteSessionsByUserBook(ctx context.Context, userBookID string) (int, error)
	// SumSessionMinutes totals DurationMinutes over a user's closed sessions.
	SumSessionMinutes(ctx context.Context, userID string) (int, error)
}

// Notes stores page notes.
type Notes interface {
	CreateNote(ctx context.Context, n *domain.Note) error
	// ListNotes orders by page, then creation time.
	ListNotes(ctx context.Context, userBookID string) ([]*domain.Note, error)
	DeleteNotesByUserBook(ctx context.Context, userBookID string) (int, error)
	CountNotes(ctx context.Context, userID string) (int, error)
}

// Streaks stores streak counters and per-day activity marks.
type Streaks interface {
	// GetStreakState returns the zero state for a user with no activity.
	GetStreakState(ctx context.Context, userID string) (*domain.StreakState, error)
	PutStreakState(ctx context.Context, s *domain.StreakState) error
	HasStreakDay(ctx context.Context, userID string, day clock.Day) (bool, error)
	// MarkStreakDay inserts the record and reports false if the day was
	// already marked, leaving the existing record untouched.
	MarkStreakDay(ctx context.Context, rec *domain.StreakRecord) (bool, error)
	// ListStreakDays returns marked days in [from, to], oldest first.
	ListStreakDays(ctx context.Context, userID string, from, to clock.Day) ([]clock.Day, error)
	CountStreakDays(ctx context.Context, userID string) (int, error)
}
