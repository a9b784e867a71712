package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/readtrackapp/readtrack-server/internal/clock"
	"github.com/readtrackapp/readtrack-server/internal/domain"
	domainerrors "github.com/readtrackapp/readtrack-server/internal/errors"
	"github.com/readtrackapp/readtrack-server/internal/id"
	"github.com/readtrackapp/readtrack-server/internal/store"
)

// SessionLedger records discrete reading sessions against a user's books.
type SessionLedger struct {
	store  store.Store
	clock  clock.Clock
	logger *slog.Logger
}

// NewSessionLedger creates a new session ledger.
func NewSessionLedger(st store.Store, clk clock.Clock, logger *slog.Logger) *SessionLedger {
	return &SessionLedger{
		store:  st,
		clock:  clk,
		logger: logger,
	}
}

// OpenSession starts a session on the owner's book relation. Several open
// sessions per user or book are allowed.
func (l *SessionLedger) OpenSession(ctx context.Context, ownerID, userBookID string) (*domain.ReadingSession, error) {
	sessionID, err := id.Generate(id.PrefixSession)
	if err != nil {
		return nil, domainerrors.Internal("generate session id", err)
	}
	now := l.clock.Now()

	var session *domain.ReadingSession
	err = l.store.Update(ctx, func(tx store.Tx) error {
		if _, err := loadProgress(ctx, tx, ownerID, userBookID, foreignForbidden); err != nil {
			return err
		}
		session = domain.NewReadingSession(sessionID, ownerID, userBookID, now)
		return translate(tx.CreateSession(ctx, session), "reading session")
	})
	if err != nil {
		return nil, translate(err, "reading session")
	}

	l.logger.Debug("reading session opened",
		"session_id", session.ID,
		"user_id", ownerID,
		"user_book_id", userBookID)
	return session, nil
}

// CloseSession ends an open session owned by ownerID.
func (l *SessionLedger) CloseSession(ctx context.Context, sessionID, ownerID string, pagesRead int) (*domain.ReadingSession, error) {
	now := l.clock.Now()

	var session *domain.ReadingSession
	err := l.store.Update(ctx, func(tx store.Tx) error {
		var err error
		session, err = l.closeIn(ctx, tx, sessionID, ownerID, pagesRead, now)
		return err
	})
	if err != nil {
		return nil, translate(err, "reading session")
	}

	l.logger.Debug("reading session closed",
		"session_id", session.ID,
		"user_id", ownerID,
		"duration_minutes", session.Minutes())
	return session, nil
}

// closeIn performs the close inside the caller's transaction.
func (l *SessionLedger) closeIn(ctx context.Context, tx store.Tx, sessionID, ownerID string, pagesRead int, now time.Time) (*domain.ReadingSession, error) {
	session, err := tx.GetSession(ctx, sessionID)
	if err != nil {
		return nil, translate(err, "reading session "+sessionID)
	}
	if !session.OwnedBy(ownerID) {
		return nil, domainerrors.Forbiddenf("reading session %s belongs to another user", sessionID)
	}
	if err := session.Close(pagesRead, now); err != nil {
		return nil, err
	}
	if err := tx.UpdateSession(ctx, session); err != nil {
		return nil, translate(err, "reading session "+sessionID)
	}
	return session, nil
}

// GetSession returns one of the owner's sessions.
func (l *SessionLedger) GetSession(ctx context.Context, sessionID, ownerID string) (*domain.ReadingSession, error) {
	var session *domain.ReadingSession
	err := l.store.View(ctx, func(tx store.Tx) error {
		var err error
		session, err = tx.GetSession(ctx, sessionID)
		if err != nil {
			return translate(err, "reading session "+sessionID)
		}
		if !session.OwnedBy(ownerID) {
			return domainerrors.Forbiddenf("reading session %s belongs to another user", sessionID)
		}
		return nil
	})
	if err != nil {
		return nil, translate(err, "reading session")
	}
	return session, nil
}

// ListSessions pages through the owner's sessions, newest first. A non-empty
// userBookID narrows to that book, which must be the owner's.
func (l *SessionLedger) ListSessions(ctx context.Context, ownerID, userBookID string, page store.PaginationParams) (*store.PaginatedResult[*domain.ReadingSession], error) {
	if _, _, err := store.DecodeSessionCursor(page.Cursor); err != nil {
		return nil, domainerrors.InvalidInputf("invalid cursor")
	}

	var result *store.PaginatedResult[*domain.ReadingSession]
	err := l.store.View(ctx, func(tx store.Tx) error {
		if userBookID != "" {
			if _, err := loadProgress(ctx, tx, ownerID, userBookID, foreignForbidden); err != nil {
				return err
			}
		}
		var err error
		result, err = tx.ListSessions(ctx, store.SessionQuery{
			UserID:     ownerID,
			UserBookID: userBookID,
			Page:       page,
		})
		return err
	})
	if err != nil {
		return nil, translate(err, "reading sessions")
	}
	return result, nil
}
