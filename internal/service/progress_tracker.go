package service

import (
	"context"
	"log/slog"

	"github.com/readtrackapp/readtrack-server/internal/clock"
	"github.com/readtrackapp/readtrack-server/internal/domain"
	"github.com/readtrackapp/readtrack-server/internal/store"
)

// ProgressTracker moves a user's page position through a book.
type ProgressTracker struct {
	store  store.Store
	clock  clock.Clock
	logger *slog.Logger
}

// NewProgressTracker creates a new progress tracker.
func NewProgressTracker(st store.Store, clk clock.Clock, logger *slog.Logger) *ProgressTracker {
	return &ProgressTracker{
		store:  st,
		clock:  clk,
		logger: logger,
	}
}

// UpdatePage sets the current page and derives the reading status from it.
func (t *ProgressTracker) UpdatePage(ctx context.Context, ownerID, userBookID string, newPage int) (*domain.BookProgress, error) {
	now := t.clock.Now()

	var (
		progress *domain.BookProgress
		before   domain.ReadingStatus
	)
	err := t.store.Update(ctx, func(tx store.Tx) error {
		p, err := loadProgress(ctx, tx, ownerID, userBookID, foreignForbidden)
		if err != nil {
			return err
		}
		book, err := tx.GetBook(ctx, p.BookID)
		if err != nil {
			return translate(err, "book "+p.BookID)
		}

		before = p.Status
		if err := p.ApplyPageUpdate(newPage, book.TotalPages, now); err != nil {
			return err
		}
		if err := tx.UpdateProgress(ctx, p); err != nil {
			return translate(err, "book "+userBookID)
		}
		progress = p
		return nil
	})
	if err != nil {
		return nil, translate(err, "book progress")
	}

	if progress.Status != before {
		t.logger.Info("reading status changed",
			"user_id", ownerID,
			"user_book_id", userBookID,
			"from", before,
			"to", progress.Status,
			"current_page", progress.CurrentPage)
	}
	return progress, nil
}
