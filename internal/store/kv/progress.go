package kv

import (
	"context"

	"github.com/readtrackapp/readtrack-server/internal/domain"
	"github.com/readtrackapp/readtrack-server/internal/store"
)

// CreateProgress stores a relation. (UserID, BookID) is unique.
func (t *txn) CreateProgress(ctx context.Context, p *domain.BookProgress) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	return t.s.progress.create(t.btx, p)
}

// GetProgress returns a relation by id.
func (t *txn) GetProgress(ctx context.Context, id string) (*domain.BookProgress, error) {
	return t.s.progress.get(t.btx, id)
}

// GetProgressByBook returns the user's relation to bookID.
func (t *txn) GetProgressByBook(ctx context.Context, userID, bookID string) (*domain.BookProgress, error) {
	return t.s.progress.getByUnique(t.btx, idxUserBook, userID+":"+bookID)
}

// UpdateProgress replaces a relation.
func (t *txn) UpdateProgress(ctx context.Context, p *domain.BookProgress) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	return t.s.progress.update(t.btx, p)
}

// DeleteProgress removes a relation.
func (t *txn) DeleteProgress(ctx context.Context, id string) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	return t.s.progress.delete(t.btx, id)
}

// ListProgress walks the user index newest-updated first.
func (t *txn) ListProgress(ctx context.Context, userID string, filter store.ProgressFilter) ([]*domain.BookProgress, error) {
	var out []*domain.BookProgress
	err := t.s.progress.scan(t.btx, idxUser, userID+":", scanOptions{reverse: true},
		func(p *domain.BookProgress) error {
			if filter.Status != "" && p.Status != filter.Status {
				return nil
			}
			if filter.FavoritesOnly && !p.IsFavorite {
				return nil
			}
			out = append(out, p)
			if filter.Limit > 0 && len(out) >= filter.Limit {
				return errStopScan
			}
			return nil
		})
	return out, err
}
