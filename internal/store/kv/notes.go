package kv

import (
	"context"

	"github.com/readtrackapp/readtrack-server/internal/domain"
)

// CreateNote stores a note.
func (t *txn) CreateNote(ctx context.Context, n *domain.Note) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	return t.s.notes.create(t.btx, n)
}

// ListNotes returns a relation's notes by page, then creation time.
func (t *txn) ListNotes(ctx context.Context, userBookID string) ([]*domain.Note, error) {
	var out []*domain.Note
	err := t.s.notes.scan(t.btx, idxUserBook, userBookID+":", scanOptions{}, func(n *domain.Note) error {
		out = append(out, n)
		return nil
	})
	return out, err
}

// DeleteNotesByUserBook removes every note of a relation.
func (t *txn) DeleteNotesByUserBook(ctx context.Context, userBookID string) (int, error) {
	if err := t.checkWritable(); err != nil {
		return 0, err
	}

	notes, err := t.ListNotes(ctx, userBookID)
	if err != nil {
		return 0, err
	}
	for _, n := range notes {
		if err := t.s.notes.delete(t.btx, n.ID); err != nil {
			return 0, err
		}
	}
	return len(notes), nil
}

// CountNotes counts a user's notes.
func (t *txn) CountNotes(ctx context.Context, userID string) (int, error) {
	n := 0
	err := t.s.notes.scan(t.btx, idxUser, userID+":", scanOptions{}, func(*domain.Note) error {
		n++
		return nil
	})
	return n, err
}
