package sqlite

import (
	"context"

	"github.com/readtrackapp/readtrack-server/internal/domain"
)

const noteColumns = `id, user_id, user_book_id, page_number, content, created_at, updated_at`

func scanNote(row scanner) (*domain.Note, error) {
	var (
		n                    domain.Note
		createdAt, updatedAt string
	)
	err := row.Scan(&n.ID, &n.UserID, &n.UserBookID, &n.PageNumber, &n.Content, &createdAt, &updatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	if n.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if n.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &n, nil
}

// CreateNote inserts a note.
func (t *txn) CreateNote(ctx context.Context, n *domain.Note) error {
	_, err := t.exec(ctx, `
		INSERT INTO notes (id, user_id, user_book_id, page_number, content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.UserID, n.UserBookID, n.PageNumber, n.Content, formatTime(n.CreatedAt), formatTime(n.UpdatedAt),
	)
	return err
}

// ListNotes returns a relation's notes by page, then creation time.
func (t *txn) ListNotes(ctx context.Context, userBookID string) ([]*domain.Note, error) {
	rows, err := t.q.QueryContext(ctx, `
		SELECT `+noteColumns+` FROM notes
		WHERE user_book_id = ?
		ORDER BY page_number, created_at, id`, userBookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// DeleteNotesByUserBook removes every note of a relation.
func (t *txn) DeleteNotesByUserBook(ctx context.Context, userBookID string) (int, error) {
	res, err := t.exec(ctx, `DELETE FROM notes WHERE user_book_id = ?`, userBookID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// CountNotes counts a user's notes.
func (t *txn) CountNotes(ctx context.Context, userID string) (int, error) {
	var n int
	err := t.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM notes WHERE user_id = ?`, userID).Scan(&n)
	return n, err
}
