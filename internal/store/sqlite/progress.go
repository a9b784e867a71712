package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/readtrackapp/readtrack-server/internal/domain"
	"github.com/readtrackapp/readtrack-server/internal/store"
)

const progressColumns = `id, user_id, book_id, status, current_page, is_favorite, rating,
	started_at, completed_at, created_at, updated_at`

func scanProgress(row scanner) (*domain.BookProgress, error) {
	var (
		p                      domain.BookProgress
		status                 string
		isFavorite             int
		rating                 sql.NullInt64
		startedAt, completedAt sql.NullString
		createdAt, updatedAt   string
	)
	err := row.Scan(&p.ID, &p.UserID, &p.BookID, &status, &p.CurrentPage, &isFavorite, &rating,
		&startedAt, &completedAt, &createdAt, &updatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	p.Status = domain.ReadingStatus(status)
	p.IsFavorite = isFavorite != 0
	p.Rating = intPtr(rating)

	if p.StartedAt, err = parseNullableTime(startedAt); err != nil {
		return nil, err
	}
	if p.CompletedAt, err = parseNullableTime(completedAt); err != nil {
		return nil, err
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProgress inserts a relation. Returns store.ErrAlreadyExists when the
// user already has the book.
func (t *txn) CreateProgress(ctx context.Context, p *domain.BookProgress) error {
	_, err := t.exec(ctx, `
		INSERT INTO user_books (
			id, user_id, book_id, status, current_page, is_favorite, rating,
			started_at, completed_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.BookID, string(p.Status), p.CurrentPage, boolToInt(p.IsFavorite),
		nullIntPtr(p.Rating), nullTimeString(p.StartedAt), nullTimeString(p.CompletedAt),
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
	)
	return err
}

// GetProgress returns a relation by id.
func (t *txn) GetProgress(ctx context.Context, id string) (*domain.BookProgress, error) {
	return scanProgress(t.q.QueryRowContext(ctx,
		`SELECT `+progressColumns+` FROM user_books WHERE id = ?`, id))
}

// GetProgressByBook returns the user's relation to bookID.
func (t *txn) GetProgressByBook(ctx context.Context, userID, bookID string) (*domain.BookProgress, error) {
	return scanProgress(t.q.QueryRowContext(ctx,
		`SELECT `+progressColumns+` FROM user_books WHERE user_id = ? AND book_id = ?`, userID, bookID))
}

// UpdateProgress rewrites the mutable columns of a relation.
func (t *txn) UpdateProgress(ctx context.Context, p *domain.BookProgress) error {
	return t.execOne(ctx, `
		UPDATE user_books SET
			status = ?,
			current_page = ?,
			is_favorite = ?,
			rating = ?,
			started_at = ?,
			completed_at = ?,
			updated_at = ?
		WHERE id = ?`,
		string(p.Status), p.CurrentPage, boolToInt(p.IsFavorite), nullIntPtr(p.Rating),
		nullTimeString(p.StartedAt), nullTimeString(p.CompletedAt), formatTime(p.UpdatedAt),
		p.ID,
	)
}

// DeleteProgress removes a relation. Its notes and sessions must be deleted
// first; the foreign keys reject anything else.
func (t *txn) DeleteProgress(ctx context.Context, id string) error {
	return t.execOne(ctx, `DELETE FROM user_books WHERE id = ?`, id)
}

// ListProgress returns a user's relations, most recently updated first.
func (t *txn) ListProgress(ctx context.Context, userID string, filter store.ProgressFilter) ([]*domain.BookProgress, error) {
	var (
		where = []string{"user_id = ?"}
		args  = []any{userID}
	)
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.FavoritesOnly {
		where = append(where, "is_favorite = 1")
	}

	query := `SELECT ` + progressColumns + ` FROM user_books
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY updated_at DESC, id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := t.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.BookProgress
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
