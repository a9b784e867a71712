package sqlite

import (
	"context"
	"database/sql"

	"github.com/readtrackapp/readtrack-server/internal/domain"
	"github.com/readtrackapp/readtrack-server/internal/store"
)

// readingSessionColumns must match the scan order in scanReadingSession.
const readingSessionColumns = `id, user_id, user_book_id, started_at, ended_at,
	duration_minutes, pages_read, created_at, updated_at`

func scanReadingSession(row scanner) (*domain.ReadingSession, error) {
	var (
		rs                   domain.ReadingSession
		startedAt            string
		endedAt              sql.NullString
		duration             sql.NullInt64
		createdAt, updatedAt string
	)
	err := row.Scan(&rs.ID, &rs.UserID, &rs.UserBookID, &startedAt, &endedAt,
		&duration, &rs.PagesRead, &createdAt, &updatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	rs.DurationMinutes = intPtr(duration)

	if rs.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, err
	}
	if rs.EndedAt, err = parseNullableTime(endedAt); err != nil {
		return nil, err
	}
	if rs.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if rs.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &rs, nil
}

// CreateSession inserts a reading session.
func (t *txn) CreateSession(ctx context.Context, s *domain.ReadingSession) error {
	_, err := t.exec(ctx, `
		INSERT INTO reading_sessions (
			id, user_id, user_book_id, started_at, ended_at,
			duration_minutes, pages_read, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.UserID, s.UserBookID, formatTime(s.StartedAt), nullTimeString(s.EndedAt),
		nullIntPtr(s.DurationMinutes), s.PagesRead, formatTime(s.CreatedAt), formatTime(s.UpdatedAt),
	)
	return err
}

// GetSession returns a reading session by id.
func (t *txn) GetSession(ctx context.Context, id string) (*domain.ReadingSession, error) {
	return scanReadingSession(t.q.QueryRowContext(ctx,
		`SELECT `+readingSessionColumns+` FROM reading_sessions WHERE id = ?`, id))
}

// UpdateSession rewrites the close fields of a session.
func (t *txn) UpdateSession(ctx context.Context, s *domain.ReadingSession) error {
	return t.execOne(ctx, `
		UPDATE reading_sessions SET
			ended_at = ?,
			duration_minutes = ?,
			pages_read = ?,
			updated_at = ?
		WHERE id = ?`,
		nullTimeString(s.EndedAt), nullIntPtr(s.DurationMinutes), s.PagesRead, formatTime(s.UpdatedAt),
		s.ID,
	)
}

// ListSessions pages through sessions newest first using a (started_at, id)
// keyset.
func (t *txn) ListSessions(ctx context.Context, q store.SessionQuery) (*store.PaginatedResult[*domain.ReadingSession], error) {
	page := q.Page.Normalize()
	cursor, hasCursor, err := store.DecodeSessionCursor(page.Cursor)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + readingSessionColumns + ` FROM reading_sessions WHERE user_id = ?`
	args := []any{q.UserID}
	if q.UserBookID != "" {
		query += ` AND user_book_id = ?`
		args = append(args, q.UserBookID)
	}
	if hasCursor {
		at := formatTime(cursor.StartedAt)
		query += ` AND (started_at < ? OR (started_at = ? AND id < ?))`
		args = append(args, at, at, cursor.ID)
	}
	query += ` ORDER BY started_at DESC, id DESC LIMIT ?`
	args = append(args, page.Limit+1)

	rows, err := t.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*domain.ReadingSession, 0, page.Limit)
	for rows.Next() {
		rs, err := scanReadingSession(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rs)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return pageOf(items, page.Limit), nil
}

func pageOf(items []*domain.ReadingSession, limit int) *store.PaginatedResult[*domain.ReadingSession] {
	result := &store.PaginatedResult[*domain.ReadingSession]{Items: items}
	if len(items) > limit {
		result.Items = items[:limit]
		result.HasMore = true
		last := result.Items[limit-1]
		result.NextCursor = store.SessionCursor{StartedAt: last.StartedAt, ID: last.ID}.Encode()
	}
	return result
}

// DeleteSessionsByUserBook removes every session of a relation.
func (t *txn) DeleteSessionsByUserBook(ctx context.Context, userBookID string) (int, error) {
	res, err := t.exec(ctx, `DELETE FROM reading_sessions WHERE user_book_id = ?`, userBookID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// SumSessionMinutes totals closed-session minutes for a user.
func (t *txn) SumSessionMinutes(ctx context.Context, userID string) (int, error) {
	var total int
	err := t.q.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(duration_minutes), 0) FROM reading_sessions
		WHERE user_id = ? AND ended_at IS NOT NULL`, userID).Scan(&total)
	return total, err
}
