package kv

import (
	"context"

	"github.com/readtrackapp/readtrack-server/internal/domain"
	"github.com/readtrackapp/readtrack-server/internal/store"
)

// CreateSession stores a reading session.
func (t *txn) CreateSession(ctx context.Context, s *domain.ReadingSession) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	return t.s.sessions.create(t.btx, s)
}

// GetSession returns a reading session by id.
func (t *txn) GetSession(ctx context.Context, id string) (*domain.ReadingSession, error) {
	return t.s.sessions.get(t.btx, id)
}

// UpdateSession replaces a reading session.
func (t *txn) UpdateSession(ctx context.Context, s *domain.ReadingSession) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	return t.s.sessions.update(t.btx, s)
}

// ListSessions pages newest first. The list index key ends in
// "<started>:<id>", so reverse key order is the (started_at, id) keyset
// order the cursor encodes.
func (t *txn) ListSessions(ctx context.Context, q store.SessionQuery) (*store.PaginatedResult[*domain.ReadingSession], error) {
	page := q.Page.Normalize()
	cursor, hasCursor, err := store.DecodeSessionCursor(page.Cursor)
	if err != nil {
		return nil, err
	}

	name, owner := idxUser, q.UserID
	if q.UserBookID != "" {
		name, owner = idxUserBook, q.UserBookID
	}

	opts := scanOptions{reverse: true}
	if hasCursor {
		opts.after = owner + ":" + sortable(cursor.StartedAt) + ":" + cursor.ID
	}

	items := make([]*domain.ReadingSession, 0, page.Limit)
	err = t.s.sessions.scan(t.btx, name, owner+":", opts, func(rs *domain.ReadingSession) error {
		if rs.UserID != q.UserID {
			return nil
		}
		items = append(items, rs)
		if len(items) > page.Limit {
			return errStopScan
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &store.PaginatedResult[*domain.ReadingSession]{Items: items}
	if len(items) > page.Limit {
		result.Items = items[:page.Limit]
		result.HasMore = true
		last := result.Items[page.Limit-1]
		result.NextCursor = store.SessionCursor{StartedAt: last.StartedAt, ID: last.ID}.Encode()
	}
	return result, nil
}

// DeleteSessionsByUserBook removes every session of a relation.
func (t *txn) DeleteSessionsByUserBook(ctx context.Context, userBookID string) (int, error) {
	if err := t.checkWritable(); err != nil {
		return 0, err
	}

	var ids []string
	err := t.s.sessions.scan(t.btx, idxUserBook, userBookID+":", scanOptions{},
		func(rs *domain.ReadingSession) error {
			ids = append(ids, rs.ID)
			return nil
		})
	if err != nil {
		return 0, err
	}

	for _, id := range ids {
		if err := t.s.sessions.delete(t.btx, id); err != nil {
			return 0, err
		}
	}
	return len(ids), nil
}

// SumSessionMinutes totals closed-session minutes for a user.
func (t *txn) SumSessionMinutes(ctx context.Context, userID string) (int, error) {
	total := 0
	err := t.s.sessions.scan(t.btx, idxUser, userID+":", scanOptions{},
		func(rs *domain.ReadingSession) error {
			total += rs.Minutes()
			return nil
		})
	return total, err
}
