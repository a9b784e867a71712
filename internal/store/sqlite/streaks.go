package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/readtrackapp/readtrack-server/internal/clock"
	"github.com/readtrackapp/readtrack-server/internal/domain"
)

// GetStreakState returns the user's counters, or the zero state when the
// user has never been active.
func (t *txn) GetStreakState(ctx context.Context, userID string) (*domain.StreakState, error) {
	var (
		st        = domain.StreakState{UserID: userID}
		lastRead  sql.NullString
		updatedAt string
	)
	err := t.q.QueryRowContext(ctx, `
		SELECT current_streak, longest_streak, last_read_date, updated_at
		FROM user_streaks WHERE user_id = ?`, userID).Scan(
		&st.CurrentStreak, &st.LongestStreak, &lastRead, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return &st, nil
	}
	if err != nil {
		return nil, err
	}

	if st.LastReadDate, err = parseNullableTime(lastRead); err != nil {
		return nil, err
	}
	if st.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &st, nil
}

// PutStreakState upserts the user's counters.
func (t *txn) PutStreakState(ctx context.Context, s *domain.StreakState) error {
	_, err := t.exec(ctx, `
		INSERT INTO user_streaks (user_id, current_streak, longest_streak, last_read_date, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			current_streak = excluded.current_streak,
			longest_streak = excluded.longest_streak,
			last_read_date = excluded.last_read_date,
			updated_at = excluded.updated_at`,
		s.UserID, s.CurrentStreak, s.LongestStreak, nullTimeString(s.LastReadDate), formatTime(s.UpdatedAt),
	)
	return err
}

// HasStreakDay reports whether the user was marked active on day.
func (t *txn) HasStreakDay(ctx context.Context, userID string, day clock.Day) (bool, error) {
	var one int
	err := t.q.QueryRowContext(ctx,
		`SELECT 1 FROM streak_days WHERE user_id = ? AND day = ?`, userID, string(day)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// MarkStreakDay inserts the day mark; an existing mark is left untouched.
func (t *txn) MarkStreakDay(ctx context.Context, rec *domain.StreakRecord) (bool, error) {
	res, err := t.exec(ctx, `
		INSERT INTO streak_days (user_id, day, created_at) VALUES (?, ?, ?)
		ON CONFLICT(user_id, day) DO NOTHING`,
		rec.UserID, string(rec.Day), formatTime(rec.CreatedAt),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// ListStreakDays returns marked days in [from, to], oldest first.
func (t *txn) ListStreakDays(ctx context.Context, userID string, from, to clock.Day) ([]clock.Day, error) {
	rows, err := t.q.QueryContext(ctx, `
		SELECT day FROM streak_days
		WHERE user_id = ? AND day >= ? AND day <= ?
		ORDER BY day`, userID, string(from), string(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []clock.Day
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		days = append(days, clock.Day(d))
	}
	return days, rows.Err()
}

// CountStreakDays counts every marked day for the user.
func (t *txn) CountStreakDays(ctx context.Context, userID string) (int, error) {
	var n int
	err := t.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM streak_days WHERE user_id = ?`, userID).Scan(&n)
	return n, err
}
