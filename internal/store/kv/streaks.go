package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/readtrackapp/readtrack-server/internal/clock"
	"github.com/readtrackapp/readtrack-server/internal/domain"
)

func streakDayKey(userID string, day clock.Day) []byte {
	return []byte(prefixStreakDay + userID + ":" + string(day))
}

// GetStreakState returns the user's counters, or the zero state when the
// user has never been active.
func (t *txn) GetStreakState(ctx context.Context, userID string) (*domain.StreakState, error) {
	st := domain.StreakState{UserID: userID}

	item, err := t.btx.Get([]byte(prefixStreakState + userID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return &st, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get streak state: %w", err)
	}

	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &st)
	})
	if err != nil {
		return nil, fmt.Errorf("unmarshal streak state: %w", err)
	}
	return &st, nil
}

// PutStreakState writes the user's counters.
func (t *txn) PutStreakState(ctx context.Context, s *domain.StreakState) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal streak state: %w", err)
	}
	return t.btx.Set([]byte(prefixStreakState+s.UserID), data)
}

// HasStreakDay reports whether the user was marked active on day.
func (t *txn) HasStreakDay(ctx context.Context, userID string, day clock.Day) (bool, error) {
	_, err := t.btx.Get(streakDayKey(userID, day))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

// MarkStreakDay writes the day mark unless one exists. The read of the key
// makes two concurrent marks of the same day conflict at commit.
func (t *txn) MarkStreakDay(ctx context.Context, rec *domain.StreakRecord) (bool, error) {
	if err := t.checkWritable(); err != nil {
		return false, err
	}

	marked, err := t.HasStreakDay(ctx, rec.UserID, rec.Day)
	if err != nil || marked {
		return false, err
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return false, fmt.Errorf("marshal streak record: %w", err)
	}
	if err := t.btx.Set(streakDayKey(rec.UserID, rec.Day), data); err != nil {
		return false, err
	}
	return true, nil
}

// ListStreakDays returns marked days in [from, to], oldest first.
func (t *txn) ListStreakDays(ctx context.Context, userID string, from, to clock.Day) ([]clock.Day, error) {
	var days []clock.Day
	err := t.walkStreakDays(userID, from, func(d clock.Day) bool {
		if to.Before(d) {
			return false
		}
		days = append(days, d)
		return true
	})
	return days, err
}

// CountStreakDays counts every marked day for the user.
func (t *txn) CountStreakDays(ctx context.Context, userID string) (int, error) {
	n := 0
	err := t.walkStreakDays(userID, "", func(clock.Day) bool {
		n++
		return true
	})
	return n, err
}

// walkStreakDays visits marked days from the first at or after from, in
// ascending order, until fn returns false. Only keys are read.
func (t *txn) walkStreakDays(userID string, from clock.Day, fn func(clock.Day) bool) error {
	base := prefixStreakDay + userID + ":"

	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(base)
	opts.PrefetchValues = false

	it := t.btx.NewIterator(opts)
	defer it.Close()

	for it.Seek([]byte(base + string(from))); it.ValidForPrefix([]byte(base)); it.Next() {
		day := clock.Day(strings.TrimPrefix(string(it.Item().Key()), base))
		if !fn(day) {
			return nil
		}
	}
	return nil
}
