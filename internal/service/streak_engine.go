package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/readtrackapp/readtrack-server/internal/clock"
	"github.com/readtrackapp/readtrack-server/internal/domain"
	"github.com/readtrackapp/readtrack-server/internal/store"
)

// CalendarDays is the length of the dashboard streak calendar.
const CalendarDays = 7

// StreakEngine maintains per-user consecutive-day streaks.
type StreakEngine struct {
	store    store.Store
	clock    clock.Clock
	calendar clock.Calendar
	logger   *slog.Logger
}

// NewStreakEngine creates a new streak engine. Days are cut in cal's zone.
func NewStreakEngine(st store.Store, clk clock.Clock, cal clock.Calendar, logger *slog.Logger) *StreakEngine {
	return &StreakEngine{
		store:    st,
		clock:    clk,
		calendar: cal,
		logger:   logger,
	}
}

// RecordActivity counts reading activity now toward the owner's streak.
// Repeated activity on one day is counted once.
func (e *StreakEngine) RecordActivity(ctx context.Context, ownerID string) (*domain.StreakState, error) {
	now := e.clock.Now()

	var state *domain.StreakState
	err := e.store.Update(ctx, func(tx store.Tx) error {
		var err error
		state, _, err = e.recordIn(ctx, tx, ownerID, now)
		return err
	})
	if err != nil {
		return nil, translate(err, "streak")
	}
	return state, nil
}

// recordIn applies one activity inside the caller's transaction. The day
// mark is inserted before the counters are read, and the insert itself
// reports whether today was already marked, so two activities on one day
// cannot both advance the streak.
func (e *StreakEngine) recordIn(ctx context.Context, tx store.Tx, ownerID string, now time.Time) (*domain.StreakState, bool, error) {
	today := e.calendar.Day(now)

	inserted, err := tx.MarkStreakDay(ctx, &domain.StreakRecord{UserID: ownerID, Day: today, CreatedAt: now})
	if err != nil {
		return nil, false, translate(err, "streak day")
	}
	yesterdayMarked, err := tx.HasStreakDay(ctx, ownerID, today.AddDays(-1))
	if err != nil {
		return nil, false, translate(err, "streak day")
	}

	state, err := tx.GetStreakState(ctx, ownerID)
	if err != nil {
		return nil, false, translate(err, "streak")
	}

	next, advanced := state.Advance(now, !inserted, yesterdayMarked)
	if !advanced {
		return state, false, nil
	}
	if err := tx.PutStreakState(ctx, &next); err != nil {
		return nil, false, translate(err, "streak")
	}

	e.logger.Debug("streak advanced",
		"user_id", ownerID,
		"day", today,
		"current_streak", next.CurrentStreak,
		"longest_streak", next.LongestStreak)
	return &next, true, nil
}

// GetStreak returns the stored counters; a user with no activity has the
// zero state.
func (e *StreakEngine) GetStreak(ctx context.Context, ownerID string) (*domain.StreakState, error) {
	var state *domain.StreakState
	err := e.store.View(ctx, func(tx store.Tx) error {
		var err error
		state, err = tx.GetStreakState(ctx, ownerID)
		return err
	})
	if err != nil {
		return nil, translate(err, "streak")
	}
	return state, nil
}

// Current is the streak to display today: the stored counter, or 0 once the
// last active day is older than yesterday.
func (e *StreakEngine) Current(state *domain.StreakState) int {
	return state.CurrentAsOf(e.calendar, e.calendar.Today(e.clock))
}

// Calendar returns the last days days ending today, oldest first.
func (e *StreakEngine) Calendar(ctx context.Context, ownerID string, days int) ([]domain.StreakDay, error) {
	var out []domain.StreakDay
	err := e.store.View(ctx, func(tx store.Tx) error {
		var err error
		out, err = e.calendarIn(ctx, tx, ownerID, days)
		return err
	})
	if err != nil {
		return nil, translate(err, "streak calendar")
	}
	return out, nil
}

func (e *StreakEngine) calendarIn(ctx context.Context, tx store.Tx, ownerID string, days int) ([]domain.StreakDay, error) {
	window := e.calendar.LastDays(e.calendar.Today(e.clock), days)
	if len(window) == 0 {
		return []domain.StreakDay{}, nil
	}

	marked, err := tx.ListStreakDays(ctx, ownerID, window[0], window[len(window)-1])
	if err != nil {
		return nil, err
	}
	active := make(map[clock.Day]bool, len(marked))
	for _, d := range marked {
		active[d] = true
	}
	return domain.BuildStreakCalendar(window, active), nil
}

// TotalActiveDays counts every day the owner was active.
func (e *StreakEngine) TotalActiveDays(ctx context.Context, ownerID string) (int, error) {
	var n int
	err := e.store.View(ctx, func(tx store.Tx) error {
		var err error
		n, err = tx.CountStreakDays(ctx, ownerID)
		return err
	})
	if err != nil {
		return 0, translate(err, "streak days")
	}
	return n, nil
}

// Summary gathers the read-side streak view with a days-long calendar.
func (e *StreakEngine) Summary(ctx context.Context, ownerID string, days int) (*domain.StreakSummary, error) {
	var summary *domain.StreakSummary
	err := e.store.View(ctx, func(tx store.Tx) error {
		var err error
		summary, err = e.summaryIn(ctx, tx, ownerID, days)
		return err
	})
	if err != nil {
		return nil, translate(err, "streak")
	}
	return summary, nil
}

func (e *StreakEngine) summaryIn(ctx context.Context, tx store.Tx, ownerID string, days int) (*domain.StreakSummary, error) {
	state, err := tx.GetStreakState(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	total, err := tx.CountStreakDays(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	cal, err := e.calendarIn(ctx, tx, ownerID, days)
	if err != nil {
		return nil, err
	}

	return &domain.StreakSummary{
		CurrentStreak:   e.Current(state),
		StoredStreak:    state.CurrentStreak,
		LongestStreak:   state.LongestStreak,
		TotalStreakDays: total,
		Calendar:        cal,
	}, nil
}
