package domain

import (
	"time"

	"github.com/readtrackapp/readtrack-server/internal/clock"
)

// StreakRecord marks that a user was active on one calendar day.
// There is at most one per (user, day).
type StreakRecord struct {
	UserID    string    `json:"user_id"`
	Day       clock.Day `json:"day"`
	CreatedAt time.Time `json:"created_at"`
}

// StreakState holds a user's streak counters. The counters only change
// through Advance.
type StreakState struct {
	UserID        string     `json:"user_id"`
	CurrentStreak int        `json:"current_streak"`
	LongestStreak int        `json:"longest_streak"`
	LastReadDate  *time.Time `json:"last_read_date,omitempty"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Advance applies one activity at now.
//
// todayMarked must reflect whether today already had a StreakRecord before
// this activity; if so the state is returned unchanged and advanced is false,
// so repeated activity within a day never double-counts. Otherwise the
// streak extends when yesterday was marked and resets to 1 when it was not.
func (s StreakState) Advance(now time.Time, todayMarked, yesterdayMarked bool) (next StreakState, advanced bool) {
	if todayMarked {
		return s, false
	}

	next = s
	if yesterdayMarked {
		next.CurrentStreak = s.CurrentStreak + 1
	} else {
		next.CurrentStreak = 1
	}
	next.LongestStreak = max(s.LongestStreak, next.CurrentStreak)
	last := now
	next.LastReadDate = &last
	next.UpdatedAt = now
	return next, true
}

// CurrentAsOf returns the streak as it should be displayed on today. A streak
// whose last active day is older than yesterday has lapsed and reads as 0;
// the stored counter is left alone until the next activity resets it.
func (s StreakState) CurrentAsOf(cal clock.Calendar, today clock.Day) int {
	if s.LastReadDate == nil {
		return 0
	}
	last := cal.Day(*s.LastReadDate)
	if last == today || last == today.AddDays(-1) {
		return s.CurrentStreak
	}
	return 0
}

// StreakDay is one cell of a streak calendar.
type StreakDay struct {
	Day    clock.Day `json:"date"`
	Active bool      `json:"active"`
}

// BuildStreakCalendar marks each of days active when it appears in active.
func BuildStreakCalendar(days []clock.Day, active map[clock.Day]bool) []StreakDay {
	out := make([]StreakDay, len(days))
	for i, d := range days {
		out[i] = StreakDay{Day: d, Active: active[d]}
	}
	return out
}
