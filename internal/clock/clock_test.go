package clock

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManual_SetAndAdvance(t *testing.T) {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	m := NewManual(start)

	assert.Equal(t, start, m.Now())

	m.Advance(105 * time.Second)
	assert.Equal(t, start.Add(105*time.Second), m.Now())

	later := start.Add(48 * time.Hour)
	m.Set(later)
	assert.Equal(t, later, m.Now())
}

func TestManual_ConcurrentAdvance(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	m := NewManual(start)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Advance(time.Second)
		}()
	}
	wg.Wait()

	assert.Equal(t, start.Add(50*time.Second), m.Now())
}

func TestSystem_IsWallClock(t *testing.T) {
	before := time.Now()
	got := System().Now()
	assert.False(t, got.Before(before))
}

func TestCalendar_DayBoundaryFollowsLocation(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	// 2025-03-01 20:30 UTC is already 2025-03-02 in Tokyo.
	instant := time.Date(2025, 3, 1, 20, 30, 0, 0, time.UTC)

	assert.Equal(t, Day("2025-03-01"), NewCalendar(nil).Day(instant))
	assert.Equal(t, Day("2025-03-02"), NewCalendar(tokyo).Day(instant))
}

func TestCalendar_MidnightAndToday(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	cal := NewCalendar(ny)

	m := NewManual(time.Date(2025, 7, 4, 3, 0, 0, 0, time.UTC))
	assert.Equal(t, Day("2025-07-03"), cal.Today(m))

	midnight := cal.Midnight("2025-07-03")
	assert.Equal(t, time.Date(2025, 7, 3, 4, 0, 0, 0, time.UTC), midnight.UTC())
}

func TestDay_AddDaysCrossesMonthAndYear(t *testing.T) {
	assert.Equal(t, Day("2025-03-01"), Day("2025-02-28").AddDays(1))
	assert.Equal(t, Day("2024-02-29"), Day("2024-03-01").AddDays(-1))
	assert.Equal(t, Day("2026-01-01"), Day("2025-12-31").AddDays(1))
	assert.True(t, Day("2025-12-31").Before("2026-01-01"))
}

func TestParseDay(t *testing.T) {
	d, err := ParseDay("2025-05-17")
	require.NoError(t, err)
	assert.Equal(t, Day("2025-05-17"), d)

	_, err = ParseDay("17/05/2025")
	assert.Error(t, err)
}

func TestCalendar_LastDays(t *testing.T) {
	cal := NewCalendar(time.UTC)
	assert.Equal(t, []Day{"2025-02-27", "2025-02-28", "2025-03-01"}, cal.LastDays("2025-03-01", 3))
	assert.Nil(t, cal.LastDays("2025-03-01", 0))
}
