package clock

import (
	"fmt"
	"time"
)

// DayFormat is the canonical layout of a Day.
const DayFormat = "2006-01-02"

// Day is a civil date, "2006-01-02". Days order lexically.
type Day string

// ParseDay validates s as a Day.
func ParseDay(s string) (Day, error) {
	if _, err := time.Parse(DayFormat, s); err != nil {
		return "", fmt.Errorf("invalid day %q: %w", s, err)
	}
	return Day(s), nil
}

// DayOf returns the civil date of t in loc.
func DayOf(t time.Time, loc *time.Location) Day {
	if loc == nil {
		loc = time.UTC
	}
	return Day(t.In(loc).Format(DayFormat))
}

// AddDays returns the day n days after d. Negative n moves backward.
func (d Day) AddDays(n int) Day {
	t, err := time.Parse(DayFormat, string(d))
	if err != nil {
		return d
	}
	return Day(t.AddDate(0, 0, n).Format(DayFormat))
}

// Before reports whether d is strictly earlier than other.
func (d Day) Before(other Day) bool { return d < other }

// String implements fmt.Stringer.
func (d Day) String() string { return string(d) }

// Calendar truncates instants to days in a fixed location. The location is
// explicit configuration so the day boundary never depends on the host zone.
type Calendar struct {
	loc *time.Location
}

// NewCalendar returns a Calendar for loc; nil means UTC.
func NewCalendar(loc *time.Location) Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return Calendar{loc: loc}
}

// Location returns the calendar's time zone.
func (c Calendar) Location() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}

// Day returns the civil date of t.
func (c Calendar) Day(t time.Time) Day {
	return DayOf(t, c.Location())
}

// Today returns the civil date of clk's current instant.
func (c Calendar) Today(clk Clock) Day {
	return c.Day(clk.Now())
}

// Midnight returns the first instant of d in the calendar's location.
func (c Calendar) Midnight(d Day) time.Time {
	t, err := time.ParseInLocation(DayFormat, string(d), c.Location())
	if err != nil {
		return time.Time{}
	}
	return t
}

// LastDays returns the n days ending at (and including) today, oldest first.
func (c Calendar) LastDays(today Day, n int) []Day {
	if n <= 0 {
		return nil
	}
	days := make([]Day, n)
	for i := range n {
		days[i] = today.AddDays(i - n + 1)
	}
	return days
}
