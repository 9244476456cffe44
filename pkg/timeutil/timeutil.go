// Package timeutil provides calendar-day utilities for streak and deadline math.
// Participants register with their own timezone; all day-level comparisons
// (streaks, "activity today", overdue checks) happen in that zone, falling
// back to UTC when the timezone is unknown.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"sort"
	"time"
)

// LoadLocation resolves an IANA timezone name, falling back to UTC on
// empty or unknown names instead of failing.
func LoadLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// StartOfDay returns the start of the day (00:00:00) in the given location.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// EndOfDay returns the end of the day (23:59:59.999999999) in the given location.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 23, 59, 59, 999999999, loc)
}

// DayKey returns the calendar-day key ("2006-01-02") of t in the given location.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}

// SameDay reports whether two instants fall on the same calendar day
// in the given location.
func SameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// DaysBetween returns the number of whole calendar days from a to b in the
// given location. Same day yields 0, b on the day after a yields 1.
// Negative when b precedes a. The calendar dates are re-anchored in UTC
// before subtracting, so DST days (23 or 25 hours long) still count as
// exactly one day.
func DaysBetween(a, b time.Time, loc *time.Location) int {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	start := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	end := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start).Hours() / 24)
}

// DaysSince returns max(0, whole calendar days from t to now).
func DaysSince(t, now time.Time, loc *time.Location) int {
	d := DaysBetween(t, now, loc)
	if d < 0 {
		return 0
	}
	return d
}

// UniqueDays normalizes a set of instants to their calendar days in the
// given location, deduplicates them, and returns the day starts sorted
// from oldest to newest.
func UniqueDays(instants []time.Time, loc *time.Location) []time.Time {
	if len(instants) == 0 {
		return nil
	}

	seen := make(map[string]time.Time, len(instants))
	for _, t := range instants {
		if t.IsZero() {
			continue
		}
		day := StartOfDay(t, loc)
		seen[day.Format("2006-01-02")] = day
	}

	days := make([]time.Time, 0, len(seen))
	for _, day := range seen {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].Before(days[j])
	})
	return days
}

// FormatDate formats a time as a human-readable date, e.g. "16 June 2026".
func FormatDate(t time.Time, loc *time.Location) string {
	local := t.In(loc)
	return fmt.Sprintf("%d %s %d", local.Day(), local.Month().String(), local.Year())
}

// FormatDuration formats a duration in compact human form, e.g. "2d 4h".
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}
