package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaysBetween_SameDay(t *testing.T) {
	a := time.Date(2026, 3, 10, 1, 0, 0, 0, time.UTC)
	b := time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, DaysBetween(a, b, time.UTC))
}

func TestDaysBetween_ConsecutiveDays(t *testing.T) {
	a := time.Date(2026, 3, 9, 23, 30, 0, 0, time.UTC)
	b := time.Date(2026, 3, 10, 0, 30, 0, 0, time.UTC)

	// Час разницы, но календарные дни разные.
	assert.Equal(t, 1, DaysBetween(a, b, time.UTC))
}

func TestDaysBetween_Negative(t *testing.T) {
	a := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	b := time.Date(2026, 3, 8, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, -2, DaysBetween(a, b, time.UTC))
	assert.Equal(t, 0, DaysSince(a, b, time.UTC))
}

func TestDaysBetween_SpringForwardDay(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 8 марта 2026 в Нью-Йорке длится 23 часа: перевод на летнее время.
	a := time.Date(2026, 3, 7, 12, 0, 0, 0, ny)
	b := time.Date(2026, 3, 8, 12, 0, 0, 0, ny)
	assert.Equal(t, 1, DaysBetween(a, b, ny))

	// Два календарных дня через укороченный день.
	c := time.Date(2026, 3, 6, 12, 0, 0, 0, ny)
	assert.Equal(t, 2, DaysBetween(c, b, ny))
}

func TestDaysBetween_FallBackDay(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 1 ноября 2026 длится 25 часов: возврат на зимнее время.
	a := time.Date(2026, 10, 31, 12, 0, 0, 0, ny)
	b := time.Date(2026, 11, 1, 12, 0, 0, 0, ny)
	assert.Equal(t, 1, DaysBetween(a, b, ny))
}

func TestSameDay_AcrossLocations(t *testing.T) {
	almaty, err := time.LoadLocation("Asia/Almaty")
	require.NoError(t, err)

	// 23:30 UTC 5 марта - уже 6 марта по Алматы (UTC+5).
	a := time.Date(2026, 3, 5, 23, 30, 0, 0, time.UTC)
	b := time.Date(2026, 3, 6, 4, 0, 0, 0, time.UTC)

	assert.False(t, SameDay(a, b, time.UTC))
	assert.True(t, SameDay(a, b, almaty))
}

func TestUniqueDays_DedupesAndSorts(t *testing.T) {
	instants := []time.Time{
		time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 8, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC),
		{},
	}

	days := UniqueDays(instants, time.UTC)

	require.Len(t, days, 2)
	assert.Equal(t, time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC), days[0])
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), days[1])
}

func TestLoadLocation_Fallbacks(t *testing.T) {
	assert.Equal(t, time.UTC, LoadLocation(""))
	assert.Equal(t, time.UTC, LoadLocation("Not/AZone"))
	assert.Equal(t, "Asia/Almaty", LoadLocation("Asia/Almaty").String())
}
