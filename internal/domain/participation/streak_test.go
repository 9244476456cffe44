package participation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arena-hub/arena-progress-hub/internal/domain/shared"
)

func TestUpdateStreak_ConsecutiveDays(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	activity := []time.Time{
		time.Date(2026, 3, 7, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 8, 22, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 9, 1, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC),
	}

	next := UpdateStreak(StreakState{}, activity, "", now)

	assert.Equal(t, 4, next.CurrentStreak)
	assert.Equal(t, 4, next.LongestStreak)
}

func TestUpdateStreak_MultipleSubmissionsSameDay(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	activity := []time.Time{
		time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC),
	}

	next := UpdateStreak(StreakState{}, activity, "", now)

	// Несколько сабмитов в один день - один день серии.
	assert.Equal(t, 1, next.CurrentStreak)
}

func TestUpdateStreak_NoActivityTodayKeepsStreak(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	activity := []time.Time{
		time.Date(2026, 3, 8, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC),
	}

	next := UpdateStreak(StreakState{CurrentStreak: 2, LongestStreak: 2}, activity, "", now)

	// Сегодняшний день ещё не закончился: серия до вчера живёт.
	assert.Equal(t, 2, next.CurrentStreak)
}

func TestUpdateStreak_GapResetsToZero(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	activity := []time.Time{
		time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 6, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 7, 10, 0, 0, 0, time.UTC),
	}

	next := UpdateStreak(StreakState{CurrentStreak: 3, LongestStreak: 3}, activity, "", now)

	assert.Equal(t, 0, next.CurrentStreak)
	// LongestStreak монотонен: сброс текущей серии его не трогает.
	assert.Equal(t, 3, next.LongestStreak)
}

func TestUpdateStreak_LongestNeverDecreases(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	activity := []time.Time{
		time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC),
	}

	next := UpdateStreak(StreakState{CurrentStreak: 0, LongestStreak: 10}, activity, "", now)

	assert.Equal(t, 1, next.CurrentStreak)
	assert.Equal(t, 10, next.LongestStreak)
}

func TestUpdateStreak_ParticipantTimezone(t *testing.T) {
	// 23:30 5 марта в Алматы (UTC+5/+6) и 04:30 6 марта UTC -
	// один и тот же календарный день участника.
	now := time.Date(2026, 3, 6, 10, 0, 0, 0, time.UTC)
	activity := []time.Time{
		time.Date(2026, 3, 5, 18, 30, 0, 0, time.UTC), // 23:30 местного 5 марта
		time.Date(2026, 3, 5, 23, 30, 0, 0, time.UTC), // утро местного 6 марта
	}

	next := UpdateStreak(StreakState{}, activity, "Asia/Almaty", now)

	assert.Equal(t, 2, next.CurrentStreak)
}

func TestUpdateStreak_SurvivesSpringForward(t *testing.T) {
	// 8 марта 2026 в Нью-Йорке длится 23 часа. Активность 7 и 8 марта -
	// соседние календарные дни, серия не рвётся.
	now := time.Date(2026, 3, 8, 19, 0, 0, 0, time.UTC) // 15:00 EDT 8 марта
	activity := []time.Time{
		time.Date(2026, 3, 7, 23, 0, 0, 0, time.UTC), // 18:00 EST 7 марта
		time.Date(2026, 3, 8, 16, 0, 0, 0, time.UTC), // 12:00 EDT 8 марта
	}

	next := UpdateStreak(StreakState{}, activity, "America/New_York", now)

	assert.Equal(t, 2, next.CurrentStreak)
	assert.Equal(t, 2, next.LongestStreak)
}

func TestUpdateStreak_SurvivesFallBack(t *testing.T) {
	// 1 ноября 2026 длится 25 часов - тоже один календарный день.
	now := time.Date(2026, 11, 1, 20, 0, 0, 0, time.UTC) // 15:00 EST 1 ноября
	activity := []time.Time{
		time.Date(2026, 10, 31, 16, 0, 0, 0, time.UTC), // 12:00 EDT 31 октября
		time.Date(2026, 11, 1, 18, 0, 0, 0, time.UTC),  // 13:00 EST 1 ноября
	}

	next := UpdateStreak(StreakState{}, activity, "America/New_York", now)

	assert.Equal(t, 2, next.CurrentStreak)
}

func TestUpdateStreak_UnknownTimezoneFallsBackToUTC(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	activity := []time.Time{
		time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC),
	}

	next := UpdateStreak(StreakState{}, activity, "Not/AZone", now)

	assert.Equal(t, 1, next.CurrentStreak)
}

func TestUpdateStreak_NoActivity(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	next := UpdateStreak(StreakState{LongestStreak: 5}, nil, "", now)

	assert.Equal(t, 0, next.CurrentStreak)
	assert.Equal(t, 5, next.LongestStreak)
}

func TestEstimateCompletion_LinearRate(t *testing.T) {
	enrolled := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	now := time.Date(2026, 3, 6, 10, 0, 0, 0, time.UTC)

	p, err := NewParticipation("part-1", testParticipantID, "comp-1", "Alice", enrolled, "")
	require.NoError(t, err)

	estimate, err := EstimateCompletion(p, 25, now)
	require.NoError(t, err)

	// 25% за 5 календарных дней = 5%/день, осталось ceil(75/5) = 15 дней.
	assert.InDelta(t, 5.0, estimate.RatePerDay, 0.001)
	assert.Equal(t, 15, estimate.EstimatedDays)
	assert.Equal(t, now.AddDate(0, 0, 15), estimate.EstimatedCompletionAt)
}

func TestEstimateCompletion_InsufficientSignal(t *testing.T) {
	enrolled := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	now := time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)

	p, err := NewParticipation("part-1", testParticipantID, "comp-1", "Alice", enrolled, "")
	require.NoError(t, err)

	_, err = EstimateCompletion(p, 0, now)
	require.Error(t, err)
	assert.True(t, shared.IsInsufficientSignal(err))
}

func TestEstimateCompletion_EnrolledToday(t *testing.T) {
	now := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	enrolled := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	p, err := NewParticipation("part-1", testParticipantID, "comp-1", "Alice", enrolled, "")
	require.NoError(t, err)

	// daysElapsed не меньше 1: деления на ноль не происходит.
	estimate, err := EstimateCompletion(p, 10, now)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, estimate.RatePerDay, 0.001)
}

func TestEstimateCompletion_AlreadyComplete(t *testing.T) {
	enrolled := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

	p, err := NewParticipation("part-1", testParticipantID, "comp-1", "Alice", enrolled, "")
	require.NoError(t, err)

	estimate, err := EstimateCompletion(p, 100, now)
	require.NoError(t, err)
	assert.Equal(t, 0, estimate.EstimatedDays)
	assert.Equal(t, now, estimate.EstimatedCompletionAt)
}
