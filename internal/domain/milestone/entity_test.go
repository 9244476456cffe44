package milestone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arena-hub/arena-progress-hub/internal/domain/shared"
)

func mustMilestone(t *testing.T, id string, target int, points shared.Score) *Milestone {
	t.Helper()
	m, err := NewMilestone(id, "part-1", "Milestone "+id, "approved_pull_requests", target, points)
	require.NoError(t, err)
	return m
}

func TestNewMilestone_Validation(t *testing.T) {
	_, err := NewMilestone("", "part-1", "T", "m", 5, 10)
	assert.Error(t, err)

	_, err = NewMilestone("m-1", "part-1", "T", "m", 0, 10)
	assert.Error(t, err)

	_, err = NewMilestone("m-1", "part-1", "T", "m", 5, -1)
	assert.Error(t, err)
}

func TestEvaluate_AchievesOnce(t *testing.T) {
	eval := NewEvaluator(nil)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	m := mustMilestone(t, "m-1", 4, 50)
	snapshot := ActivitySnapshot{
		ParticipantID: "participant-1",
		Metrics:       map[string]int{"approved_pull_requests": 4},
		TakenAt:       now,
	}

	result := eval.Evaluate([]*Milestone{m}, snapshot, now)
	require.Len(t, result.NewlyAchieved, 1)
	assert.True(t, m.Achieved)
	assert.Equal(t, now, m.AchievedAt)

	// Повторный пересчёт не даёт нового достижения.
	later := now.Add(time.Hour)
	result = eval.Evaluate([]*Milestone{m}, snapshot, later)
	assert.Empty(t, result.NewlyAchieved)
	assert.Equal(t, now, m.AchievedAt)
}

func TestEvaluate_AchievedNeverRegresses(t *testing.T) {
	eval := NewEvaluator(nil)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	m := mustMilestone(t, "m-1", 4, 50)
	m.Achieved = true
	m.AchievedAt = now.Add(-24 * time.Hour)
	m.CurrentValue = 4

	// Метрика просела (revert в репозитории), но веха остаётся достигнутой.
	snapshot := ActivitySnapshot{Metrics: map[string]int{"approved_pull_requests": 2}}
	result := eval.Evaluate([]*Milestone{m}, snapshot, now)

	assert.Empty(t, result.NewlyAchieved)
	assert.True(t, m.Achieved)
	assert.Equal(t, 4, m.CurrentValue)
	assert.Equal(t, shared.Percent(100), m.Progress())
}

func TestEvaluate_BelowTargetUpdatesValue(t *testing.T) {
	eval := NewEvaluator(nil)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	m := mustMilestone(t, "m-1", 4, 50)
	snapshot := ActivitySnapshot{Metrics: map[string]int{"approved_pull_requests": 3}}

	result := eval.Evaluate([]*Milestone{m}, snapshot, now)

	assert.Empty(t, result.NewlyAchieved)
	assert.False(t, m.Achieved)
	assert.Equal(t, 3, m.CurrentValue)
	assert.Equal(t, 1, m.Remaining())
	assert.InDelta(t, 75.0, m.Progress().Float64(), 0.001)
}

func TestEvaluate_MissingMetricIsZero(t *testing.T) {
	eval := NewEvaluator(nil)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	m := mustMilestone(t, "m-1", 4, 50)
	m.CurrentValue = 2

	result := eval.Evaluate([]*Milestone{m}, ActivitySnapshot{}, now)

	assert.Empty(t, result.NewlyAchieved)
	assert.Equal(t, 0, m.CurrentValue)
}

func TestEvaluate_CustomValuePolicy(t *testing.T) {
	// Политика значений подставляется снаружи: здесь - удвоение метрики.
	doubled := func(m *Milestone, s ActivitySnapshot) int {
		return s.Value(m.Metric) * 2
	}
	eval := NewEvaluator(doubled)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	m := mustMilestone(t, "m-1", 4, 50)
	snapshot := ActivitySnapshot{Metrics: map[string]int{"approved_pull_requests": 2}}

	result := eval.Evaluate([]*Milestone{m}, snapshot, now)

	require.Len(t, result.NewlyAchieved, 1)
	assert.Equal(t, 4, m.CurrentValue)
}

func TestSortForDisplay(t *testing.T) {
	achieved := mustMilestone(t, "m-achieved", 4, 10)
	achieved.Achieved = true
	achieved.CurrentValue = 4

	high := mustMilestone(t, "m-high", 10, 20)
	high.CurrentValue = 8 // 80%

	low := mustMilestone(t, "m-low", 10, 90)
	low.CurrentValue = 2 // 20%

	tiedA := mustMilestone(t, "m-tied-a", 10, 30)
	tiedA.CurrentValue = 5 // 50%
	tiedB := mustMilestone(t, "m-tied-b", 10, 60)
	tiedB.CurrentValue = 5 // 50%, но больше баллов

	milestones := []*Milestone{low, tiedA, high, achieved, tiedB}
	SortForDisplay(milestones)

	assert.Equal(t, "m-achieved", milestones[0].ID)
	assert.Equal(t, "m-high", milestones[1].ID)
	assert.Equal(t, "m-tied-b", milestones[2].ID)
	assert.Equal(t, "m-tied-a", milestones[3].ID)
	assert.Equal(t, "m-low", milestones[4].ID)
}
