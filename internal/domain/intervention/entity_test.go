package intervention

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arena-hub/arena-progress-hub/internal/domain/shared"
)

func newTestIntervention(t *testing.T) *Intervention {
	t.Helper()
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	i, err := New("int-1", "participant-1", "comp-1", TypeCheckIn,
		"Weekly check-in", "Talk through blockers", PriorityHigh,
		"instructor-1", created.AddDate(0, 0, 2),
		Metrics{PerformanceBefore: 40, EngagementBefore: 30, RiskScoreBefore: 70},
		created)
	require.NoError(t, err)
	return i
}

func TestNew_Validation(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	_, err := New("", "p", "c", TypeCheckIn, "T", "", PriorityLow, "i", now, Metrics{}, now)
	assert.Error(t, err)

	_, err = New("int-1", "", "c", TypeCheckIn, "T", "", PriorityLow, "i", now, Metrics{}, now)
	assert.Error(t, err)

	_, err = New("int-1", "p", "c", TypeCheckIn, "  ", "", PriorityLow, "i", now, Metrics{}, now)
	assert.Error(t, err)

	_, err = New("int-1", "p", "c", TypeCheckIn, "T", "", "loud", "i", now, Metrics{}, now)
	assert.Error(t, err)

	_, err = New("int-1", "p", "c", TypeCheckIn, "T", "", PriorityLow, "", now, Metrics{}, now)
	assert.Error(t, err)
}

func TestLifecycle_HappyPath(t *testing.T) {
	i := newTestIntervention(t)
	started := time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC)
	completed := started.AddDate(0, 0, 3)

	require.NoError(t, i.Start(started))
	assert.Equal(t, StatusInProgress, i.Status)
	assert.Equal(t, started, i.StartedAt)

	require.NoError(t, i.Complete("Participant re-engaged", 4, nil, completed))
	assert.Equal(t, StatusCompleted, i.Status)
	assert.Equal(t, "Participant re-engaged", i.Outcome)
	assert.True(t, i.IsSuccessful())
}

func TestComplete_RequiresInProgress(t *testing.T) {
	i := newTestIntervention(t)

	err := i.Complete("done", 4, nil, time.Now())
	require.Error(t, err)
	assert.True(t, shared.IsStateTransition(err))
	assert.Equal(t, StatusPlanned, i.Status)
}

func TestComplete_EffectivenessBounds(t *testing.T) {
	i := newTestIntervention(t)
	require.NoError(t, i.Start(time.Now()))

	err := i.Complete("done", 0, nil, time.Now())
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))

	err = i.Complete("done", 6, nil, time.Now())
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))

	err = i.Complete("  ", 4, nil, time.Now())
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
}

func TestCancel_FromPlannedAndInProgress(t *testing.T) {
	now := time.Now()

	planned := newTestIntervention(t)
	require.NoError(t, planned.Cancel("participant withdrew", now))
	assert.Equal(t, StatusCancelled, planned.Status)
	assert.Equal(t, "participant withdrew", planned.CancelReason)

	inProgress := newTestIntervention(t)
	require.NoError(t, inProgress.Start(now))
	require.NoError(t, inProgress.Cancel("no longer needed", now))
	assert.Equal(t, StatusCancelled, inProgress.Status)
}

func TestTerminalIsImmutable(t *testing.T) {
	now := time.Now()

	i := newTestIntervention(t)
	require.NoError(t, i.Start(now))
	require.NoError(t, i.Complete("done", 3, nil, now))

	assert.Error(t, i.Start(now))
	assert.Error(t, i.Cancel("late cancel", now))

	cancelled := newTestIntervention(t)
	require.NoError(t, cancelled.Cancel("obsolete", now))
	assert.Error(t, cancelled.Start(now))
	err := cancelled.AddNote(Note{ID: "n-1", Text: "late note", Author: "i", Timestamp: now})
	require.Error(t, err)
	assert.True(t, shared.IsStateTransition(err))
}

func TestLinearDeltaPolicy(t *testing.T) {
	before := Metrics{PerformanceBefore: 40, EngagementBefore: 30, RiskScoreBefore: 70}

	// Оценка 3 - нейтральная: сдвига нет.
	after := LinearDeltaPolicy{}.Apply(before, 3)
	assert.Equal(t, 40.0, after.PerformanceAfter)
	assert.Equal(t, 30.0, after.EngagementAfter)
	assert.Equal(t, 70.0, after.RiskScoreAfter)

	// Оценка 5: +10 к показателям, -10 к риску (шаг по умолчанию 5).
	after = LinearDeltaPolicy{}.Apply(before, 5)
	assert.Equal(t, 50.0, after.PerformanceAfter)
	assert.Equal(t, 40.0, after.EngagementAfter)
	assert.Equal(t, 60.0, after.RiskScoreAfter)

	// Оценка 1: сдвиг в обратную сторону.
	after = LinearDeltaPolicy{}.Apply(before, 1)
	assert.Equal(t, 30.0, after.PerformanceAfter)
	assert.Equal(t, 80.0, after.RiskScoreAfter)
}

func TestLinearDeltaPolicy_Clamps(t *testing.T) {
	before := Metrics{PerformanceBefore: 95, EngagementBefore: 2, RiskScoreBefore: 3}

	after := LinearDeltaPolicy{StepPerPoint: 10}.Apply(before, 5)
	assert.Equal(t, 100.0, after.PerformanceAfter)
	assert.Equal(t, 0.0, after.RiskScoreAfter)

	after = LinearDeltaPolicy{StepPerPoint: 10}.Apply(before, 1)
	assert.Equal(t, 0.0, after.EngagementAfter)
}

func TestComplete_CustomDeltaPolicy(t *testing.T) {
	i := newTestIntervention(t)
	require.NoError(t, i.Start(time.Now()))

	require.NoError(t, i.Complete("done", 5, LinearDeltaPolicy{StepPerPoint: 1}, time.Now()))
	assert.Equal(t, 42.0, i.Metrics.PerformanceAfter)
	assert.Equal(t, 68.0, i.Metrics.RiskScoreAfter)
}

func TestRequireFollowUp(t *testing.T) {
	i := newTestIntervention(t)

	assert.Error(t, i.RequireFollowUp(time.Time{}))

	date := time.Date(2026, 3, 20, 10, 0, 0, 0, time.UTC)
	require.NoError(t, i.RequireFollowUp(date))
	assert.True(t, i.FollowUpRequired)
	assert.Equal(t, date, i.FollowUpDate)
}

func TestAddNote(t *testing.T) {
	i := newTestIntervention(t)
	now := time.Now()

	assert.Error(t, i.AddNote(Note{Text: "x", Author: "i", Timestamp: now}))
	assert.Error(t, i.AddNote(Note{ID: "n-1", Text: "  ", Author: "i", Timestamp: now}))

	require.NoError(t, i.AddNote(Note{ID: "n-1", Text: "first contact", Author: "i", Timestamp: now}))
	require.NoError(t, i.AddNote(Note{ID: "n-2", Text: "second contact", Author: "i", Timestamp: now}))
	require.Len(t, i.Notes, 2)
	assert.Equal(t, "n-1", i.Notes[0].ID)
}
