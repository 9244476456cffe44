package intervention

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arena-hub/arena-progress-hub/internal/domain/shared"
)

func completedWith(t *testing.T, id string, effectiveness int) *Intervention {
	t.Helper()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	i, err := New(id, "participant-1", "comp-1", TypeCheckIn, "T", "", PriorityLow, "instr", now, Metrics{}, now)
	require.NoError(t, err)
	require.NoError(t, i.Start(now))
	require.NoError(t, i.Complete("done", shared.Effectiveness(effectiveness), nil, now))
	return i
}

func TestOverdue(t *testing.T) {
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

	i := newTestIntervention(t) // scheduled 3 марта
	assert.True(t, Overdue(i, now))
	assert.False(t, Overdue(i, time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)))

	// Начатая интервенция не просрочена.
	require.NoError(t, i.Start(now))
	assert.False(t, Overdue(i, now))
	assert.False(t, Overdue(nil, now))
}

func TestFollowUpDue(t *testing.T) {
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

	i := newTestIntervention(t)
	assert.False(t, FollowUpDue(i, now))

	require.NoError(t, i.RequireFollowUp(time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)))
	assert.True(t, FollowUpDue(i, now))

	require.NoError(t, i.RequireFollowUp(time.Date(2026, 3, 12, 10, 0, 0, 0, time.UTC)))
	assert.False(t, FollowUpDue(i, now))
}

func TestSuccessRate(t *testing.T) {
	// Пусто - 0%, не NaN.
	assert.Equal(t, 0.0, SuccessRate(nil).Float64())

	interventions := []*Intervention{
		completedWith(t, "i-1", 5),
		completedWith(t, "i-2", 4),
		completedWith(t, "i-3", 2),
		newTestIntervention(t), // planned, не учитывается
		nil,
	}

	rate := SuccessRate(interventions)
	assert.InDelta(t, 66.66, rate.Float64(), 0.1)
}

func TestCountByStatus(t *testing.T) {
	now := time.Now()
	cancelled := newTestIntervention(t)
	require.NoError(t, cancelled.Cancel("x", now))

	counts := CountByStatus([]*Intervention{
		newTestIntervention(t),
		completedWith(t, "i-1", 4),
		cancelled,
		nil,
	})

	assert.Equal(t, 1, counts[StatusPlanned])
	assert.Equal(t, 1, counts[StatusCompleted])
	assert.Equal(t, 1, counts[StatusCancelled])
	assert.Equal(t, 0, counts[StatusInProgress])
}

func TestWorkflowSuggestions_Deterministic(t *testing.T) {
	now := time.Date(2026, 3, 20, 10, 0, 0, 0, time.UTC)

	stale := newTestIntervention(t)
	require.NoError(t, stale.Start(now.AddDate(0, 0, -20)))

	interventions := []*Intervention{
		newTestIntervention(t), // overdue (scheduled 3 марта)
		stale,
		completedWith(t, "i-1", 2),
		completedWith(t, "i-2", 2),
		completedWith(t, "i-3", 3),
	}

	first := WorkflowSuggestions(interventions, now)
	second := WorkflowSuggestions(interventions, now)
	assert.Equal(t, first, second)

	metrics := make([]string, 0, len(first))
	for _, s := range first {
		metrics = append(metrics, s.TriggeringMetric)
	}
	// Порядок правил фиксирован: просрочка, зависшие, низкий success rate.
	assert.Equal(t, []string{"overdue_count", "stale_in_progress_count", "success_rate"}, metrics)
}

func TestWorkflowSuggestions_QuietPortfolio(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	interventions := []*Intervention{
		newTestIntervention(t), // scheduled 3 марта, ещё не просрочена
		completedWith(t, "i-1", 5),
	}

	assert.Empty(t, WorkflowSuggestions(interventions, now))
}
