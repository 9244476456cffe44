package participation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arena-hub/arena-progress-hub/internal/domain/shared"
)

const testParticipantID = "7c9e6679-7425-40de-944b-e07fc1f90ae7"

func newTestParticipation(t *testing.T) *Participation {
	t.Helper()
	p, err := NewParticipation("part-1", testParticipantID, "comp-1", "Alice",
		time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), "Asia/Almaty")
	require.NoError(t, err)
	return p
}

func TestNewParticipation_Validation(t *testing.T) {
	enrolled := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	_, err := NewParticipation("", testParticipantID, "comp-1", "Alice", enrolled, "")
	assert.Error(t, err)

	_, err = NewParticipation("part-1", "not-a-uuid", "comp-1", "Alice", enrolled, "")
	assert.Error(t, err)

	_, err = NewParticipation("part-1", testParticipantID, "comp-1", "Alice", time.Time{}, "")
	assert.Error(t, err)

	p, err := NewParticipation("part-1", testParticipantID, "comp-1", "Alice", enrolled, "")
	require.NoError(t, err)
	assert.Equal(t, StatusActive, p.Status)
	assert.Equal(t, 1, p.Version)
}

func TestRecordCompletion_AccumulatesScore(t *testing.T) {
	p := newTestParticipation(t)
	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	require.NoError(t, p.RecordCompletion("req-1", 40, at))
	require.NoError(t, p.RecordCompletion("req-2", 60, at))

	assert.Equal(t, shared.Score(100), p.TotalScore)
	assert.Len(t, p.CompletionEvents, 2)
	assert.True(t, p.HasCompleted("req-1"))
	assert.False(t, p.HasCompleted("req-3"))
}

func TestRecordCompletion_Idempotent(t *testing.T) {
	p := newTestParticipation(t)
	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	require.NoError(t, p.RecordCompletion("req-1", 40, at))
	// Повторный зачёт не дублирует событие и не начисляет баллы.
	require.NoError(t, p.RecordCompletion("req-1", 40, at))

	assert.Equal(t, shared.Score(40), p.TotalScore)
	assert.Len(t, p.CompletionEvents, 1)
}

func TestRecordCompletion_TerminalIsImmutable(t *testing.T) {
	p := newTestParticipation(t)
	require.NoError(t, p.Close(StatusWithdrawn))

	err := p.RecordCompletion("req-1", 40, time.Now())
	require.Error(t, err)
	assert.True(t, shared.IsStateTransition(err))
}

func TestClose_Transitions(t *testing.T) {
	p := newTestParticipation(t)

	// active нельзя закрыть в active.
	assert.Error(t, p.Close(StatusActive))

	require.NoError(t, p.Close(StatusCompleted))
	assert.Equal(t, StatusCompleted, p.Status)
	assert.True(t, p.IsTerminal())

	// Терминальный статус менять нельзя.
	err := p.Close(StatusWithdrawn)
	require.Error(t, err)
	assert.True(t, shared.IsStateTransition(err))
}

func TestAssignRank(t *testing.T) {
	p := newTestParticipation(t)

	assert.Error(t, p.AssignRank(-1))
	require.NoError(t, p.AssignRank(3))
	assert.Equal(t, 3, p.Rank)
}

func TestDaysSinceEnrollment_MinimumOne(t *testing.T) {
	p := newTestParticipation(t)

	sameDay := time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, p.DaysSinceEnrollment(sameDay))

	later := time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, 10, p.DaysSinceEnrollment(later))
}
