package alert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arena-hub/arena-progress-hub/internal/domain/shared"
)

func newTestAlert(t *testing.T) *Alert {
	t.Helper()
	a, err := New("alert-1", CategoryInactivity, SeverityHigh,
		"No activity for 7 days", "Participant has not submitted anything in a week",
		"participant-1", "comp-1", time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return a
}

func TestNew_Validation(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	_, err := New("", CategoryInactivity, SeverityHigh, "T", "", "p", "c", at)
	assert.Error(t, err)

	_, err = New("a-1", CategoryInactivity, "loud", "T", "", "p", "c", at)
	assert.Error(t, err)

	_, err = New("a-1", CategoryInactivity, SeverityHigh, "   ", "", "p", "c", at)
	assert.Error(t, err)

	a, err := New("a-1", CategorySystem, SeverityInfo, "T", "", "", "c", at)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, a.Status)
	assert.True(t, a.IsOpen())
}

func TestAcknowledgeThenResolve(t *testing.T) {
	a := newTestAlert(t)
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	require.NoError(t, a.Acknowledge("instructor-1", now))
	assert.Equal(t, StatusAcknowledged, a.Status)
	assert.Equal(t, shared.Actor("instructor-1"), a.AcknowledgedBy)

	require.NoError(t, a.Resolve("instructor-1", "Contacted, back on track", now.Add(time.Hour)))
	assert.Equal(t, StatusResolved, a.Status)
	assert.Equal(t, "Contacted, back on track", a.Resolution)
	assert.False(t, a.IsOpen())
}

func TestResolve_RequiresAcknowledged(t *testing.T) {
	a := newTestAlert(t)
	now := time.Now()

	// Из active сразу в resolved нельзя.
	err := a.Resolve("instructor-1", "done", now)
	require.Error(t, err)
	assert.True(t, shared.IsStateTransition(err))
	assert.Equal(t, StatusActive, a.Status)
}

func TestResolve_RequiresResolutionText(t *testing.T) {
	a := newTestAlert(t)
	now := time.Now()
	require.NoError(t, a.Acknowledge("instructor-1", now))

	err := a.Resolve("instructor-1", "   ", now)
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
	assert.Equal(t, StatusAcknowledged, a.Status)
}

func TestSnoozeAndWake(t *testing.T) {
	a := newTestAlert(t)
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	require.NoError(t, a.Snooze(48*time.Hour, now))
	assert.Equal(t, StatusSnoozed, a.Status)
	assert.Equal(t, now.Add(48*time.Hour), a.SnoozedUntil)

	// Срок ещё не истёк.
	assert.False(t, a.WakeIfExpired(now.Add(time.Hour)))
	assert.Equal(t, StatusSnoozed, a.Status)

	// Срок истёк: возврат в active.
	assert.True(t, a.WakeIfExpired(now.Add(49*time.Hour)))
	assert.Equal(t, StatusActive, a.Status)
	assert.True(t, a.SnoozedUntil.IsZero())

	// Повторное пробуждение - no-op.
	assert.False(t, a.WakeIfExpired(now.Add(50*time.Hour)))
}

func TestSnooze_OnlyFromActive(t *testing.T) {
	a := newTestAlert(t)
	now := time.Now()
	require.NoError(t, a.Acknowledge("instructor-1", now))

	err := a.Snooze(time.Hour, now)
	require.Error(t, err)
	assert.True(t, shared.IsStateTransition(err))
}

func TestAcknowledge_NotFromSnoozed(t *testing.T) {
	a := newTestAlert(t)
	now := time.Now()
	require.NoError(t, a.Snooze(time.Hour, now))

	err := a.Acknowledge("instructor-1", now)
	require.Error(t, err)
	assert.True(t, shared.IsStateTransition(err))
}

func TestAddAction_AppendOnly(t *testing.T) {
	a := newTestAlert(t)
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	require.NoError(t, a.AddAction(Action{
		ID: "act-1", Type: ActionComment, Description: "Reached out via chat",
		Author: "instructor-1", Timestamp: now,
	}))
	require.NoError(t, a.Acknowledge("instructor-1", now))
	require.NoError(t, a.AddAction(Action{
		ID: "act-2", Type: ActionContacted, Description: "Call scheduled",
		Author: "instructor-1", Timestamp: now.Add(time.Hour),
	}))

	require.Len(t, a.Actions, 2)
	assert.Equal(t, "act-1", a.Actions[0].ID)
	assert.Equal(t, "act-2", a.Actions[1].ID)
}

func TestAddAction_Validation(t *testing.T) {
	a := newTestAlert(t)
	now := time.Now()

	assert.Error(t, a.AddAction(Action{Type: ActionComment, Description: "x", Author: "i", Timestamp: now}))
	assert.Error(t, a.AddAction(Action{ID: "act-1", Type: ActionComment, Description: "  ", Author: "i", Timestamp: now}))
	assert.Error(t, a.AddAction(Action{ID: "act-1", Type: ActionComment, Description: "x", Timestamp: now}))
}

func TestResolvedIsImmutable(t *testing.T) {
	a := newTestAlert(t)
	now := time.Now()
	require.NoError(t, a.Acknowledge("instructor-1", now))
	require.NoError(t, a.Resolve("instructor-1", "done", now))

	assert.Error(t, a.Snooze(time.Hour, now))
	assert.Error(t, a.Acknowledge("instructor-2", now))
	err := a.AddAction(Action{ID: "act-1", Type: ActionComment, Description: "late note", Author: "i", Timestamp: now})
	require.Error(t, err)
	assert.True(t, shared.IsStateTransition(err))
}

func TestSeverityWeight(t *testing.T) {
	assert.Greater(t, SeverityCritical.Weight(), SeverityHigh.Weight())
	assert.Greater(t, SeverityHigh.Weight(), SeverityMedium.Weight())
	assert.Greater(t, SeverityMedium.Weight(), SeverityLow.Weight())
	assert.Greater(t, SeverityLow.Weight(), SeverityInfo.Weight())
}
