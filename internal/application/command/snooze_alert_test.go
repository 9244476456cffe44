package command

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arena-hub/arena-progress-hub/internal/domain/alert"
	"github.com/arena-hub/arena-progress-hub/internal/domain/shared"
)

// fakeAlertRepo хранит алерты в памяти.
type fakeAlertRepo struct {
	alerts  map[string]*alert.Alert
	updated int
}

func newFakeAlertRepo(alerts ...*alert.Alert) *fakeAlertRepo {
	repo := &fakeAlertRepo{alerts: make(map[string]*alert.Alert)}
	for _, a := range alerts {
		repo.alerts[a.ID] = a
	}
	return repo
}

func (r *fakeAlertRepo) Create(ctx context.Context, a *alert.Alert) error {
	r.alerts[a.ID] = a
	return nil
}

func (r *fakeAlertRepo) GetByID(ctx context.Context, id string) (*alert.Alert, error) {
	a, ok := r.alerts[id]
	if !ok {
		return nil, shared.ErrAlertNotFound
	}
	return a, nil
}

func (r *fakeAlertRepo) ListOpen(ctx context.Context, competitionID shared.CompetitionID) ([]*alert.Alert, error) {
	return nil, nil
}

func (r *fakeAlertRepo) ListByParticipant(ctx context.Context, participantID shared.ParticipantID) ([]*alert.Alert, error) {
	return nil, nil
}

func (r *fakeAlertRepo) ListSnoozedDue(ctx context.Context, now time.Time) ([]*alert.Alert, error) {
	return nil, nil
}

func (r *fakeAlertRepo) Update(ctx context.Context, a *alert.Alert) error {
	r.alerts[a.ID] = a
	r.updated++
	return nil
}

// failingSnoozeTracker имитирует недоступный Redis.
type failingSnoozeTracker struct {
	trackErr error
}

func (t failingSnoozeTracker) Track(ctx context.Context, alertID string, until time.Time) error {
	return t.trackErr
}

func (t failingSnoozeTracker) Untrack(ctx context.Context, alertID string) error {
	return t.trackErr
}

func (t failingSnoozeTracker) ListDue(ctx context.Context, now time.Time) ([]string, error) {
	return nil, t.trackErr
}

// capturingPublisher записывает опубликованные события.
type capturingPublisher struct {
	events []shared.Event
}

func (p *capturingPublisher) Publish(event shared.Event) error {
	p.events = append(p.events, event)
	return nil
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

func newActiveAlert(t *testing.T) *alert.Alert {
	t.Helper()
	a, err := alert.New(
		"alert-1",
		alert.CategoryInactivity,
		alert.SeverityHigh,
		"No activity for 5 days",
		"Participant has not submitted anything since Monday",
		"7c9e6679-7425-40de-944b-e07fc1f90ae7",
		"16fd2706-8baf-433b-82eb-8c7fada847da",
		time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	return a
}

func TestSnoozeAlert_Success(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	repo := newFakeAlertRepo(newActiveAlert(t))
	publisher := &capturingPublisher{}

	handler := NewSnoozeAlertHandler(repo, nil, publisher, fixedClock{now})

	result, err := handler.Handle(context.Background(), SnoozeAlertCommand{
		AlertID:  "alert-1",
		Actor:    "instructor-1",
		Duration: 24 * time.Hour,
	})
	require.NoError(t, err)

	assert.Equal(t, alert.StatusSnoozed, result.Status)
	assert.Equal(t, now.Add(24*time.Hour), result.SnoozedUntil)
	assert.Equal(t, 1, repo.updated)
	require.Len(t, publisher.events, 1)
	assert.Equal(t, shared.EventAlertSnoozed, publisher.events[0].EventType())
}

func TestSnoozeAlert_TrackerFailureIsNotFatal(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	repo := newFakeAlertRepo(newActiveAlert(t))
	publisher := &capturingPublisher{}
	tracker := failingSnoozeTracker{trackErr: errors.New("connection refused")}

	handler := NewSnoozeAlertHandler(repo, tracker, publisher, fixedClock{now})

	// Трекер недоступен, но алерт всё равно откладывается:
	// джоба пробуждения подстрахуется через ListSnoozedDue из БД.
	result, err := handler.Handle(context.Background(), SnoozeAlertCommand{
		AlertID:  "alert-1",
		Actor:    "instructor-1",
		Duration: 24 * time.Hour,
	})
	require.NoError(t, err)

	assert.Equal(t, alert.StatusSnoozed, result.Status)
	assert.Equal(t, 1, repo.updated)
	require.Len(t, publisher.events, 1)
}

func TestSnoozeAlert_DurationAboveMaximum(t *testing.T) {
	repo := newFakeAlertRepo(newActiveAlert(t))

	handler := NewSnoozeAlertHandler(repo, nil, &capturingPublisher{}, nil)

	_, err := handler.Handle(context.Background(), SnoozeAlertCommand{
		AlertID:  "alert-1",
		Actor:    "instructor-1",
		Duration: MaxSnoozeDuration + time.Hour,
	})
	require.Error(t, err)
	assert.Equal(t, 0, repo.updated)
}

func TestSnoozeAlert_SnoozedAlertCannotBeSnoozedAgain(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	a := newActiveAlert(t)
	require.NoError(t, a.Snooze(time.Hour, now))
	repo := newFakeAlertRepo(a)

	handler := NewSnoozeAlertHandler(repo, nil, &capturingPublisher{}, fixedClock{now})

	_, err := handler.Handle(context.Background(), SnoozeAlertCommand{
		AlertID:  "alert-1",
		Actor:    "instructor-1",
		Duration: time.Hour,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrStateTransition)
}
