package command

import (
	"context"
	"time"

	"github.com/arena-hub/arena-progress-hub/internal/domain/alert"
	"github.com/arena-hub/arena-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// WAKE SNOOZED ALERTS COMMAND
// Возвращает отложенные алерты с истёкшим сроком в active.
// Запускается джобой: сами алерты таймеров не держат.
// ══════════════════════════════════════════════════════════════════════════════

// wakeActor подписывает системные переходы в журнале событий.
const wakeActor = shared.Actor("job:expire_snoozes")

// WakeSnoozedAlertsCommand wakes all snoozed alerts whose deadline passed.
type WakeSnoozedAlertsCommand struct {
	// CorrelationID for tracing.
	CorrelationID string
}

// WakeSnoozedAlertsResult contains the outcome of a wake sweep.
type WakeSnoozedAlertsResult struct {
	// Checked is the number of due alerts inspected.
	Checked int

	// Woken is the number of alerts returned to active.
	Woken int

	// SweptAt is when the sweep ran.
	SweptAt time.Time
}

// WakeSnoozedAlertsHandler handles the WakeSnoozedAlertsCommand.
type WakeSnoozedAlertsHandler struct {
	alertRepo      alert.Repository
	snoozeTracker  alert.SnoozeTracker
	eventPublisher shared.EventPublisher
	clock          shared.Clock
}

// NewWakeSnoozedAlertsHandler creates a new WakeSnoozedAlertsHandler.
func NewWakeSnoozedAlertsHandler(
	alertRepo alert.Repository,
	snoozeTracker alert.SnoozeTracker,
	eventPublisher shared.EventPublisher,
	clock shared.Clock,
) *WakeSnoozedAlertsHandler {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &WakeSnoozedAlertsHandler{
		alertRepo:      alertRepo,
		snoozeTracker:  snoozeTracker,
		eventPublisher: eventPublisher,
		clock:          clock,
	}
}

// Handle executes the wake sweep. The database list is authoritative;
// the tracker is only cleaned up afterwards.
func (h *WakeSnoozedAlertsHandler) Handle(ctx context.Context, cmd WakeSnoozedAlertsCommand) (*WakeSnoozedAlertsResult, error) {
	now := h.clock.Now()

	due, err := h.alertRepo.ListSnoozedDue(ctx, now)
	if err != nil {
		return nil, shared.WrapError("alert", "WakeSnoozedAlerts", shared.ErrExternalService,
			"failed to list due alerts", err)
	}

	result := &WakeSnoozedAlertsResult{
		Checked: len(due),
		SweptAt: now,
	}

	for _, a := range due {
		if !a.WakeIfExpired(now) {
			continue
		}
		if err := h.alertRepo.Update(ctx, a); err != nil {
			// Конфликт версии или сбой хранилища: алерт подберёт следующий проход.
			continue
		}
		if h.snoozeTracker != nil {
			_ = h.snoozeTracker.Untrack(ctx, a.ID)
		}

		event := shared.NewAlertTransitionedEvent(
			shared.EventAlertWoken, a.ID,
			alert.StatusSnoozed.String(), a.Status.String(), wakeActor.String())
		if cmd.CorrelationID != "" {
			event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
		}
		_ = h.eventPublisher.Publish(event)

		result.Woken++
	}

	return result, nil
}
