package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/arena-hub/arena-progress-hub/internal/domain/alert"
	"github.com/arena-hub/arena-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SNOOZE ALERT COMMAND
// Откладывает алерт: active → snoozed. Срок регистрируется в трекере;
// обратный переход snoozed → active выполняет джоба пробуждения.
// ══════════════════════════════════════════════════════════════════════════════

// MaxSnoozeDuration ограничивает срок откладывания алерта.
const MaxSnoozeDuration = 30 * 24 * time.Hour

// SnoozeAlertCommand contains the data to snooze an alert.
type SnoozeAlertCommand struct {
	// AlertID is the alert to snooze.
	AlertID string

	// Actor is the instructor snoozing the alert.
	Actor shared.Actor

	// Duration is how long to snooze for. Must be positive.
	Duration time.Duration

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c SnoozeAlertCommand) Validate() error {
	if c.AlertID == "" {
		return errors.New("snooze_alert: alert_id is required")
	}
	if !c.Actor.IsValid() {
		return errors.New("snooze_alert: actor is required")
	}
	if c.Duration <= 0 {
		return errors.New("snooze_alert: duration must be positive")
	}
	if c.Duration > MaxSnoozeDuration {
		return fmt.Errorf("snooze_alert: duration exceeds maximum of %s", MaxSnoozeDuration)
	}
	return nil
}

// SnoozeAlertResult contains the result of snoozing an alert.
type SnoozeAlertResult struct {
	// AlertID is the snoozed alert.
	AlertID string

	// Status is the alert status after the transition.
	Status alert.Status

	// SnoozedUntil is when the alert wakes up.
	SnoozedUntil time.Time
}

// SnoozeAlertHandler handles the SnoozeAlertCommand.
type SnoozeAlertHandler struct {
	alertRepo      alert.Repository
	snoozeTracker  alert.SnoozeTracker
	eventPublisher shared.EventPublisher
	clock          shared.Clock
}

// NewSnoozeAlertHandler creates a new SnoozeAlertHandler.
func NewSnoozeAlertHandler(
	alertRepo alert.Repository,
	snoozeTracker alert.SnoozeTracker,
	eventPublisher shared.EventPublisher,
	clock shared.Clock,
) *SnoozeAlertHandler {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &SnoozeAlertHandler{
		alertRepo:      alertRepo,
		snoozeTracker:  snoozeTracker,
		eventPublisher: eventPublisher,
		clock:          clock,
	}
}

// Handle executes the snooze alert command.
func (h *SnoozeAlertHandler) Handle(ctx context.Context, cmd SnoozeAlertCommand) (*SnoozeAlertResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("snooze_alert: validation failed: %w", err)
	}

	a, err := h.alertRepo.GetByID(ctx, cmd.AlertID)
	if err != nil {
		return nil, fmt.Errorf("snooze_alert: failed to get alert: %w", err)
	}

	from := a.Status
	now := h.clock.Now()

	if err := a.Snooze(cmd.Duration, now); err != nil {
		return nil, err
	}

	if err := h.alertRepo.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("snooze_alert: failed to update alert: %w", err)
	}

	// Регистрируем срок: джоба пробуждения опрашивает трекер.
	if h.snoozeTracker != nil {
		if err := h.snoozeTracker.Track(ctx, a.ID, a.SnoozedUntil); err != nil {
			// Не критично: ListSnoozedDue из БД подстрахует.
			slog.Warn("snooze tracker unavailable, falling back to repository polling",
				"alert_id", a.ID,
				"error", err,
			)
		}
	}

	event := shared.NewAlertTransitionedEvent(
		shared.EventAlertSnoozed, a.ID, from.String(), a.Status.String(), cmd.Actor.String())
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(event)

	return &SnoozeAlertResult{
		AlertID:      a.ID,
		Status:       a.Status,
		SnoozedUntil: a.SnoozedUntil,
	}, nil
}
