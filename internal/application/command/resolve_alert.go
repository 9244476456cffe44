package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/arena-hub/arena-progress-hub/internal/domain/alert"
	"github.com/arena-hub/arena-progress-hub/internal/domain/notification"
	"github.com/arena-hub/arena-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESOLVE ALERT COMMAND
// Закрывает принятый в работу алерт: acknowledged → resolved.
// Resolved терминален; переход требует непустой текст резолюции.
// ══════════════════════════════════════════════════════════════════════════════

// ResolveAlertCommand contains the data to resolve an alert.
type ResolveAlertCommand struct {
	// AlertID is the alert to resolve.
	AlertID string

	// Actor is the instructor resolving the alert.
	Actor shared.Actor

	// Resolution describes what was done. Must be non-empty.
	Resolution string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c ResolveAlertCommand) Validate() error {
	if c.AlertID == "" {
		return errors.New("resolve_alert: alert_id is required")
	}
	if !c.Actor.IsValid() {
		return errors.New("resolve_alert: actor is required")
	}
	if strings.TrimSpace(c.Resolution) == "" {
		return errors.New("resolve_alert: resolution text is required")
	}
	return nil
}

// ResolveAlertResult contains the result of resolving an alert.
type ResolveAlertResult struct {
	// AlertID is the resolved alert.
	AlertID string

	// Status is the alert status after the transition.
	Status alert.Status

	// ResolvedAt is when the transition happened.
	ResolvedAt time.Time
}

// ResolveAlertHandler handles the ResolveAlertCommand.
type ResolveAlertHandler struct {
	alertRepo      alert.Repository
	snoozeTracker  alert.SnoozeTracker
	sender         notification.Sender
	eventPublisher shared.EventPublisher
	clock          shared.Clock
}

// NewResolveAlertHandler creates a new ResolveAlertHandler.
// sender может быть nil: тогда уведомление участнику не отправляется.
func NewResolveAlertHandler(
	alertRepo alert.Repository,
	snoozeTracker alert.SnoozeTracker,
	sender notification.Sender,
	eventPublisher shared.EventPublisher,
	clock shared.Clock,
) *ResolveAlertHandler {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &ResolveAlertHandler{
		alertRepo:      alertRepo,
		snoozeTracker:  snoozeTracker,
		sender:         sender,
		eventPublisher: eventPublisher,
		clock:          clock,
	}
}

// Handle executes the resolve alert command.
func (h *ResolveAlertHandler) Handle(ctx context.Context, cmd ResolveAlertCommand) (*ResolveAlertResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("resolve_alert: validation failed: %w", err)
	}

	a, err := h.alertRepo.GetByID(ctx, cmd.AlertID)
	if err != nil {
		return nil, fmt.Errorf("resolve_alert: failed to get alert: %w", err)
	}

	from := a.Status
	now := h.clock.Now()

	if err := a.Resolve(cmd.Actor, cmd.Resolution, now); err != nil {
		return nil, err
	}

	if err := h.alertRepo.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("resolve_alert: failed to update alert: %w", err)
	}

	// Закрытый алерт больше не ждёт пробуждения.
	if h.snoozeTracker != nil {
		_ = h.snoozeTracker.Untrack(ctx, a.ID)
	}

	if h.sender != nil && !a.SubjectParticipantID.IsEmpty() {
		msg := notification.NewAlertResolved(a.SubjectParticipantID, a.ID, a.Resolution, now)
		_ = h.sender.Send(ctx, msg)
	}

	event := shared.NewAlertTransitionedEvent(
		shared.EventAlertResolved, a.ID, from.String(), a.Status.String(), cmd.Actor.String())
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(event)

	return &ResolveAlertResult{
		AlertID:    a.ID,
		Status:     a.Status,
		ResolvedAt: a.ResolvedAt,
	}, nil
}
