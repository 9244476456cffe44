package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arena-hub/arena-progress-hub/internal/domain/alert"
	"github.com/arena-hub/arena-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACKNOWLEDGE ALERT COMMAND
// Инструктор принимает алерт в работу: active → acknowledged.
// ══════════════════════════════════════════════════════════════════════════════

// AcknowledgeAlertCommand contains the data to acknowledge an alert.
type AcknowledgeAlertCommand struct {
	// AlertID is the alert to acknowledge.
	AlertID string

	// Actor is the instructor taking the alert.
	Actor shared.Actor

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c AcknowledgeAlertCommand) Validate() error {
	if c.AlertID == "" {
		return errors.New("acknowledge_alert: alert_id is required")
	}
	if !c.Actor.IsValid() {
		return errors.New("acknowledge_alert: actor is required")
	}
	return nil
}

// AcknowledgeAlertResult contains the result of acknowledging an alert.
type AcknowledgeAlertResult struct {
	// AlertID is the acknowledged alert.
	AlertID string

	// Status is the alert status after the transition.
	Status alert.Status

	// AcknowledgedAt is when the transition happened.
	AcknowledgedAt time.Time
}

// AcknowledgeAlertHandler handles the AcknowledgeAlertCommand.
type AcknowledgeAlertHandler struct {
	alertRepo      alert.Repository
	eventPublisher shared.EventPublisher
	clock          shared.Clock
}

// NewAcknowledgeAlertHandler creates a new AcknowledgeAlertHandler.
func NewAcknowledgeAlertHandler(alertRepo alert.Repository, eventPublisher shared.EventPublisher, clock shared.Clock) *AcknowledgeAlertHandler {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &AcknowledgeAlertHandler{
		alertRepo:      alertRepo,
		eventPublisher: eventPublisher,
		clock:          clock,
	}
}

// Handle executes the acknowledge alert command.
func (h *AcknowledgeAlertHandler) Handle(ctx context.Context, cmd AcknowledgeAlertCommand) (*AcknowledgeAlertResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("acknowledge_alert: validation failed: %w", err)
	}

	a, err := h.alertRepo.GetByID(ctx, cmd.AlertID)
	if err != nil {
		return nil, fmt.Errorf("acknowledge_alert: failed to get alert: %w", err)
	}

	from := a.Status
	now := h.clock.Now()

	if err := a.Acknowledge(cmd.Actor, now); err != nil {
		return nil, err
	}

	if err := h.alertRepo.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("acknowledge_alert: failed to update alert: %w", err)
	}

	event := shared.NewAlertTransitionedEvent(
		shared.EventAlertAcknowledged, a.ID, from.String(), a.Status.String(), cmd.Actor.String())
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(event)

	return &AcknowledgeAlertResult{
		AlertID:        a.ID,
		Status:         a.Status,
		AcknowledgedAt: a.AcknowledgedAt,
	}, nil
}
