package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arena-hub/arena-progress-hub/internal/domain/intervention"
	"github.com/arena-hub/arena-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CANCEL INTERVENTION COMMAND
// Отменяет интервенцию: planned|in-progress → cancelled. Терминально.
// ══════════════════════════════════════════════════════════════════════════════

// CancelInterventionCommand contains the data to cancel an intervention.
type CancelInterventionCommand struct {
	// InterventionID is the intervention to cancel.
	InterventionID string

	// Actor is the instructor cancelling the intervention.
	Actor shared.Actor

	// Reason is the cancellation reason (optional).
	Reason string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c CancelInterventionCommand) Validate() error {
	if c.InterventionID == "" {
		return errors.New("cancel_intervention: intervention_id is required")
	}
	if !c.Actor.IsValid() {
		return errors.New("cancel_intervention: actor is required")
	}
	return nil
}

// CancelInterventionResult contains the result of cancelling an intervention.
type CancelInterventionResult struct {
	// InterventionID is the cancelled intervention.
	InterventionID string

	// Status is the lifecycle status after the transition.
	Status intervention.Status

	// CancelledAt is when the intervention was cancelled.
	CancelledAt time.Time
}

// CancelInterventionHandler handles the CancelInterventionCommand.
type CancelInterventionHandler struct {
	interventionRepo intervention.Repository
	eventPublisher   shared.EventPublisher
	clock            shared.Clock
}

// NewCancelInterventionHandler creates a new CancelInterventionHandler.
func NewCancelInterventionHandler(
	interventionRepo intervention.Repository,
	eventPublisher shared.EventPublisher,
	clock shared.Clock,
) *CancelInterventionHandler {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &CancelInterventionHandler{
		interventionRepo: interventionRepo,
		eventPublisher:   eventPublisher,
		clock:            clock,
	}
}

// Handle executes the cancel intervention command.
func (h *CancelInterventionHandler) Handle(ctx context.Context, cmd CancelInterventionCommand) (*CancelInterventionResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("cancel_intervention: validation failed: %w", err)
	}

	i, err := h.interventionRepo.GetByID(ctx, cmd.InterventionID)
	if err != nil {
		return nil, fmt.Errorf("cancel_intervention: failed to get intervention: %w", err)
	}

	from := i.Status
	now := h.clock.Now()

	if err := i.Cancel(cmd.Reason, now); err != nil {
		return nil, err
	}

	if err := h.interventionRepo.Update(ctx, i); err != nil {
		return nil, fmt.Errorf("cancel_intervention: failed to update intervention: %w", err)
	}

	event := shared.NewInterventionTransitionedEvent(
		shared.EventInterventionCancelled, i.ID, i.ParticipantID.String(),
		from.String(), i.Status.String(), 0)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(event)

	return &CancelInterventionResult{
		InterventionID: i.ID,
		Status:         i.Status,
		CancelledAt:    i.CompletedDate,
	}, nil
}
