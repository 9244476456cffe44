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
// START INTERVENTION COMMAND
// Переводит интервенцию planned → in-progress.
// ══════════════════════════════════════════════════════════════════════════════

// StartInterventionCommand contains the data to start an intervention.
type StartInterventionCommand struct {
	// InterventionID is the intervention to start.
	InterventionID string

	// Actor is the instructor starting the intervention.
	Actor shared.Actor

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c StartInterventionCommand) Validate() error {
	if c.InterventionID == "" {
		return errors.New("start_intervention: intervention_id is required")
	}
	if !c.Actor.IsValid() {
		return errors.New("start_intervention: actor is required")
	}
	return nil
}

// StartInterventionResult contains the result of starting an intervention.
type StartInterventionResult struct {
	// InterventionID is the started intervention.
	InterventionID string

	// Status is the lifecycle status after the transition.
	Status intervention.Status

	// StartedAt is when the intervention started.
	StartedAt time.Time
}

// StartInterventionHandler handles the StartInterventionCommand.
type StartInterventionHandler struct {
	interventionRepo intervention.Repository
	eventPublisher   shared.EventPublisher
	clock            shared.Clock
}

// NewStartInterventionHandler creates a new StartInterventionHandler.
func NewStartInterventionHandler(
	interventionRepo intervention.Repository,
	eventPublisher shared.EventPublisher,
	clock shared.Clock,
) *StartInterventionHandler {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &StartInterventionHandler{
		interventionRepo: interventionRepo,
		eventPublisher:   eventPublisher,
		clock:            clock,
	}
}

// Handle executes the start intervention command.
func (h *StartInterventionHandler) Handle(ctx context.Context, cmd StartInterventionCommand) (*StartInterventionResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("start_intervention: validation failed: %w", err)
	}

	i, err := h.interventionRepo.GetByID(ctx, cmd.InterventionID)
	if err != nil {
		return nil, fmt.Errorf("start_intervention: failed to get intervention: %w", err)
	}

	from := i.Status
	now := h.clock.Now()

	if err := i.Start(now); err != nil {
		return nil, err
	}

	if err := h.interventionRepo.Update(ctx, i); err != nil {
		return nil, fmt.Errorf("start_intervention: failed to update intervention: %w", err)
	}

	event := shared.NewInterventionTransitionedEvent(
		shared.EventInterventionStarted, i.ID, i.ParticipantID.String(),
		from.String(), i.Status.String(), 0)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(event)

	return &StartInterventionResult{
		InterventionID: i.ID,
		Status:         i.Status,
		StartedAt:      i.StartedAt,
	}, nil
}
