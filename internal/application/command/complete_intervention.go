package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/arena-hub/arena-progress-hub/internal/domain/intervention"
	"github.com/arena-hub/arena-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETE INTERVENTION COMMAND
// Завершает интервенцию in-progress → completed с оценкой эффективности.
// After-метрики вычисляются политикой дельт; повторный контроль
// назначается опционально.
// ══════════════════════════════════════════════════════════════════════════════

// CompleteInterventionCommand contains the data to complete an intervention.
type CompleteInterventionCommand struct {
	// InterventionID is the intervention to complete.
	InterventionID string

	// Actor is the instructor completing the intervention.
	Actor shared.Actor

	// Outcome describes the result. Must be non-empty.
	Outcome string

	// Effectiveness is the 1-5 outcome rating.
	Effectiveness shared.Effectiveness

	// FollowUpDate schedules a follow-up check (zero = no follow-up).
	FollowUpDate time.Time

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c CompleteInterventionCommand) Validate() error {
	if c.InterventionID == "" {
		return errors.New("complete_intervention: intervention_id is required")
	}
	if !c.Actor.IsValid() {
		return errors.New("complete_intervention: actor is required")
	}
	if strings.TrimSpace(c.Outcome) == "" {
		return errors.New("complete_intervention: outcome text is required")
	}
	if !c.Effectiveness.IsValid() {
		return fmt.Errorf("complete_intervention: effectiveness must be between %d and %d",
			shared.MinEffectiveness, shared.MaxEffectiveness)
	}
	return nil
}

// CompleteInterventionResult contains the result of completing an intervention.
type CompleteInterventionResult struct {
	// InterventionID is the completed intervention.
	InterventionID string

	// Status is the lifecycle status after the transition.
	Status intervention.Status

	// Effectiveness is the recorded rating.
	Effectiveness shared.Effectiveness

	// Metrics holds the before/after snapshot after the delta policy ran.
	Metrics intervention.Metrics

	// CompletedAt is when the intervention completed.
	CompletedAt time.Time
}

// CompleteInterventionHandler handles the CompleteInterventionCommand.
type CompleteInterventionHandler struct {
	interventionRepo intervention.Repository
	deltaPolicy      intervention.EffectivenessDeltaPolicy
	eventPublisher   shared.EventPublisher
	clock            shared.Clock
}

// NewCompleteInterventionHandler creates a new CompleteInterventionHandler.
// deltaPolicy nil означает политику по умолчанию (LinearDeltaPolicy).
func NewCompleteInterventionHandler(
	interventionRepo intervention.Repository,
	deltaPolicy intervention.EffectivenessDeltaPolicy,
	eventPublisher shared.EventPublisher,
	clock shared.Clock,
) *CompleteInterventionHandler {
	if deltaPolicy == nil {
		deltaPolicy = intervention.LinearDeltaPolicy{}
	}
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &CompleteInterventionHandler{
		interventionRepo: interventionRepo,
		deltaPolicy:      deltaPolicy,
		eventPublisher:   eventPublisher,
		clock:            clock,
	}
}

// Handle executes the complete intervention command.
func (h *CompleteInterventionHandler) Handle(ctx context.Context, cmd CompleteInterventionCommand) (*CompleteInterventionResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("complete_intervention: validation failed: %w", err)
	}

	i, err := h.interventionRepo.GetByID(ctx, cmd.InterventionID)
	if err != nil {
		return nil, fmt.Errorf("complete_intervention: failed to get intervention: %w", err)
	}

	from := i.Status
	now := h.clock.Now()

	if err := i.Complete(cmd.Outcome, cmd.Effectiveness, h.deltaPolicy, now); err != nil {
		return nil, err
	}

	if !cmd.FollowUpDate.IsZero() {
		if err := i.RequireFollowUp(cmd.FollowUpDate); err != nil {
			return nil, err
		}
	}

	if err := h.interventionRepo.Update(ctx, i); err != nil {
		return nil, fmt.Errorf("complete_intervention: failed to update intervention: %w", err)
	}

	event := shared.NewInterventionTransitionedEvent(
		shared.EventInterventionCompleted, i.ID, i.ParticipantID.String(),
		from.String(), i.Status.String(), cmd.Effectiveness.Int())
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(event)

	return &CompleteInterventionResult{
		InterventionID: i.ID,
		Status:         i.Status,
		Effectiveness:  i.Effectiveness,
		Metrics:        i.Metrics,
		CompletedAt:    i.CompletedDate,
	}, nil
}
