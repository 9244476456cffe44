package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/arena-hub/arena-progress-hub/internal/domain/alert"
	"github.com/arena-hub/arena-progress-hub/internal/domain/intervention"
	"github.com/arena-hub/arena-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATE INTERVENTION COMMAND
// Создаёт интервенцию в состоянии planned. Before-метрики фиксируются
// при создании. Если интервенция порождена алертом, в журнал алерта
// добавляется запись intervention_created.
// ══════════════════════════════════════════════════════════════════════════════

// CreateInterventionCommand contains the data to plan an intervention.
type CreateInterventionCommand struct {
	// ParticipantID is the participant to intervene with.
	ParticipantID shared.ParticipantID

	// CompetitionID is the competition the intervention belongs to.
	CompetitionID shared.CompetitionID

	// AlertID is the triggering alert (optional).
	AlertID string

	// Type is the intervention type.
	Type intervention.Type

	// Title and Description describe the plan.
	Title       string
	Description string

	// Priority is the intervention priority.
	Priority intervention.Priority

	// Actor is the instructor planning the intervention.
	Actor shared.Actor

	// ScheduledDate is the planned start date.
	ScheduledDate time.Time

	// MetricsBefore is the before snapshot of participant metrics.
	MetricsBefore intervention.Metrics

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c CreateInterventionCommand) Validate() error {
	if c.ParticipantID.IsEmpty() {
		return errors.New("create_intervention: participant_id is required")
	}
	if strings.TrimSpace(c.Title) == "" {
		return errors.New("create_intervention: title is required")
	}
	if !c.Priority.IsValid() {
		return fmt.Errorf("create_intervention: unknown priority: %s", c.Priority)
	}
	if !c.Actor.IsValid() {
		return errors.New("create_intervention: actor is required")
	}
	return nil
}

// CreateInterventionResult contains the result of planning an intervention.
type CreateInterventionResult struct {
	// InterventionID is the ID of the created intervention.
	InterventionID string

	// Status is the initial lifecycle status.
	Status intervention.Status

	// CreatedAt is when the intervention was planned.
	CreatedAt time.Time
}

// CreateInterventionHandler handles the CreateInterventionCommand.
type CreateInterventionHandler struct {
	interventionRepo intervention.Repository
	alertRepo        alert.Repository
	eventPublisher   shared.EventPublisher
	clock            shared.Clock
}

// NewCreateInterventionHandler creates a new CreateInterventionHandler.
func NewCreateInterventionHandler(
	interventionRepo intervention.Repository,
	alertRepo alert.Repository,
	eventPublisher shared.EventPublisher,
	clock shared.Clock,
) *CreateInterventionHandler {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &CreateInterventionHandler{
		interventionRepo: interventionRepo,
		alertRepo:        alertRepo,
		eventPublisher:   eventPublisher,
		clock:            clock,
	}
}

// Handle executes the create intervention command.
func (h *CreateInterventionHandler) Handle(ctx context.Context, cmd CreateInterventionCommand) (*CreateInterventionResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("create_intervention: validation failed: %w", err)
	}

	now := h.clock.Now()

	i, err := intervention.New(
		uuid.NewString(),
		cmd.ParticipantID,
		cmd.CompetitionID,
		cmd.Type,
		cmd.Title,
		cmd.Description,
		cmd.Priority,
		cmd.Actor,
		cmd.ScheduledDate,
		cmd.MetricsBefore,
		now,
	)
	if err != nil {
		return nil, err
	}
	i.AlertID = cmd.AlertID

	if err := h.interventionRepo.Create(ctx, i); err != nil {
		return nil, fmt.Errorf("create_intervention: failed to create intervention: %w", err)
	}

	// Связываем с породившим алертом через его журнал действий.
	if cmd.AlertID != "" && h.alertRepo != nil {
		if a, err := h.alertRepo.GetByID(ctx, cmd.AlertID); err == nil {
			action := alert.Action{
				ID:          uuid.NewString(),
				Type:        alert.ActionInterventionCreated,
				Description: fmt.Sprintf("intervention %s created: %s", i.ID, i.Title),
				Author:      cmd.Actor,
				Timestamp:   now,
			}
			if err := a.AddAction(action); err == nil {
				_ = h.alertRepo.Update(ctx, a)
			}
		}
	}

	event := shared.NewInterventionTransitionedEvent(
		shared.EventInterventionCreated, i.ID, i.ParticipantID.String(),
		"", i.Status.String(), 0)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(event)

	return &CreateInterventionResult{
		InterventionID: i.ID,
		Status:         i.Status,
		CreatedAt:      i.CreatedAt,
	}, nil
}
