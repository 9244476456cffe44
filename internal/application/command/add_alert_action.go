package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/arena-hub/arena-progress-hub/internal/domain/alert"
	"github.com/arena-hub/arena-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ADD ALERT ACTION COMMAND
// Добавляет запись в журнал действий алерта. Чистый append: статус
// алерта не меняется, записи не редактируются и не удаляются.
// ══════════════════════════════════════════════════════════════════════════════

// AddAlertActionCommand contains the data to append an action.
type AddAlertActionCommand struct {
	// AlertID is the alert to annotate.
	AlertID string

	// Type is the action type.
	Type alert.ActionType

	// Description is the free-form action text.
	Description string

	// Actor is the instructor performing the action.
	Actor shared.Actor

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c AddAlertActionCommand) Validate() error {
	if c.AlertID == "" {
		return errors.New("add_alert_action: alert_id is required")
	}
	switch c.Type {
	case alert.ActionComment, alert.ActionContacted, alert.ActionEscalated, alert.ActionInterventionCreated:
	default:
		return fmt.Errorf("add_alert_action: unknown action type: %s", c.Type)
	}
	if strings.TrimSpace(c.Description) == "" {
		return errors.New("add_alert_action: description is required")
	}
	if !c.Actor.IsValid() {
		return errors.New("add_alert_action: actor is required")
	}
	return nil
}

// AddAlertActionResult contains the result of appending an action.
type AddAlertActionResult struct {
	// AlertID is the annotated alert.
	AlertID string

	// ActionID is the ID of the appended action.
	ActionID string

	// ActionCount is the journal length after the append.
	ActionCount int

	// AddedAt is when the action was recorded.
	AddedAt time.Time
}

// AddAlertActionHandler handles the AddAlertActionCommand.
type AddAlertActionHandler struct {
	alertRepo alert.Repository
	clock     shared.Clock
}

// NewAddAlertActionHandler creates a new AddAlertActionHandler.
func NewAddAlertActionHandler(alertRepo alert.Repository, clock shared.Clock) *AddAlertActionHandler {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &AddAlertActionHandler{
		alertRepo: alertRepo,
		clock:     clock,
	}
}

// Handle executes the add alert action command.
func (h *AddAlertActionHandler) Handle(ctx context.Context, cmd AddAlertActionCommand) (*AddAlertActionResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("add_alert_action: validation failed: %w", err)
	}

	a, err := h.alertRepo.GetByID(ctx, cmd.AlertID)
	if err != nil {
		return nil, fmt.Errorf("add_alert_action: failed to get alert: %w", err)
	}

	now := h.clock.Now()
	action := alert.Action{
		ID:          uuid.NewString(),
		Type:        cmd.Type,
		Description: strings.TrimSpace(cmd.Description),
		Author:      cmd.Actor,
		Timestamp:   now,
	}

	if err := a.AddAction(action); err != nil {
		return nil, err
	}

	if err := h.alertRepo.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("add_alert_action: failed to update alert: %w", err)
	}

	return &AddAlertActionResult{
		AlertID:     a.ID,
		ActionID:    action.ID,
		ActionCount: len(a.Actions),
		AddedAt:     now,
	}, nil
}
