package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/arena-hub/arena-progress-hub/internal/domain/alert"
	"github.com/arena-hub/arena-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ALERT REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// AlertRepository implements alert.Repository using PostgreSQL.
// The action journal is stored as a JSONB array: it is append-only and
// always read and written together with the alert itself.
type AlertRepository struct {
	conn *Connection
}

// NewAlertRepository creates a new alert repository.
func NewAlertRepository(conn *Connection) *AlertRepository {
	return &AlertRepository{conn: conn}
}

// actionRow is the JSONB shape of a journal action.
type actionRow struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Author      string    `json:"author"`
	Timestamp   time.Time `json:"timestamp"`
}

func marshalActions(actions []alert.Action) ([]byte, error) {
	rows := make([]actionRow, 0, len(actions))
	for _, a := range actions {
		rows = append(rows, actionRow{
			ID:          a.ID,
			Type:        string(a.Type),
			Description: a.Description,
			Author:      a.Author.String(),
			Timestamp:   a.Timestamp,
		})
	}
	return json.Marshal(rows)
}

func unmarshalActions(data []byte) ([]alert.Action, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var rows []actionRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal alert actions: %w", err)
	}
	actions := make([]alert.Action, 0, len(rows))
	for _, row := range rows {
		actions = append(actions, alert.Action{
			ID:          row.ID,
			Type:        alert.ActionType(row.Type),
			Description: row.Description,
			Author:      shared.Actor(row.Author),
			Timestamp:   row.Timestamp,
		})
	}
	return actions, nil
}

// nullableUUID maps an empty ID to NULL for UUID columns.
func nullableUUID(id string) interface{} {
	if id == "" {
		return nil
	}
	return id
}

// nullableTime maps the zero time to NULL.
func nullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

// Create inserts a new alert.
func (r *AlertRepository) Create(ctx context.Context, a *alert.Alert) error {
	actions, err := marshalActions(a.Actions)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO alerts (
			id, category, severity, title, description,
			subject_participant_id, competition_id, status, actions,
			created_at, acknowledged_at, acknowledged_by,
			snoozed_until, resolved_at, resolved_by, resolution, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err = r.conn.Exec(ctx, query,
		a.ID,
		string(a.Category),
		string(a.Severity),
		a.Title,
		a.Description,
		nullableUUID(a.SubjectParticipantID.String()),
		a.CompetitionID.String(),
		a.Status.String(),
		actions,
		a.CreatedAt,
		nullableTime(a.AcknowledgedAt),
		a.AcknowledgedBy.String(),
		nullableTime(a.SnoozedUntil),
		nullableTime(a.ResolvedAt),
		a.ResolvedBy.String(),
		a.Resolution,
		a.Version,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create alert: %w", err)
	}
	return nil
}

const alertColumns = `
	id, category, severity, title, description,
	COALESCE(subject_participant_id::text, ''), competition_id, status, actions,
	created_at, acknowledged_at, acknowledged_by,
	snoozed_until, resolved_at, resolved_by, resolution, version
`

func scanAlert(row pgx.Row) (*alert.Alert, error) {
	var (
		a                          alert.Alert
		category, severity, status string
		subject, cid               string
		ackBy, resBy               string
		actionsJSON                []byte
		ackAt, snoozed, resAt      *time.Time
	)

	err := row.Scan(
		&a.ID, &category, &severity, &a.Title, &a.Description,
		&subject, &cid, &status, &actionsJSON,
		&a.CreatedAt, &ackAt, &ackBy,
		&snoozed, &resAt, &resBy, &a.Resolution, &a.Version,
	)
	if err != nil {
		return nil, err
	}

	a.Category = alert.Category(category)
	a.Severity = alert.Severity(severity)
	a.Status = alert.Status(status)
	a.SubjectParticipantID = shared.ParticipantID(subject)
	a.CompetitionID = shared.CompetitionID(cid)
	a.AcknowledgedAt = timeOrZero(ackAt)
	a.AcknowledgedBy = shared.Actor(ackBy)
	a.SnoozedUntil = timeOrZero(snoozed)
	a.ResolvedAt = timeOrZero(resAt)
	a.ResolvedBy = shared.Actor(resBy)

	a.Actions, err = unmarshalActions(actionsJSON)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetByID returns an alert by ID.
func (r *AlertRepository) GetByID(ctx context.Context, id string) (*alert.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE id = $1`

	a, err := scanAlert(r.conn.QueryRow(ctx, query, id))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrAlertNotFound
		}
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}
	return a, nil
}

func (r *AlertRepository) list(ctx context.Context, query string, args ...interface{}) ([]*alert.Alert, error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	var result []*alert.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

// ListOpen returns non-terminal alerts of a competition, most severe
// and oldest first.
func (r *AlertRepository) ListOpen(ctx context.Context, competitionID shared.CompetitionID) ([]*alert.Alert, error) {
	query := `
		SELECT ` + alertColumns + `
		FROM alerts
		WHERE competition_id = $1 AND status != 'resolved'
		ORDER BY
			CASE severity
				WHEN 'critical' THEN 4
				WHEN 'high' THEN 3
				WHEN 'medium' THEN 2
				WHEN 'low' THEN 1
				ELSE 0
			END DESC,
			created_at ASC
	`
	return r.list(ctx, query, competitionID.String())
}

// ListByParticipant returns the alerts of a participant.
func (r *AlertRepository) ListByParticipant(ctx context.Context, participantID shared.ParticipantID) ([]*alert.Alert, error) {
	query := `
		SELECT ` + alertColumns + `
		FROM alerts
		WHERE subject_participant_id = $1
		ORDER BY created_at DESC
	`
	return r.list(ctx, query, participantID.String())
}

// ListSnoozedDue returns snoozed alerts whose snooze has expired.
func (r *AlertRepository) ListSnoozedDue(ctx context.Context, now time.Time) ([]*alert.Alert, error) {
	query := `
		SELECT ` + alertColumns + `
		FROM alerts
		WHERE status = 'snoozed' AND snoozed_until <= $1
		ORDER BY snoozed_until ASC
	`
	return r.list(ctx, query, now)
}

// Update saves an alert with a version check.
// Returns shared.ErrOptimisticLock on version conflict.
func (r *AlertRepository) Update(ctx context.Context, a *alert.Alert) error {
	actions, err := marshalActions(a.Actions)
	if err != nil {
		return err
	}

	query := `
		UPDATE alerts SET
			status = $1,
			actions = $2,
			acknowledged_at = $3,
			acknowledged_by = $4,
			snoozed_until = $5,
			resolved_at = $6,
			resolved_by = $7,
			resolution = $8,
			version = version + 1
		WHERE id = $9 AND version = $10
	`

	tag, err := r.conn.Exec(ctx, query,
		a.Status.String(),
		actions,
		nullableTime(a.AcknowledgedAt),
		a.AcknowledgedBy.String(),
		nullableTime(a.SnoozedUntil),
		nullableTime(a.ResolvedAt),
		a.ResolvedBy.String(),
		a.Resolution,
		a.ID,
		a.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update alert: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrOptimisticLock
	}

	a.Version++
	return nil
}
