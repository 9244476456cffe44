package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/arena-hub/arena-progress-hub/internal/domain/intervention"
	"github.com/arena-hub/arena-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// INTERVENTION REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// InterventionRepository implements intervention.Repository using PostgreSQL.
// The before/after metrics and the note journal are stored as JSONB:
// they are always read and written together with the intervention.
type InterventionRepository struct {
	conn *Connection
}

// NewInterventionRepository creates a new intervention repository.
func NewInterventionRepository(conn *Connection) *InterventionRepository {
	return &InterventionRepository{conn: conn}
}

// metricsRow is the JSONB shape of the before/after metrics.
type metricsRow struct {
	PerformanceBefore float64 `json:"performance_before"`
	PerformanceAfter  float64 `json:"performance_after"`
	EngagementBefore  float64 `json:"engagement_before"`
	EngagementAfter   float64 `json:"engagement_after"`
	RiskScoreBefore   float64 `json:"risk_score_before"`
	RiskScoreAfter    float64 `json:"risk_score_after"`
}

// noteRow is the JSONB shape of a journal note.
type noteRow struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Author    string    `json:"author"`
	Timestamp time.Time `json:"timestamp"`
}

func marshalMetrics(m intervention.Metrics) ([]byte, error) {
	return json.Marshal(metricsRow{
		PerformanceBefore: m.PerformanceBefore,
		PerformanceAfter:  m.PerformanceAfter,
		EngagementBefore:  m.EngagementBefore,
		EngagementAfter:   m.EngagementAfter,
		RiskScoreBefore:   m.RiskScoreBefore,
		RiskScoreAfter:    m.RiskScoreAfter,
	})
}

func unmarshalMetrics(data []byte) (intervention.Metrics, error) {
	if len(data) == 0 {
		return intervention.Metrics{}, nil
	}
	var row metricsRow
	if err := json.Unmarshal(data, &row); err != nil {
		return intervention.Metrics{}, fmt.Errorf("failed to unmarshal intervention metrics: %w", err)
	}
	return intervention.Metrics{
		PerformanceBefore: row.PerformanceBefore,
		PerformanceAfter:  row.PerformanceAfter,
		EngagementBefore:  row.EngagementBefore,
		EngagementAfter:   row.EngagementAfter,
		RiskScoreBefore:   row.RiskScoreBefore,
		RiskScoreAfter:    row.RiskScoreAfter,
	}, nil
}

func marshalNotes(notes []intervention.Note) ([]byte, error) {
	rows := make([]noteRow, 0, len(notes))
	for _, n := range notes {
		rows = append(rows, noteRow{
			ID:        n.ID,
			Text:      n.Text,
			Author:    n.Author.String(),
			Timestamp: n.Timestamp,
		})
	}
	return json.Marshal(rows)
}

func unmarshalNotes(data []byte) ([]intervention.Note, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var rows []noteRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal intervention notes: %w", err)
	}
	notes := make([]intervention.Note, 0, len(rows))
	for _, row := range rows {
		notes = append(notes, intervention.Note{
			ID:        row.ID,
			Text:      row.Text,
			Author:    shared.Actor(row.Author),
			Timestamp: row.Timestamp,
		})
	}
	return notes, nil
}

// Create inserts a new intervention.
func (r *InterventionRepository) Create(ctx context.Context, i *intervention.Intervention) error {
	metrics, err := marshalMetrics(i.Metrics)
	if err != nil {
		return err
	}
	notes, err := marshalNotes(i.Notes)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO interventions (
			id, participant_id, competition_id, alert_id, type,
			title, description, priority, status,
			created_at, created_by, scheduled_date, started_at, completed_date,
			outcome, effectiveness, follow_up_required, follow_up_date,
			metrics, notes, cancel_reason, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
	`

	_, err = r.conn.Exec(ctx, query,
		i.ID,
		i.ParticipantID.String(),
		i.CompetitionID.String(),
		nullableUUID(i.AlertID),
		string(i.Type),
		i.Title,
		i.Description,
		string(i.Priority),
		i.Status.String(),
		i.CreatedAt,
		i.CreatedBy.String(),
		nullableTime(i.ScheduledDate),
		nullableTime(i.StartedAt),
		nullableTime(i.CompletedDate),
		i.Outcome,
		i.Effectiveness.Int(),
		i.FollowUpRequired,
		nullableTime(i.FollowUpDate),
		metrics,
		notes,
		i.CancelReason,
		i.Version,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create intervention: %w", err)
	}
	return nil
}

const interventionColumns = `
	id, participant_id, competition_id, COALESCE(alert_id::text, ''), type,
	title, description, priority, status,
	created_at, created_by, scheduled_date, started_at, completed_date,
	outcome, effectiveness, follow_up_required, follow_up_date,
	metrics, notes, cancel_reason, version
`

func scanIntervention(row pgx.Row) (*intervention.Intervention, error) {
	var (
		i                                  intervention.Intervention
		pid, cid, typ, priority, status    string
		createdBy                          string
		scheduled, started, completed, fUp *time.Time
		effectiveness                      int
		metricsJSON, notesJSON             []byte
	)

	err := row.Scan(
		&i.ID, &pid, &cid, &i.AlertID, &typ,
		&i.Title, &i.Description, &priority, &status,
		&i.CreatedAt, &createdBy, &scheduled, &started, &completed,
		&i.Outcome, &effectiveness, &i.FollowUpRequired, &fUp,
		&metricsJSON, &notesJSON, &i.CancelReason, &i.Version,
	)
	if err != nil {
		return nil, err
	}

	i.ParticipantID = shared.ParticipantID(pid)
	i.CompetitionID = shared.CompetitionID(cid)
	i.Type = intervention.Type(typ)
	i.Priority = intervention.Priority(priority)
	i.Status = intervention.Status(status)
	i.CreatedBy = shared.Actor(createdBy)
	i.ScheduledDate = timeOrZero(scheduled)
	i.StartedAt = timeOrZero(started)
	i.CompletedDate = timeOrZero(completed)
	i.FollowUpDate = timeOrZero(fUp)
	i.Effectiveness = shared.Effectiveness(effectiveness)

	i.Metrics, err = unmarshalMetrics(metricsJSON)
	if err != nil {
		return nil, err
	}
	i.Notes, err = unmarshalNotes(notesJSON)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

// GetByID returns an intervention by ID.
func (r *InterventionRepository) GetByID(ctx context.Context, id string) (*intervention.Intervention, error) {
	query := `SELECT ` + interventionColumns + ` FROM interventions WHERE id = $1`

	i, err := scanIntervention(r.conn.QueryRow(ctx, query, id))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrInterventionNotFound
		}
		return nil, fmt.Errorf("failed to get intervention: %w", err)
	}
	return i, nil
}

func (r *InterventionRepository) list(ctx context.Context, query string, args ...interface{}) ([]*intervention.Intervention, error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list interventions: %w", err)
	}
	defer rows.Close()

	var result []*intervention.Intervention
	for rows.Next() {
		i, err := scanIntervention(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan intervention: %w", err)
		}
		result = append(result, i)
	}
	return result, rows.Err()
}

// ListByCompetition returns the interventions of a competition.
func (r *InterventionRepository) ListByCompetition(ctx context.Context, competitionID shared.CompetitionID) ([]*intervention.Intervention, error) {
	query := `
		SELECT ` + interventionColumns + `
		FROM interventions
		WHERE competition_id = $1
		ORDER BY created_at DESC
	`
	return r.list(ctx, query, competitionID.String())
}

// ListByParticipant returns the interventions of a participant.
func (r *InterventionRepository) ListByParticipant(ctx context.Context, participantID shared.ParticipantID) ([]*intervention.Intervention, error) {
	query := `
		SELECT ` + interventionColumns + `
		FROM interventions
		WHERE participant_id = $1
		ORDER BY created_at DESC
	`
	return r.list(ctx, query, participantID.String())
}

// Update saves an intervention with a version check.
// Returns shared.ErrOptimisticLock on version conflict.
func (r *InterventionRepository) Update(ctx context.Context, i *intervention.Intervention) error {
	metrics, err := marshalMetrics(i.Metrics)
	if err != nil {
		return err
	}
	notes, err := marshalNotes(i.Notes)
	if err != nil {
		return err
	}

	query := `
		UPDATE interventions SET
			status = $1,
			started_at = $2,
			completed_date = $3,
			outcome = $4,
			effectiveness = $5,
			follow_up_required = $6,
			follow_up_date = $7,
			metrics = $8,
			notes = $9,
			cancel_reason = $10,
			alert_id = $11,
			version = version + 1
		WHERE id = $12 AND version = $13
	`

	tag, err := r.conn.Exec(ctx, query,
		i.Status.String(),
		nullableTime(i.StartedAt),
		nullableTime(i.CompletedDate),
		i.Outcome,
		i.Effectiveness.Int(),
		i.FollowUpRequired,
		nullableTime(i.FollowUpDate),
		metrics,
		notes,
		i.CancelReason,
		nullableUUID(i.AlertID),
		i.ID,
		i.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update intervention: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrOptimisticLock
	}

	i.Version++
	return nil
}
