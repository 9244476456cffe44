package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/arena-hub/arena-progress-hub/internal/domain/participation"
	"github.com/arena-hub/arena-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PARTICIPATION REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// ParticipationRepository implements participation.Repository using PostgreSQL.
type ParticipationRepository struct {
	conn *Connection
}

// NewParticipationRepository creates a new participation repository.
func NewParticipationRepository(conn *Connection) *ParticipationRepository {
	return &ParticipationRepository{conn: conn}
}

// completionEventRow is the JSONB shape of a completion event.
type completionEventRow struct {
	RequirementID string    `json:"requirement_id"`
	Score         int       `json:"score"`
	Timestamp     time.Time `json:"timestamp"`
}

func marshalCompletionEvents(events []participation.CompletionEvent) ([]byte, error) {
	rows := make([]completionEventRow, 0, len(events))
	for _, ev := range events {
		rows = append(rows, completionEventRow{
			RequirementID: ev.RequirementID.String(),
			Score:         ev.Score,
			Timestamp:     ev.Timestamp,
		})
	}
	return json.Marshal(rows)
}

func unmarshalCompletionEvents(data []byte) ([]participation.CompletionEvent, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var rows []completionEventRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal completion events: %w", err)
	}
	events := make([]participation.CompletionEvent, 0, len(rows))
	for _, row := range rows {
		events = append(events, participation.CompletionEvent{
			RequirementID: shared.RequirementID(row.RequirementID),
			Score:         row.Score,
			Timestamp:     row.Timestamp,
		})
	}
	return events, nil
}

// Create inserts a new participation.
func (r *ParticipationRepository) Create(ctx context.Context, p *participation.Participation) error {
	events, err := marshalCompletionEvents(p.CompletionEvents)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO participations (
			id, participant_id, competition_id, display_name,
			enrolled_at, timezone, status, completion_events,
			total_score, rank, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = r.conn.Exec(ctx, query,
		p.ID,
		p.ParticipantID.String(),
		p.CompetitionID.String(),
		p.DisplayName,
		p.EnrolledAt,
		p.Timezone,
		p.Status.String(),
		events,
		int(p.TotalScore),
		p.Rank,
		p.Version,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create participation: %w", err)
	}
	return nil
}

const participationColumns = `
	id, participant_id, competition_id, display_name,
	enrolled_at, timezone, status, completion_events,
	total_score, rank, version
`

func scanParticipation(row pgx.Row) (*participation.Participation, error) {
	var (
		p          participation.Participation
		pid, cid   string
		status     string
		eventsJSON []byte
		totalScore int
	)

	err := row.Scan(
		&p.ID, &pid, &cid, &p.DisplayName,
		&p.EnrolledAt, &p.Timezone, &status, &eventsJSON,
		&totalScore, &p.Rank, &p.Version,
	)
	if err != nil {
		return nil, err
	}

	p.ParticipantID = shared.ParticipantID(pid)
	p.CompetitionID = shared.CompetitionID(cid)
	p.Status = participation.Status(status)
	p.TotalScore = shared.Score(totalScore)

	p.CompletionEvents, err = unmarshalCompletionEvents(eventsJSON)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByID returns a participation by ID.
func (r *ParticipationRepository) GetByID(ctx context.Context, id string) (*participation.Participation, error) {
	query := `SELECT ` + participationColumns + ` FROM participations WHERE id = $1`

	p, err := scanParticipation(r.conn.QueryRow(ctx, query, id))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrParticipationNotFound
		}
		return nil, fmt.Errorf("failed to get participation: %w", err)
	}
	return p, nil
}

// GetByParticipant returns the participation of a participant in a competition.
func (r *ParticipationRepository) GetByParticipant(ctx context.Context, participantID shared.ParticipantID, competitionID shared.CompetitionID) (*participation.Participation, error) {
	query := `SELECT ` + participationColumns + ` FROM participations WHERE participant_id = $1 AND competition_id = $2`

	p, err := scanParticipation(r.conn.QueryRow(ctx, query, participantID.String(), competitionID.String()))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrParticipationNotFound
		}
		return nil, fmt.Errorf("failed to get participation by participant: %w", err)
	}
	return p, nil
}

func (r *ParticipationRepository) list(ctx context.Context, query string, args ...interface{}) ([]*participation.Participation, error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list participations: %w", err)
	}
	defer rows.Close()

	var result []*participation.Participation
	for rows.Next() {
		p, err := scanParticipation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participation: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// ListByCompetition returns all participations of a competition.
func (r *ParticipationRepository) ListByCompetition(ctx context.Context, competitionID shared.CompetitionID, opts participation.ListOptions) ([]*participation.Participation, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT ` + participationColumns + `
		FROM participations
		WHERE competition_id = $1
		ORDER BY total_score DESC, enrolled_at ASC
		LIMIT $2 OFFSET $3
	`
	return r.list(ctx, query, competitionID.String(), limit, opts.Offset)
}

// ListActiveByCompetition returns non-terminal participations of a competition.
func (r *ParticipationRepository) ListActiveByCompetition(ctx context.Context, competitionID shared.CompetitionID) ([]*participation.Participation, error) {
	query := `
		SELECT ` + participationColumns + `
		FROM participations
		WHERE competition_id = $1 AND status = 'active'
		ORDER BY total_score DESC, enrolled_at ASC
	`
	return r.list(ctx, query, competitionID.String())
}

// Update saves a participation with a version check.
// Returns shared.ErrOptimisticLock on version conflict.
func (r *ParticipationRepository) Update(ctx context.Context, p *participation.Participation) error {
	events, err := marshalCompletionEvents(p.CompletionEvents)
	if err != nil {
		return err
	}

	query := `
		UPDATE participations SET
			display_name = $1,
			timezone = $2,
			status = $3,
			completion_events = $4,
			total_score = $5,
			rank = $6,
			version = version + 1,
			updated_at = NOW()
		WHERE id = $7 AND version = $8
	`

	tag, err := r.conn.Exec(ctx, query,
		p.DisplayName,
		p.Timezone,
		p.Status.String(),
		events,
		int(p.TotalScore),
		p.Rank,
		p.ID,
		p.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update participation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrOptimisticLock
	}

	p.Version++
	return nil
}

// Count returns the number of participations in a competition.
func (r *ParticipationRepository) Count(ctx context.Context, competitionID shared.CompetitionID) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM participations WHERE competition_id = $1`,
		competitionID.String(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count participations: %w", err)
	}
	return count, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUIREMENT REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// RequirementRepository implements participation.RequirementRepository.
type RequirementRepository struct {
	conn *Connection
}

// NewRequirementRepository creates a new requirement repository.
func NewRequirementRepository(conn *Connection) *RequirementRepository {
	return &RequirementRepository{conn: conn}
}

// ListByCompetition returns the requirements of a competition.
func (r *RequirementRepository) ListByCompetition(ctx context.Context, competitionID shared.CompetitionID) ([]participation.Requirement, error) {
	query := `
		SELECT id, title, required, max_score, completion_threshold
		FROM requirements
		WHERE competition_id = $1
		ORDER BY position, id
	`

	rows, err := r.conn.Query(ctx, query, competitionID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list requirements: %w", err)
	}
	defer rows.Close()

	var result []participation.Requirement
	for rows.Next() {
		var (
			req participation.Requirement
			id  string
		)
		if err := rows.Scan(&id, &req.Title, &req.Required, &req.MaxScore, &req.CompletionThreshold); err != nil {
			return nil, fmt.Errorf("failed to scan requirement: %w", err)
		}
		req.ID = shared.RequirementID(id)
		result = append(result, req)
	}
	return result, rows.Err()
}

// ══════════════════════════════════════════════════════════════════════════════
// SUBMISSION REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// SubmissionRepository implements participation.SubmissionRepository.
type SubmissionRepository struct {
	conn *Connection
}

// NewSubmissionRepository creates a new submission repository.
func NewSubmissionRepository(conn *Connection) *SubmissionRepository {
	return &SubmissionRepository{conn: conn}
}

// ListByParticipation returns all submissions of a participation in
// chronological order.
func (r *SubmissionRepository) ListByParticipation(ctx context.Context, participationID string) ([]participation.Submission, error) {
	query := `
		SELECT id, requirement_id, status, score, submitted_at
		FROM submissions
		WHERE participation_id = $1
		ORDER BY submitted_at ASC, id ASC
	`

	rows, err := r.conn.Query(ctx, query, participationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	var result []participation.Submission
	for rows.Next() {
		var (
			sub    participation.Submission
			reqID  string
			status string
		)
		if err := rows.Scan(&sub.ID, &reqID, &status, &sub.Score, &sub.SubmittedAt); err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		sub.RequirementID = shared.RequirementID(reqID)
		sub.Status = participation.SubmissionStatus(status)
		result = append(result, sub)
	}
	return result, rows.Err()
}

// Record saves a new submission.
func (r *SubmissionRepository) Record(ctx context.Context, participationID string, sub participation.Submission) error {
	query := `
		INSERT INTO submissions (id, participation_id, requirement_id, status, score, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.conn.Exec(ctx, query,
		sub.ID,
		participationID,
		sub.RequirementID.String(),
		string(sub.Status),
		sub.Score,
		sub.SubmittedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return fmt.Errorf("failed to record submission: %w", err)
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// ProgressRepository implements participation.ProgressRepository.
// Requirement progress and streaks are derived data: every save replaces
// the previous projection wholesale inside a transaction.
type ProgressRepository struct {
	conn *Connection
}

// NewProgressRepository creates a new progress repository.
func NewProgressRepository(conn *Connection) *ProgressRepository {
	return &ProgressRepository{conn: conn}
}

// SaveRequirementProgress replaces the requirement progress of a participation.
func (r *ProgressRepository) SaveRequirementProgress(ctx context.Context, participationID string, progress []participation.RequirementProgress) error {
	return r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM requirement_progress WHERE participation_id = $1`,
			participationID,
		); err != nil {
			return fmt.Errorf("failed to clear requirement progress: %w", err)
		}

		batch := &pgx.Batch{}
		for _, rp := range progress {
			batch.Queue(`
				INSERT INTO requirement_progress (
					participation_id, requirement_id, title, required,
					completed, progress, score, max_score, updated_at
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			`,
				participationID,
				rp.RequirementID.String(),
				rp.Title,
				rp.Required,
				rp.Completed,
				rp.Progress.Float64(),
				rp.Score,
				rp.MaxScore,
				rp.UpdatedAt,
			)
		}

		results := tx.SendBatch(ctx, batch)
		defer results.Close()

		for range progress {
			if _, err := results.Exec(); err != nil {
				return fmt.Errorf("failed to insert requirement progress: %w", err)
			}
		}
		return nil
	})
}

// GetRequirementProgress returns the stored requirement progress.
func (r *ProgressRepository) GetRequirementProgress(ctx context.Context, participationID string) ([]participation.RequirementProgress, error) {
	query := `
		SELECT requirement_id, title, required, completed, progress, score, max_score, updated_at
		FROM requirement_progress
		WHERE participation_id = $1
		ORDER BY requirement_id
	`

	rows, err := r.conn.Query(ctx, query, participationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get requirement progress: %w", err)
	}
	defer rows.Close()

	var result []participation.RequirementProgress
	for rows.Next() {
		var (
			rp    participation.RequirementProgress
			reqID string
			pct   float64
		)
		if err := rows.Scan(&reqID, &rp.Title, &rp.Required, &rp.Completed, &pct, &rp.Score, &rp.MaxScore, &rp.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan requirement progress: %w", err)
		}
		rp.RequirementID = shared.RequirementID(reqID)
		rp.Progress = shared.Percent(pct)
		result = append(result, rp)
	}
	return result, rows.Err()
}

// GetStreak returns the streak state of a participation.
// A participation without activity has the zero streak, not an error.
func (r *ProgressRepository) GetStreak(ctx context.Context, participationID string) (participation.StreakState, error) {
	var streak participation.StreakState
	err := r.conn.QueryRow(ctx,
		`SELECT current_streak, longest_streak, last_activity_at FROM streaks WHERE participation_id = $1`,
		participationID,
	).Scan(&streak.CurrentStreak, &streak.LongestStreak, &streak.LastActivityAt)
	if err != nil {
		if IsNoRows(err) {
			return participation.StreakState{}, nil
		}
		return participation.StreakState{}, fmt.Errorf("failed to get streak: %w", err)
	}
	return streak, nil
}

// SaveStreak upserts the streak state of a participation.
func (r *ProgressRepository) SaveStreak(ctx context.Context, participationID string, streak participation.StreakState) error {
	query := `
		INSERT INTO streaks (participation_id, current_streak, longest_streak, last_activity_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (participation_id) DO UPDATE SET
			current_streak = EXCLUDED.current_streak,
			longest_streak = EXCLUDED.longest_streak,
			last_activity_at = EXCLUDED.last_activity_at
	`

	_, err := r.conn.Exec(ctx, query,
		participationID,
		streak.CurrentStreak,
		streak.LongestStreak,
		streak.LastActivityAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save streak: %w", err)
	}
	return nil
}

// ListActivityDates returns the activity timestamps of a participation.
func (r *ProgressRepository) ListActivityDates(ctx context.Context, participationID string) ([]time.Time, error) {
	query := `
		SELECT submitted_at
		FROM submissions
		WHERE participation_id = $1 AND status = 'approved'
		ORDER BY submitted_at ASC
	`

	rows, err := r.conn.Query(ctx, query, participationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity dates: %w", err)
	}
	defer rows.Close()

	var result []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan activity date: %w", err)
		}
		result = append(result, t)
	}
	return result, rows.Err()
}
