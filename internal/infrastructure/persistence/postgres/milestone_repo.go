package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/arena-hub/arena-progress-hub/internal/domain/milestone"
	"github.com/arena-hub/arena-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// MILESTONE REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// MilestoneRepository implements milestone.Repository using PostgreSQL.
type MilestoneRepository struct {
	conn *Connection
}

// NewMilestoneRepository creates a new milestone repository.
func NewMilestoneRepository(conn *Connection) *MilestoneRepository {
	return &MilestoneRepository{conn: conn}
}

// ListByParticipation returns the milestones of a participation.
func (r *MilestoneRepository) ListByParticipation(ctx context.Context, participationID string) ([]*milestone.Milestone, error) {
	query := `
		SELECT id, participation_id, title, metric,
		       target_value, current_value, points, achieved, achieved_at
		FROM milestones
		WHERE participation_id = $1
		ORDER BY id
	`

	rows, err := r.conn.Query(ctx, query, participationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list milestones: %w", err)
	}
	defer rows.Close()

	var result []*milestone.Milestone
	for rows.Next() {
		var (
			m          milestone.Milestone
			points     int
			achievedAt *time.Time
		)
		err := rows.Scan(
			&m.ID, &m.ParticipationID, &m.Title, &m.Metric,
			&m.TargetValue, &m.CurrentValue, &points, &m.Achieved, &achievedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan milestone: %w", err)
		}
		m.Points = shared.Score(points)
		m.AchievedAt = timeOrZero(achievedAt)
		result = append(result, &m)
	}
	return result, rows.Err()
}

// SaveAll replaces the milestones of a participation after a recompute.
// Upsert keeps milestone IDs stable so achieved milestones are never lost.
func (r *MilestoneRepository) SaveAll(ctx context.Context, participationID string, milestones []*milestone.Milestone) error {
	return r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, m := range milestones {
			if m == nil {
				continue
			}
			batch.Queue(`
				INSERT INTO milestones (
					id, participation_id, title, metric,
					target_value, current_value, points, achieved, achieved_at
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
				ON CONFLICT (id) DO UPDATE SET
					current_value = EXCLUDED.current_value,
					achieved = milestones.achieved OR EXCLUDED.achieved,
					achieved_at = COALESCE(milestones.achieved_at, EXCLUDED.achieved_at)
			`,
				m.ID,
				participationID,
				m.Title,
				m.Metric,
				m.TargetValue,
				m.CurrentValue,
				int(m.Points),
				m.Achieved,
				nullableTime(m.AchievedAt),
			)
		}

		if batch.Len() == 0 {
			return nil
		}

		results := tx.SendBatch(ctx, batch)
		defer results.Close()

		for i := 0; i < batch.Len(); i++ {
			if _, err := results.Exec(); err != nil {
				return fmt.Errorf("failed to save milestone: %w", err)
			}
		}
		return nil
	})
}
