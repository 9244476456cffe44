package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/arena-hub/arena-progress-hub/internal/domain/leaderboard"
	"github.com/arena-hub/arena-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardRepository implements leaderboard.Repository using PostgreSQL.
// A snapshot is an immutable read model: its entries are stored as a single
// JSONB document and never updated in place.
type LeaderboardRepository struct {
	conn *Connection
}

// NewLeaderboardRepository creates a new leaderboard repository.
func NewLeaderboardRepository(conn *Connection) *LeaderboardRepository {
	return &LeaderboardRepository{conn: conn}
}

// entryRow is the JSONB shape of a leaderboard entry.
type entryRow struct {
	Rank           int       `json:"rank"`
	ParticipantID  string    `json:"participant_id"`
	DisplayName    string    `json:"display_name"`
	TotalScore     int       `json:"total_score"`
	EnrolledAt     time.Time `json:"enrolled_at"`
	Participations int       `json:"participations"`
	Achievements   int       `json:"achievements"`
	Badges         int       `json:"badges"`
	CurrentStreak  int       `json:"current_streak"`
	RankChange     int       `json:"rank_change"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func marshalEntries(entries []*leaderboard.Entry) ([]byte, error) {
	rows := make([]entryRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, entryRow{
			Rank:           int(e.Rank),
			ParticipantID:  e.ParticipantID.String(),
			DisplayName:    e.DisplayName,
			TotalScore:     int(e.TotalScore),
			EnrolledAt:     e.EnrolledAt,
			Participations: e.Participations,
			Achievements:   e.Achievements,
			Badges:         e.Badges,
			CurrentStreak:  e.CurrentStreak,
			RankChange:     int(e.RankChange),
			UpdatedAt:      e.UpdatedAt,
		})
	}
	return json.Marshal(rows)
}

func unmarshalEntries(data []byte) ([]*leaderboard.Entry, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var rows []entryRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal leaderboard entries: %w", err)
	}
	entries := make([]*leaderboard.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, &leaderboard.Entry{
			Rank:           leaderboard.Rank(row.Rank),
			ParticipantID:  shared.ParticipantID(row.ParticipantID),
			DisplayName:    row.DisplayName,
			TotalScore:     shared.Score(row.TotalScore),
			EnrolledAt:     row.EnrolledAt,
			Participations: row.Participations,
			Achievements:   row.Achievements,
			Badges:         row.Badges,
			CurrentStreak:  row.CurrentStreak,
			RankChange:     leaderboard.RankChange(row.RankChange),
			UpdatedAt:      row.UpdatedAt,
		})
	}
	return entries, nil
}

// SaveSnapshot persists a leaderboard snapshot.
func (r *LeaderboardRepository) SaveSnapshot(ctx context.Context, snapshot *leaderboard.Snapshot) error {
	entries, err := marshalEntries(snapshot.Entries)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO leaderboard_snapshots (
			id, competition_id, snapshot_at,
			total_participants, total_score, average_score, entries
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = r.conn.Exec(ctx, query,
		snapshot.ID,
		snapshot.CompetitionID.String(),
		snapshot.SnapshotAt,
		snapshot.TotalParticipants,
		snapshot.TotalScore,
		int(snapshot.AverageScore),
		entries,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// GetLatestSnapshot returns the most recent snapshot of a competition.
// Returns shared.ErrSnapshotNotFound when no snapshot exists yet.
func (r *LeaderboardRepository) GetLatestSnapshot(ctx context.Context, competitionID shared.CompetitionID) (*leaderboard.Snapshot, error) {
	query := `
		SELECT id, competition_id, snapshot_at,
		       total_participants, total_score, average_score, entries
		FROM leaderboard_snapshots
		WHERE competition_id = $1
		ORDER BY snapshot_at DESC
		LIMIT 1
	`

	var (
		snapshot    leaderboard.Snapshot
		cid         string
		avgScore    int
		entriesJSON []byte
	)

	err := r.conn.QueryRow(ctx, query, competitionID.String()).Scan(
		&snapshot.ID, &cid, &snapshot.SnapshotAt,
		&snapshot.TotalParticipants, &snapshot.TotalScore, &avgScore, &entriesJSON,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
	}

	snapshot.CompetitionID = shared.CompetitionID(cid)
	snapshot.AverageScore = shared.Score(avgScore)
	snapshot.Entries, err = unmarshalEntries(entriesJSON)
	if err != nil {
		return nil, err
	}
	snapshot.RebuildIndex()
	return &snapshot, nil
}

// PruneSnapshots deletes all but the newest `keep` snapshots of a competition.
func (r *LeaderboardRepository) PruneSnapshots(ctx context.Context, competitionID shared.CompetitionID, keep int) error {
	if keep <= 0 {
		keep = 1
	}

	query := `
		DELETE FROM leaderboard_snapshots
		WHERE competition_id = $1
		  AND id NOT IN (
			SELECT id FROM leaderboard_snapshots
			WHERE competition_id = $1
			ORDER BY snapshot_at DESC
			LIMIT $2
		  )
	`

	if _, err := r.conn.Exec(ctx, query, competitionID.String(), keep); err != nil {
		return fmt.Errorf("failed to prune snapshots: %w", err)
	}
	return nil
}
