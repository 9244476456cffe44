package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/arena-hub/arena-progress-hub/internal/domain/leaderboard"
	"github.com/arena-hub/arena-progress-hub/internal/domain/milestone"
	"github.com/arena-hub/arena-progress-hub/internal/domain/participation"
	"github.com/arena-hub/arena-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REBUILD LEADERBOARD COMMAND
// Пересобирает лидерборд соревнования целиком: собирает записи из
// участий, ранжирует, сравнивает с предыдущим снапшотом, сохраняет
// новый снапшот и кэш. Лидерборд никогда не мутируется частично.
// ══════════════════════════════════════════════════════════════════════════════

// snapshotsToKeep ограничивает историю снапшотов на соревнование.
const snapshotsToKeep = 48

// RebuildLeaderboardCommand contains the competition to rebuild.
type RebuildLeaderboardCommand struct {
	// CompetitionID is the competition whose leaderboard to rebuild.
	CompetitionID shared.CompetitionID

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c RebuildLeaderboardCommand) Validate() error {
	if !c.CompetitionID.IsValid() {
		return errors.New("rebuild_leaderboard: valid competition_id is required")
	}
	return nil
}

// RebuildLeaderboardResult contains the outcome of a rebuild.
type RebuildLeaderboardResult struct {
	// SnapshotID is the ID of the new snapshot.
	SnapshotID string

	// TotalParticipants is the number of ranked participants.
	TotalParticipants int

	// Movements lists participants whose rank changed.
	Movements []leaderboard.RankMovement

	// RebuiltAt is when the rebuild finished.
	RebuiltAt time.Time
}

// RebuildLeaderboardHandler handles the RebuildLeaderboardCommand.
type RebuildLeaderboardHandler struct {
	participationRepo participation.Repository
	progressRepo      participation.ProgressRepository
	milestoneRepo     milestone.Repository
	leaderboardRepo   leaderboard.Repository
	leaderboardCache  leaderboard.Cache
	eventPublisher    shared.EventPublisher
	clock             shared.Clock
}

// NewRebuildLeaderboardHandler creates a new RebuildLeaderboardHandler.
func NewRebuildLeaderboardHandler(
	participationRepo participation.Repository,
	progressRepo participation.ProgressRepository,
	milestoneRepo milestone.Repository,
	leaderboardRepo leaderboard.Repository,
	leaderboardCache leaderboard.Cache,
	eventPublisher shared.EventPublisher,
	clock shared.Clock,
) *RebuildLeaderboardHandler {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &RebuildLeaderboardHandler{
		participationRepo: participationRepo,
		progressRepo:      progressRepo,
		milestoneRepo:     milestoneRepo,
		leaderboardRepo:   leaderboardRepo,
		leaderboardCache:  leaderboardCache,
		eventPublisher:    eventPublisher,
		clock:             clock,
	}
}

// Handle executes the rebuild leaderboard command.
func (h *RebuildLeaderboardHandler) Handle(ctx context.Context, cmd RebuildLeaderboardCommand) (*RebuildLeaderboardResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("rebuild_leaderboard: validation failed: %w", err)
	}

	now := h.clock.Now()

	participations, err := h.participationRepo.ListByCompetition(ctx, cmd.CompetitionID, participation.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("rebuild_leaderboard: failed to list participations: %w", err)
	}

	ranking := leaderboard.NewRanking()
	for _, p := range participations {
		entry, err := leaderboard.NewEntry(p.ParticipantID, p.DisplayName, p.TotalScore, p.EnrolledAt)
		if err != nil {
			continue
		}
		entry.Participations = 1
		entry.UpdatedAt = now
		h.enrichEntry(ctx, p, entry)
		if err := ranking.Add(entry); err != nil {
			// Дубликат участника в рамках одного соревнования - дефект данных.
			return nil, fmt.Errorf("rebuild_leaderboard: %w", err)
		}
	}
	ranking.Rank()

	snapshot := leaderboard.NewSnapshot(uuid.NewString(), cmd.CompetitionID, ranking, now)

	previous, err := h.leaderboardRepo.GetLatestSnapshot(ctx, cmd.CompetitionID)
	if err != nil && !shared.IsNotFound(err) {
		return nil, fmt.Errorf("rebuild_leaderboard: failed to get previous snapshot: %w", err)
	}
	movements := snapshot.Diff(previous)

	if err := h.leaderboardRepo.SaveSnapshot(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("rebuild_leaderboard: failed to save snapshot: %w", err)
	}
	_ = h.leaderboardRepo.PruneSnapshots(ctx, cmd.CompetitionID, snapshotsToKeep)

	if h.leaderboardCache != nil {
		if err := h.leaderboardCache.StoreSnapshot(ctx, snapshot); err != nil {
			// Кэш не критичен: чтение упадёт обратно на репозиторий.
			slog.Warn("leaderboard cache store failed, reads fall back to repository",
				"competition_id", cmd.CompetitionID.String(),
				"snapshot_id", snapshot.ID,
				"error", err,
			)
		}
	}

	h.assignRanks(ctx, participations, snapshot)

	for _, m := range movements {
		event := shared.NewRankChangedEvent(m.ParticipantID.String(), int(m.OldRank), int(m.NewRank))
		if cmd.CorrelationID != "" {
			event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
		}
		_ = h.eventPublisher.Publish(event)
	}

	return &RebuildLeaderboardResult{
		SnapshotID:        snapshot.ID,
		TotalParticipants: snapshot.TotalParticipants,
		Movements:         movements,
		RebuiltAt:         now,
	}, nil
}

// enrichEntry дополняет запись серией и количеством достигнутых вех.
// Отказ обогащения не прерывает пересборку: счёт и ранг важнее.
func (h *RebuildLeaderboardHandler) enrichEntry(ctx context.Context, p *participation.Participation, entry *leaderboard.Entry) {
	if streak, err := h.progressRepo.GetStreak(ctx, p.ID); err == nil {
		entry.CurrentStreak = streak.CurrentStreak
	}
	if milestones, err := h.milestoneRepo.ListByParticipation(ctx, p.ID); err == nil {
		for _, m := range milestones {
			if m != nil && m.Achieved {
				entry.Achievements++
			}
		}
	}
}

// assignRanks записывает присвоенные ранги обратно в участия.
func (h *RebuildLeaderboardHandler) assignRanks(ctx context.Context, participations []*participation.Participation, snapshot *leaderboard.Snapshot) {
	for _, p := range participations {
		rank := snapshot.GetRank(p.ParticipantID)
		if rank == 0 || p.Rank == int(rank) {
			continue
		}
		if err := p.AssignRank(int(rank)); err != nil {
			continue
		}
		_ = h.participationRepo.Update(ctx, p)
	}
}
