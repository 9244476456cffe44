package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/arena-hub/arena-progress-hub/internal/domain/participation"
	"github.com/arena-hub/arena-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECOMPUTE STREAKS JOB
// ══════════════════════════════════════════════════════════════════════════════

// RecomputeStreaksJob rolls streaks over day boundaries. Streaks are
// recomputed on every approved submission, but a participant who stops
// submitting produces no triggers: without this sweep a dead streak
// would stay at its last value forever.
type RecomputeStreaksJob struct {
	participationRepo participation.Repository
	progressRepo      participation.ProgressRepository
	eventPublisher    shared.EventPublisher
	competitions      []shared.CompetitionID
	clock             shared.Clock
	logger            *slog.Logger
}

// NewRecomputeStreaksJob creates a new recompute streaks job.
func NewRecomputeStreaksJob(
	participationRepo participation.Repository,
	progressRepo participation.ProgressRepository,
	eventPublisher shared.EventPublisher,
	competitions []shared.CompetitionID,
	clock shared.Clock,
	logger *slog.Logger,
) *RecomputeStreaksJob {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RecomputeStreaksJob{
		participationRepo: participationRepo,
		progressRepo:      progressRepo,
		eventPublisher:    eventPublisher,
		competitions:      competitions,
		clock:             clock,
		logger:            logger.With("job", "recompute_streaks"),
	}
}

// Name returns the job name.
func (j *RecomputeStreaksJob) Name() string {
	return "recompute_streaks"
}

// Description returns a human-readable description.
func (j *RecomputeStreaksJob) Description() string {
	return "Recomputes activity streaks and publishes breaks for inactive participants"
}

// Run executes the job.
func (j *RecomputeStreaksJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	now := j.clock.Now()
	var failed int

	for _, competitionID := range j.competitions {
		participations, err := j.participationRepo.ListActiveByCompetition(ctx, competitionID)
		if err != nil {
			failed++
			j.logger.Error("failed to list participations",
				"competition_id", competitionID,
				"error", err,
			)
			continue
		}

		for _, p := range participations {
			if err := j.recompute(ctx, p, now); err != nil {
				j.logger.Warn("streak recompute failed",
					"participation_id", p.ID,
					"error", err,
				)
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("streak sweep failed for %d of %d competitions", failed, len(j.competitions))
	}
	return nil
}

func (j *RecomputeStreaksJob) recompute(ctx context.Context, p *participation.Participation, now time.Time) error {
	prev, err := j.progressRepo.GetStreak(ctx, p.ID)
	if err != nil {
		return err
	}
	if !prev.IsActive() {
		// Уже сброшенная серия повторных событий не порождает.
		return nil
	}

	activity, err := j.progressRepo.ListActivityDates(ctx, p.ID)
	if err != nil {
		return err
	}

	next := participation.UpdateStreak(prev, activity, p.Timezone, now)
	if next == prev {
		return nil
	}

	if err := j.progressRepo.SaveStreak(ctx, p.ID, next); err != nil {
		return err
	}

	if prev.CurrentStreak > 1 && next.CurrentStreak <= 1 {
		_ = j.eventPublisher.Publish(shared.NewStreakBrokenEvent(p.ParticipantID.String(), prev.CurrentStreak))
	}
	return nil
}
