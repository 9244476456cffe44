// Package jobs contains implementations of scheduled jobs for the
// progress engine.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/arena-hub/arena-progress-hub/internal/application/command"
	"github.com/arena-hub/arena-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REBUILD LEADERBOARD JOB
// ══════════════════════════════════════════════════════════════════════════════

// RebuildLeaderboardJob periodically rebuilds the leaderboard of every
// tracked competition. The rebuild itself lives in the command handler;
// the job only provides scheduling, timeouts and correlation IDs.
type RebuildLeaderboardJob struct {
	handler      *command.RebuildLeaderboardHandler
	competitions []shared.CompetitionID
	timeout      time.Duration
	logger       *slog.Logger
}

// NewRebuildLeaderboardJob creates a new rebuild leaderboard job.
func NewRebuildLeaderboardJob(
	handler *command.RebuildLeaderboardHandler,
	competitions []shared.CompetitionID,
	timeout time.Duration,
	logger *slog.Logger,
) *RebuildLeaderboardJob {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &RebuildLeaderboardJob{
		handler:      handler,
		competitions: competitions,
		timeout:      timeout,
		logger:       logger.With("job", "rebuild_leaderboard"),
	}
}

// Name returns the job name.
func (j *RebuildLeaderboardJob) Name() string {
	return "rebuild_leaderboard"
}

// Description returns a human-readable description.
func (j *RebuildLeaderboardJob) Description() string {
	return "Rebuilds competition leaderboards and publishes rank changes"
}

// Run executes the job.
func (j *RebuildLeaderboardJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	correlationID := uuid.NewString()
	var failed int

	for _, competitionID := range j.competitions {
		result, err := j.handler.Handle(ctx, command.RebuildLeaderboardCommand{
			CompetitionID: competitionID,
			CorrelationID: correlationID,
		})
		if err != nil {
			failed++
			j.logger.Error("leaderboard rebuild failed",
				"competition_id", competitionID,
				"error", err,
			)
			continue
		}

		j.logger.Info("leaderboard rebuilt",
			"competition_id", competitionID,
			"participants", result.TotalParticipants,
			"movements", len(result.Movements),
		)
	}

	if failed > 0 {
		return fmt.Errorf("rebuild failed for %d of %d competitions", failed, len(j.competitions))
	}
	return nil
}
