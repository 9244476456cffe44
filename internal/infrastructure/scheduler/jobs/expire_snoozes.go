package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/arena-hub/arena-progress-hub/internal/application/command"
)

// ══════════════════════════════════════════════════════════════════════════════
// EXPIRE SNOOZES JOB
// ══════════════════════════════════════════════════════════════════════════════

// ExpireSnoozesJob returns snoozed alerts whose deadline has passed to
// the active state. Alerts hold no timers themselves; this sweep is the
// only mechanism that wakes them.
type ExpireSnoozesJob struct {
	handler *command.WakeSnoozedAlertsHandler
	timeout time.Duration
	logger  *slog.Logger
}

// NewExpireSnoozesJob creates a new expire snoozes job.
func NewExpireSnoozesJob(handler *command.WakeSnoozedAlertsHandler, timeout time.Duration, logger *slog.Logger) *ExpireSnoozesJob {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &ExpireSnoozesJob{
		handler: handler,
		timeout: timeout,
		logger:  logger.With("job", "expire_snoozes"),
	}
}

// Name returns the job name.
func (j *ExpireSnoozesJob) Name() string {
	return "expire_snoozes"
}

// Description returns a human-readable description.
func (j *ExpireSnoozesJob) Description() string {
	return "Wakes snoozed alerts whose snooze deadline has expired"
}

// Run executes the job.
func (j *ExpireSnoozesJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	result, err := j.handler.Handle(ctx, command.WakeSnoozedAlertsCommand{
		CorrelationID: uuid.NewString(),
	})
	if err != nil {
		return err
	}

	if result.Woken > 0 {
		j.logger.Info("snoozed alerts woken",
			"checked", result.Checked,
			"woken", result.Woken,
		)
	}
	return nil
}
