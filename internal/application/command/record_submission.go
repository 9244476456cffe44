// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arena-hub/arena-progress-hub/internal/domain/milestone"
	"github.com/arena-hub/arena-progress-hub/internal/domain/participation"
	"github.com/arena-hub/arena-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD SUBMISSION COMMAND
// Принимает проверенный сабмит и прогоняет полный конвейер пересчёта:
// прогресс требований → серия → вехи. Лидерборд пересобирается отдельной
// джобой, а не на каждом сабмите.
// ══════════════════════════════════════════════════════════════════════════════

// Метрики активности, по которым оцениваются вехи.
const (
	MetricCompletedRequirements = "completed_requirements"
	MetricTotalScore            = "total_score"
	MetricCurrentStreak         = "current_streak"
	MetricApprovedSubmissions   = "approved_submissions"
)

// RecordSubmissionCommand contains the reviewed submission to ingest.
type RecordSubmissionCommand struct {
	// ParticipationID is the participation the submission belongs to.
	ParticipationID string

	// SubmissionID is the external ID of the submission.
	SubmissionID string

	// RequirementID is the requirement the submission targets.
	RequirementID string

	// Status is the review verdict: pending, approved or rejected.
	Status participation.SubmissionStatus

	// Score is the awarded score (approved submissions only).
	Score int

	// SubmittedAt is when the submission was made (defaults to now if zero).
	SubmittedAt time.Time

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c RecordSubmissionCommand) Validate() error {
	if c.ParticipationID == "" {
		return errors.New("record_submission: participation_id is required")
	}
	if c.SubmissionID == "" {
		return errors.New("record_submission: submission_id is required")
	}
	if c.RequirementID == "" {
		return errors.New("record_submission: requirement_id is required")
	}
	switch c.Status {
	case participation.SubmissionPending, participation.SubmissionApproved, participation.SubmissionRejected:
	default:
		return fmt.Errorf("record_submission: unknown submission status: %s", c.Status)
	}
	if c.Score < 0 {
		return errors.New("record_submission: score cannot be negative")
	}
	return nil
}

// RecordSubmissionResult contains the outcome of the recompute pipeline.
type RecordSubmissionResult struct {
	// ParticipationID is the participation that was updated.
	ParticipationID string

	// Recomputed indicates whether progress was re-aggregated
	// (false for pending/rejected submissions).
	Recomputed bool

	// CompletionPct is the overall completion after the recompute.
	CompletionPct shared.Percent

	// CompletedCount is the number of completed requirements.
	CompletedCount int

	// TotalRequirements is the number of requirements in the competition.
	TotalRequirements int

	// NewlyCompleted lists requirement IDs completed by this submission.
	NewlyCompleted []shared.RequirementID

	// Streak is the streak state after the recompute.
	Streak participation.StreakState

	// StreakBroken indicates the previous streak reset to zero.
	StreakBroken bool

	// NewlyAchievedMilestones lists milestones achieved in this recompute.
	NewlyAchievedMilestones []*milestone.Milestone

	// Events contains domain events generated.
	Events []shared.Event

	// RecordedAt is when the submission was ingested.
	RecordedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// RecordSubmissionHandler handles the RecordSubmissionCommand.
type RecordSubmissionHandler struct {
	participationRepo participation.Repository
	requirementRepo   participation.RequirementRepository
	submissionRepo    participation.SubmissionRepository
	progressRepo      participation.ProgressRepository
	milestoneRepo     milestone.Repository
	aggregator        *participation.Aggregator
	evaluator         *milestone.Evaluator
	eventPublisher    shared.EventPublisher
	clock             shared.Clock
}

// NewRecordSubmissionHandler creates a new RecordSubmissionHandler.
func NewRecordSubmissionHandler(
	participationRepo participation.Repository,
	requirementRepo participation.RequirementRepository,
	submissionRepo participation.SubmissionRepository,
	progressRepo participation.ProgressRepository,
	milestoneRepo milestone.Repository,
	evaluator *milestone.Evaluator,
	eventPublisher shared.EventPublisher,
	clock shared.Clock,
) *RecordSubmissionHandler {
	if evaluator == nil {
		evaluator = milestone.NewEvaluator(nil)
	}
	if clock == nil {
		clock = shared.SystemClock{}
	}

	return &RecordSubmissionHandler{
		participationRepo: participationRepo,
		requirementRepo:   requirementRepo,
		submissionRepo:    submissionRepo,
		progressRepo:      progressRepo,
		milestoneRepo:     milestoneRepo,
		aggregator:        participation.NewAggregator(),
		evaluator:         evaluator,
		eventPublisher:    eventPublisher,
		clock:             clock,
	}
}

// Handle executes the record submission command.
func (h *RecordSubmissionHandler) Handle(ctx context.Context, cmd RecordSubmissionCommand) (*RecordSubmissionResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("record_submission: validation failed: %w", err)
	}

	now := h.clock.Now()
	submittedAt := cmd.SubmittedAt
	if submittedAt.IsZero() {
		submittedAt = now
	}

	p, err := h.participationRepo.GetByID(ctx, cmd.ParticipationID)
	if err != nil {
		return nil, fmt.Errorf("record_submission: failed to get participation: %w", err)
	}

	sub := participation.Submission{
		ID:            cmd.SubmissionID,
		RequirementID: shared.RequirementID(cmd.RequirementID),
		Status:        cmd.Status,
		Score:         cmd.Score,
		SubmittedAt:   submittedAt,
	}
	if err := h.submissionRepo.Record(ctx, p.ID, sub); err != nil {
		return nil, fmt.Errorf("record_submission: failed to record submission: %w", err)
	}

	result := &RecordSubmissionResult{
		ParticipationID: p.ID,
		RecordedAt:      now,
		Events:          make([]shared.Event, 0),
	}

	// Только одобренные сабмиты двигают прогресс.
	if !sub.IsApproved() {
		return result, nil
	}

	if err := h.recomputeProgress(ctx, p, result, now); err != nil {
		return nil, err
	}

	if err := h.recomputeStreak(ctx, p, result, now); err != nil {
		return nil, err
	}

	if err := h.recomputeMilestones(ctx, p, result, now); err != nil {
		return nil, err
	}

	if err := h.participationRepo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("record_submission: failed to update participation: %w", err)
	}

	event := shared.NewSubmissionRecordedEvent(
		p.ID, p.ParticipantID.String(), cmd.RequirementID, cmd.Score, p.TotalScore.Int())
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	result.Events = append(result.Events, event)

	for _, ev := range result.Events {
		_ = h.eventPublisher.Publish(ev)
	}

	return result, nil
}

// recomputeProgress пересчитывает прогресс требований по всей истории
// сабмитов и записывает новые зачёты в участие.
func (h *RecordSubmissionHandler) recomputeProgress(
	ctx context.Context,
	p *participation.Participation,
	result *RecordSubmissionResult,
	now time.Time,
) error {
	requirements, err := h.requirementRepo.ListByCompetition(ctx, p.CompetitionID)
	if err != nil {
		return fmt.Errorf("record_submission: failed to list requirements: %w", err)
	}

	submissions, err := h.submissionRepo.ListByParticipation(ctx, p.ID)
	if err != nil {
		return fmt.Errorf("record_submission: failed to list submissions: %w", err)
	}

	progress, err := h.aggregator.ComputeProgress(requirements, submissions)
	if err != nil {
		return fmt.Errorf("record_submission: progress aggregation failed: %w", err)
	}

	for _, rp := range progress {
		if !rp.Completed || p.HasCompleted(rp.RequirementID) {
			continue
		}
		if err := p.RecordCompletion(rp.RequirementID, rp.Score, rp.UpdatedAt); err != nil {
			return fmt.Errorf("record_submission: failed to record completion: %w", err)
		}
		result.NewlyCompleted = append(result.NewlyCompleted, rp.RequirementID)
	}

	if err := h.progressRepo.SaveRequirementProgress(ctx, p.ID, progress); err != nil {
		return fmt.Errorf("record_submission: failed to save progress: %w", err)
	}

	result.Recomputed = true
	result.CompletionPct = participation.OverallCompletion(progress)
	result.CompletedCount = participation.CompletedCount(progress)
	result.TotalRequirements = len(progress)

	result.Events = append(result.Events, shared.NewProgressRecomputedEvent(
		p.ID, p.ParticipantID.String(),
		result.CompletionPct.Float64(), result.CompletedCount, result.TotalRequirements))

	return nil
}

// recomputeStreak пересчитывает серию по датам активности участия.
func (h *RecordSubmissionHandler) recomputeStreak(
	ctx context.Context,
	p *participation.Participation,
	result *RecordSubmissionResult,
	now time.Time,
) error {
	prev, err := h.progressRepo.GetStreak(ctx, p.ID)
	if err != nil && !shared.IsNotFound(err) {
		return fmt.Errorf("record_submission: failed to get streak: %w", err)
	}

	activity, err := h.progressRepo.ListActivityDates(ctx, p.ID)
	if err != nil {
		return fmt.Errorf("record_submission: failed to list activity dates: %w", err)
	}

	next := participation.UpdateStreak(prev, activity, p.Timezone, now)

	if err := h.progressRepo.SaveStreak(ctx, p.ID, next); err != nil {
		return fmt.Errorf("record_submission: failed to save streak: %w", err)
	}

	result.Streak = next

	if next.CurrentStreak != prev.CurrentStreak {
		result.Events = append(result.Events, shared.NewStreakUpdatedEvent(
			p.ParticipantID.String(), next.CurrentStreak, next.LongestStreak))
	}
	if prev.CurrentStreak > 1 && next.CurrentStreak <= 1 && next.CurrentStreak < prev.CurrentStreak {
		result.StreakBroken = true
		result.Events = append(result.Events, shared.NewStreakBrokenEvent(
			p.ParticipantID.String(), prev.CurrentStreak))
	}

	return nil
}

// recomputeMilestones оценивает вехи по свежему срезу активности.
func (h *RecordSubmissionHandler) recomputeMilestones(
	ctx context.Context,
	p *participation.Participation,
	result *RecordSubmissionResult,
	now time.Time,
) error {
	milestones, err := h.milestoneRepo.ListByParticipation(ctx, p.ID)
	if err != nil {
		return fmt.Errorf("record_submission: failed to list milestones: %w", err)
	}
	if len(milestones) == 0 {
		return nil
	}

	snapshot := milestone.ActivitySnapshot{
		ParticipantID: p.ParticipantID,
		Metrics: map[string]int{
			MetricCompletedRequirements: len(p.CompletionEvents),
			MetricTotalScore:            p.TotalScore.Int(),
			MetricCurrentStreak:         result.Streak.CurrentStreak,
			MetricApprovedSubmissions:   result.CompletedCount,
		},
		TakenAt: now,
	}

	evaluation := h.evaluator.Evaluate(milestones, snapshot, now)

	if err := h.milestoneRepo.SaveAll(ctx, p.ID, evaluation.Updated); err != nil {
		return fmt.Errorf("record_submission: failed to save milestones: %w", err)
	}

	for _, m := range evaluation.NewlyAchieved {
		result.NewlyAchievedMilestones = append(result.NewlyAchievedMilestones, m)
		result.Events = append(result.Events, shared.NewMilestoneAchievedEvent(
			p.ParticipantID.String(), m.ID, m.Title, m.Points.Int(), m.AchievedAt))
	}

	return nil
}
