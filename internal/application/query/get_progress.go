// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
// Each query is a self-contained use case with its own request/response types.
package query

import (
	"context"
	"errors"
	"time"

	"github.com/arena-hub/arena-progress-hub/internal/domain/milestone"
	"github.com/arena-hub/arena-progress-hub/internal/domain/participation"
	"github.com/arena-hub/arena-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PROGRESS QUERY
// Собирает полную картину прогресса участия: требования, общий процент,
// серию, прогноз завершения и вехи. Читает сохранённые производные
// данные; пересчёт - забота команд.
// ══════════════════════════════════════════════════════════════════════════════

// GetProgressQuery содержит параметры запроса прогресса.
type GetProgressQuery struct {
	// ParticipationID - участие, по которому нужен прогресс.
	ParticipationID string
}

// Validate проверяет корректность параметров запроса.
func (q GetProgressQuery) Validate() error {
	if q.ParticipationID == "" {
		return errors.New("participation_id is required")
	}
	return nil
}

// RequirementProgressDTO - DTO прогресса одного требования.
type RequirementProgressDTO struct {
	// RequirementID - идентификатор требования.
	RequirementID string `json:"requirement_id"`

	// Title - название требования.
	Title string `json:"title"`

	// Required - обязательное ли требование.
	Required bool `json:"required"`

	// Completed - зачтено ли требование.
	Completed bool `json:"completed"`

	// ProgressPct - числовой прогресс (0-100).
	ProgressPct float64 `json:"progress_pct"`

	// Score / MaxScore - балл лучшего одобренного сабмита и максимум.
	Score    int `json:"score"`
	MaxScore int `json:"max_score"`
}

// MilestoneDTO - DTO одной вехи.
type MilestoneDTO struct {
	// MilestoneID - идентификатор вехи.
	MilestoneID string `json:"milestone_id"`

	// Title - название вехи.
	Title string `json:"title"`

	// ProgressPct - прогресс вехи (0-100).
	ProgressPct float64 `json:"progress_pct"`

	// CurrentValue / TargetValue - текущее и целевое значение метрики.
	CurrentValue int `json:"current_value"`
	TargetValue  int `json:"target_value"`

	// Points - баллы за достижение.
	Points int `json:"points"`

	// Achieved - достигнута ли веха.
	Achieved bool `json:"achieved"`

	// AchievedAt - время достижения.
	AchievedAt *time.Time `json:"achieved_at,omitempty"`
}

// EstimateDTO - DTO прогноза завершения.
type EstimateDTO struct {
	// RatePerDay - средний прирост процента за день.
	RatePerDay float64 `json:"rate_per_day"`

	// EstimatedDays - оценка оставшихся дней.
	EstimatedDays int `json:"estimated_days"`

	// EstimatedCompletionAt - расчётная дата завершения.
	EstimatedCompletionAt time.Time `json:"estimated_completion_at"`
}

// GetProgressResult содержит результат запроса прогресса.
type GetProgressResult struct {
	// ParticipationID - участие.
	ParticipationID string `json:"participation_id"`

	// ParticipantID - участник.
	ParticipantID string `json:"participant_id"`

	// CompetitionID - соревнование.
	CompetitionID string `json:"competition_id"`

	// Status - статус участия.
	Status string `json:"status"`

	// CompletionPct - общий процент завершения.
	CompletionPct float64 `json:"completion_pct"`

	// CompletedCount / TotalRequirements - зачтено / всего требований.
	CompletedCount    int `json:"completed_count"`
	TotalRequirements int `json:"total_requirements"`

	// TotalScore - текущая сумма баллов.
	TotalScore int `json:"total_score"`

	// Rank - позиция в лидерборде (0 = не присвоена).
	Rank int `json:"rank"`

	// Requirements - прогресс по требованиям (отсортирован для отображения).
	Requirements []RequirementProgressDTO `json:"requirements"`

	// CurrentStreak / LongestStreak - серия активных дней.
	CurrentStreak int `json:"current_streak"`
	LongestStreak int `json:"longest_streak"`

	// Estimate - прогноз завершения. nil, если сигнала ещё недостаточно:
	// это ожидаемый исход, а не ошибка.
	Estimate *EstimateDTO `json:"estimate,omitempty"`

	// Milestones - вехи участия (отсортированы для отображения).
	Milestones []MilestoneDTO `json:"milestones"`

	// GeneratedAt - время генерации результата.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetProgressHandler обрабатывает запросы прогресса.
type GetProgressHandler struct {
	participationRepo participation.Repository
	progressRepo      participation.ProgressRepository
	milestoneRepo     milestone.Repository
	clock             shared.Clock
}

// NewGetProgressHandler создаёт новый обработчик запроса прогресса.
func NewGetProgressHandler(
	participationRepo participation.Repository,
	progressRepo participation.ProgressRepository,
	milestoneRepo milestone.Repository,
	clock shared.Clock,
) *GetProgressHandler {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &GetProgressHandler{
		participationRepo: participationRepo,
		progressRepo:      progressRepo,
		milestoneRepo:     milestoneRepo,
		clock:             clock,
	}
}

// Handle выполняет запрос прогресса.
func (h *GetProgressHandler) Handle(ctx context.Context, query GetProgressQuery) (*GetProgressResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetProgress", shared.ErrValidation, err.Error(), err)
	}

	now := h.clock.Now()

	p, err := h.participationRepo.GetByID(ctx, query.ParticipationID)
	if err != nil {
		return nil, err
	}

	progress, err := h.progressRepo.GetRequirementProgress(ctx, p.ID)
	if err != nil && !shared.IsNotFound(err) {
		return nil, shared.WrapError("query", "GetProgress", shared.ErrExternalService,
			"failed to load requirement progress", err)
	}
	participation.SortForDisplay(progress)

	completionPct := participation.OverallCompletion(progress)

	streak, err := h.progressRepo.GetStreak(ctx, p.ID)
	if err != nil && !shared.IsNotFound(err) {
		return nil, shared.WrapError("query", "GetProgress", shared.ErrExternalService,
			"failed to load streak", err)
	}

	result := &GetProgressResult{
		ParticipationID:   p.ID,
		ParticipantID:     p.ParticipantID.String(),
		CompetitionID:     p.CompetitionID.String(),
		Status:            p.Status.String(),
		CompletionPct:     completionPct.Float64(),
		CompletedCount:    participation.CompletedCount(progress),
		TotalRequirements: len(progress),
		TotalScore:        p.TotalScore.Int(),
		Rank:              p.Rank,
		CurrentStreak:     streak.CurrentStreak,
		LongestStreak:     streak.LongestStreak,
		GeneratedAt:       now,
	}

	result.Requirements = make([]RequirementProgressDTO, len(progress))
	for i, rp := range progress {
		result.Requirements[i] = RequirementProgressDTO{
			RequirementID: rp.RequirementID.String(),
			Title:         rp.Title,
			Required:      rp.Required,
			Completed:     rp.Completed,
			ProgressPct:   rp.Progress.Float64(),
			Score:         rp.Score,
			MaxScore:      rp.MaxScore,
		}
	}

	// Прогноз: недостаточный сигнал оставляет Estimate пустым.
	estimate, err := participation.EstimateCompletion(p, completionPct, now)
	switch {
	case err == nil:
		result.Estimate = &EstimateDTO{
			RatePerDay:            estimate.RatePerDay,
			EstimatedDays:         estimate.EstimatedDays,
			EstimatedCompletionAt: estimate.EstimatedCompletionAt,
		}
	case shared.IsInsufficientSignal(err):
		// Ожидаемый именованный исход: прогноза пока нет.
	default:
		return nil, err
	}

	milestones, err := h.milestoneRepo.ListByParticipation(ctx, p.ID)
	if err != nil && !shared.IsNotFound(err) {
		return nil, shared.WrapError("query", "GetProgress", shared.ErrExternalService,
			"failed to load milestones", err)
	}
	milestone.SortForDisplay(milestones)

	result.Milestones = make([]MilestoneDTO, 0, len(milestones))
	for _, m := range milestones {
		dto := MilestoneDTO{
			MilestoneID:  m.ID,
			Title:        m.Title,
			ProgressPct:  m.Progress().Float64(),
			CurrentValue: m.CurrentValue,
			TargetValue:  m.TargetValue,
			Points:       m.Points.Int(),
			Achieved:     m.Achieved,
		}
		if m.Achieved {
			at := m.AchievedAt
			dto.AchievedAt = &at
		}
		result.Milestones = append(result.Milestones, dto)
	}

	return result, nil
}
