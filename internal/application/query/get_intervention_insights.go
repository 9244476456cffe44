package query

import (
	"context"
	"errors"
	"time"

	"github.com/arena-hub/arena-progress-hub/internal/domain/intervention"
	"github.com/arena-hub/arena-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET INTERVENTION INSIGHTS QUERY
// Собирает производную аналитику по портфелю интервенций соревнования:
// счётчики статусов, долю успеха, просроченные, наступившие follow-up
// и детерминированные советы по таблице правил.
// ══════════════════════════════════════════════════════════════════════════════

// GetInterventionInsightsQuery содержит параметры запроса аналитики.
type GetInterventionInsightsQuery struct {
	// CompetitionID - соревнование.
	CompetitionID shared.CompetitionID
}

// Validate проверяет корректность параметров запроса.
func (q GetInterventionInsightsQuery) Validate() error {
	if !q.CompetitionID.IsValid() {
		return errors.New("valid competition_id is required")
	}
	return nil
}

// InterventionSummaryDTO - краткое описание одной интервенции.
type InterventionSummaryDTO struct {
	// InterventionID - идентификатор интервенции.
	InterventionID string `json:"intervention_id"`

	// ParticipantID - участник.
	ParticipantID string `json:"participant_id"`

	// Title - заголовок.
	Title string `json:"title"`

	// Type / Priority / Status - классификация.
	Type     string `json:"type"`
	Priority string `json:"priority"`
	Status   string `json:"status"`

	// ScheduledDate - плановая дата начала.
	ScheduledDate time.Time `json:"scheduled_date"`

	// FollowUpDate - дата повторного контроля (нулевая, если не назначен).
	FollowUpDate time.Time `json:"follow_up_date,omitempty"`
}

// SuggestionDTO - один совет с метрикой-триггером.
type SuggestionDTO struct {
	// Insight - текст совета.
	Insight string `json:"insight"`

	// TriggeringMetric - метрика, из-за которой сработало правило.
	TriggeringMetric string `json:"triggering_metric"`
}

// GetInterventionInsightsResult содержит результат запроса аналитики.
type GetInterventionInsightsResult struct {
	// CompetitionID - соревнование.
	CompetitionID string `json:"competition_id"`

	// Total - общее количество интервенций.
	Total int `json:"total"`

	// CountByStatus - количество интервенций в каждом статусе.
	CountByStatus map[string]int `json:"count_by_status"`

	// SuccessRatePct - доля завершённых с оценкой >= 4 (0, если нет завершённых).
	SuccessRatePct float64 `json:"success_rate_pct"`

	// Overdue - запланированные интервенции с прошедшей плановой датой.
	Overdue []InterventionSummaryDTO `json:"overdue"`

	// FollowUpsDue - интервенции с наступившим повторным контролем.
	FollowUpsDue []InterventionSummaryDTO `json:"follow_ups_due"`

	// Suggestions - детерминированные советы по таблице правил.
	Suggestions []SuggestionDTO `json:"suggestions"`

	// GeneratedAt - время генерации результата.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetInterventionInsightsHandler обрабатывает запросы аналитики интервенций.
type GetInterventionInsightsHandler struct {
	interventionRepo intervention.Repository
	clock            shared.Clock
}

// NewGetInterventionInsightsHandler создаёт новый обработчик аналитики.
func NewGetInterventionInsightsHandler(interventionRepo intervention.Repository, clock shared.Clock) *GetInterventionInsightsHandler {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &GetInterventionInsightsHandler{
		interventionRepo: interventionRepo,
		clock:            clock,
	}
}

// Handle выполняет запрос аналитики интервенций.
func (h *GetInterventionInsightsHandler) Handle(ctx context.Context, query GetInterventionInsightsQuery) (*GetInterventionInsightsResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetInterventionInsights", shared.ErrValidation, err.Error(), err)
	}

	now := h.clock.Now()

	interventions, err := h.interventionRepo.ListByCompetition(ctx, query.CompetitionID)
	if err != nil {
		return nil, shared.WrapError("query", "GetInterventionInsights", shared.ErrExternalService,
			"failed to list interventions", err)
	}

	result := &GetInterventionInsightsResult{
		CompetitionID:  query.CompetitionID.String(),
		Total:          len(interventions),
		CountByStatus:  make(map[string]int, 4),
		SuccessRatePct: intervention.SuccessRate(interventions).Float64(),
		GeneratedAt:    now,
	}

	for status, count := range intervention.CountByStatus(interventions) {
		result.CountByStatus[status.String()] = count
	}

	for _, i := range interventions {
		if intervention.Overdue(i, now) {
			result.Overdue = append(result.Overdue, toSummaryDTO(i))
		}
		if intervention.FollowUpDue(i, now) {
			result.FollowUpsDue = append(result.FollowUpsDue, toSummaryDTO(i))
		}
	}

	for _, s := range intervention.WorkflowSuggestions(interventions, now) {
		result.Suggestions = append(result.Suggestions, SuggestionDTO{
			Insight:          s.Insight,
			TriggeringMetric: s.TriggeringMetric,
		})
	}

	return result, nil
}

func toSummaryDTO(i *intervention.Intervention) InterventionSummaryDTO {
	return InterventionSummaryDTO{
		InterventionID: i.ID,
		ParticipantID:  i.ParticipantID.String(),
		Title:          i.Title,
		Type:           string(i.Type),
		Priority:       string(i.Priority),
		Status:         i.Status.String(),
		ScheduledDate:  i.ScheduledDate,
		FollowUpDate:   i.FollowUpDate,
	}
}
