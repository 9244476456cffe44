package query

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/arena-hub/arena-progress-hub/internal/domain/alert"
	"github.com/arena-hub/arena-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIST OPEN ALERTS QUERY
// Возвращает нетерминальные алерты соревнования, отсортированные по
// серьёзности (критичные первыми), затем по возрасту (старые первыми).
// ══════════════════════════════════════════════════════════════════════════════

// ListOpenAlertsQuery содержит параметры запроса алертов.
type ListOpenAlertsQuery struct {
	// CompetitionID - соревнование.
	CompetitionID shared.CompetitionID

	// Severity - фильтр по серьёзности (пустая = все).
	Severity alert.Severity

	// IncludeSnoozed - включать отложенные алерты.
	IncludeSnoozed bool
}

// Validate проверяет корректность параметров запроса.
func (q ListOpenAlertsQuery) Validate() error {
	if !q.CompetitionID.IsValid() {
		return errors.New("valid competition_id is required")
	}
	if q.Severity != "" && !q.Severity.IsValid() {
		return errors.New("unknown severity filter")
	}
	return nil
}

// AlertDTO - DTO одного алерта.
type AlertDTO struct {
	// AlertID - идентификатор алерта.
	AlertID string `json:"alert_id"`

	// Category / Severity - классификация.
	Category string `json:"category"`
	Severity string `json:"severity"`

	// Title / Description - содержимое.
	Title       string `json:"title"`
	Description string `json:"description"`

	// ParticipantID - участник (пустой для алертов уровня класса).
	ParticipantID string `json:"participant_id,omitempty"`

	// Status - состояние жизненного цикла.
	Status string `json:"status"`

	// ActionCount - длина журнала действий.
	ActionCount int `json:"action_count"`

	// CreatedAt - время создания.
	CreatedAt time.Time `json:"created_at"`

	// SnoozedUntil - срок отложенного алерта.
	SnoozedUntil *time.Time `json:"snoozed_until,omitempty"`
}

// ListOpenAlertsResult содержит результат запроса алертов.
type ListOpenAlertsResult struct {
	// CompetitionID - соревнование.
	CompetitionID string `json:"competition_id"`

	// Alerts - открытые алерты в порядке приоритета.
	Alerts []AlertDTO `json:"alerts"`

	// CountBySeverity - количество по серьёзности.
	CountBySeverity map[string]int `json:"count_by_severity"`

	// GeneratedAt - время генерации результата.
	GeneratedAt time.Time `json:"generated_at"`
}

// ListOpenAlertsHandler обрабатывает запросы открытых алертов.
type ListOpenAlertsHandler struct {
	alertRepo alert.Repository
	clock     shared.Clock
}

// NewListOpenAlertsHandler создаёт новый обработчик запроса алертов.
func NewListOpenAlertsHandler(alertRepo alert.Repository, clock shared.Clock) *ListOpenAlertsHandler {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &ListOpenAlertsHandler{
		alertRepo: alertRepo,
		clock:     clock,
	}
}

// Handle выполняет запрос открытых алертов.
func (h *ListOpenAlertsHandler) Handle(ctx context.Context, query ListOpenAlertsQuery) (*ListOpenAlertsResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "ListOpenAlerts", shared.ErrValidation, err.Error(), err)
	}

	alerts, err := h.alertRepo.ListOpen(ctx, query.CompetitionID)
	if err != nil {
		return nil, shared.WrapError("query", "ListOpenAlerts", shared.ErrExternalService,
			"failed to list alerts", err)
	}

	filtered := make([]*alert.Alert, 0, len(alerts))
	for _, a := range alerts {
		if a.Status == alert.StatusSnoozed && !query.IncludeSnoozed {
			continue
		}
		if query.Severity != "" && a.Severity != query.Severity {
			continue
		}
		filtered = append(filtered, a)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		ai, aj := filtered[i], filtered[j]
		if ai.Severity.Weight() != aj.Severity.Weight() {
			return ai.Severity.Weight() > aj.Severity.Weight()
		}
		return ai.CreatedAt.Before(aj.CreatedAt)
	})

	result := &ListOpenAlertsResult{
		CompetitionID:   query.CompetitionID.String(),
		Alerts:          make([]AlertDTO, 0, len(filtered)),
		CountBySeverity: make(map[string]int),
		GeneratedAt:     h.clock.Now(),
	}

	for _, a := range filtered {
		dto := AlertDTO{
			AlertID:       a.ID,
			Category:      string(a.Category),
			Severity:      string(a.Severity),
			Title:         a.Title,
			Description:   a.Description,
			ParticipantID: a.SubjectParticipantID.String(),
			Status:        a.Status.String(),
			ActionCount:   len(a.Actions),
			CreatedAt:     a.CreatedAt,
		}
		if !a.SnoozedUntil.IsZero() {
			until := a.SnoozedUntil
			dto.SnoozedUntil = &until
		}
		result.Alerts = append(result.Alerts, dto)
		result.CountBySeverity[string(a.Severity)]++
	}

	return result, nil
}
