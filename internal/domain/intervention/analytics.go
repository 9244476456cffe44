package intervention

import (
	"fmt"
	"time"

	"github.com/arena-hub/arena-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DERIVED ANALYTICS
// Производные показатели интервенций. Пересчитываются по требованию
// из списка интервенций и нигде не хранятся как отдельные сущности.
// ══════════════════════════════════════════════════════════════════════════════

// Overdue возвращает true для запланированной интервенции,
// чья плановая дата уже прошла.
func Overdue(i *Intervention, now time.Time) bool {
	if i == nil || i.Status != StatusPlanned {
		return false
	}
	return !i.ScheduledDate.IsZero() && i.ScheduledDate.Before(now)
}

// FollowUpDue возвращает true, если назначенный повторный контроль наступил.
func FollowUpDue(i *Intervention, now time.Time) bool {
	if i == nil || !i.FollowUpRequired {
		return false
	}
	return !i.FollowUpDate.IsZero() && !i.FollowUpDate.After(now)
}

// SuccessRate возвращает долю завершённых интервенций с оценкой >= 4.
// Пустой список и отсутствие завершённых дают 0, а не NaN.
func SuccessRate(interventions []*Intervention) shared.Percent {
	completed := 0
	successful := 0
	for _, i := range interventions {
		if i == nil || i.Status != StatusCompleted {
			continue
		}
		completed++
		if i.Effectiveness.IsSuccessful() {
			successful++
		}
	}
	return shared.Ratio(successful, completed)
}

// CountByStatus возвращает количество интервенций в каждом статусе.
func CountByStatus(interventions []*Intervention) map[Status]int {
	counts := make(map[Status]int, 4)
	for _, i := range interventions {
		if i == nil {
			continue
		}
		counts[i.Status]++
	}
	return counts
}

// ══════════════════════════════════════════════════════════════════════════════
// WORKFLOW SUGGESTIONS
// Детерминированные советы по порогам. Несмотря на "AI-powered" в
// интерфейсах, это явная таблица правил (условие → совет): никакого ML.
// Контракт оставляет дверь открытой для настоящей модели за тем же
// интерфейсом - результат помечен метрикой-триггером.
// ══════════════════════════════════════════════════════════════════════════════

// Suggestion - один совет с метрикой, которая его вызвала.
type Suggestion struct {
	// Insight - текст совета для инструктора.
	Insight string

	// TriggeringMetric - метрика, из-за которой сработало правило.
	TriggeringMetric string
}

// Пороговые значения таблицы правил.
const (
	// lowSuccessRateThreshold - доля успеха, ниже которой советуем
	// пересмотреть подбор типов интервенций.
	lowSuccessRateThreshold = 50

	// overdueBacklogThreshold - количество просроченных интервенций,
	// начиная с которого советуем разгрузить план.
	overdueBacklogThreshold = 3

	// staleInProgressDays - дни в статусе in-progress, после которых
	// интервенцию стоит закрыть или переоценить.
	staleInProgressDays = 14
)

// WorkflowSuggestions строит детерминированный список советов по
// текущему портфелю интервенций. Одинаковый вход всегда даёт
// одинаковый выход в одинаковом порядке.
func WorkflowSuggestions(interventions []*Intervention, now time.Time) []Suggestion {
	var suggestions []Suggestion

	counts := CountByStatus(interventions)

	overdueCount := 0
	followUpCount := 0
	staleCount := 0
	for _, i := range interventions {
		if Overdue(i, now) {
			overdueCount++
		}
		if FollowUpDue(i, now) {
			followUpCount++
		}
		if i != nil && i.Status == StatusInProgress && !i.StartedAt.IsZero() &&
			now.Sub(i.StartedAt) >= staleInProgressDays*24*time.Hour {
			staleCount++
		}
	}

	if overdueCount >= overdueBacklogThreshold {
		suggestions = append(suggestions, Suggestion{
			Insight:          fmt.Sprintf("%d planned interventions are past their scheduled date; reschedule or start them", overdueCount),
			TriggeringMetric: "overdue_count",
		})
	} else if overdueCount > 0 {
		suggestions = append(suggestions, Suggestion{
			Insight:          fmt.Sprintf("%d intervention(s) overdue; start or reschedule", overdueCount),
			TriggeringMetric: "overdue_count",
		})
	}

	if followUpCount > 0 {
		suggestions = append(suggestions, Suggestion{
			Insight:          fmt.Sprintf("%d intervention(s) have follow-ups due; check in with the participants", followUpCount),
			TriggeringMetric: "follow_up_due_count",
		})
	}

	if staleCount > 0 {
		suggestions = append(suggestions, Suggestion{
			Insight:          fmt.Sprintf("%d intervention(s) have been in progress for over %d days; close or reassess them", staleCount, staleInProgressDays),
			TriggeringMetric: "stale_in_progress_count",
		})
	}

	if completed := counts[StatusCompleted]; completed >= 3 {
		if rate := SuccessRate(interventions); rate < lowSuccessRateThreshold {
			suggestions = append(suggestions, Suggestion{
				Insight:          fmt.Sprintf("success rate is %s across %d completed interventions; review which intervention types work", rate, completed),
				TriggeringMetric: "success_rate",
			})
		}
	}

	return suggestions
}
