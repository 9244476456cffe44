// Package milestone содержит доменную модель вех соревнования.
// Веха (Milestone) - это накопительная цель, отличная от отдельных
// требований: например, "4 принятых pull request". Достижение вехи -
// одностороннее событие: однажды достигнутая веха не пересматривается.
package milestone

import (
	"sort"
	"time"

	"github.com/arena-hub/arena-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// MILESTONE
// ══════════════════════════════════════════════════════════════════════════════

// Milestone представляет одну веху участника.
// Инвариант: после Achieved = true поля Achieved и AchievedAt неизменяемы.
type Milestone struct {
	// ID - идентификатор вехи.
	ID string

	// ParticipationID - участие, к которому относится веха.
	ParticipationID string

	// Title - название вехи.
	Title string

	// Metric - метрика активности, по которой считается CurrentValue
	// (например, "approved_pull_requests").
	Metric string

	// TargetValue - целевое значение метрики.
	TargetValue int

	// CurrentValue - текущее значение метрики.
	CurrentValue int

	// Points - баллы, начисляемые при достижении.
	Points shared.Score

	// Achieved - достигнута ли веха.
	Achieved bool

	// AchievedAt - время достижения (нулевое, если не достигнута).
	AchievedAt time.Time
}

// NewMilestone создаёт новую веху с валидацией.
func NewMilestone(id, participationID, title, metric string, targetValue int, points shared.Score) (*Milestone, error) {
	if id == "" {
		return nil, shared.NewValidationError("milestone", "id", "milestone ID cannot be empty")
	}
	if participationID == "" {
		return nil, shared.NewValidationError("milestone", "participation_id", "participation ID cannot be empty")
	}
	if targetValue <= 0 {
		return nil, shared.ErrInvalidMilestoneTarget
	}
	if points < 0 {
		return nil, shared.NewValidationError("milestone", "points", "points cannot be negative")
	}

	return &Milestone{
		ID:              id,
		ParticipationID: participationID,
		Title:           title,
		Metric:          metric,
		TargetValue:     targetValue,
		Points:          points,
	}, nil
}

// Progress возвращает прогресс вехи: min(100, current/target*100).
func (m *Milestone) Progress() shared.Percent {
	if m.Achieved {
		return 100
	}
	if m.TargetValue <= 0 {
		return 0
	}
	return shared.Percent(float64(m.CurrentValue) / float64(m.TargetValue) * 100).Clamp()
}

// Remaining возвращает, сколько осталось до цели.
func (m *Milestone) Remaining() int {
	remaining := m.TargetValue - m.CurrentValue
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVITY SNAPSHOT & VALUE POLICY
// ══════════════════════════════════════════════════════════════════════════════

// ActivitySnapshot - срез активности участника для пересчёта вех.
// Значения метрик поставляет вызывающий: движок не знает,
// откуда берётся "количество принятых pull request".
type ActivitySnapshot struct {
	// ParticipantID - участник, к которому относится срез.
	ParticipantID shared.ParticipantID

	// Metrics - значения метрик по имени.
	Metrics map[string]int

	// TakenAt - время среза.
	TakenAt time.Time
}

// Value возвращает значение метрики (0, если метрика отсутствует).
func (s ActivitySnapshot) Value(metric string) int {
	return s.Metrics[metric]
}

// ValuePolicy извлекает текущее значение вехи из среза активности.
// Политика подставляется вызывающим; по умолчанию - значение
// одноимённой метрики из среза.
type ValuePolicy func(m *Milestone, snapshot ActivitySnapshot) int

// MetricValuePolicy - политика по умолчанию: значение метрики вехи.
func MetricValuePolicy(m *Milestone, snapshot ActivitySnapshot) int {
	return snapshot.Value(m.Metric)
}

// ══════════════════════════════════════════════════════════════════════════════
// EVALUATOR
// ══════════════════════════════════════════════════════════════════════════════

// Evaluation - результат пересчёта вех.
type Evaluation struct {
	// Updated - все вехи после пересчёта (в исходном порядке).
	Updated []*Milestone

	// NewlyAchieved - вехи, достигнутые именно в этом пересчёте.
	// По одной записи здесь отправляется одно уведомление.
	NewlyAchieved []*Milestone
}

// Evaluator пересчитывает вехи по срезу активности.
type Evaluator struct {
	policy ValuePolicy
}

// NewEvaluator создаёт оценщик вех с указанной политикой значений.
// nil означает политику по умолчанию (MetricValuePolicy).
func NewEvaluator(policy ValuePolicy) *Evaluator {
	if policy == nil {
		policy = MetricValuePolicy
	}
	return &Evaluator{policy: policy}
}

// Evaluate пересчитывает вехи и находит новые достижения.
// Достигнутые вехи не пересматриваются (идемпотентный no-op):
// Achieved и AchievedAt после установки неизменяемы. Веха переходит
// в achieved ровно один раз - когда CurrentValue >= TargetValue.
func (e *Evaluator) Evaluate(milestones []*Milestone, snapshot ActivitySnapshot, now time.Time) Evaluation {
	result := Evaluation{
		Updated: milestones,
	}

	for _, m := range milestones {
		if m == nil || m.Achieved {
			continue
		}

		m.CurrentValue = e.policy(m, snapshot)
		if m.CurrentValue >= m.TargetValue {
			m.Achieved = true
			m.AchievedAt = now
			result.NewlyAchieved = append(result.NewlyAchieved, m)
		}
	}

	return result
}

// SortForDisplay сортирует вехи для отображения: достигнутые первыми,
// затем по убыванию прогресса, затем по убыванию баллов, затем по ID.
// Полный порядок без неопределённых участков компаратора.
func SortForDisplay(milestones []*Milestone) {
	sort.SliceStable(milestones, func(i, j int) bool {
		mi, mj := milestones[i], milestones[j]
		if mi.Achieved != mj.Achieved {
			return mi.Achieved
		}
		if mi.Progress() != mj.Progress() {
			return mi.Progress() > mj.Progress()
		}
		if mi.Points != mj.Points {
			return mi.Points > mj.Points
		}
		return mi.ID < mj.ID
	})
}
