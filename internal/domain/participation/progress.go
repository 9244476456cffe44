package participation

import (
	"sort"
	"time"

	"github.com/arena-hub/arena-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REQUIREMENT PROGRESS
// ══════════════════════════════════════════════════════════════════════════════

// RequirementProgress - производное состояние одного требования.
// Не создаётся независимо: пересчитывается при каждом одобренном сабмите.
type RequirementProgress struct {
	// RequirementID - идентификатор требования.
	RequirementID shared.RequirementID

	// Title - название требования.
	Title string

	// Required - обязательное ли требование.
	Required bool

	// Completed - зачтено ли требование.
	Completed bool

	// Progress - числовой прогресс (0-100).
	Progress shared.Percent

	// Score - присуждённый балл лучшего одобренного сабмита.
	Score int

	// MaxScore - максимальный балл требования.
	MaxScore int

	// UpdatedAt - время последнего одобренного сабмита (нулевое, если нет).
	UpdatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS AGGREGATOR
// ══════════════════════════════════════════════════════════════════════════════

// Aggregator вычисляет производный прогресс из требований и истории сабмитов.
// Чистая функция над переданным состоянием: без побочных эффектов,
// персистентность - забота вызывающего.
type Aggregator struct{}

// NewAggregator создаёт агрегатор прогресса.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// ComputeProgress вычисляет прогресс по каждому требованию.
// Для каждого требования берётся последний одобренный сабмит
// (при равенстве - самый поздний по времени). Требование зачтено,
// если одобренный сабмит существует и его балл не ниже порога.
// Прогресс незавершённого требования строго меньше 100.
//
// Некорректные входные данные (дубликаты требований, балл выше максимума)
// возвращают ValidationError с именем требования; вызывающий решает,
// отбросить запись или прервать обработку.
func (a *Aggregator) ComputeProgress(requirements []Requirement, submissions []Submission) ([]RequirementProgress, error) {
	seen := make(map[shared.RequirementID]bool, len(requirements))
	for _, req := range requirements {
		if err := req.Validate(); err != nil {
			return nil, err
		}
		if seen[req.ID] {
			return nil, shared.NewValidationError("participation", req.ID.String(), "duplicate requirement ID")
		}
		seen[req.ID] = true
	}

	latest := make(map[shared.RequirementID]Submission, len(requirements))
	for _, sub := range submissions {
		if !sub.IsApproved() {
			continue
		}
		current, ok := latest[sub.RequirementID]
		if !ok || sub.SubmittedAt.After(current.SubmittedAt) {
			latest[sub.RequirementID] = sub
		}
	}

	result := make([]RequirementProgress, 0, len(requirements))
	for _, req := range requirements {
		rp := RequirementProgress{
			RequirementID: req.ID,
			Title:         req.Title,
			Required:      req.Required,
			MaxScore:      req.MaxScore,
		}

		sub, ok := latest[req.ID]
		if !ok {
			// Нет одобренного сабмита - прогресс 0.
			result = append(result, rp)
			continue
		}

		if !req.IsBinary() && sub.Score > req.MaxScore {
			return nil, shared.NewValidationError("participation", req.ID.String(), "submission score exceeds max score")
		}

		rp.Score = sub.Score
		rp.UpdatedAt = sub.SubmittedAt

		if req.IsBinary() {
			// Бинарное требование: любое одобрение = зачёт.
			rp.Completed = true
			rp.Progress = 100
			result = append(result, rp)
			continue
		}

		rp.Completed = sub.Score >= req.Threshold()
		if rp.Completed {
			rp.Progress = 100
		} else {
			pct := shared.Percent(float64(sub.Score) / float64(req.MaxScore) * 100).Clamp()
			// Незавершённый прогресс держится ниже 100.
			if pct >= 100 {
				pct = 99
			}
			rp.Progress = pct
		}
		result = append(result, rp)
	}

	return result, nil
}

// OverallCompletion возвращает общий процент завершения.
// Пустой набор требований даёт 0%, а не NaN.
func OverallCompletion(progress []RequirementProgress) shared.Percent {
	return shared.Ratio(CompletedCount(progress), len(progress))
}

// CompletedCount возвращает количество зачтённых требований.
func CompletedCount(progress []RequirementProgress) int {
	count := 0
	for _, rp := range progress {
		if rp.Completed {
			count++
		}
	}
	return count
}

// RequiredRemaining возвращает незачтённые обязательные требования.
func RequiredRemaining(progress []RequirementProgress) []RequirementProgress {
	var remaining []RequirementProgress
	for _, rp := range progress {
		if rp.Required && !rp.Completed {
			remaining = append(remaining, rp)
		}
	}
	return remaining
}

// SortForDisplay сортирует прогресс для отображения: сначала незачтённые
// обязательные, затем по убыванию прогресса, затем по ID требования.
// Полный порядок без неопределённых участков компаратора.
func SortForDisplay(progress []RequirementProgress) {
	sort.SliceStable(progress, func(i, j int) bool {
		pi, pj := progress[i], progress[j]
		iOpen := pi.Required && !pi.Completed
		jOpen := pj.Required && !pj.Completed
		if iOpen != jOpen {
			return iOpen
		}
		if pi.Progress != pj.Progress {
			return pi.Progress > pj.Progress
		}
		return pi.RequirementID < pj.RequirementID
	})
}
