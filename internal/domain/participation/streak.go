package participation

import (
	"math"
	"time"

	"github.com/arena-hub/arena-progress-hub/internal/domain/shared"
	"github.com/arena-hub/arena-progress-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// STREAK (Серия активных дней)
// ══════════════════════════════════════════════════════════════════════════════

// StreakState представляет серию активных дней участника.
// CurrentStreak - подряд идущие календарные дни с активностью,
// заканчивающиеся сегодня или вчера. LongestStreak монотонен:
// никогда не уменьшается. Мутируется только калькулятором серий.
type StreakState struct {
	// CurrentStreak - текущая серия дней.
	CurrentStreak int

	// LongestStreak - лучшая серия за всё время.
	LongestStreak int

	// LastActivityAt - время последней активности.
	LastActivityAt time.Time
}

// IsActive возвращает true, если серия жива (не сброшена).
func (s StreakState) IsActive() bool {
	return s.CurrentStreak > 0
}

// UpdateStreak пересчитывает серию по датам активности.
// Даты нормализуются к календарным дням в часовом поясе участника
// (UTC, если пояс неизвестен) и дедуплицируются. Серия считается
// назад от "сегодня": отсутствие активности сегодня не сбрасывает
// серию, жившую до вчерашнего дня включительно; пропуск целого
// календарного дня сбрасывает CurrentStreak в 0.
func UpdateStreak(prev StreakState, activity []time.Time, timezone string, now time.Time) StreakState {
	loc := timeutil.LoadLocation(timezone)
	days := timeutil.UniqueDays(activity, loc)

	next := StreakState{
		CurrentStreak:  0,
		LongestStreak:  prev.LongestStreak,
		LastActivityAt: prev.LastActivityAt,
	}

	for _, t := range activity {
		if t.After(next.LastActivityAt) {
			next.LastActivityAt = t
		}
	}

	if len(days) == 0 {
		return next
	}

	today := timeutil.StartOfDay(now, loc)
	last := days[len(days)-1]
	gap := timeutil.DaysBetween(last, today, loc)

	// Серия должна доходить до сегодня (gap 0) или до вчера (gap 1).
	if gap < 0 || gap > 1 {
		return next
	}

	streak := 1
	for i := len(days) - 2; i >= 0; i-- {
		if timeutil.DaysBetween(days[i], days[i+1], loc) == 1 {
			streak++
			continue
		}
		break
	}

	next.CurrentStreak = streak
	if streak > next.LongestStreak {
		next.LongestStreak = streak
	}
	return next
}

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETION ESTIMATE (Прогноз завершения)
// ══════════════════════════════════════════════════════════════════════════════

// CompletionEstimate - оценка времени до завершения соревнования.
// Это линейная экстраполяция по прошедшему времени: эвристика,
// намеренно консервативная, а не гарантированный прогноз.
type CompletionEstimate struct {
	// ProgressPct - текущий процент завершения.
	ProgressPct shared.Percent

	// RatePerDay - средний прирост процента за день с регистрации.
	RatePerDay float64

	// EstimatedDays - оценка оставшихся дней (0, если уже завершено).
	EstimatedDays int

	// EstimatedCompletionAt - расчётная дата завершения.
	EstimatedCompletionAt time.Time
}

// EstimateCompletion оценивает срок завершения по текущему темпу.
// rate = progressPct / daysElapsed, где daysElapsed не меньше 1.
// Нулевой темп - это ожидаемый именованный исход ErrInsufficientSignal,
// а не ошибка: у участника ещё недостаточно сигнала для оценки.
func EstimateCompletion(p *Participation, progressPct shared.Percent, now time.Time) (*CompletionEstimate, error) {
	if p == nil {
		return nil, shared.NewValidationError("participation", "participation", "participation cannot be nil")
	}

	pct := progressPct.Clamp()
	daysElapsed := p.DaysSinceEnrollment(now)

	rate := pct.Float64() / float64(daysElapsed)
	if rate <= 0 {
		return nil, shared.WrapError("participation", "EstimateCompletion",
			shared.ErrInsufficientSignal, "no scored progress yet, estimate unavailable", nil)
	}

	estimatedDays := 0
	if !pct.IsComplete() {
		estimatedDays = int(math.Ceil((100 - pct.Float64()) / rate))
	}

	return &CompletionEstimate{
		ProgressPct:           pct,
		RatePerDay:            rate,
		EstimatedDays:         estimatedDays,
		EstimatedCompletionAt: now.AddDate(0, 0, estimatedDays),
	}, nil
}
