// Package leaderboard содержит доменную модель лидерборда соревнования.
// Лидерборд - это read-only проекция: она пересобирается целиком при
// каждом пересчёте и никогда не мутируется частично. Ранги плотные и
// строго различные: при равном счёте место определяется детерминированными
// тай-брейками, общих рангов не бывает.
package leaderboard

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/arena-hub/arena-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Rank представляет позицию участника в лидерборде.
// Rank начинается с 1 (первое место).
type Rank int

// IsValid проверяет, что ранг положительный.
func (r Rank) IsValid() bool {
	return r > 0
}

// IsTop10 возвращает true, если участник в топ-10.
func (r Rank) IsTop10() bool {
	return r >= 1 && r <= 10
}

// String возвращает строковое представление ранга.
func (r Rank) String() string {
	return fmt.Sprintf("#%d", r)
}

// RankChange представляет изменение позиции между снапшотами.
// Положительное значение = подъём, отрицательное = падение.
type RankChange int

// Abs возвращает абсолютное значение изменения.
func (rc RankChange) Abs() int {
	if rc < 0 {
		return int(-rc)
	}
	return int(rc)
}

// String возвращает строковое представление изменения.
func (rc RankChange) String() string {
	switch {
	case rc > 0:
		return fmt.Sprintf("+%d", rc)
	case rc < 0:
		return fmt.Sprintf("%d", rc)
	default:
		return "±0"
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD ENTRY
// ══════════════════════════════════════════════════════════════════════════════

// Entry представляет одну запись в лидерборде.
// Read-only проекция: пересоздаётся при каждом пересчёте.
type Entry struct {
	// Rank - текущая позиция в рейтинге.
	Rank Rank

	// ParticipantID - идентификатор участника.
	ParticipantID shared.ParticipantID

	// DisplayName - отображаемое имя участника.
	DisplayName string

	// TotalScore - текущая сумма баллов.
	TotalScore shared.Score

	// EnrolledAt - время регистрации (первый тай-брейк при равном счёте).
	EnrolledAt time.Time

	// Participations - количество участий.
	Participations int

	// Achievements - количество достигнутых вех.
	Achievements int

	// Badges - количество полученных значков.
	Badges int

	// CurrentStreak - текущая серия активных дней.
	CurrentStreak int

	// RankChange - изменение позиции с прошлого снапшота.
	RankChange RankChange

	// UpdatedAt - время последнего обновления счёта.
	UpdatedAt time.Time
}

// NewEntry создаёт новую запись лидерборда с валидацией.
func NewEntry(participantID shared.ParticipantID, displayName string, totalScore shared.Score, enrolledAt time.Time) (*Entry, error) {
	if participantID.IsEmpty() {
		return nil, ErrInvalidParticipantID
	}
	if !totalScore.IsValid() {
		return nil, ErrInvalidScore
	}
	if enrolledAt.IsZero() {
		return nil, ErrInvalidEnrollment
	}

	return &Entry{
		ParticipantID: participantID,
		DisplayName:   displayName,
		TotalScore:    totalScore,
		EnrolledAt:    enrolledAt,
		UpdatedAt:     time.Now().UTC(),
	}, nil
}

// Clone создаёт копию записи.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	clone := *e
	return &clone
}

// String возвращает строковое представление для логирования.
func (e *Entry) String() string {
	return fmt.Sprintf(
		"Entry{Rank: %d, Participant: %s, Score: %d, Change: %s}",
		e.Rank, e.ParticipantID, e.TotalScore, e.RankChange.String(),
	)
}

// ══════════════════════════════════════════════════════════════════════════════
// RANKING
// ══════════════════════════════════════════════════════════════════════════════

// Ranking представляет полный отсортированный список участников.
type Ranking struct {
	entries []*Entry
	byID    map[shared.ParticipantID]*Entry
}

// NewRanking создаёт пустой Ranking.
func NewRanking() *Ranking {
	return &Ranking{
		entries: make([]*Entry, 0),
		byID:    make(map[shared.ParticipantID]*Entry),
	}
}

// Add добавляет запись в рейтинг (без автоматической сортировки).
func (r *Ranking) Add(entry *Entry) error {
	if entry == nil {
		return ErrNilEntry
	}
	if _, exists := r.byID[entry.ParticipantID]; exists {
		return ErrDuplicateParticipant
	}

	r.entries = append(r.entries, entry)
	r.byID[entry.ParticipantID] = entry
	return nil
}

// Rank сортирует записи и присваивает плотные СТРОГО РАЗЛИЧНЫЕ ранги 1..N.
// Порядок: по убыванию счёта; при равном счёте - более ранняя регистрация,
// затем ID участника. Общих рангов при равном счёте нет - это осознанное
// и тестируемое решение: ранги всегда являются перестановкой 1..N.
func (r *Ranking) Rank() {
	sort.SliceStable(r.entries, func(i, j int) bool {
		ei, ej := r.entries[i], r.entries[j]
		if ei.TotalScore != ej.TotalScore {
			return ei.TotalScore > ej.TotalScore
		}
		if !ei.EnrolledAt.Equal(ej.EnrolledAt) {
			return ei.EnrolledAt.Before(ej.EnrolledAt)
		}
		return ei.ParticipantID < ej.ParticipantID
	})

	for i, entry := range r.entries {
		entry.Rank = Rank(i + 1)
	}
}

// GetByID возвращает запись по ID участника.
func (r *Ranking) GetByID(participantID shared.ParticipantID) *Entry {
	return r.byID[participantID]
}

// Top возвращает топ-N записей.
func (r *Ranking) Top(n int) []*Entry {
	if n <= 0 {
		return nil
	}
	if n > len(r.entries) {
		n = len(r.entries)
	}
	result := make([]*Entry, n)
	copy(result, r.entries[:n])
	return result
}

// Slice возвращает срез записей [from:to).
func (r *Ranking) Slice(from, to int) []*Entry {
	if from < 0 {
		from = 0
	}
	if to > len(r.entries) {
		to = len(r.entries)
	}
	if from >= to {
		return nil
	}
	result := make([]*Entry, to-from)
	copy(result, r.entries[from:to])
	return result
}

// Count возвращает общее количество записей.
func (r *Ranking) Count() int {
	return len(r.entries)
}

// All возвращает все записи.
func (r *Ranking) All() []*Entry {
	result := make([]*Entry, len(r.entries))
	copy(result, r.entries)
	return result
}

// AverageScore возвращает средний счёт по всем участникам.
func (r *Ranking) AverageScore() shared.Score {
	if len(r.entries) == 0 {
		return 0
	}

	var total int
	for _, entry := range r.entries {
		total += int(entry.TotalScore)
	}

	return shared.Score(total / len(r.entries))
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidParticipantID - невалидный ID участника.
	ErrInvalidParticipantID = errors.New("invalid participant id: cannot be empty")

	// ErrInvalidScore - невалидное значение счёта.
	ErrInvalidScore = errors.New("invalid score: must be non-negative")

	// ErrInvalidEnrollment - невалидное время регистрации.
	ErrInvalidEnrollment = errors.New("invalid enrollment time: cannot be zero")

	// ErrNilEntry - попытка добавить nil запись.
	ErrNilEntry = errors.New("cannot add nil entry")

	// ErrDuplicateParticipant - участник уже есть в рейтинге.
	ErrDuplicateParticipant = errors.New("participant already exists in ranking")

	// ErrEmptyLeaderboard - лидерборд пуст.
	ErrEmptyLeaderboard = errors.New("leaderboard is empty")
)
