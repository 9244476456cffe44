// Package leaderboard содержит доменную модель лидерборда соревнования.
package leaderboard

import (
	"time"

	"github.com/arena-hub/arena-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD SNAPSHOT
// ══════════════════════════════════════════════════════════════════════════════

// Snapshot представляет состояние лидерборда в определённый момент времени.
// Снапшоты используются для:
// 1. Отслеживания изменений позиций (RankChange)
// 2. Аналитики и истории
// 3. Быстрого чтения (CQRS Read Model)
type Snapshot struct {
	// ID - уникальный идентификатор снапшота.
	ID string

	// CompetitionID - соревнование, для которого создан снапшот.
	CompetitionID shared.CompetitionID

	// SnapshotAt - время создания снапшота.
	SnapshotAt time.Time

	// TotalParticipants - общее количество участников в снапшоте.
	TotalParticipants int

	// TotalScore - суммарный счёт всех участников.
	TotalScore int

	// AverageScore - средний счёт.
	AverageScore shared.Score

	// Entries - список записей лидерборда (отсортирован по рангу).
	Entries []*Entry

	// byID - индекс для быстрого поиска по ID.
	byID map[shared.ParticipantID]*Entry
}

// NewSnapshot создаёт новый снапшот из Ranking.
func NewSnapshot(id string, competitionID shared.CompetitionID, ranking *Ranking, at time.Time) *Snapshot {
	if ranking == nil {
		return NewEmptySnapshot(id, competitionID, at)
	}

	entries := ranking.All()
	byID := make(map[shared.ParticipantID]*Entry, len(entries))

	var totalScore int
	for _, entry := range entries {
		byID[entry.ParticipantID] = entry
		totalScore += int(entry.TotalScore)
	}

	var avg shared.Score
	if len(entries) > 0 {
		avg = shared.Score(totalScore / len(entries))
	}

	return &Snapshot{
		ID:                id,
		CompetitionID:     competitionID,
		SnapshotAt:        at,
		TotalParticipants: len(entries),
		TotalScore:        totalScore,
		AverageScore:      avg,
		Entries:           entries,
		byID:              byID,
	}
}

// NewEmptySnapshot создаёт пустой снапшот.
func NewEmptySnapshot(id string, competitionID shared.CompetitionID, at time.Time) *Snapshot {
	return &Snapshot{
		ID:            id,
		CompetitionID: competitionID,
		SnapshotAt:    at,
		Entries:       make([]*Entry, 0),
		byID:          make(map[shared.ParticipantID]*Entry),
	}
}

// RebuildIndex восстанавливает внутренний индекс после загрузки из хранилища.
func (s *Snapshot) RebuildIndex() {
	s.byID = make(map[shared.ParticipantID]*Entry, len(s.Entries))
	for _, entry := range s.Entries {
		s.byID[entry.ParticipantID] = entry
	}
}

// GetByID возвращает запись по ID участника.
func (s *Snapshot) GetByID(participantID shared.ParticipantID) *Entry {
	if s.byID == nil {
		return nil
	}
	return s.byID[participantID]
}

// GetRank возвращает ранг участника по его ID.
// Возвращает 0, если участник не найден.
func (s *Snapshot) GetRank(participantID shared.ParticipantID) Rank {
	entry := s.GetByID(participantID)
	if entry == nil {
		return 0
	}
	return entry.Rank
}

// Top возвращает топ-N записей.
func (s *Snapshot) Top(n int) []*Entry {
	if n <= 0 {
		return nil
	}
	if n > len(s.Entries) {
		n = len(s.Entries)
	}
	result := make([]*Entry, n)
	copy(result, s.Entries[:n])
	return result
}

// Page возвращает страницу лидерборда.
// page начинается с 1, pageSize - количество записей на странице.
func (s *Snapshot) Page(page, pageSize int) []*Entry {
	if page < 1 || pageSize <= 0 {
		return nil
	}

	from := (page - 1) * pageSize
	to := from + pageSize

	if from >= len(s.Entries) {
		return nil
	}
	if to > len(s.Entries) {
		to = len(s.Entries)
	}

	result := make([]*Entry, to-from)
	copy(result, s.Entries[from:to])
	return result
}

// IsEmpty возвращает true, если снапшот пуст.
func (s *Snapshot) IsEmpty() bool {
	return len(s.Entries) == 0
}

// Count возвращает количество записей.
func (s *Snapshot) Count() int {
	return len(s.Entries)
}

// ══════════════════════════════════════════════════════════════════════════════
// SNAPSHOT DIFF
// ══════════════════════════════════════════════════════════════════════════════

// RankMovement описывает изменение позиции участника между снапшотами.
type RankMovement struct {
	// ParticipantID - участник.
	ParticipantID shared.ParticipantID

	// OldRank - ранг в предыдущем снапшоте (0 = новый участник).
	OldRank Rank

	// NewRank - ранг в новом снапшоте.
	NewRank Rank
}

// Change возвращает изменение позиции (положительное = подъём).
func (m RankMovement) Change() RankChange {
	if m.OldRank == 0 {
		return 0
	}
	return RankChange(m.OldRank - m.NewRank)
}

// Diff сравнивает новый снапшот с предыдущим и проставляет RankChange
// в записях нового. Возвращает список участников, чья позиция изменилась.
// Предыдущий снапшот может быть nil (первая сборка лидерборда).
func (s *Snapshot) Diff(previous *Snapshot) []RankMovement {
	var movements []RankMovement

	for _, entry := range s.Entries {
		var oldRank Rank
		if previous != nil {
			oldRank = previous.GetRank(entry.ParticipantID)
		}

		if oldRank == 0 {
			entry.RankChange = 0
			continue
		}

		entry.RankChange = RankChange(oldRank - entry.Rank)
		if entry.RankChange != 0 {
			movements = append(movements, RankMovement{
				ParticipantID: entry.ParticipantID,
				OldRank:       oldRank,
				NewRank:       entry.Rank,
			})
		}
	}

	return movements
}
