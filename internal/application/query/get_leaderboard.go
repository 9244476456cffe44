package query

import (
	"context"
	"errors"
	"time"

	"github.com/arena-hub/arena-progress-hub/internal/domain/leaderboard"
	"github.com/arena-hub/arena-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Получает страницу лидерборда соревнования. Ранги плотные и строго
// различные: при равном счёте решают детерминированные тай-брейки.
// Сначала пробует кэш, затем падает обратно на снапшоты в хранилище.
// ══════════════════════════════════════════════════════════════════════════════

// GetLeaderboardQuery содержит параметры запроса лидерборда.
type GetLeaderboardQuery struct {
	// CompetitionID - соревнование.
	CompetitionID shared.CompetitionID

	// Limit - количество записей (по умолчанию 20, максимум 100).
	Limit int

	// Offset - смещение для пагинации.
	Offset int

	// AroundParticipant - вернуть окно вокруг указанного участника
	// вместо страницы от начала (пустой = обычная пагинация).
	AroundParticipant shared.ParticipantID
}

// Validate проверяет корректность параметров запроса.
func (q *GetLeaderboardQuery) Validate() error {
	if !q.CompetitionID.IsValid() {
		return errors.New("valid competition_id is required")
	}
	if q.Limit < 0 {
		return errors.New("limit cannot be negative")
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	if q.Limit == 0 {
		q.Limit = 20
	}
	if q.Offset < 0 {
		return errors.New("offset cannot be negative")
	}
	return nil
}

// LeaderboardEntryDTO - DTO для записи лидерборда.
type LeaderboardEntryDTO struct {
	// Rank - позиция в рейтинге (начиная с 1, без общих рангов).
	Rank int `json:"rank"`

	// ParticipantID - идентификатор участника.
	ParticipantID string `json:"participant_id"`

	// DisplayName - отображаемое имя.
	DisplayName string `json:"display_name"`

	// TotalScore - текущая сумма баллов.
	TotalScore int `json:"total_score"`

	// Achievements - количество достигнутых вех.
	Achievements int `json:"achievements"`

	// CurrentStreak - текущая серия активных дней.
	CurrentStreak int `json:"current_streak"`

	// RankChange - изменение позиции (+ вверх, - вниз, 0 стабильно).
	RankChange int `json:"rank_change"`

	// EnrolledAt - время регистрации (первый тай-брейк).
	EnrolledAt time.Time `json:"enrolled_at"`
}

// GetLeaderboardResult содержит результат запроса лидерборда.
type GetLeaderboardResult struct {
	// CompetitionID - соревнование.
	CompetitionID string `json:"competition_id"`

	// Entries - записи лидерборда.
	Entries []LeaderboardEntryDTO `json:"entries"`

	// TotalCount - общее количество участников.
	TotalCount int `json:"total_count"`

	// AverageScore - средний счёт.
	AverageScore int `json:"average_score"`

	// SnapshotAt - время снапшота, из которого собран результат.
	SnapshotAt time.Time `json:"snapshot_at"`

	// HasMore - есть ли ещё записи после текущей страницы.
	HasMore bool `json:"has_more"`
}

// GetLeaderboardHandler обрабатывает запросы на получение лидерборда.
type GetLeaderboardHandler struct {
	leaderboardRepo  leaderboard.Repository
	leaderboardCache leaderboard.Cache
}

// NewGetLeaderboardHandler создаёт новый обработчик запроса лидерборда.
func NewGetLeaderboardHandler(leaderboardRepo leaderboard.Repository, leaderboardCache leaderboard.Cache) *GetLeaderboardHandler {
	return &GetLeaderboardHandler{
		leaderboardRepo:  leaderboardRepo,
		leaderboardCache: leaderboardCache,
	}
}

// Handle выполняет запрос на получение лидерборда.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, query GetLeaderboardQuery) (*GetLeaderboardResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetLeaderboard", shared.ErrValidation, err.Error(), err)
	}

	snapshot, err := h.loadSnapshot(ctx, query.CompetitionID)
	if err != nil {
		return nil, err
	}

	entries := h.selectWindow(snapshot, query)

	dtos := make([]LeaderboardEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = LeaderboardEntryDTO{
			Rank:          int(e.Rank),
			ParticipantID: e.ParticipantID.String(),
			DisplayName:   e.DisplayName,
			TotalScore:    e.TotalScore.Int(),
			Achievements:  e.Achievements,
			CurrentStreak: e.CurrentStreak,
			RankChange:    int(e.RankChange),
			EnrolledAt:    e.EnrolledAt,
		}
	}

	hasMore := false
	if len(entries) > 0 {
		hasMore = int(entries[len(entries)-1].Rank) < snapshot.Count()
	}

	return &GetLeaderboardResult{
		CompetitionID: query.CompetitionID.String(),
		Entries:       dtos,
		TotalCount:    snapshot.Count(),
		AverageScore:  snapshot.AverageScore.Int(),
		SnapshotAt:    snapshot.SnapshotAt,
		HasMore:       hasMore,
	}, nil
}

// loadSnapshot пробует кэш, затем хранилище снапшотов.
func (h *GetLeaderboardHandler) loadSnapshot(ctx context.Context, competitionID shared.CompetitionID) (*leaderboard.Snapshot, error) {
	if h.leaderboardCache != nil {
		if snapshot, err := h.leaderboardCache.GetSnapshot(ctx, competitionID); err == nil && snapshot != nil {
			return snapshot, nil
		}
	}

	snapshot, err := h.leaderboardRepo.GetLatestSnapshot(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// selectWindow возвращает страницу или окно вокруг участника.
func (h *GetLeaderboardHandler) selectWindow(snapshot *leaderboard.Snapshot, query GetLeaderboardQuery) []*leaderboard.Entry {
	if query.AroundParticipant.IsEmpty() {
		page := query.Offset/query.Limit + 1
		if query.Offset%query.Limit != 0 {
			// Нестандартное смещение: режем вручную.
			from := query.Offset
			to := query.Offset + query.Limit
			if from >= snapshot.Count() {
				return nil
			}
			if to > snapshot.Count() {
				to = snapshot.Count()
			}
			result := make([]*leaderboard.Entry, to-from)
			copy(result, snapshot.Entries[from:to])
			return result
		}
		return snapshot.Page(page, query.Limit)
	}

	rank := snapshot.GetRank(query.AroundParticipant)
	if rank == 0 {
		return nil
	}

	half := query.Limit / 2
	from := int(rank) - 1 - half
	if from < 0 {
		from = 0
	}
	to := from + query.Limit
	if to > snapshot.Count() {
		to = snapshot.Count()
	}
	result := make([]*leaderboard.Entry, to-from)
	copy(result, snapshot.Entries[from:to])
	return result
}
