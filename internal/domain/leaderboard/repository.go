package leaderboard

import (
	"context"

	"github.com/arena-hub/arena-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции хранения снапшотов лидерборда.
type Repository interface {
	// SaveSnapshot сохраняет снапшот лидерборда.
	SaveSnapshot(ctx context.Context, snapshot *Snapshot) error

	// GetLatestSnapshot возвращает последний снапшот соревнования.
	// Возвращает shared.ErrSnapshotNotFound, если снапшотов ещё нет.
	GetLatestSnapshot(ctx context.Context, competitionID shared.CompetitionID) (*Snapshot, error)

	// PruneSnapshots удаляет снапшоты старше указанного количества.
	PruneSnapshots(ctx context.Context, competitionID shared.CompetitionID, keep int) error
}

// Cache определяет быстрый доступ к текущему лидерборду.
// Реализация - Redis; кэш пересобирается целиком при каждом пересчёте.
type Cache interface {
	// StoreSnapshot кэширует снапшот целиком.
	StoreSnapshot(ctx context.Context, snapshot *Snapshot) error

	// GetSnapshot возвращает кэшированный снапшот.
	GetSnapshot(ctx context.Context, competitionID shared.CompetitionID) (*Snapshot, error)

	// GetRank возвращает кэшированный ранг участника (0 = не найден).
	GetRank(ctx context.Context, competitionID shared.CompetitionID, participantID shared.ParticipantID) (Rank, error)

	// Invalidate сбрасывает кэш соревнования.
	Invalidate(ctx context.Context, competitionID shared.CompetitionID) error
}
