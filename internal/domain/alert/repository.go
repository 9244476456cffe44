package alert

import (
	"context"
	"time"

	"github.com/arena-hub/arena-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции хранения алертов.
// Алерты создаются внешним детектором рисков и никогда не удаляются.
type Repository interface {
	// Create сохраняет новый алерт.
	Create(ctx context.Context, a *Alert) error

	// GetByID возвращает алерт по ID.
	// Возвращает shared.ErrAlertNotFound, если не найден.
	GetByID(ctx context.Context, id string) (*Alert, error)

	// ListOpen возвращает нетерминальные алерты соревнования,
	// отсортированные по серьёзности и возрасту.
	ListOpen(ctx context.Context, competitionID shared.CompetitionID) ([]*Alert, error)

	// ListByParticipant возвращает алерты участника.
	ListByParticipant(ctx context.Context, participantID shared.ParticipantID) ([]*Alert, error)

	// ListSnoozedDue возвращает отложенные алерты с истёкшим сроком.
	ListSnoozedDue(ctx context.Context, now time.Time) ([]*Alert, error)

	// Update сохраняет алерт с проверкой версии.
	// Возвращает shared.ErrOptimisticLock при конфликте версий.
	Update(ctx context.Context, a *Alert) error
}

// SnoozeTracker отслеживает сроки отложенных алертов.
// Реализация - Redis-ключи с TTL; истечение ключа сигнализирует
// джобе пробуждения, что алерт пора вернуть в active.
type SnoozeTracker interface {
	// Track регистрирует срок отложенного алерта.
	Track(ctx context.Context, alertID string, until time.Time) error

	// Untrack снимает отслеживание (алерт разбужен или закрыт).
	Untrack(ctx context.Context, alertID string) error

	// ListDue возвращает ID алертов с истёкшим сроком.
	ListDue(ctx context.Context, now time.Time) ([]string, error)
}
