package intervention

import (
	"context"

	"github.com/arena-hub/arena-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции хранения интервенций.
type Repository interface {
	// Create сохраняет новую интервенцию.
	Create(ctx context.Context, i *Intervention) error

	// GetByID возвращает интервенцию по ID.
	// Возвращает shared.ErrInterventionNotFound, если не найдена.
	GetByID(ctx context.Context, id string) (*Intervention, error)

	// ListByCompetition возвращает интервенции соревнования.
	ListByCompetition(ctx context.Context, competitionID shared.CompetitionID) ([]*Intervention, error)

	// ListByParticipant возвращает интервенции участника.
	ListByParticipant(ctx context.Context, participantID shared.ParticipantID) ([]*Intervention, error)

	// Update сохраняет интервенцию с проверкой версии.
	// Возвращает shared.ErrOptimisticLock при конфликте версий.
	Update(ctx context.Context, i *Intervention) error
}
