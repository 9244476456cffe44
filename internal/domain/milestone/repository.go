package milestone

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции хранения вех.
type Repository interface {
	// ListByParticipation возвращает вехи участия.
	ListByParticipation(ctx context.Context, participationID string) ([]*Milestone, error)

	// SaveAll перезаписывает вехи участия после пересчёта.
	SaveAll(ctx context.Context, participationID string, milestones []*Milestone) error
}
