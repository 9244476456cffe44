package participation

import (
	"context"
	"time"

	"github.com/arena-hub/arena-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Эти интерфейсы определяют контракт для работы с хранилищем данных.
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// ListOptions задаёт пагинацию для списочных запросов.
type ListOptions struct {
	// Limit - максимум записей (0 = значение по умолчанию реализации).
	Limit int

	// Offset - смещение для пагинации.
	Offset int
}

// Repository определяет операции хранения участий.
type Repository interface {
	// Create создаёт новое участие.
	// Возвращает shared.ErrAlreadyExists, если участие уже существует.
	Create(ctx context.Context, p *Participation) error

	// GetByID возвращает участие по ID.
	// Возвращает shared.ErrParticipationNotFound, если не найдено.
	GetByID(ctx context.Context, id string) (*Participation, error)

	// GetByParticipant возвращает участие участника в соревновании.
	GetByParticipant(ctx context.Context, participantID shared.ParticipantID, competitionID shared.CompetitionID) (*Participation, error)

	// ListByCompetition возвращает все участия соревнования.
	ListByCompetition(ctx context.Context, competitionID shared.CompetitionID, opts ListOptions) ([]*Participation, error)

	// ListActiveByCompetition возвращает нетерминальные участия соревнования.
	ListActiveByCompetition(ctx context.Context, competitionID shared.CompetitionID) ([]*Participation, error)

	// Update сохраняет участие с проверкой версии.
	// Возвращает shared.ErrOptimisticLock при конфликте версий:
	// движок никогда молча не сливает конкурентные изменения.
	Update(ctx context.Context, p *Participation) error

	// Count возвращает количество участий в соревновании.
	Count(ctx context.Context, competitionID shared.CompetitionID) (int, error)
}

// RequirementRepository определяет доступ к требованиям соревнования.
type RequirementRepository interface {
	// ListByCompetition возвращает требования соревнования.
	ListByCompetition(ctx context.Context, competitionID shared.CompetitionID) ([]Requirement, error)
}

// SubmissionRepository определяет доступ к истории сабмитов.
type SubmissionRepository interface {
	// ListByParticipation возвращает все сабмиты участия
	// в хронологическом порядке.
	ListByParticipation(ctx context.Context, participationID string) ([]Submission, error)

	// Record сохраняет новый сабмит.
	Record(ctx context.Context, participationID string, sub Submission) error
}

// ProgressRepository хранит производный прогресс и состояние серий.
// Производные данные пересчитываются движком и перезаписываются целиком.
type ProgressRepository interface {
	// SaveRequirementProgress перезаписывает прогресс требований участия.
	SaveRequirementProgress(ctx context.Context, participationID string, progress []RequirementProgress) error

	// GetRequirementProgress возвращает сохранённый прогресс требований.
	GetRequirementProgress(ctx context.Context, participationID string) ([]RequirementProgress, error)

	// GetStreak возвращает состояние серии участия.
	GetStreak(ctx context.Context, participationID string) (StreakState, error)

	// SaveStreak сохраняет состояние серии.
	SaveStreak(ctx context.Context, participationID string, streak StreakState) error

	// ListActivityDates возвращает временные метки активности участия
	// (сабмиты, зачёты) для расчёта серий.
	ListActivityDates(ctx context.Context, participationID string) ([]time.Time, error)
}
