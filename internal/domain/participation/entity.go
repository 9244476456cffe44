// Package participation содержит доменную модель участия в соревновании.
// Участие (Participation) - это запись одного участника в одном соревновании:
// от регистрации через выполнение требований до терминального статуса.
// Вся агрегация прогресса работает поверх этих данных как чистые функции.
package participation

import (
	"time"

	"github.com/arena-hub/arena-progress-hub/internal/domain/shared"
	"github.com/arena-hub/arena-progress-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// STATUS
// ══════════════════════════════════════════════════════════════════════════════

// Status определяет жизненный цикл участия.
type Status string

const (
	// StatusActive - участник зарегистрирован и соревнуется.
	StatusActive Status = "active"

	// StatusCompleted - участник выполнил все обязательные требования.
	StatusCompleted Status = "completed"

	// StatusWithdrawn - участник снялся с соревнования.
	StatusWithdrawn Status = "withdrawn"

	// StatusDisqualified - участник дисквалифицирован.
	StatusDisqualified Status = "disqualified"
)

// IsValid проверяет корректность статуса.
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusCompleted, StatusWithdrawn, StatusDisqualified:
		return true
	default:
		return false
	}
}

// IsTerminal возвращает true для терминальных статусов.
// После терминального статуса участие становится неизменяемым.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusWithdrawn || s == StatusDisqualified
}

// String возвращает строковое представление статуса.
func (s Status) String() string {
	return string(s)
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUIREMENT
// ══════════════════════════════════════════════════════════════════════════════

// Requirement описывает одно требование соревнования.
// Требование бинарное, если MaxScore == 0: любой одобренный сабмит засчитывается.
// Иначе зачёт определяется порогом CompletionThreshold по баллам.
type Requirement struct {
	// ID - идентификатор требования в рамках соревнования.
	ID shared.RequirementID

	// Title - название требования.
	Title string

	// Required - обязательное ли требование для завершения соревнования.
	Required bool

	// MaxScore - максимальный балл. 0 означает бинарное требование.
	MaxScore int

	// CompletionThreshold - минимальный балл для зачёта.
	// 0 означает порог по умолчанию: полный балл (MaxScore).
	CompletionThreshold int
}

// IsBinary возвращает true для бинарных требований (без баллов).
func (r Requirement) IsBinary() bool {
	return r.MaxScore == 0
}

// Threshold возвращает действующий порог зачёта.
func (r Requirement) Threshold() int {
	if r.IsBinary() {
		return 0
	}
	if r.CompletionThreshold > 0 {
		return r.CompletionThreshold
	}
	return r.MaxScore
}

// Validate проверяет согласованность требования.
func (r Requirement) Validate() error {
	if !r.ID.IsValid() {
		return shared.NewValidationError("participation", "requirement.id", "requirement ID cannot be empty")
	}
	if r.MaxScore < 0 {
		return shared.NewValidationError("participation", r.ID.String(), "max score cannot be negative")
	}
	if r.CompletionThreshold > r.MaxScore {
		return shared.NewValidationError("participation", r.ID.String(), "completion threshold exceeds max score")
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SUBMISSION
// ══════════════════════════════════════════════════════════════════════════════

// SubmissionStatus определяет статус проверки сабмита.
type SubmissionStatus string

const (
	// SubmissionPending - сабмит ожидает проверки.
	SubmissionPending SubmissionStatus = "pending"

	// SubmissionApproved - сабмит одобрен, баллы засчитаны.
	SubmissionApproved SubmissionStatus = "approved"

	// SubmissionRejected - сабмит отклонён.
	SubmissionRejected SubmissionStatus = "rejected"
)

// Submission представляет один сабмит участника по требованию.
type Submission struct {
	// ID - идентификатор сабмита.
	ID string

	// RequirementID - требование, к которому относится сабмит.
	RequirementID shared.RequirementID

	// Status - статус проверки.
	Status SubmissionStatus

	// Score - присуждённый балл (для одобренных сабмитов).
	Score int

	// SubmittedAt - время сабмита.
	SubmittedAt time.Time
}

// IsApproved возвращает true для одобренных сабмитов.
func (s Submission) IsApproved() bool {
	return s.Status == SubmissionApproved
}

// ══════════════════════════════════════════════════════════════════════════════
// PARTICIPATION
// ══════════════════════════════════════════════════════════════════════════════

// CompletionEvent - запись о зачёте требования (с временем и баллом).
type CompletionEvent struct {
	// RequirementID - зачтённое требование.
	RequirementID shared.RequirementID

	// Score - присуждённый балл.
	Score int

	// Timestamp - время зачёта.
	Timestamp time.Time
}

// Participation представляет участие одного участника в одном соревновании.
// Инвариант: TotalScore - сумма баллов только одобренных сабмитов;
// CompletionEvents - строгое подмножество требований соревнования.
type Participation struct {
	// ID - идентификатор участия (UUID).
	ID string

	// ParticipantID - идентификатор участника.
	ParticipantID shared.ParticipantID

	// CompetitionID - идентификатор соревнования.
	CompetitionID shared.CompetitionID

	// DisplayName - отображаемое имя участника.
	DisplayName string

	// EnrolledAt - время регистрации в соревновании.
	EnrolledAt time.Time

	// Timezone - IANA-зона участника (пустая строка = UTC).
	Timezone string

	// Status - текущий статус жизненного цикла.
	Status Status

	// CompletionEvents - упорядоченный список зачтённых требований.
	CompletionEvents []CompletionEvent

	// TotalScore - текущая сумма баллов.
	TotalScore shared.Score

	// Rank - позиция в рейтинге, присвоенная извне (0 = не присвоена).
	Rank int

	// Version - версия для оптимистичной блокировки.
	Version int
}

// NewParticipation создаёт новое участие со статусом active.
func NewParticipation(id string, participantID shared.ParticipantID, competitionID shared.CompetitionID, displayName string, enrolledAt time.Time, timezone string) (*Participation, error) {
	if id == "" {
		return nil, shared.NewValidationError("participation", "id", "participation ID cannot be empty")
	}
	if !participantID.IsValid() {
		return nil, shared.ErrInvalidParticipantID
	}
	if !competitionID.IsValid() {
		return nil, shared.ErrInvalidCompetitionID
	}
	if enrolledAt.IsZero() {
		return nil, shared.NewValidationError("participation", "enrolled_at", "enrollment timestamp cannot be zero")
	}

	return &Participation{
		ID:               id,
		ParticipantID:    participantID,
		CompetitionID:    competitionID,
		DisplayName:      displayName,
		EnrolledAt:       enrolledAt,
		Timezone:         timezone,
		Status:           StatusActive,
		CompletionEvents: nil,
		TotalScore:       0,
		Rank:             0,
		Version:          1,
	}, nil
}

// Location возвращает часовой пояс участника (UTC, если неизвестен).
func (p *Participation) Location() *time.Location {
	return timeutil.LoadLocation(p.Timezone)
}

// IsTerminal возвращает true, если участие в терминальном статусе.
func (p *Participation) IsTerminal() bool {
	return p.Status.IsTerminal()
}

// CompletedRequirementIDs возвращает множество зачтённых требований.
func (p *Participation) CompletedRequirementIDs() map[shared.RequirementID]bool {
	completed := make(map[shared.RequirementID]bool, len(p.CompletionEvents))
	for _, ev := range p.CompletionEvents {
		completed[ev.RequirementID] = true
	}
	return completed
}

// HasCompleted проверяет, зачтено ли требование.
func (p *Participation) HasCompleted(id shared.RequirementID) bool {
	for _, ev := range p.CompletionEvents {
		if ev.RequirementID == id {
			return true
		}
	}
	return false
}

// RecordCompletion записывает зачёт требования и начисляет баллы.
// Терминальное участие неизменяемо: попытка мутации возвращает
// InvalidStateTransition, а не молча игнорируется.
func (p *Participation) RecordCompletion(requirementID shared.RequirementID, score int, at time.Time) error {
	if p.IsTerminal() {
		return shared.NewInvalidStateTransition("participation", p.Status.String(), StatusActive.String())
	}
	if !requirementID.IsValid() {
		return shared.NewValidationError("participation", "requirement_id", "requirement ID cannot be empty")
	}
	if score < 0 {
		return shared.NewValidationError("participation", requirementID.String(), "score cannot be negative")
	}
	if p.HasCompleted(requirementID) {
		// Повторный зачёт того же требования - идемпотентный no-op.
		return nil
	}

	p.CompletionEvents = append(p.CompletionEvents, CompletionEvent{
		RequirementID: requirementID,
		Score:         score,
		Timestamp:     at,
	})
	p.TotalScore = p.TotalScore.Add(score)
	return nil
}

// Close переводит участие в терминальный статус.
func (p *Participation) Close(target Status) error {
	if !target.IsTerminal() {
		return shared.NewValidationError("participation", "status", "close target must be a terminal status")
	}
	if p.IsTerminal() {
		return shared.NewInvalidStateTransition("participation", p.Status.String(), target.String())
	}
	p.Status = target
	return nil
}

// AssignRank присваивает внешний ранг (после пересборки лидерборда).
func (p *Participation) AssignRank(rank int) error {
	if rank < 0 {
		return shared.NewValidationError("participation", "rank", "rank cannot be negative")
	}
	p.Rank = rank
	return nil
}

// DaysSinceEnrollment возвращает количество календарных дней с регистрации
// в часовом поясе участника, минимум 1 (день регистрации считается первым).
func (p *Participation) DaysSinceEnrollment(now time.Time) int {
	days := timeutil.DaysSince(p.EnrolledAt, now, p.Location())
	if days < 1 {
		return 1
	}
	return days
}
