// Package intervention содержит доменную модель интервенций инструктора.
// Интервенция (Intervention) - это адресное действие инструктора по
// участнику в зоне риска, отслеживаемое до завершения с оценкой
// эффективности. Жизненный цикл: planned → in-progress → completed,
// с боковой веткой planned|in-progress → cancelled; оба конца
// терминальны, отменённая интервенция неизменяема.
package intervention

import (
	"strings"
	"time"

	"github.com/arena-hub/arena-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// STATUS
// ══════════════════════════════════════════════════════════════════════════════

// Status определяет состояние жизненного цикла интервенции.
type Status string

const (
	// StatusPlanned - интервенция запланирована.
	StatusPlanned Status = "planned"

	// StatusInProgress - интервенция выполняется.
	StatusInProgress Status = "in_progress"

	// StatusCompleted - интервенция завершена с оценкой. Терминальное.
	StatusCompleted Status = "completed"

	// StatusCancelled - интервенция отменена. Терминальное.
	StatusCancelled Status = "cancelled"
)

// IsValid проверяет корректность статуса.
func (s Status) IsValid() bool {
	switch s {
	case StatusPlanned, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal возвращает true для терминальных статусов.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// String возвращает строковое представление статуса.
func (s Status) String() string {
	return string(s)
}

// ══════════════════════════════════════════════════════════════════════════════
// TYPE & PRIORITY
// ══════════════════════════════════════════════════════════════════════════════

// Type определяет тип интервенции.
type Type string

const (
	// TypeCheckIn - личная беседа с участником.
	TypeCheckIn Type = "check_in"

	// TypeMentoring - назначение ментора.
	TypeMentoring Type = "mentoring"

	// TypeStudyPlan - корректировка учебного плана.
	TypeStudyPlan Type = "study_plan"

	// TypeDeadlineExtension - продление дедлайна.
	TypeDeadlineExtension Type = "deadline_extension"

	// TypePeerSupport - подключение к группе поддержки.
	TypePeerSupport Type = "peer_support"
)

// Priority определяет приоритет интервенции.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// IsValid проверяет корректность приоритета.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// METRICS (Before/After срез)
// ══════════════════════════════════════════════════════════════════════════════

// Metrics - срез показателей участника до и после интервенции.
// "До" фиксируется при создании; "после" вычисляется при завершении
// через подставляемую политику дельт.
type Metrics struct {
	// PerformanceBefore / PerformanceAfter - успеваемость (0-100).
	PerformanceBefore float64
	PerformanceAfter  float64

	// EngagementBefore / EngagementAfter - вовлечённость (0-100).
	EngagementBefore float64
	EngagementAfter  float64

	// RiskScoreBefore / RiskScoreAfter - оценка риска (0-100, меньше лучше).
	RiskScoreBefore float64
	RiskScoreAfter  float64
}

// EffectivenessDeltaPolicy вычисляет "после"-метрики по "до"-срезу
// и оценке эффективности. Политика - подставляемый коллаборатор,
// а не зашитая бизнес-логика: учреждения настраивают её под себя.
type EffectivenessDeltaPolicy interface {
	// Apply возвращает метрики с заполненными "после"-значениями.
	Apply(before Metrics, effectiveness shared.Effectiveness) Metrics
}

// LinearDeltaPolicy - политика по умолчанию: сдвиг пропорционален
// отклонению оценки от нейтральной тройки. Оценка 3 ничего не меняет,
// 5 даёт максимальный положительный сдвиг, 1 - отрицательный.
type LinearDeltaPolicy struct {
	// StepPerPoint - сдвиг показателей за один пункт оценки (по умолчанию 5).
	StepPerPoint float64
}

// Apply реализует EffectivenessDeltaPolicy.
func (p LinearDeltaPolicy) Apply(before Metrics, effectiveness shared.Effectiveness) Metrics {
	step := p.StepPerPoint
	if step == 0 {
		step = 5
	}
	delta := float64(effectiveness.Int()-3) * step

	after := before
	after.PerformanceAfter = clampMetric(before.PerformanceBefore + delta)
	after.EngagementAfter = clampMetric(before.EngagementBefore + delta)
	// Риск движется в противоположную сторону: успешная интервенция снижает его.
	after.RiskScoreAfter = clampMetric(before.RiskScoreBefore - delta)
	return after
}

func clampMetric(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// ══════════════════════════════════════════════════════════════════════════════
// NOTE (Журнал заметок)
// ══════════════════════════════════════════════════════════════════════════════

// Note - одна заметка в журнале интервенции. Журнал append-only.
type Note struct {
	// ID - идентификатор заметки.
	ID string

	// Text - текст заметки.
	Text string

	// Author - автор.
	Author shared.Actor

	// Timestamp - время записи.
	Timestamp time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// INTERVENTION
// ══════════════════════════════════════════════════════════════════════════════

// Intervention представляет одну интервенцию инструктора.
type Intervention struct {
	// ID - идентификатор интервенции (UUID).
	ID string

	// ParticipantID - участник, на которого направлена интервенция.
	ParticipantID shared.ParticipantID

	// CompetitionID - соревнование.
	CompetitionID shared.CompetitionID

	// AlertID - алерт, породивший интервенцию (пустой, если создана вручную).
	AlertID string

	// Type - тип интервенции.
	Type Type

	// Title - заголовок.
	Title string

	// Description - описание плана действий.
	Description string

	// Priority - приоритет.
	Priority Priority

	// Status - текущее состояние жизненного цикла.
	Status Status

	// CreatedAt / CreatedBy - создание.
	CreatedAt time.Time
	CreatedBy shared.Actor

	// ScheduledDate - плановая дата начала.
	ScheduledDate time.Time

	// StartedAt - фактическое начало.
	StartedAt time.Time

	// CompletedDate - фактическое завершение.
	CompletedDate time.Time

	// Outcome - текст итога (заполняется при завершении).
	Outcome string

	// Effectiveness - оценка эффективности 1-5 (0 = не оценена).
	Effectiveness shared.Effectiveness

	// FollowUpRequired / FollowUpDate - требование повторного контроля.
	FollowUpRequired bool
	FollowUpDate     time.Time

	// Metrics - before/after срез показателей.
	Metrics Metrics

	// Notes - упорядоченный журнал заметок.
	Notes []Note

	// CancelReason - причина отмены.
	CancelReason string

	// Version - версия для оптимистичной блокировки.
	Version int
}

// New создаёт новую интервенцию в состоянии planned.
// Before-метрики фиксируются в момент создания.
func New(id string, participantID shared.ParticipantID, competitionID shared.CompetitionID, t Type, title, description string, priority Priority, createdBy shared.Actor, scheduledDate time.Time, before Metrics, now time.Time) (*Intervention, error) {
	if id == "" {
		return nil, shared.NewValidationError("intervention", "id", "intervention ID cannot be empty")
	}
	if participantID.IsEmpty() {
		return nil, shared.NewValidationError("intervention", "participant_id", "participant ID cannot be empty")
	}
	if strings.TrimSpace(title) == "" {
		return nil, shared.NewValidationError("intervention", "title", "title cannot be empty")
	}
	if !priority.IsValid() {
		return nil, shared.NewValidationError("intervention", "priority", "unknown priority")
	}
	if !createdBy.IsValid() {
		return nil, shared.NewValidationError("intervention", "created_by", "actor cannot be empty")
	}

	return &Intervention{
		ID:            id,
		ParticipantID: participantID,
		CompetitionID: competitionID,
		Type:          t,
		Title:         title,
		Description:   description,
		Priority:      priority,
		Status:        StatusPlanned,
		CreatedAt:     now,
		CreatedBy:     createdBy,
		ScheduledDate: scheduledDate,
		Metrics:       before,
		Version:       1,
	}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Lifecycle transitions
// ─────────────────────────────────────────────────────────────────────────────

// Start переводит интервенцию planned → in-progress.
func (i *Intervention) Start(now time.Time) error {
	if i.Status != StatusPlanned {
		return shared.NewInvalidStateTransition("intervention", i.Status.String(), StatusInProgress.String())
	}

	i.Status = StatusInProgress
	i.StartedAt = now
	return nil
}

// Complete переводит интервенцию in-progress → completed.
// Требует оценку эффективности в [1,5] и непустой итог; after-метрики
// вычисляются политикой дельт по before-срезу. Completed терминален.
func (i *Intervention) Complete(outcome string, effectiveness shared.Effectiveness, policy EffectivenessDeltaPolicy, now time.Time) error {
	if i.Status != StatusInProgress {
		return shared.NewInvalidStateTransition("intervention", i.Status.String(), StatusCompleted.String())
	}
	if !effectiveness.IsValid() {
		return shared.NewValidationError("intervention", "effectiveness", "effectiveness must be between 1 and 5")
	}
	if strings.TrimSpace(outcome) == "" {
		return shared.NewValidationError("intervention", "outcome", "outcome text cannot be empty")
	}
	if policy == nil {
		policy = LinearDeltaPolicy{}
	}

	i.Status = StatusCompleted
	i.Outcome = strings.TrimSpace(outcome)
	i.Effectiveness = effectiveness
	i.Metrics = policy.Apply(i.Metrics, effectiveness)
	i.CompletedDate = now
	return nil
}

// Cancel переводит интервенцию planned|in-progress → cancelled.
// После отмены интервенция неизменяема.
func (i *Intervention) Cancel(reason string, now time.Time) error {
	if i.Status.IsTerminal() {
		return shared.NewInvalidStateTransition("intervention", i.Status.String(), StatusCancelled.String())
	}

	i.Status = StatusCancelled
	i.CancelReason = strings.TrimSpace(reason)
	i.CompletedDate = now
	return nil
}

// RequireFollowUp назначает повторный контроль.
func (i *Intervention) RequireFollowUp(date time.Time) error {
	if i.Status.IsTerminal() && i.Status != StatusCompleted {
		return shared.NewInvalidStateTransition("intervention", i.Status.String(), i.Status.String())
	}
	if date.IsZero() {
		return shared.NewValidationError("intervention", "follow_up_date", "follow-up date cannot be zero")
	}

	i.FollowUpRequired = true
	i.FollowUpDate = date
	return nil
}

// AddNote добавляет заметку в журнал.
// Валиден в любом нетерминальном состоянии; чистый append.
func (i *Intervention) AddNote(note Note) error {
	if i.Status == StatusCancelled {
		return shared.NewInvalidStateTransition("intervention", i.Status.String(), i.Status.String())
	}
	if note.ID == "" {
		return shared.NewValidationError("intervention", "note.id", "note ID cannot be empty")
	}
	if strings.TrimSpace(note.Text) == "" {
		return shared.NewValidationError("intervention", "note.text", "note text cannot be empty")
	}

	i.Notes = append(i.Notes, note)
	return nil
}

// IsSuccessful возвращает true для завершённых интервенций с оценкой >= 4.
func (i *Intervention) IsSuccessful() bool {
	return i.Status == StatusCompleted && i.Effectiveness.IsSuccessful()
}
