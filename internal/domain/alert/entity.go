// Package alert содержит доменную модель алертов о рисках.
// Алерт (Alert) - это сигнал инструктору о рисковом состоянии участника
// или класса. Алерты создаются внешним детектором рисков; движок владеет
// только их жизненным циклом: active → acknowledged → resolved с боковой
// веткой active → snoozed → active. Алерты никогда не удаляются -
// только переводятся в терминальный resolved.
package alert

import (
	"strings"
	"time"

	"github.com/arena-hub/arena-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// STATUS
// ══════════════════════════════════════════════════════════════════════════════

// Status определяет состояние жизненного цикла алерта.
type Status string

const (
	// StatusActive - алерт требует внимания.
	StatusActive Status = "active"

	// StatusAcknowledged - инструктор принял алерт в работу.
	StatusAcknowledged Status = "acknowledged"

	// StatusSnoozed - алерт отложен до истечения срока.
	StatusSnoozed Status = "snoozed"

	// StatusResolved - алерт закрыт. Терминальное состояние.
	StatusResolved Status = "resolved"
)

// IsValid проверяет корректность статуса.
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusAcknowledged, StatusSnoozed, StatusResolved:
		return true
	default:
		return false
	}
}

// IsTerminal возвращает true для терминального статуса.
func (s Status) IsTerminal() bool {
	return s == StatusResolved
}

// String возвращает строковое представление статуса.
func (s Status) String() string {
	return string(s)
}

// ══════════════════════════════════════════════════════════════════════════════
// SEVERITY & CATEGORY
// ══════════════════════════════════════════════════════════════════════════════

// Severity определяет серьёзность алерта.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// IsValid проверяет корректность серьёзности.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityInfo, SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	default:
		return false
	}
}

// Weight возвращает числовой вес для сортировки (больше = серьёзнее).
func (s Severity) Weight() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Category определяет категорию алерта.
type Category string

const (
	// CategoryInactivity - участник давно не проявлял активности.
	CategoryInactivity Category = "inactivity"

	// CategoryFallingBehind - участник отстаёт от ожидаемого темпа.
	CategoryFallingBehind Category = "falling_behind"

	// CategoryStreakLost - участник потерял длинную серию.
	CategoryStreakLost Category = "streak_lost"

	// CategoryDeadlineRisk - участник рискует не успеть к дедлайну.
	CategoryDeadlineRisk Category = "deadline_risk"

	// CategorySystem - системный алерт уровня класса.
	CategorySystem Category = "system"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACTION (Журнал действий)
// ══════════════════════════════════════════════════════════════════════════════

// ActionType определяет тип действия по алерту.
type ActionType string

const (
	// ActionComment - комментарий инструктора.
	ActionComment ActionType = "comment"

	// ActionContacted - с участником связались.
	ActionContacted ActionType = "contacted"

	// ActionEscalated - алерт эскалирован.
	ActionEscalated ActionType = "escalated"

	// ActionInterventionCreated - по алерту создана интервенция.
	ActionInterventionCreated ActionType = "intervention_created"
)

// Action - одна запись в журнале действий алерта.
// Журнал append-only: записи не редактируются и не удаляются.
type Action struct {
	// ID - идентификатор записи.
	ID string

	// Type - тип действия.
	Type ActionType

	// Description - свободный текст.
	Description string

	// Author - кто выполнил действие.
	Author shared.Actor

	// Timestamp - время действия.
	Timestamp time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// ALERT
// ══════════════════════════════════════════════════════════════════════════════

// Alert представляет один алерт с журналом действий.
// Мутируется только через переходы жизненного цикла ниже; недопустимый
// переход возвращает InvalidStateTransition, состояние не "подгоняется".
type Alert struct {
	// ID - идентификатор алерта (UUID).
	ID string

	// Category - категория алерта.
	Category Category

	// Severity - серьёзность.
	Severity Severity

	// Title - заголовок для инструктора.
	Title string

	// Description - описание рискового состояния.
	Description string

	// SubjectParticipantID - участник, к которому относится алерт
	// (пустой для алертов уровня класса).
	SubjectParticipantID shared.ParticipantID

	// CompetitionID - соревнование.
	CompetitionID shared.CompetitionID

	// Status - текущее состояние жизненного цикла.
	Status Status

	// Actions - упорядоченный журнал действий.
	Actions []Action

	// CreatedAt - время создания (внешним детектором рисков).
	CreatedAt time.Time

	// AcknowledgedAt / AcknowledgedBy - отметка принятия в работу.
	AcknowledgedAt time.Time
	AcknowledgedBy shared.Actor

	// SnoozedUntil - срок, до которого алерт отложен.
	SnoozedUntil time.Time

	// ResolvedAt / ResolvedBy / Resolution - отметка закрытия.
	ResolvedAt time.Time
	ResolvedBy shared.Actor
	Resolution string

	// Version - версия для оптимистичной блокировки.
	Version int
}

// New создаёт новый алерт в состоянии active.
func New(id string, category Category, severity Severity, title, description string, subject shared.ParticipantID, competitionID shared.CompetitionID, createdAt time.Time) (*Alert, error) {
	if id == "" {
		return nil, shared.NewValidationError("alert", "id", "alert ID cannot be empty")
	}
	if !severity.IsValid() {
		return nil, shared.NewValidationError("alert", "severity", "unknown severity")
	}
	if strings.TrimSpace(title) == "" {
		return nil, shared.NewValidationError("alert", "title", "title cannot be empty")
	}

	return &Alert{
		ID:                   id,
		Category:             category,
		Severity:             severity,
		Title:                title,
		Description:          description,
		SubjectParticipantID: subject,
		CompetitionID:        competitionID,
		Status:               StatusActive,
		CreatedAt:            createdAt,
		Version:              1,
	}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Lifecycle transitions
// ─────────────────────────────────────────────────────────────────────────────

// Acknowledge переводит алерт active → acknowledged.
// Валиден только из active.
func (a *Alert) Acknowledge(by shared.Actor, now time.Time) error {
	if a.Status != StatusActive {
		return shared.NewInvalidStateTransition("alert", a.Status.String(), StatusAcknowledged.String())
	}
	if !by.IsValid() {
		return shared.NewValidationError("alert", "acknowledged_by", "actor cannot be empty")
	}

	a.Status = StatusAcknowledged
	a.AcknowledgedAt = now
	a.AcknowledgedBy = by
	return nil
}

// Resolve переводит алерт acknowledged → resolved.
// Валиден только из acknowledged; требует непустой текст резолюции.
// Resolved терминален: дальнейшие переходы невозможны.
func (a *Alert) Resolve(by shared.Actor, resolution string, now time.Time) error {
	if a.Status != StatusAcknowledged {
		return shared.NewInvalidStateTransition("alert", a.Status.String(), StatusResolved.String())
	}
	if strings.TrimSpace(resolution) == "" {
		return shared.NewValidationError("alert", "resolution", "resolution text cannot be empty")
	}
	if !by.IsValid() {
		return shared.NewValidationError("alert", "resolved_by", "actor cannot be empty")
	}

	a.Status = StatusResolved
	a.ResolvedAt = now
	a.ResolvedBy = by
	a.Resolution = strings.TrimSpace(resolution)
	return nil
}

// Snooze откладывает алерт active → snoozed на указанный срок.
// Валиден только из active. Возврат в active выполняет WakeIfExpired,
// когда срок истечёт: сам алерт таймеров не держит.
func (a *Alert) Snooze(duration time.Duration, now time.Time) error {
	if a.Status != StatusActive {
		return shared.NewInvalidStateTransition("alert", a.Status.String(), StatusSnoozed.String())
	}
	if duration <= 0 {
		return shared.NewValidationError("alert", "duration", "snooze duration must be positive")
	}

	a.Status = StatusSnoozed
	a.SnoozedUntil = now.Add(duration)
	return nil
}

// WakeIfExpired возвращает отложенный алерт в active, если срок истёк.
// Возвращает true, если переход произошёл. Для неотложенных алертов
// и неистёкших сроков - no-op.
func (a *Alert) WakeIfExpired(now time.Time) bool {
	if a.Status != StatusSnoozed {
		return false
	}
	if now.Before(a.SnoozedUntil) {
		return false
	}

	a.Status = StatusActive
	a.SnoozedUntil = time.Time{}
	return true
}

// AddAction добавляет запись в журнал действий.
// Валиден в любом нетерминальном состоянии; чистый append -
// статус алерта не меняется.
func (a *Alert) AddAction(action Action) error {
	if a.Status.IsTerminal() {
		return shared.NewInvalidStateTransition("alert", a.Status.String(), a.Status.String())
	}
	if action.ID == "" {
		return shared.NewValidationError("alert", "action.id", "action ID cannot be empty")
	}
	if !action.Author.IsValid() {
		return shared.NewValidationError("alert", "action.author", "action author cannot be empty")
	}
	if strings.TrimSpace(action.Description) == "" {
		return shared.NewValidationError("alert", "action.description", "action description cannot be empty")
	}

	a.Actions = append(a.Actions, action)
	return nil
}

// IsOpen возвращает true для нетерминальных алертов.
func (a *Alert) IsOpen() bool {
	return !a.Status.IsTerminal()
}

// Age возвращает возраст алерта.
func (a *Alert) Age(now time.Time) time.Duration {
	return now.Sub(a.CreatedAt)
}
