// Package notification содержит исходящие сообщения движка.
// Движок формирует полностью готовые сообщения (веха достигнута,
// серия прервана, алерт закрыт) и передаёт их внешнему коллаборатору
// доставки. Сам движок ничего не доставляет: механизм доставки -
// забота коллаборатора.
package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/arena-hub/arena-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// MESSAGE
// ══════════════════════════════════════════════════════════════════════════════

// MessageType определяет тип исходящего сообщения.
type MessageType string

const (
	// TypeMilestoneAchieved - участник достиг вехи.
	TypeMilestoneAchieved MessageType = "milestone_achieved"

	// TypeStreakBroken - серия активных дней прервана.
	TypeStreakBroken MessageType = "streak_broken"

	// TypeRankChanged - позиция в лидерборде изменилась.
	TypeRankChanged MessageType = "rank_changed"

	// TypeAlertResolved - алерт по участнику закрыт.
	TypeAlertResolved MessageType = "alert_resolved"
)

// IsValid проверяет корректность типа сообщения.
func (t MessageType) IsValid() bool {
	switch t {
	case TypeMilestoneAchieved, TypeStreakBroken, TypeRankChanged, TypeAlertResolved:
		return true
	default:
		return false
	}
}

// Message - одно готовое к доставке сообщение.
// Плоский контракт {Type, SubjectID, Payload} для коллаборатора доставки.
type Message struct {
	// Type - тип сообщения.
	Type MessageType `json:"type"`

	// SubjectID - участник, которому адресовано сообщение.
	SubjectID shared.ParticipantID `json:"subject_id"`

	// Title - заголовок сообщения.
	Title string `json:"title"`

	// Body - текст сообщения.
	Body string `json:"body"`

	// Payload - структурированные данные для рендеринга.
	Payload map[string]interface{} `json:"payload,omitempty"`

	// CreatedAt - время формирования.
	CreatedAt time.Time `json:"created_at"`
}

// Sender - порт доставки сообщений. Реализуется внешним коллаборатором.
type Sender interface {
	// Send доставляет одно сообщение.
	Send(ctx context.Context, msg Message) error
}

// ══════════════════════════════════════════════════════════════════════════════
// MESSAGE BUILDERS
// ══════════════════════════════════════════════════════════════════════════════

// NewMilestoneAchieved формирует сообщение о достижении вехи.
func NewMilestoneAchieved(subject shared.ParticipantID, milestoneID, title string, points int, at time.Time) Message {
	return Message{
		Type:      TypeMilestoneAchieved,
		SubjectID: subject,
		Title:     "Milestone achieved!",
		Body:      fmt.Sprintf("You reached %q and earned %d points", title, points),
		Payload: map[string]interface{}{
			"milestone_id": milestoneID,
			"title":        title,
			"points":       points,
		},
		CreatedAt: at,
	}
}

// NewStreakBroken формирует сообщение о прерванной серии.
func NewStreakBroken(subject shared.ParticipantID, brokenStreak int, at time.Time) Message {
	return Message{
		Type:      TypeStreakBroken,
		SubjectID: subject,
		Title:     "Streak lost",
		Body:      fmt.Sprintf("Your %d-day streak ended. Start a new one today!", brokenStreak),
		Payload: map[string]interface{}{
			"broken_streak": brokenStreak,
		},
		CreatedAt: at,
	}
}

// NewRankChanged формирует сообщение об изменении позиции.
func NewRankChanged(subject shared.ParticipantID, oldRank, newRank int, at time.Time) Message {
	body := fmt.Sprintf("You moved from #%d to #%d", oldRank, newRank)
	if oldRank == 0 {
		body = fmt.Sprintf("You entered the leaderboard at #%d", newRank)
	}
	return Message{
		Type:      TypeRankChanged,
		SubjectID: subject,
		Title:     "Leaderboard update",
		Body:      body,
		Payload: map[string]interface{}{
			"old_rank": oldRank,
			"new_rank": newRank,
		},
		CreatedAt: at,
	}
}

// NewAlertResolved формирует сообщение о закрытии алерта.
func NewAlertResolved(subject shared.ParticipantID, alertID, resolution string, at time.Time) Message {
	return Message{
		Type:      TypeAlertResolved,
		SubjectID: subject,
		Title:     "Alert resolved",
		Body:      resolution,
		Payload: map[string]interface{}{
			"alert_id": alertID,
		},
		CreatedAt: at,
	}
}
