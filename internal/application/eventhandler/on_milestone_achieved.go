// Package eventhandler содержит обработчики доменных событий.
// Обработчики - реактивная часть системы: они подписываются на шину
// событий и запускают побочные эффекты (уведомления, сброс кэшей),
// не вмешиваясь в основной путь команды.
package eventhandler

import (
	"context"
	"log/slog"

	"github.com/arena-hub/arena-progress-hub/internal/domain/notification"
	"github.com/arena-hub/arena-progress-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON MILESTONE ACHIEVED HANDLER
// Веха достигается ровно один раз, поэтому и уведомление уходит ровно
// одно: дедупликацию гарантирует односторонний переход в домене.
// ═══════════════════════════════════════════════════════════════════════════

// OnMilestoneAchievedHandler отправляет уведомление о достижении вехи.
type OnMilestoneAchievedHandler struct {
	sender notification.Sender
	logger *slog.Logger
}

// NewOnMilestoneAchievedHandler создаёт новый обработчик.
func NewOnMilestoneAchievedHandler(sender notification.Sender, logger *slog.Logger) *OnMilestoneAchievedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnMilestoneAchievedHandler{
		sender: sender,
		logger: logger.With("handler", "on_milestone_achieved"),
	}
}

// Handle обрабатывает событие достижения вехи.
// Реализует интерфейс shared.EventHandler.
func (h *OnMilestoneAchievedHandler) Handle(event shared.Event) error {
	ctx := context.Background()

	achieved, ok := event.(shared.MilestoneAchievedEvent)
	if !ok {
		h.logger.Warn("received non-MilestoneAchievedEvent",
			"event_type", event.EventType(),
		)
		return nil
	}

	h.logger.Info("processing milestone achieved event",
		"participant_id", achieved.ParticipantID,
		"milestone_id", achieved.MilestoneID,
		"points", achieved.Points,
	)

	if h.sender == nil {
		return nil
	}

	msg := notification.NewMilestoneAchieved(
		shared.ParticipantID(achieved.ParticipantID),
		achieved.MilestoneID,
		achieved.Title,
		achieved.Points,
		achieved.AchievedAt,
	)

	if err := h.sender.Send(ctx, msg); err != nil {
		// Уведомление не критично: логируем и не роняем обработку.
		h.logger.Error("failed to send milestone notification",
			"participant_id", achieved.ParticipantID,
			"milestone_id", achieved.MilestoneID,
			"error", err,
		)
	}

	return nil
}
