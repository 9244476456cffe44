package eventhandler

import (
	"context"
	"log/slog"
	"time"

	"github.com/arena-hub/arena-progress-hub/internal/domain/notification"
	"github.com/arena-hub/arena-progress-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON STREAK BROKEN HANDLER
// Потеря длинной серии - сигнал риска выпадения из ритма. Короткие
// серии не заслуживают уведомления: порог отсечки настраивается.
// ═══════════════════════════════════════════════════════════════════════════

// StreakBrokenConfig содержит конфигурацию обработчика.
type StreakBrokenConfig struct {
	// MinStreakForNotification - минимальная потерянная серия,
	// о которой стоит уведомлять.
	MinStreakForNotification int
}

// DefaultStreakBrokenConfig возвращает конфигурацию по умолчанию.
func DefaultStreakBrokenConfig() StreakBrokenConfig {
	return StreakBrokenConfig{
		MinStreakForNotification: 3,
	}
}

// OnStreakBrokenHandler отправляет уведомление о прерванной серии.
type OnStreakBrokenHandler struct {
	sender notification.Sender
	logger *slog.Logger
	config StreakBrokenConfig
}

// NewOnStreakBrokenHandler создаёт новый обработчик.
func NewOnStreakBrokenHandler(sender notification.Sender, logger *slog.Logger, config StreakBrokenConfig) *OnStreakBrokenHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if config.MinStreakForNotification == 0 {
		config = DefaultStreakBrokenConfig()
	}
	return &OnStreakBrokenHandler{
		sender: sender,
		logger: logger.With("handler", "on_streak_broken"),
		config: config,
	}
}

// Handle обрабатывает событие прерванной серии.
// Реализует интерфейс shared.EventHandler.
func (h *OnStreakBrokenHandler) Handle(event shared.Event) error {
	ctx := context.Background()

	broken, ok := event.(shared.StreakBrokenEvent)
	if !ok {
		h.logger.Warn("received non-StreakBrokenEvent",
			"event_type", event.EventType(),
		)
		return nil
	}

	h.logger.Info("processing streak broken event",
		"participant_id", broken.ParticipantID,
		"broken_streak", broken.BrokenStreak,
	)

	if broken.BrokenStreak < h.config.MinStreakForNotification {
		return nil
	}
	if h.sender == nil {
		return nil
	}

	msg := notification.NewStreakBroken(
		shared.ParticipantID(broken.ParticipantID),
		broken.BrokenStreak,
		time.Now().UTC(),
	)

	if err := h.sender.Send(ctx, msg); err != nil {
		h.logger.Error("failed to send streak notification",
			"participant_id", broken.ParticipantID,
			"error", err,
		)
	}

	return nil
}
