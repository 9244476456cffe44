package eventhandler

import (
	"context"
	"log/slog"
	"time"

	"github.com/arena-hub/arena-progress-hub/internal/domain/notification"
	"github.com/arena-hub/arena-progress-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON RANK CHANGED HANDLER
// Уведомляет участника о заметном движении в лидерборде. Мелкие
// колебания на 1-2 позиции не беспокоят участника.
// ═══════════════════════════════════════════════════════════════════════════

// RankChangedConfig содержит конфигурацию обработчика.
type RankChangedConfig struct {
	// MinRankChangeForNotification - минимальное изменение ранга
	// для уведомления.
	MinRankChangeForNotification int

	// NotifyOnEntry - уведомлять ли о первом появлении в лидерборде.
	NotifyOnEntry bool
}

// DefaultRankChangedConfig возвращает конфигурацию по умолчанию.
func DefaultRankChangedConfig() RankChangedConfig {
	return RankChangedConfig{
		MinRankChangeForNotification: 3,
		NotifyOnEntry:                true,
	}
}

// OnRankChangedHandler отправляет уведомление об изменении позиции.
type OnRankChangedHandler struct {
	sender notification.Sender
	logger *slog.Logger
	config RankChangedConfig
}

// NewOnRankChangedHandler создаёт новый обработчик.
func NewOnRankChangedHandler(sender notification.Sender, logger *slog.Logger, config RankChangedConfig) *OnRankChangedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if config.MinRankChangeForNotification == 0 {
		config = DefaultRankChangedConfig()
	}
	return &OnRankChangedHandler{
		sender: sender,
		logger: logger.With("handler", "on_rank_changed"),
		config: config,
	}
}

// Handle обрабатывает событие изменения ранга.
// Реализует интерфейс shared.EventHandler.
func (h *OnRankChangedHandler) Handle(event shared.Event) error {
	ctx := context.Background()

	changed, ok := event.(shared.RankChangedEvent)
	if !ok {
		h.logger.Warn("received non-RankChangedEvent",
			"event_type", event.EventType(),
		)
		return nil
	}

	h.logger.Info("processing rank changed event",
		"participant_id", changed.ParticipantID,
		"old_rank", changed.OldRank,
		"new_rank", changed.NewRank,
	)

	if !h.shouldNotify(changed) || h.sender == nil {
		return nil
	}

	msg := notification.NewRankChanged(
		shared.ParticipantID(changed.ParticipantID),
		changed.OldRank,
		changed.NewRank,
		time.Now().UTC(),
	)

	if err := h.sender.Send(ctx, msg); err != nil {
		h.logger.Error("failed to send rank notification",
			"participant_id", changed.ParticipantID,
			"error", err,
		)
	}

	return nil
}

func (h *OnRankChangedHandler) shouldNotify(e shared.RankChangedEvent) bool {
	if e.OldRank == 0 {
		return h.config.NotifyOnEntry
	}
	diff := e.OldRank - e.NewRank
	if diff < 0 {
		diff = -diff
	}
	return diff >= h.config.MinRankChangeForNotification
}
