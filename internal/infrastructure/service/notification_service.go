// Package service contains infrastructure adapters for outbound services.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/arena-hub/arena-progress-hub/internal/domain/notification"
	"github.com/arena-hub/arena-progress-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION SENDERS
// ══════════════════════════════════════════════════════════════════════════════

// LogSender implements notification.Sender by logging messages.
// Used in development and as a fallback when no webhook is configured.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a new LogSender.
func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger.With("component", "notifications")}
}

// Send implements notification.Sender.
func (s *LogSender) Send(_ context.Context, msg notification.Message) error {
	s.logger.Info("notification",
		"type", msg.Type,
		"subject_id", msg.SubjectID,
		"title", msg.Title,
		"body", msg.Body,
	)
	return nil
}

// WebhookSender implements notification.Sender by POSTing messages as JSON
// to an external delivery channel. Transient failures are retried with
// exponential backoff; 4xx responses are treated as permanent.
type WebhookSender struct {
	url     string
	client  *http.Client
	retrier *retry.Retrier
	logger  *slog.Logger
}

// NewWebhookSender creates a new WebhookSender.
func NewWebhookSender(url string, logger *slog.Logger) *WebhookSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookSender{
		url: url,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		retrier: retry.DeliveryRetrier(),
		logger:  logger.With("component", "notifications"),
	}
}

// webhookPayload is the wire shape of a delivered notification.
type webhookPayload struct {
	Type      string                 `json:"type"`
	SubjectID string                 `json:"subject_id"`
	Title     string                 `json:"title"`
	Body      string                 `json:"body"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// Send implements notification.Sender.
func (s *WebhookSender) Send(ctx context.Context, msg notification.Message) error {
	body, err := json.Marshal(webhookPayload{
		Type:      string(msg.Type),
		SubjectID: msg.SubjectID.String(),
		Title:     msg.Title,
		Body:      msg.Body,
		Payload:   msg.Payload,
		CreatedAt: msg.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("notification: failed to marshal message: %w", err)
	}

	return s.retrier.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
		if err != nil {
			return retry.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.client.Do(req)
		if err != nil {
			return retry.Retryable(err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode < 300:
			return nil
		case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
			return retry.Retryable(fmt.Errorf("notification: webhook returned %d", resp.StatusCode))
		default:
			return retry.Permanent(fmt.Errorf("notification: webhook rejected message with %d", resp.StatusCode))
		}
	})
}
