// Package notify delivers user-facing notifications about verification
// outcomes. The Kafka publisher is the production path; the log notifier
// stands in when no broker is configured.
package notify

import (
	"context"
	"log/slog"

	"vouch/internal/verification/activities"
	id "vouch/pkg/domain"
)

// LogNotifier writes notifications to the structured log. Used in
// development and as the fallback when Kafka is not configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

// Notify logs the notification and always succeeds.
func (n *LogNotifier) Notify(ctx context.Context, userID id.UserID, kind string, payload map[string]any) error {
	n.logger.InfoContext(ctx, "notification",
		"user_id", userID, "kind", kind, "payload", payload)
	return nil
}

var _ activities.Notifier = (*LogNotifier)(nil)
