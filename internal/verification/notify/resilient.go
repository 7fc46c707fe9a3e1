package notify

import (
	"context"
	"fmt"
	"log/slog"

	"vouch/internal/verification/activities"
	id "vouch/pkg/domain"
	"vouch/pkg/platform/circuit"
)

// ResilientNotifier routes notifications through a primary publisher and
// falls back to a secondary when the primary's circuit is open. Failed
// primary sends are delivered through the fallback, so a notification is
// never silently dropped; primary attempts continue while open and act as
// recovery probes.
type ResilientNotifier struct {
	primary  activities.Notifier
	fallback activities.Notifier
	breaker  *circuit.Breaker
	logger   *slog.Logger
}

// NewResilientNotifier wraps primary with circuit-breaker protection.
func NewResilientNotifier(primary, fallback activities.Notifier, logger *slog.Logger) (*ResilientNotifier, error) {
	if primary == nil {
		return nil, fmt.Errorf("primary notifier is required")
	}
	if fallback == nil {
		return nil, fmt.Errorf("fallback notifier is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ResilientNotifier{
		primary:  primary,
		fallback: fallback,
		breaker:  circuit.New("notifier"),
		logger:   logger,
	}, nil
}

func (n *ResilientNotifier) Notify(ctx context.Context, userID id.UserID, kind string, payload map[string]any) error {
	err := n.primary.Notify(ctx, userID, kind, payload)
	if err == nil {
		_, change := n.breaker.RecordSuccess()
		if change.Closed {
			n.logger.Info("notifier circuit closed", "breaker", n.breaker.Name())
		}
		return nil
	}

	useFallback, change := n.breaker.RecordFailure()
	if change.Opened {
		n.logger.Warn("notifier circuit opened", "breaker", n.breaker.Name(), "error", err)
	}
	if !useFallback {
		return err
	}
	n.logger.Warn("notification delivered via fallback", "user_id", userID, "kind", kind, "error", err)
	return n.fallback.Notify(ctx, userID, kind, payload)
}

var _ activities.Notifier = (*ResilientNotifier)(nil)
