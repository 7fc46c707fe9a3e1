package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"vouch/internal/platform/config"
	"vouch/internal/verification/activities"
	id "vouch/pkg/domain"
	"vouch/pkg/requestcontext"
)

// message is the wire shape published to the notification topic.
type message struct {
	UserID  string         `json:"user_id"`
	Kind    string         `json:"kind"`
	Payload map[string]any `json:"payload,omitempty"`
	SentAt  time.Time      `json:"sent_at"`
}

// KafkaNotifier publishes notifications to a Kafka topic, keyed by user id
// so one user's notifications stay ordered within a partition.
type KafkaNotifier struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

type KafkaOption func(*KafkaNotifier)

func WithKafkaLogger(logger *slog.Logger) KafkaOption {
	return func(n *KafkaNotifier) { n.logger = logger }
}

// NewKafkaNotifier connects to the brokers in cfg.
func NewKafkaNotifier(cfg config.KafkaConfig, opts ...KafkaOption) (*KafkaNotifier, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka topic is required")
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	n := &KafkaNotifier{
		client: client,
		topic:  cfg.Topic,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// Notify publishes one notification synchronously. The engine already wraps
// delivery in its retry policy, so a failed produce surfaces as-is.
func (n *KafkaNotifier) Notify(ctx context.Context, userID id.UserID, kind string, payload map[string]any) error {
	value, err := json.Marshal(message{
		UserID:  userID.String(),
		Kind:    kind,
		Payload: payload,
		SentAt:  requestcontext.Now(ctx).UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	record := &kgo.Record{
		Key:   []byte(userID.String()),
		Value: value,
	}
	if err := n.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce notification: %w", err)
	}
	n.logger.Debug("notification published", "user_id", userID, "kind", kind, "topic", n.topic)
	return nil
}

// Close flushes and closes the producer.
func (n *KafkaNotifier) Close() {
	n.client.Close()
}

var _ activities.Notifier = (*KafkaNotifier)(nil)
