package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"vouch/internal/verification/models"
	id "vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
)

const (
	decayKeyPrefix    = "vouch:decay:"
	progressKeyPrefix = "vouch:extract:"
)

// RedisStore persists checkpoints in Redis. Writes are plain SETs keyed by
// user/session, so re-saving the same checkpoint is value-idempotent.
type RedisStore struct {
	client *redis.Client
}

// NewRedis constructs a Redis-backed checkpoint store.
func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) SaveDecay(ctx context.Context, cp models.DecayCheckpoint) error {
	raw, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("marshal decay checkpoint: %w", err)
	}
	if err := s.client.Set(ctx, decayKeyPrefix+cp.UserID.String(), raw, 0).Err(); err != nil {
		return fmt.Errorf("save decay checkpoint: %w", err)
	}
	return nil
}

func (s *RedisStore) LoadDecay(ctx context.Context, userID id.UserID) (models.DecayCheckpoint, error) {
	raw, err := s.client.Get(ctx, decayKeyPrefix+userID.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.DecayCheckpoint{}, sentinel.ErrNotFound
		}
		return models.DecayCheckpoint{}, fmt.Errorf("load decay checkpoint: %w", err)
	}
	var cp models.DecayCheckpoint
	if err := json.Unmarshal(raw, &cp); err != nil {
		return models.DecayCheckpoint{}, fmt.Errorf("unmarshal decay checkpoint: %w", err)
	}
	return cp, nil
}

func (s *RedisStore) DeleteDecay(ctx context.Context, userID id.UserID) error {
	if err := s.client.Del(ctx, decayKeyPrefix+userID.String()).Err(); err != nil {
		return fmt.Errorf("delete decay checkpoint: %w", err)
	}
	return nil
}

func (s *RedisStore) SaveProgress(ctx context.Context, sessionID id.SessionID, lastCompleted int) error {
	if err := s.client.Set(ctx, progressKeyPrefix+sessionID.String(), lastCompleted, 0).Err(); err != nil {
		return fmt.Errorf("save extraction progress: %w", err)
	}
	return nil
}

func (s *RedisStore) LoadProgress(ctx context.Context, sessionID id.SessionID) (int, error) {
	v, err := s.client.Get(ctx, progressKeyPrefix+sessionID.String()).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("load extraction progress: %w", err)
	}
	return v, nil
}

func (s *RedisStore) DeleteProgress(ctx context.Context, sessionID id.SessionID) error {
	if err := s.client.Del(ctx, progressKeyPrefix+sessionID.String()).Err(); err != nil {
		return fmt.Errorf("delete extraction progress: %w", err)
	}
	return nil
}
