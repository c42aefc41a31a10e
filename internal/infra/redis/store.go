package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"toohak-quiz-service/internal/domain"
)

// Store keeps the snapshot as one JSON value under a single key. An optional
// TTL lets throwaway environments expire their state on their own.
type Store struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewStore(client *redis.Client, key string, ttl time.Duration) *Store {
	if key == "" {
		key = "toohak:snapshot"
	}
	return &Store{client: client, key: key, ttl: ttl}
}

func (s *Store) Load(ctx context.Context) (domain.Snapshot, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Empty(), nil
	}
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return snap, nil
}

func (s *Store) Save(ctx context.Context, snap domain.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := s.client.Set(ctx, s.key, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}
