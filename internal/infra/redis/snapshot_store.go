package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	"math-worksheet-backend/internal/domain"
	"github.com/redis/go-redis/v9"
)

// SnapshotStore keeps each snapshot as a plain string value:
//
//	SET {prefix}:snapshot:{name} <json>
//
// Redis is only a sink here; the running process stays the source of truth.
type SnapshotStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewSnapshotStore(client *redis.Client, prefix string, ttl time.Duration) *SnapshotStore {
	prefix = strings.Trim(prefix, ":")
	if prefix == "" {
		prefix = "quiz"
	}
	return &SnapshotStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *SnapshotStore) Save(ctx context.Context, name string, data []byte) error {
	return s.client.Set(ctx, s.key(name), data, s.ttl).Err()
}

func (s *SnapshotStore) Load(ctx context.Context, name string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *SnapshotStore) key(name string) string {
	return s.prefix + ":snapshot:" + name
}
