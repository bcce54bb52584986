package cli

import (
	"context"
	"errors"
	"fmt"
	"log"

	"math-worksheet-backend/internal/app"
	"math-worksheet-backend/internal/config"
	"math-worksheet-backend/internal/domain"
	"math-worksheet-backend/internal/infra/file"
	"math-worksheet-backend/internal/infra/memory"
	redisstore "math-worksheet-backend/internal/infra/redis"
	sqlitestore "math-worksheet-backend/internal/infra/sqlite"
	"math-worksheet-backend/internal/persist"
	"github.com/redis/go-redis/v9"
)

func newRedisClient(cfg config.Config) *redis.Client {
	if cfg.Redis.Addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// newSnapshotStore returns the configured backend and a close func for it.
func newSnapshotStore(cfg config.Config, client *redis.Client) (persist.Store, func(), error) {
	noop := func() {}
	switch cfg.Persistence.Backend {
	case "redis":
		return redisstore.NewSnapshotStore(client, cfg.Redis.Prefix, 0), noop, nil
	case "sqlite":
		store, err := sqlitestore.NewSnapshotStore(cfg.Persistence.SQLitePath)
		if err != nil {
			return nil, noop, fmt.Errorf("open sqlite snapshots: %w", err)
		}
		return store, func() { _ = store.Close() }, nil
	case "memory":
		return memory.NewSnapshotStore(), noop, nil
	default:
		return file.NewSnapshotStore(map[string]string{
			app.ScoresSnapshot: cfg.Persistence.ScoresPath,
			app.QuotaSnapshot:  cfg.Persistence.StatsPath,
		}), noop, nil
	}
}

// admissionStore is both the recorder used by the HTTP layer and the source of /api/stats.
type admissionStore interface {
	Record(ctx context.Context, ev domain.AdmissionEvent) error
	Summary(ctx context.Context) (domain.AdmissionSummary, error)
}

func newAdmissionStore(cfg config.Config, client *redis.Client) admissionStore {
	if cfg.Stats.Backend == "redis" {
		return redisstore.NewStatsStore(client, redisstore.WithStatsPrefix(cfg.Redis.Prefix+":admission"))
	}
	return memory.NewStatsStore()
}

func newQuestionSource(cfg config.Config) app.QuestionSource {
	if cfg.Questions.Path != "" {
		return file.NewQuestionSource(cfg.Questions.Path)
	}
	return memory.NewStaticQuestionSource(memory.RoundingWorksheet())
}

// loadSnapshot returns nil when nothing was persisted or the store failed; startup always proceeds.
func loadSnapshot(ctx context.Context, store persist.Store, name string) []byte {
	data, err := store.Load(ctx, name)
	if errors.Is(err, domain.ErrSnapshotNotFound) {
		log.Printf("no %s snapshot, starting empty", name)
		return nil
	}
	if err != nil {
		log.Printf("load %s snapshot: %v (starting empty)", name, err)
		return nil
	}
	return data
}
