package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"math-worksheet-backend/internal/domain"
	"github.com/redis/go-redis/v9"
)

// StatsStore counts admission decisions in Redis hashes:
//
//	HINCRBY {prefix}:total                 allowed|denied
//	HINCRBY {prefix}:stage                 {stage}:allowed|denied
//	HINCRBY {prefix}:minute:{yyyymmddhhmm} allowed|denied   (expires after ttl)
//	HINCRBY {prefix}:route                 {METHOD path}:allowed|denied
type StatsStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

type StatsOption func(*StatsStore)

func WithStatsPrefix(prefix string) StatsOption {
	return func(s *StatsStore) {
		if p := strings.Trim(prefix, ":"); p != "" {
			s.prefix = p
		}
	}
}

// WithStatsTTL sets how long per-minute buckets live. Totals never expire.
func WithStatsTTL(d time.Duration) StatsOption {
	return func(s *StatsStore) { s.ttl = d }
}

func NewStatsStore(client *redis.Client, opts ...StatsOption) *StatsStore {
	s := &StatsStore{
		client: client,
		prefix: "quiz:admission",
		ttl:    24 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *StatsStore) Record(ctx context.Context, ev domain.AdmissionEvent) error {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	field := "denied"
	if ev.Allowed {
		field = "allowed"
	}

	pipe := s.client.Pipeline()
	pipe.HIncrBy(ctx, s.prefix+":total", field, 1)
	if ev.Stage != "" {
		pipe.HIncrBy(ctx, s.prefix+":stage", ev.Stage+":"+field, 1)
	}

	bucketKey := fmt.Sprintf("%s:minute:%s", s.prefix, at.UTC().Format("200601021504"))
	pipe.HIncrBy(ctx, bucketKey, field, 1)
	if s.ttl > 0 {
		pipe.Expire(ctx, bucketKey, s.ttl)
	}

	if route := strings.TrimSpace(ev.Method + " " + ev.Path); route != "" {
		pipe.HIncrBy(ctx, s.prefix+":route", route+":"+field, 1)
	}

	_, err := pipe.Exec(ctx)
	return err
}

func (s *StatsStore) Summary(ctx context.Context) (domain.AdmissionSummary, error) {
	pipe := s.client.Pipeline()
	totalCmd := pipe.HGetAll(ctx, s.prefix+":total")
	stageCmd := pipe.HGetAll(ctx, s.prefix+":stage")
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return domain.AdmissionSummary{}, err
	}

	out := domain.AdmissionSummary{ByStage: make(map[string]domain.Counters)}
	total := totalCmd.Val()
	out.Total.Allowed = parseCount(total["allowed"])
	out.Total.Denied = parseCount(total["denied"])

	for field, raw := range stageCmd.Val() {
		stage, kind, ok := cutLast(field, ":")
		if !ok {
			continue
		}
		c := out.ByStage[stage]
		switch kind {
		case "allowed":
			c.Allowed = parseCount(raw)
		case "denied":
			c.Denied = parseCount(raw)
		default:
			continue
		}
		out.ByStage[stage] = c
	}
	return out, nil
}

// MinuteCounters returns the bucket for the minute containing at.
func (s *StatsStore) MinuteCounters(ctx context.Context, at time.Time) (domain.Counters, error) {
	key := fmt.Sprintf("%s:minute:%s", s.prefix, at.UTC().Format("200601021504"))
	vals, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return domain.Counters{}, err
	}
	return domain.Counters{Allowed: parseCount(vals["allowed"]), Denied: parseCount(vals["denied"])}, nil
}

func parseCount(raw string) int64 {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func cutLast(s, sep string) (string, string, bool) {
	i := strings.LastIndex(s, sep)
	if i < 0 {
		return "", "", false
	}
	return s[:i], s[i+len(sep):], true
}
