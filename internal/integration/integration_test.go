package integration

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"math-worksheet-backend/internal/app"
	"math-worksheet-backend/internal/domain"
	"math-worksheet-backend/internal/infra/memory"
	infraredis "math-worksheet-backend/internal/infra/redis"
	"math-worksheet-backend/internal/persist"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestLeaderboardSurvivesRestartOnRedis(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	addr, cleanup := startRedis(t, ctx)
	defer cleanup()

	client := goredis.NewClient(&goredis.Options{Addr: addr})
	defer client.Close()

	store := infraredis.NewSnapshotStore(client, "it", 0)
	writer := persist.NewWriter(store)

	bank := mustBank(t)
	board := app.NewLeaderboard(50, 10, app.WithLeaderboardSink(writer))
	svc := app.NewScoringService(bank, board)

	answers := make(map[string]string)
	for _, q := range memory.RoundingWorksheet() {
		answers[q.ID] = q.CorrectAnswer
	}
	if _, err := svc.Submit(ctx, domain.Submission{Name: "Ann", Answers: answers}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := svc.Submit(ctx, domain.Submission{Name: "Bob", Answers: map[string]string{"q1": "wrong"}}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	writer.Flush(ctx)

	data, err := store.Load(ctx, app.ScoresSnapshot)
	if err != nil {
		t.Fatalf("load scores snapshot: %v", err)
	}
	restored := app.NewLeaderboard(50, 10)
	if err := restored.Load(data); err != nil {
		t.Fatalf("restore leaderboard: %v", err)
	}
	top := restored.Top(0)
	if len(top) != 2 {
		t.Fatalf("expected 2 restored entries, got %d", len(top))
	}
	if top[0].Name != "Ann" || top[0].Score != len(answers) {
		t.Fatalf("unexpected leader after restore: %+v", top[0])
	}
	if top[1].Name != "Bob" || top[1].Score != 0 {
		t.Fatalf("unexpected runner-up after restore: %+v", top[1])
	}
}

func TestQuotaSnapshotOnRedis(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	addr, cleanup := startRedis(t, ctx)
	defer cleanup()

	client := goredis.NewClient(&goredis.Options{Addr: addr})
	defer client.Close()

	store := infraredis.NewSnapshotStore(client, "it", time.Hour)
	writer := persist.NewWriter(store)

	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	quota := app.NewQuotaTracker(5, app.WithQuotaClock(clock), app.WithQuotaLocation(time.UTC), app.WithQuotaSink(writer))
	for i := 0; i < 3; i++ {
		if d := quota.CheckAndIncrement(); !d.Admit {
			t.Fatalf("request %d denied", i)
		}
	}
	writer.Flush(ctx)

	data, err := store.Load(ctx, app.QuotaSnapshot)
	if err != nil {
		t.Fatalf("load quota snapshot: %v", err)
	}
	next := app.NewQuotaTracker(5, app.WithQuotaClock(clock), app.WithQuotaLocation(time.UTC))
	if err := next.Restore(data, true); err != nil {
		t.Fatalf("restore quota: %v", err)
	}
	if got := next.Snapshot(); got.Requests != 3 || got.LastReset != "2026-10-19" {
		t.Fatalf("unexpected restored quota: %+v", got)
	}

	if _, err := store.Load(ctx, "missing"); err != domain.ErrSnapshotNotFound {
		t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
	}
}

func TestAdmissionStatsOnRedis(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	addr, cleanup := startRedis(t, ctx)
	defer cleanup()

	client := goredis.NewClient(&goredis.Options{Addr: addr})
	defer client.Close()

	stats := infraredis.NewStatsStore(client, infraredis.WithStatsPrefix("it:admission"))
	at := time.Now()
	events := []domain.AdmissionEvent{
		{Stage: "gate", Allowed: true, Method: "GET", Path: "/api/questions", Key: "10.0.0.1", At: at},
		{Stage: "gate", Allowed: false, Method: "GET", Path: "/api/questions", Key: "10.0.0.2", At: at},
		{Stage: "quota", Allowed: false, Method: "POST", Path: "/api/scores", Key: "10.0.0.1", At: at},
	}
	for _, ev := range events {
		if err := stats.Record(ctx, ev); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	summary, err := stats.Summary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Total.Allowed != 1 || summary.Total.Denied != 2 {
		t.Fatalf("unexpected totals: %+v", summary.Total)
	}
	if got := summary.ByStage["gate"]; got.Allowed != 1 || got.Denied != 1 {
		t.Fatalf("unexpected gate counters: %+v", got)
	}

	quota := app.NewQuotaTracker(10)
	report, err := app.NewStatsReporter(quota, stats).Report(ctx)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if report.Admission.Total.Denied != 2 || report.Limit != 10 {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func mustBank(t *testing.T) *app.QuestionBank {
	t.Helper()
	bank, err := app.NewQuestionBank(memory.RoundingWorksheet())
	if err != nil {
		t.Fatalf("question bank: %v", err)
	}
	return bank
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	return fmt.Sprintf("%s:%s", host, port.Port()), func() {
		_ = container.Terminate(ctx)
	}
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
