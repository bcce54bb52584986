package memory

import (
	"context"
	"testing"

	"math-worksheet-backend/internal/domain"
)

func TestStatsStoreCountsByStage(t *testing.T) {
	ctx := context.Background()
	store := NewStatsStore()

	events := []domain.AdmissionEvent{
		{Stage: "gate", Allowed: true, Method: "GET", Path: "/api/questions"},
		{Stage: "gate", Allowed: false, Method: "GET", Path: "/api/questions"},
		{Stage: "rate", Allowed: false, Method: "POST", Path: "/api/scores"},
	}
	for _, ev := range events {
		if err := store.Record(ctx, ev); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	summary, err := store.Summary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Total.Allowed != 1 || summary.Total.Denied != 2 {
		t.Fatalf("unexpected totals: %+v", summary.Total)
	}
	if got := summary.ByStage["gate"]; got.Allowed != 1 || got.Denied != 1 {
		t.Fatalf("unexpected gate counters: %+v", got)
	}
	if got := store.ByRoute()["POST /api/scores"]; got.Denied != 1 {
		t.Fatalf("unexpected route counters: %+v", got)
	}
}

func TestSnapshotStoreMissingName(t *testing.T) {
	store := NewSnapshotStore()
	if _, err := store.Load(context.Background(), "scores"); err != domain.ErrSnapshotNotFound {
		t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
	}
	if err := store.Save(context.Background(), "scores", []byte("[]")); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err := store.Load(context.Background(), "scores")
	if err != nil || string(data) != "[]" {
		t.Fatalf("expected stored payload, got %q err=%v", data, err)
	}
}

func TestRoundingWorksheetIsValid(t *testing.T) {
	qs, err := NewStaticQuestionSource(RoundingWorksheet()).LoadQuestions(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(qs) != 12 {
		t.Fatalf("expected 12 questions, got %d", len(qs))
	}
	for _, q := range qs {
		found := false
		for _, c := range q.Choices {
			if c == q.CorrectAnswer {
				found = true
			}
		}
		if !found {
			t.Fatalf("question %s answer %s missing from choices", q.ID, q.CorrectAnswer)
		}
	}
}
