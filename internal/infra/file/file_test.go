package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"math-worksheet-backend/internal/domain"
)

func TestSnapshotStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewSnapshotStore(map[string]string{
		"scores": filepath.Join(dir, "scores.json"),
		"stats":  filepath.Join(dir, "nested", "stats.json"),
	})
	ctx := context.Background()

	if _, err := store.Load(ctx, "scores"); !errors.Is(err, domain.ErrSnapshotNotFound) {
		t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
	}
	if err := store.Save(ctx, "scores", []byte(`[{"name":"Ann"}]`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Save(ctx, "scores", []byte(`[]`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if err := store.Save(ctx, "stats", []byte(`{"requests":1}`)); err != nil {
		t.Fatalf("save nested: %v", err)
	}

	data, err := store.Load(ctx, "scores")
	if err != nil || string(data) != `[]` {
		t.Fatalf("expected latest payload, got %q err=%v", data, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".tmp" {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
}

func TestSnapshotStoreUnknownName(t *testing.T) {
	store := NewSnapshotStore(map[string]string{})
	if err := store.Save(context.Background(), "scores", nil); err == nil {
		t.Fatalf("expected error for unmapped snapshot")
	}
}

func TestQuestionSourceParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.yaml")
	raw := `
- id: q1
  question: "17"
  correctAnswer: "20"
  choices: ["10", "20", "17"]
- id: q2
  question: "75"
  correctAnswer: "80"
  choices: ["70", "80", "75"]
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	qs, err := NewQuestionSource(path).LoadQuestions(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(qs) != 2 || qs[0].Prompt != "17" || qs[0].CorrectAnswer != "20" || len(qs[1].Choices) != 3 {
		t.Fatalf("unexpected questions %+v", qs)
	}
}

func TestQuestionSourceAcceptsJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.json")
	raw := `[{"id":"q1","question":"17","correctAnswer":"20","choices":["10","20","17"]}]`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	qs, err := NewQuestionSource(path).LoadQuestions(context.Background())
	if err != nil || len(qs) != 1 || qs[0].CorrectAnswer != "20" {
		t.Fatalf("unexpected result %+v err=%v", qs, err)
	}
}
