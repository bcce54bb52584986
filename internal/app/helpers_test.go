package app_test

import (
	"sync"
	"testing"

	"math-worksheet-backend/internal/app"
	"math-worksheet-backend/internal/infra/memory"
)

type notification struct {
	name    string
	payload []byte
}

type recordingSink struct {
	mu    sync.Mutex
	calls []notification
}

func (s *recordingSink) Notify(name string, payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, notification{name: name, payload: payload})
}

func (s *recordingSink) count(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c.name == name {
			n++
		}
	}
	return n
}

func (s *recordingSink) last(name string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.calls) - 1; i >= 0; i-- {
		if s.calls[i].name == name {
			return s.calls[i].payload
		}
	}
	return nil
}

func newTestBank(t *testing.T) *app.QuestionBank {
	t.Helper()
	bank, err := app.NewQuestionBank(memory.RoundingWorksheet())
	if err != nil {
		t.Fatalf("question bank: %v", err)
	}
	return bank
}

func allCorrect() map[string]string {
	answers := make(map[string]string)
	for _, q := range memory.RoundingWorksheet() {
		answers[q.ID] = q.CorrectAnswer
	}
	return answers
}
