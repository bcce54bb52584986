package app

import (
	"fmt"
	"strings"

	"math-worksheet-backend/internal/domain"
)

// QuestionBank is the immutable question set served to players.
type QuestionBank struct {
	questions []domain.Question
	index     map[string]int
}

// NewQuestionBank validates and copies questions. Order is preserved as the canonical order.
func NewQuestionBank(questions []domain.Question) (*QuestionBank, error) {
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: no questions", domain.ErrInvalidQuestionBank)
	}
	bank := &QuestionBank{
		questions: make([]domain.Question, 0, len(questions)),
		index:     make(map[string]int, len(questions)),
	}
	for _, q := range questions {
		if strings.TrimSpace(q.ID) == "" {
			return nil, fmt.Errorf("%w: question with empty id", domain.ErrInvalidQuestionBank)
		}
		if _, dup := bank.index[q.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %q", domain.ErrInvalidQuestionBank, q.ID)
		}
		if strings.TrimSpace(q.Prompt) == "" {
			return nil, fmt.Errorf("%w: question %q has no prompt", domain.ErrInvalidQuestionBank, q.ID)
		}
		if !containsChoice(q.Choices, q.CorrectAnswer) {
			return nil, fmt.Errorf("%w: answer for %q is not one of its choices", domain.ErrInvalidQuestionBank, q.ID)
		}
		q.Choices = append([]string(nil), q.Choices...)
		bank.index[q.ID] = len(bank.questions)
		bank.questions = append(bank.questions, q)
	}
	return bank, nil
}

// List returns questions without their answers.
func (b *QuestionBank) List() []domain.PublicQuestion {
	out := make([]domain.PublicQuestion, 0, len(b.questions))
	for _, q := range b.questions {
		out = append(out, domain.PublicQuestion{
			ID:       q.ID,
			Question: q.Prompt,
			Choices:  append([]string(nil), q.Choices...),
		})
	}
	return out
}

// Check reports whether answer is correct for id. Unknown ids are never correct.
func (b *QuestionBank) Check(id, answer string) bool {
	i, ok := b.index[id]
	if !ok {
		return false
	}
	return b.questions[i].CorrectAnswer == answer
}

// Score counts exact matches between answers and the bank. Unknown ids are ignored.
func (b *QuestionBank) Score(answers map[string]string) int {
	score := 0
	for _, q := range b.questions {
		if answer, ok := answers[q.ID]; ok && answer == q.CorrectAnswer {
			score++
		}
	}
	return score
}

func (b *QuestionBank) Len() int {
	return len(b.questions)
}

func containsChoice(choices []string, answer string) bool {
	for _, c := range choices {
		if c == answer {
			return true
		}
	}
	return false
}
