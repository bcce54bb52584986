package memory

import (
	"context"

	"math-worksheet-backend/internal/domain"
)

// StaticQuestionSource serves a fixed question list (built-in worksheet, tests).
type StaticQuestionSource struct {
	questions []domain.Question
}

func NewStaticQuestionSource(questions []domain.Question) *StaticQuestionSource {
	return &StaticQuestionSource{questions: questions}
}

func (s *StaticQuestionSource) LoadQuestions(_ context.Context) ([]domain.Question, error) {
	out := make([]domain.Question, len(s.questions))
	copy(out, s.questions)
	return out, nil
}

// RoundingWorksheet is the built-in "round to the nearest ten" worksheet. The prompt is
// the number to round; the client renders the instruction.
func RoundingWorksheet() []domain.Question {
	return []domain.Question{
		roundingQuestion("q1", "17", "20", "10", "20", "17"),
		roundingQuestion("q2", "75", "80", "70", "80", "75"),
		roundingQuestion("q3", "64", "60", "64", "70", "60"),
		roundingQuestion("q4", "98", "100", "80", "100", "98"),
		roundingQuestion("q5", "94", "90", "100", "94", "90"),
		roundingQuestion("q6", "445", "450", "450", "440", "500"),
		roundingQuestion("q7", "45", "50", "50", "45", "40"),
		roundingQuestion("q8", "19", "20", "20", "10", "19"),
		roundingQuestion("q9", "0", "0", "10", "1", "0"),
		roundingQuestion("q10", "199", "200", "190", "100", "200"),
		roundingQuestion("q11", "165", "170", "160", "170", "150"),
		roundingQuestion("q12", "999", "1000", "990", "1000", "909"),
	}
}

func roundingQuestion(id, n, answer string, choices ...string) domain.Question {
	return domain.Question{
		ID:            id,
		Prompt:        n,
		CorrectAnswer: answer,
		Choices:       choices,
	}
}
