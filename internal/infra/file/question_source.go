package file

import (
	"context"
	"fmt"
	"os"

	"math-worksheet-backend/internal/domain"
	"gopkg.in/yaml.v3"
)

// QuestionSource reads questions from a YAML (or JSON) file:
//
//	- id: q1
//	  question: "17"
//	  correctAnswer: "20"
//	  choices: ["10", "20", "17"]
type QuestionSource struct {
	path string
}

func NewQuestionSource(path string) *QuestionSource {
	return &QuestionSource{path: path}
}

func (s *QuestionSource) LoadQuestions(_ context.Context) ([]domain.Question, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	var questions []domain.Question
	if err := yaml.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	return questions, nil
}
