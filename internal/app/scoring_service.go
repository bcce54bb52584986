package app

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"math-worksheet-backend/internal/domain"
)

const maxNameLength = 20

// QuestionSource loads the question set once at startup (static list, file, etc).
type QuestionSource interface {
	LoadQuestions(ctx context.Context) ([]domain.Question, error)
}

// ScoringService contains the quiz use cases: serving questions and recording scores.
type ScoringService struct {
	bank  *QuestionBank
	board *Leaderboard
	now   func() time.Time
}

func NewScoringService(bank *QuestionBank, board *Leaderboard) *ScoringService {
	return NewScoringServiceWithClock(bank, board, time.Now)
}

// NewScoringServiceWithClock is test-only for deterministic submission dates.
func NewScoringServiceWithClock(bank *QuestionBank, board *Leaderboard, now func() time.Time) *ScoringService {
	return &ScoringService{bank: bank, board: board, now: now}
}

// LoadQuestionBank builds a validated bank from source.
func LoadQuestionBank(ctx context.Context, source QuestionSource) (*QuestionBank, error) {
	questions, err := source.LoadQuestions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	return NewQuestionBank(questions)
}

// Questions lists the quiz without answers.
func (s *ScoringService) Questions() []domain.PublicQuestion {
	return s.bank.List()
}

// TotalQuestions is the maximum achievable score.
func (s *ScoringService) TotalQuestions() int {
	return s.bank.Len()
}

// Submit scores the answers and records the result on the leaderboard.
func (s *ScoringService) Submit(_ context.Context, submission domain.Submission) (domain.ScoreResult, error) {
	name := truncateName(strings.TrimSpace(submission.Name))
	if name == "" {
		return domain.ScoreResult{}, &domain.ValidationError{Field: "name"}
	}
	if len(submission.Answers) == 0 {
		return domain.ScoreResult{}, &domain.ValidationError{Field: "userAnswers"}
	}

	score := s.bank.Score(submission.Answers)
	total := s.bank.Len()
	top := s.board.Submit(domain.ScoreEntry{
		Name:        name,
		Score:       score,
		SubmittedAt: s.now().Truncate(time.Millisecond),
	})

	return domain.ScoreResult{
		Score:      score,
		Total:      total,
		Message:    fmt.Sprintf("Score: %d/%d", score, total),
		HighScores: top,
		Saved:      true,
	}, nil
}

// HighScores returns the public top view of the leaderboard.
func (s *ScoringService) HighScores() []domain.PublicScore {
	return s.board.Top(0)
}

// Subscribe returns a channel that receives leaderboard updates.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *ScoringService) Subscribe(_ context.Context) (<-chan []domain.PublicScore, func()) {
	return s.board.Subscribe()
}

func truncateName(name string) string {
	if utf8.RuneCountInString(name) <= maxNameLength {
		return name
	}
	runes := []rune(name)
	return string(runes[:maxNameLength])
}
