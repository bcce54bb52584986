package domain

import "time"

// DateLayout is the calendar-day format used for leaderboard dates and quota windows.
const DateLayout = "2006-01-02"

// Question is a quiz item. CorrectAnswer is never serialized to clients.
type Question struct {
	ID            string   `json:"id" yaml:"id"`
	Prompt        string   `json:"question" yaml:"question"`
	CorrectAnswer string   `json:"-" yaml:"correctAnswer"`
	Choices       []string `json:"choices" yaml:"choices"`
}

// PublicQuestion is the client-facing projection of a Question.
type PublicQuestion struct {
	ID       string   `json:"id"`
	Question string   `json:"question"`
	Choices  []string `json:"choices"`
}

// ScoreEntry is one submission on the leaderboard.
type ScoreEntry struct {
	Name        string
	Score       int
	SubmittedAt time.Time
}

// PublicScore is the leaderboard row returned to clients.
type PublicScore struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
	Date  string `json:"date"`
}

// Submission carries a player's name and their answers keyed by question id.
type Submission struct {
	Name    string
	Answers map[string]string
}

// ScoreResult is returned after a submission has been scored and recorded.
type ScoreResult struct {
	Score      int           `json:"score"`
	Total      int           `json:"total"`
	Message    string        `json:"message"`
	HighScores []PublicScore `json:"highScores"`
	Saved      bool          `json:"saved"`
}

// QuotaState is the persisted daily quota counter.
type QuotaState struct {
	Requests  int    `json:"requests"`
	LastReset string `json:"lastReset"`
	Limit     int    `json:"limit"`
}

// QuotaDecision is the outcome of a quota check.
type QuotaDecision struct {
	Admit     bool
	Remaining int
	Limit     int
	Reset     string
}

// AdmissionEvent is one decision taken by the admission pipeline.
type AdmissionEvent struct {
	Stage   string
	Allowed bool
	Method  string
	Path    string
	Key     string
	At      time.Time
}

// Counters tallies admitted and denied requests.
type Counters struct {
	Allowed int64 `json:"allowed"`
	Denied  int64 `json:"denied"`
}

// AdmissionSummary aggregates recorded admission events.
type AdmissionSummary struct {
	Total   Counters            `json:"total"`
	ByStage map[string]Counters `json:"byStage"`
}

// UsageReport is served by the stats endpoint.
type UsageReport struct {
	DailyRequests int              `json:"dailyRequests"`
	Limit         int              `json:"limit"`
	Remaining     int              `json:"remaining"`
	Reset         string           `json:"reset"`
	Admission     AdmissionSummary `json:"admission"`
}
