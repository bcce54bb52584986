package domain

import "errors"

var (
	// ErrInvalidQuestionBank is returned when question data breaks the bank invariants
	// (duplicate ids, an answer that is not one of the choices, empty prompt).
	ErrInvalidQuestionBank = errors.New("invalid question bank")
	// ErrSnapshotNotFound is returned by snapshot stores when nothing was persisted yet.
	ErrSnapshotNotFound = errors.New("snapshot not found")
	// ErrRateExceeded indicates the per-client sliding window is full.
	ErrRateExceeded = errors.New("too many requests, please try again later")
	// ErrQuotaExceeded indicates the process-wide daily quota is used up.
	ErrQuotaExceeded = errors.New("daily request limit reached")
)

// ValidationError reports a missing or malformed request field.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return e.Field + " is required"
}
