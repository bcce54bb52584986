package app

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"math-worksheet-backend/internal/domain"
)

// QuotaTracker counts admitted requests against a daily limit shared by all clients.
// The counter resets when the calendar day (in the tracker's location) changes.
type QuotaTracker struct {
	limit int
	now   func() time.Time
	loc   *time.Location
	sink  SnapshotSink

	mu    sync.Mutex
	count int
	label string
}

type QuotaOption func(*QuotaTracker)

// WithQuotaClock is used by tests to control day boundaries.
func WithQuotaClock(now func() time.Time) QuotaOption {
	return func(q *QuotaTracker) { q.now = now }
}

func WithQuotaLocation(loc *time.Location) QuotaOption {
	return func(q *QuotaTracker) {
		if loc != nil {
			q.loc = loc
		}
	}
}

func WithQuotaSink(sink SnapshotSink) QuotaOption {
	return func(q *QuotaTracker) { q.sink = sink }
}

func NewQuotaTracker(limit int, opts ...QuotaOption) *QuotaTracker {
	q := &QuotaTracker{
		limit: limit,
		now:   time.Now,
		loc:   time.Local,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.label = q.today()
	return q
}

// CheckAndIncrement rolls the window over if the day changed, then admits and counts
// the request unless the limit is already reached. A denial leaves the count untouched.
func (q *QuotaTracker) CheckAndIncrement() domain.QuotaDecision {
	q.mu.Lock()
	defer q.mu.Unlock()

	rolled := q.rolloverLocked()
	if q.count >= q.limit {
		if rolled {
			q.persistLocked()
		}
		return domain.QuotaDecision{Admit: false, Remaining: 0, Limit: q.limit, Reset: q.label}
	}
	q.count++
	q.persistLocked()
	return domain.QuotaDecision{
		Admit:     true,
		Remaining: q.limit - q.count,
		Limit:     q.limit,
		Reset:     q.label,
	}
}

// Snapshot reports the current state as of now without mutating it.
func (q *QuotaTracker) Snapshot() domain.QuotaState {
	q.mu.Lock()
	defer q.mu.Unlock()
	today := q.today()
	if q.label != today {
		return domain.QuotaState{Requests: 0, LastReset: today, Limit: q.limit}
	}
	return domain.QuotaState{Requests: q.count, LastReset: q.label, Limit: q.limit}
}

// Restore applies a persisted snapshot. The configured limit always wins; the count is
// carried over only when restoreCount is set and the snapshot belongs to today.
func (q *QuotaTracker) Restore(data []byte, restoreCount bool) error {
	var state domain.QuotaState
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("load quota snapshot: %w", err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	q.label = q.today()
	q.count = 0
	if restoreCount && dayLabel(state.LastReset) == q.label && state.Requests > 0 {
		q.count = state.Requests
	}
	return nil
}

func (q *QuotaTracker) Limit() int {
	return q.limit
}

func (q *QuotaTracker) rolloverLocked() bool {
	today := q.today()
	if today == q.label {
		return false
	}
	q.label = today
	q.count = 0
	return true
}

func (q *QuotaTracker) persistLocked() {
	if q.sink == nil {
		return
	}
	data, err := json.Marshal(domain.QuotaState{Requests: q.count, LastReset: q.label, Limit: q.limit})
	if err != nil {
		log.Printf("quota: encode snapshot: %v", err)
		return
	}
	q.sink.Notify(QuotaSnapshot, data)
}

// legacyDayLayout is the Date.toDateString form found in older stats.json files.
const legacyDayLayout = "Mon Jan 02 2006"

// dayLabel normalizes a persisted lastReset to domain.DateLayout.
func dayLabel(raw string) string {
	if t, err := time.Parse(legacyDayLayout, raw); err == nil {
		return t.Format(domain.DateLayout)
	}
	return raw
}

func (q *QuotaTracker) today() string {
	return q.now().In(q.loc).Format(domain.DateLayout)
}
