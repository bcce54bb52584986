package app

import (
	"fmt"
	"log"
	"sort"
	"sync"

	"math-worksheet-backend/internal/domain"
)

// Snapshot names used with a SnapshotSink.
const (
	ScoresSnapshot = "scores"
	QuotaSnapshot  = "stats"
)

// SnapshotSink receives serialized state after every mutation.
// Notify must not block; there is no acknowledgment back to the caller.
type SnapshotSink interface {
	Notify(name string, payload []byte)
}

// Leaderboard keeps the best submissions, highest score first, ties in arrival order.
type Leaderboard struct {
	capacity int
	topN     int
	sink     SnapshotSink

	mu          sync.RWMutex
	entries     []domain.ScoreEntry
	subscribers map[chan []domain.PublicScore]struct{}
}

type LeaderboardOption func(*Leaderboard)

// WithLeaderboardSink persists every mutation through sink.
func WithLeaderboardSink(sink SnapshotSink) LeaderboardOption {
	return func(l *Leaderboard) { l.sink = sink }
}

func NewLeaderboard(capacity, topN int, opts ...LeaderboardOption) *Leaderboard {
	if capacity <= 0 {
		capacity = 50
	}
	if topN <= 0 || topN > capacity {
		topN = capacity
	}
	l := &Leaderboard{
		capacity:    capacity,
		topN:        topN,
		subscribers: make(map[chan []domain.PublicScore]struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Submit appends entry, re-sorts, truncates to capacity and returns the top view.
func (l *Leaderboard) Submit(entry domain.ScoreEntry) []domain.PublicScore {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, entry)
	sortEntries(l.entries)
	if len(l.entries) > l.capacity {
		l.entries = l.entries[:l.capacity:l.capacity]
	}

	top := l.topLocked(l.topN)
	l.persistLocked()
	l.broadcastLocked(top)
	return top
}

// Top returns at most n public rows. n <= 0 means the configured view size.
func (l *Leaderboard) Top(n int) []domain.PublicScore {
	if n <= 0 {
		n = l.topN
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.topLocked(n)
}

// Entries returns a copy of every retained entry in rank order.
func (l *Leaderboard) Entries() []domain.ScoreEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]domain.ScoreEntry(nil), l.entries...)
}

func (l *Leaderboard) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Load replaces the entries with a persisted snapshot. A corrupt snapshot leaves the
// board empty; the returned error is for logging only.
func (l *Leaderboard) Load(data []byte) error {
	entries, err := DecodeEntries(data)

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		l.entries = nil
		return fmt.Errorf("load leaderboard snapshot: %w", err)
	}
	sortEntries(entries)
	if len(entries) > l.capacity {
		entries = entries[:l.capacity]
	}
	l.entries = entries
	return nil
}

// Subscribe returns a channel that receives the top view after every submission.
// The caller must invoke the returned cancel function to avoid leaks.
func (l *Leaderboard) Subscribe() (<-chan []domain.PublicScore, func()) {
	ch := make(chan []domain.PublicScore, 8)

	l.mu.Lock()
	l.subscribers[ch] = struct{}{}
	// sent under the lock so a concurrent broadcast never finds the buffer full twice
	ch <- l.topLocked(l.topN)
	l.mu.Unlock()

	cancel := func() {
		l.mu.Lock()
		if _, ok := l.subscribers[ch]; ok {
			delete(l.subscribers, ch)
			close(ch)
		}
		l.mu.Unlock()
	}
	return ch, cancel
}

func (l *Leaderboard) broadcastLocked(top []domain.PublicScore) {
	for ch := range l.subscribers {
		select {
		case ch <- top:
		default:
			// slow subscriber: replace its oldest pending view
			select {
			case <-ch:
			default:
			}
			ch <- top
		}
	}
}

func (l *Leaderboard) persistLocked() {
	if l.sink == nil {
		return
	}
	data, err := EncodeEntries(l.entries)
	if err != nil {
		log.Printf("leaderboard: encode snapshot: %v", err)
		return
	}
	l.sink.Notify(ScoresSnapshot, data)
}

func (l *Leaderboard) topLocked(n int) []domain.PublicScore {
	if n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]domain.PublicScore, 0, n)
	for _, e := range l.entries[:n] {
		out = append(out, domain.PublicScore{
			Name:  e.Name,
			Score: e.Score,
			Date:  e.SubmittedAt.UTC().Format(domain.DateLayout),
		})
	}
	return out
}

func sortEntries(entries []domain.ScoreEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
}
