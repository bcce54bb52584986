package ratelimit

import (
	"sync"
	"time"
)

// Policy allows at most MaxRequests per key within any trailing Window.
type Policy struct {
	Window      time.Duration
	MaxRequests int
}

// Decision is the result of one Allow call.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// SlidingWindow keeps the instants of admitted calls per key. Expired instants are pruned
// lazily on access; keys whose windows drained are dropped by Sweep.
type SlidingWindow struct {
	policy     Policy
	now        func() time.Time
	sweepEvery int

	mu      sync.Mutex
	windows map[string][]time.Time
	calls   int
}

type Option func(*SlidingWindow)

// WithClock is used by tests to move time deterministically.
func WithClock(now func() time.Time) Option {
	return func(l *SlidingWindow) { l.now = now }
}

// WithSweepEvery runs Sweep inline every n calls to Allow. Zero disables it.
func WithSweepEvery(n int) Option {
	return func(l *SlidingWindow) { l.sweepEvery = n }
}

func NewSlidingWindow(policy Policy, opts ...Option) *SlidingWindow {
	l := &SlidingWindow{
		policy:     policy,
		now:        time.Now,
		sweepEvery: 256,
		windows:    make(map[string][]time.Time),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *SlidingWindow) Policy() Policy {
	return l.policy
}

// Allow records a call for key if the window has room. A rejected call is not recorded.
func (l *SlidingWindow) Allow(key string) Decision {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls++
	if l.sweepEvery > 0 && l.calls%l.sweepEvery == 0 {
		l.sweepLocked(now)
	}

	window := prune(l.windows[key], now.Add(-l.policy.Window))
	if len(window) >= l.policy.MaxRequests {
		l.windows[key] = window
		retry := time.Duration(0)
		if len(window) > 0 {
			retry = window[0].Add(l.policy.Window).Sub(now)
		}
		return Decision{Allowed: false, Limit: l.policy.MaxRequests, Remaining: 0, RetryAfter: retry}
	}

	window = append(window, now)
	l.windows[key] = window
	return Decision{
		Allowed:   true,
		Limit:     l.policy.MaxRequests,
		Remaining: l.policy.MaxRequests - len(window),
	}
}

// Sweep drops keys with no instant inside the window. Keys with live entries are kept.
func (l *SlidingWindow) Sweep() {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sweepLocked(now)
}

// Len reports how many keys are tracked.
func (l *SlidingWindow) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

func (l *SlidingWindow) sweepLocked(now time.Time) {
	cutoff := now.Add(-l.policy.Window)
	for key, window := range l.windows {
		if len(window) == 0 || !window[len(window)-1].After(cutoff) {
			delete(l.windows, key)
		}
	}
}

// StartJanitor sweeps every interval until ctx is done.
func (l *SlidingWindow) StartJanitor(ctx DoneContext, every time.Duration) {
	if every <= 0 {
		return
	}
	t := time.NewTicker(every)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				l.Sweep()
			}
		}
	}()
}

// DoneContext is the part of context.Context the janitor needs.
type DoneContext interface {
	Done() <-chan struct{}
}

// prune drops instants at or before cutoff. Instants are stored in ascending order.
func prune(window []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(window) && !window[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return window
	}
	return append(window[:0], window[i:]...)
}
