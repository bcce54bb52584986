package ratelimit

import "time"

// Route classes. Writes get the stricter policy.
const (
	ClassRead  = "read"
	ClassWrite = "write"
)

// Set holds one SlidingWindow per route class.
type Set struct {
	limiters map[string]*SlidingWindow
}

func NewSet(policies map[string]Policy, opts ...Option) *Set {
	s := &Set{limiters: make(map[string]*SlidingWindow, len(policies))}
	for class, p := range policies {
		s.limiters[class] = NewSlidingWindow(p, opts...)
	}
	return s
}

// For returns the limiter of class, or nil when the class is unlimited.
func (s *Set) For(class string) *SlidingWindow {
	if s == nil {
		return nil
	}
	return s.limiters[class]
}

func (s *Set) StartJanitor(ctx DoneContext, every time.Duration) {
	if s == nil {
		return
	}
	for _, l := range s.limiters {
		l.StartJanitor(ctx, every)
	}
}
