package memory

import (
	"context"
	"sync"

	"math-worksheet-backend/internal/domain"
)

// StatsStore counts admission decisions in memory, in total and per stage.
// Nothing expires; use the Redis store when counters must outlive the process.
type StatsStore struct {
	mu      sync.Mutex
	total   domain.Counters
	byStage map[string]domain.Counters
	byRoute map[string]domain.Counters
}

func NewStatsStore() *StatsStore {
	return &StatsStore{
		byStage: make(map[string]domain.Counters),
		byRoute: make(map[string]domain.Counters),
	}
}

func (s *StatsStore) Record(_ context.Context, ev domain.AdmissionEvent) error {
	route := ev.Method + " " + ev.Path

	s.mu.Lock()
	defer s.mu.Unlock()

	stage := s.byStage[ev.Stage]
	rc := s.byRoute[route]
	if ev.Allowed {
		s.total.Allowed++
		stage.Allowed++
		rc.Allowed++
	} else {
		s.total.Denied++
		stage.Denied++
		rc.Denied++
	}
	s.byStage[ev.Stage] = stage
	s.byRoute[route] = rc
	return nil
}

func (s *StatsStore) Summary(_ context.Context) (domain.AdmissionSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := domain.AdmissionSummary{
		Total:   s.total,
		ByStage: make(map[string]domain.Counters, len(s.byStage)),
	}
	for k, v := range s.byStage {
		out.ByStage[k] = v
	}
	return out, nil
}

// ByRoute returns counters keyed by "METHOD /path".
func (s *StatsStore) ByRoute() map[string]domain.Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]domain.Counters, len(s.byRoute))
	for k, v := range s.byRoute {
		out[k] = v
	}
	return out
}
