package app

import (
	"context"
	"fmt"

	"math-worksheet-backend/internal/domain"
	"golang.org/x/sync/singleflight"
)

// AdmissionStats exposes counters of past admission decisions.
type AdmissionStats interface {
	Summary(ctx context.Context) (domain.AdmissionSummary, error)
}

// StatsReporter builds the usage report. Concurrent admission lookups share one call.
type StatsReporter struct {
	quota      *QuotaTracker
	admissions AdmissionStats
	sf         singleflight.Group
}

func NewStatsReporter(quota *QuotaTracker, admissions AdmissionStats) *StatsReporter {
	return &StatsReporter{quota: quota, admissions: admissions}
}

// Report always carries the quota figures; err is set when admission counters are unavailable.
func (r *StatsReporter) Report(ctx context.Context) (domain.UsageReport, error) {
	state := r.quota.Snapshot()
	remaining := state.Limit - state.Requests
	if remaining < 0 {
		remaining = 0
	}
	report := domain.UsageReport{
		DailyRequests: state.Requests,
		Limit:         state.Limit,
		Remaining:     remaining,
		Reset:         state.LastReset,
		Admission:     domain.AdmissionSummary{ByStage: map[string]domain.Counters{}},
	}
	if r.admissions == nil {
		return report, nil
	}

	result, err, _ := r.sf.Do("admission", func() (interface{}, error) {
		return r.admissions.Summary(ctx)
	})
	if err != nil {
		return report, fmt.Errorf("admission summary: %w", err)
	}
	report.Admission = result.(domain.AdmissionSummary)
	return report, nil
}
