package app_test

import (
	"context"
	"errors"
	"testing"

	"math-worksheet-backend/internal/app"
	"math-worksheet-backend/internal/domain"
	"math-worksheet-backend/internal/infra/memory"
)

func TestReportCombinesQuotaAndAdmissions(t *testing.T) {
	ctx := context.Background()
	q := newQuota(10, &fakeClock{now: baseTime})
	q.CheckAndIncrement()
	q.CheckAndIncrement()

	stats := memory.NewStatsStore()
	_ = stats.Record(ctx, domain.AdmissionEvent{Stage: "gate", Allowed: false})

	report, err := app.NewStatsReporter(q, stats).Report(ctx)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if report.DailyRequests != 2 || report.Limit != 10 || report.Remaining != 8 || report.Reset != "2026-10-19" {
		t.Fatalf("unexpected quota figures %+v", report)
	}
	if report.Admission.Total.Denied != 1 || report.Admission.ByStage["gate"].Denied != 1 {
		t.Fatalf("unexpected admission figures %+v", report.Admission)
	}
}

type brokenStats struct{}

func (brokenStats) Summary(context.Context) (domain.AdmissionSummary, error) {
	return domain.AdmissionSummary{}, errors.New("redis down")
}

func TestReportKeepsQuotaWhenAdmissionsFail(t *testing.T) {
	q := newQuota(10, &fakeClock{now: baseTime})
	q.CheckAndIncrement()

	report, err := app.NewStatsReporter(q, brokenStats{}).Report(context.Background())
	if err == nil {
		t.Fatalf("expected admission error")
	}
	if report.DailyRequests != 1 || report.Limit != 10 {
		t.Fatalf("expected quota figures despite error, got %+v", report)
	}
}
