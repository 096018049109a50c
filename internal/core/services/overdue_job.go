package services

import (
	"context"
	"fmt"
	"time"

	"school-equiplend/internal/pkg/metrics"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ============================================================
// Overdue digest: periodic scan of approved requests past due
// ============================================================

// OverdueJob logs a digest of overdue requests on a cron schedule
type OverdueJob struct {
	reports *ReportService
	metrics *metrics.Metrics
	log     *zap.Logger
	cron    *cron.Cron
	timeout time.Duration
}

// NewOverdueJob creates the job; nothing runs until Start
func NewOverdueJob(reports *ReportService, m *metrics.Metrics, log *zap.Logger) *OverdueJob {
	return &OverdueJob{
		reports: reports,
		metrics: m,
		log:     log,
		cron:    cron.New(cron.WithLocation(time.UTC)),
		timeout: time.Minute,
	}
}

// Start schedules the scan with a standard five-field cron spec
func (j *OverdueJob) Start(spec string) error {
	if _, err := j.cron.AddFunc(spec, func() { j.RunOnce(context.Background()) }); err != nil {
		return fmt.Errorf("invalid overdue schedule %q: %w", spec, err)
	}
	j.cron.Start()
	j.log.Info("overdue job started", zap.String("schedule", spec))
	return nil
}

// Stop waits for a running scan to finish
func (j *OverdueJob) Stop() {
	<-j.cron.Stop().Done()
	j.log.Info("overdue job stopped")
}

// RunOnce performs a single scan and returns the number of overdue requests
func (j *OverdueJob) RunOnce(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	overdue, err := j.reports.Overdue(ctx)
	if err != nil {
		j.log.Error("overdue scan failed", zap.Error(err))
		return 0
	}

	j.metrics.SetOverdue(len(overdue))
	if len(overdue) == 0 {
		j.log.Debug("no overdue requests")
		return 0
	}

	refs := make([]string, 0, len(overdue))
	for _, r := range overdue {
		refs = append(refs, r.Reference)
	}
	j.log.Warn("overdue requests",
		zap.Int("count", len(overdue)),
		zap.Strings("references", refs),
		zap.Int("maxDaysOverdue", overdue[0].DaysOverdue),
	)
	return len(overdue)
}
