/*
scheduler.go - Scheduled daily collection report

PURPOSE:
  Once a day, summarizes the previous day's payments and discounts and,
  when an export directory is configured, writes the report as a workbook
  so it survives without anyone opening the reports page.

DESIGN:
  - Schedule is a standard 5-field cron expression (robfig/cron)
  - "Previous day" is the UTC calendar day before the run time
  - Run may also be called directly (tests, manual triggers)

USAGE:
  job := NewDailyReportJob(roster, "/var/reports", log)
  if err := job.Start("5 0 * * *"); err != nil { ... }
  defer job.Stop()

SEE ALSO:
  - fees/report.go: BuildDailyReport
  - spreadsheet/export.go: DailyRows
*/
package api

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/warp/fee-engine/fees"
	"github.com/warp/fee-engine/spreadsheet"
)

// DailyReportJob builds the previous day's report on a schedule.
type DailyReportJob struct {
	Roster    *fees.Roster
	ExportDir string

	log       *zap.Logger
	now       func() time.Time
	mu        sync.Mutex
	scheduler *cron.Cron
}

// NewDailyReportJob creates a job. An empty exportDir only logs totals.
func NewDailyReportJob(roster *fees.Roster, exportDir string, log *zap.Logger) *DailyReportJob {
	if log == nil {
		log = zap.NewNop()
	}
	return &DailyReportJob{
		Roster:    roster,
		ExportDir: exportDir,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Start registers the job on schedule and starts the cron runner.
func (j *DailyReportJob) Start(schedule string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.scheduler != nil {
		return fmt.Errorf("daily report job already started")
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	c := cron.New(cron.WithLocation(time.UTC))
	if _, err := c.AddFunc(schedule, func() {
		if _, err := j.Run(context.Background()); err != nil {
			j.log.Error("daily report failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}
	c.Start()
	j.scheduler = c

	j.log.Info("daily report job started", zap.String("schedule", schedule))
	return nil
}

// Stop halts the runner and waits for a running report to finish.
func (j *DailyReportJob) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.scheduler == nil {
		return
	}
	<-j.scheduler.Stop().Done()
	j.scheduler = nil
	j.log.Info("daily report job stopped")
}

// Run builds the report for the day before now. It returns the path of the
// written workbook, or "" when no export directory is set.
func (j *DailyReportJob) Run(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	rep := fees.BuildDailyReport(j.Roster.Students(), j.now().AddDate(0, 0, -1))
	day := rep.Date.Format(dateLayout)

	j.log.Info("daily report",
		zap.String("date", day),
		zap.Int("transactions", len(rep.Transactions)),
		zap.String("collected", rep.TotalCollected.StringFixed(2)),
		zap.String("discounted", rep.TotalDiscounted.StringFixed(2)))

	if j.ExportDir == "" {
		return "", nil
	}

	data, err := spreadsheet.WriteWorkbook("Daily", spreadsheet.DailyRows(rep))
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(j.ExportDir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(j.ExportDir, "daily-"+day+".xlsx")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write daily report: %w", err)
	}
	return path, nil
}
