package api

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/warp/fee-engine/fees"
	"github.com/warp/fee-engine/kv"
)

func seededRoster(t *testing.T) *fees.Roster {
	t.Helper()
	ctx := context.Background()
	roster, err := fees.NewRoster(ctx, kv.NewMemory())
	require.NoError(t, err)
	_, err = SeedDemoData(ctx, roster, nil)
	require.NoError(t, err)
	return roster
}

func TestDailyReportJob_WritesPreviousDay(t *testing.T) {
	// GIVEN: A run shortly after midnight on 2024-07-16
	dir := filepath.Join(t.TempDir(), "reports")
	job := NewDailyReportJob(seededRoster(t), dir, nil)
	job.now = func() time.Time { return time.Date(2024, 7, 16, 0, 5, 0, 0, time.UTC) }

	// WHEN: The job runs
	path, err := job.Run(context.Background())

	// THEN: The 2024-07-15 workbook exists and lists the one payment
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "daily-2024-07-15.xlsx"), path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Daily")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 2)

	found := false
	for _, row := range rows {
		for _, c := range row {
			if c == "First Installment" {
				found = true
			}
		}
	}
	assert.True(t, found, "payment remarks should appear in the daily workbook")
}

func TestDailyReportJob_NoExportDir(t *testing.T) {
	job := NewDailyReportJob(seededRoster(t), "", nil)

	path, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestDailyReportJob_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	job := NewDailyReportJob(seededRoster(t), dir, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := job.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDailyReportJob_StartStop(t *testing.T) {
	job := NewDailyReportJob(seededRoster(t), "", nil)

	assert.Error(t, job.Start("every day"))

	require.NoError(t, job.Start("5 0 * * *"))
	assert.Error(t, job.Start("5 0 * * *"), "second start should fail")
	job.Stop()
	job.Stop()
}
