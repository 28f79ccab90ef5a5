package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/warp/fee-engine/fees"
	"github.com/warp/fee-engine/spreadsheet"
	"github.com/warp/fee-engine/validation"
)

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// Summary returns roster-wide totals.
// GET /api/reports/summary
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toSummaryDTO(fees.Summarize(h.Roster.Students())))
}

// SummaryExport downloads the summary as a workbook.
// GET /api/reports/summary/export
func (h *Handler) SummaryExport(w http.ResponseWriter, r *http.Request) {
	data, err := spreadsheet.WriteWorkbook("Summary", spreadsheet.SummaryRows(fees.Summarize(h.Roster.Students())))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeXLSX(w, "summary-"+h.now().Format(dateLayout)+".xlsx", data)
}

// MonthlyReport returns one month of collections. Defaults to the current month.
// GET /api/reports/monthly?year=2024&month=7
func (h *Handler) MonthlyReport(w http.ResponseWriter, r *http.Request) {
	rep, err := h.monthly(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMonthlyDTO(rep))
}

// MonthlyExport downloads a monthly report.
// GET /api/reports/monthly/export?year=2024&month=7
func (h *Handler) MonthlyExport(w http.ResponseWriter, r *http.Request) {
	rep, err := h.monthly(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	data, err := spreadsheet.WriteWorkbook("Monthly", spreadsheet.MonthlyRows(rep))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeXLSX(w, fmt.Sprintf("monthly-%04d-%02d.xlsx", rep.Year, int(rep.Month)), data)
}

// DailyReport returns every transaction of one day. Defaults to today.
// GET /api/reports/daily?date=2024-07-15
func (h *Handler) DailyReport(w http.ResponseWriter, r *http.Request) {
	rep, err := h.daily(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDailyDTO(rep))
}

// DailyExport downloads a daily report.
// GET /api/reports/daily/export?date=2024-07-15
func (h *Handler) DailyExport(w http.ResponseWriter, r *http.Request) {
	rep, err := h.daily(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	data, err := spreadsheet.WriteWorkbook("Daily", spreadsheet.DailyRows(rep))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeXLSX(w, "daily-"+rep.Date.Format(dateLayout)+".xlsx", data)
}

// Dashboard returns the dashboard header and the class/grade filter choices.
// GET /api/dashboard/summary
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	students := h.Roster.Students()
	writeJSON(w, http.StatusOK, DashboardDTO{
		Summary: toSummaryDTO(fees.Summarize(students)),
		Classes: fees.Classes(students),
		Grades:  fees.Grades(students),
	})
}

// =============================================================================
// PARAMS
// =============================================================================

func (h *Handler) monthly(r *http.Request) (fees.MonthlyReport, error) {
	now := h.now()
	year, month := now.Year(), int(now.Month())

	q := r.URL.Query()
	if v := q.Get("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fees.MonthlyReport{}, validation.Field("year", fmt.Sprintf("invalid year %q", v))
		}
		year = n
	}
	if v := q.Get("month"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 12 {
			return fees.MonthlyReport{}, validation.Field("month", fmt.Sprintf("invalid month %q (1-12)", v))
		}
		month = n
	}
	return fees.BuildMonthlyReport(h.Roster.Students(), year, time.Month(month)), nil
}

func (h *Handler) daily(r *http.Request) (fees.DailyReport, error) {
	day := h.now()
	if v := r.URL.Query().Get("date"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return fees.DailyReport{}, validation.Field("date", fmt.Sprintf("invalid date %q (use YYYY-MM-DD)", v))
		}
		day = t
	}
	return fees.BuildDailyReport(h.Roster.Students(), day), nil
}
