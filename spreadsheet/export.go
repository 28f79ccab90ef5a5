package spreadsheet

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/warp/fee-engine/fees"
)

// DateTimeLayout is how timestamps are written into exported cells.
const DateTimeLayout = "2006-01-02 15:04"

// Column is one exported column.
type Column struct {
	Header string
	Width  float64
}

// Table is the data of one exported sheet.
type Table struct {
	Columns []Column
	Rows    [][]any
}

// =============================================================================
// WORKBOOK
// =============================================================================

// WriteWorkbook renders t into an xlsx document with a single sheet.
// Decimal cells are written as numbers and times with DateTimeLayout.
func WriteWorkbook(sheet string, t Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			return nil, err
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return nil, err
	}

	for i, col := range t.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, col.Header); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return nil, err
		}

		width := col.Width
		if width == 0 {
			width = 15
		}
		name, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, name, name, width); err != nil {
			return nil, err
		}
	}

	for rowIdx, row := range t.Rows {
		for colIdx, val := range row {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err := f.SetCellValue(sheet, cell, cellValue(val)); err != nil {
				return nil, err
			}
		}
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buffer.Bytes(), nil
}

func cellValue(v any) any {
	switch v := v.(type) {
	case decimal.Decimal:
		return v.InexactFloat64()
	case time.Time:
		return v.Format(DateTimeLayout)
	case *time.Time:
		if v == nil {
			return "N/A"
		}
		return v.Format(DateTimeLayout)
	default:
		return v
	}
}

// =============================================================================
// TABLES
// =============================================================================

// StudentListRows flattens the roster: one row per payment or discount,
// each carrying the student's cumulative ledger. A student without
// transactions gets a single "No transactions" row.
func StudentListRows(students []fees.Student) Table {
	t := Table{Columns: []Column{
		{"Name", 25}, {"Roll Number", 14}, {"Class", 10}, {"Grade", 10},
		{"Total Fees", 14}, {"Total Paid (Cumulative)", 22}, {"Total Discount (Cumulative)", 25},
		{"Balance Due", 14}, {"Transaction Type", 16}, {"Transaction ID", 38},
		{"Amount", 12}, {"Date", 18}, {"Details", 30},
	}}

	for _, s := range students {
		l := fees.ComputeLedger(s)
		base := []any{s.Name, s.RollNumber, s.Class, s.Grade, s.TotalFees, l.TotalPaid, l.TotalDiscount, l.RemainingBalance}

		for _, p := range s.Payments {
			t.Rows = append(t.Rows, withTail(base, "Payment", p.ID, p.Amount, p.Date, orNA(p.Remarks)))
		}
		for _, d := range s.Discounts {
			t.Rows = append(t.Rows, withTail(base, "Discount", d.ID, d.Amount, d.Date, orNA(d.Reason)))
		}
		if len(s.Payments) == 0 && len(s.Discounts) == 0 {
			t.Rows = append(t.Rows, withTail(base, "N/A", "N/A", "N/A", "N/A", "No transactions"))
		}
	}
	return t
}

// SummaryRows renders a Summary as label/value pairs followed by the
// per-class pending amounts.
func SummaryRows(sum fees.Summary) Table {
	t := Table{
		Columns: []Column{{"Metric", 28}, {"Value", 18}},
		Rows: [][]any{
			{"Total Students", sum.TotalStudents},
			{"Total Fees Expected", sum.TotalFees},
			{"Total Collected", sum.TotalPaid},
			{"Total Discounts", sum.TotalDiscount},
			{"Total Pending", sum.TotalPending},
			{"Students With Balance Due", sum.WithBalanceDue},
		},
	}
	for _, c := range sum.ByClass {
		t.Rows = append(t.Rows, []any{"Pending: Class " + c.Class, c.Pending})
	}
	return t
}

// MonthlyRows renders the per-day collection series of a month followed by
// a totals row.
func MonthlyRows(rep fees.MonthlyReport) Table {
	t := Table{Columns: []Column{{"Date", 14}, {"Collected", 16}}}
	for _, d := range rep.Daily {
		date := time.Date(rep.Year, rep.Month, d.Day, 0, 0, 0, 0, time.UTC)
		t.Rows = append(t.Rows, []any{date.Format("2006-01-02"), d.Collected})
	}
	t.Rows = append(t.Rows,
		[]any{"Total Collected", rep.TotalCollected},
		[]any{"Total Discounts", rep.TotalDiscounted},
		[]any{"Transactions", rep.TransactionCount},
	)
	return t
}

// DailyRows lists every transaction of a day.
func DailyRows(rep fees.DailyReport) Table {
	t := Table{Columns: []Column{
		{"Time", 18}, {"Student", 25}, {"Roll Number", 14}, {"Type", 12}, {"Amount", 12}, {"Details", 30},
	}}
	for _, tx := range rep.Transactions {
		kind := "Payment"
		if tx.Kind == fees.KindDiscount {
			kind = "Discount"
		}
		t.Rows = append(t.Rows, []any{tx.Date, tx.StudentName, tx.RollNumber, kind, tx.Amount, orNA(tx.Details)})
	}
	return t
}

func withTail(base []any, tail ...any) []any {
	row := make([]any, 0, len(base)+len(tail))
	row = append(row, base...)
	return append(row, tail...)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
