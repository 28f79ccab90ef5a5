/*
Package spreadsheet reads and writes the xlsx files the fee engine exchanges
with users.

IMPORT:
  The first sheet of the workbook is read. Its first row is the header; the
  columns are found by name, case and spacing ignored:

    Name                     required
    Roll Number | RollNo     required
    Total Fees               required
    Class, Grade             optional

  Rows without a name, a roll number or a positive total fee are discarded
  and counted. Surviving rows go to fees.Roster.ImportStudents.

EXPORT:
  Table values (columns + rows) are rendered by WriteWorkbook into a single
  sheet with a bold header row.

SEE ALSO:
  - fees/importer.go: reconciliation of parsed rows
  - api/students.go: upload and download endpoints
*/
package spreadsheet

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/warp/fee-engine/fees"
)

var (
	// ErrUnreadable is returned when the upload is not an xlsx workbook.
	ErrUnreadable = errors.New("failed to open Excel file")

	// ErrNoSheets is returned for a workbook without sheets.
	ErrNoSheets = errors.New("no sheets found in Excel file")

	// ErrEmptySheet is returned when the first sheet has no header row.
	ErrEmptySheet = errors.New("Excel file is empty")

	// ErrMissingColumns is returned when a required header is absent.
	ErrMissingColumns = errors.New("required columns missing")
)

// MissingColumnsError lists the required headers that were not found.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("required columns missing: %s", strings.Join(e.Columns, ", "))
}

func (e *MissingColumnsError) Unwrap() error { return ErrMissingColumns }

// ParseStats counts what happened to the data rows of an import file.
type ParseStats struct {
	Rows      int `json:"rows"`
	Accepted  int `json:"accepted"`
	Discarded int `json:"discarded"`
}

type columnIndex struct {
	name, roll, class, grade, fees int
}

// headerAliases maps normalized header text to a column role.
var headerAliases = map[string]string{
	"name":        "name",
	"studentname": "name",
	"rollnumber":  "roll",
	"rollno":      "roll",
	"class":       "class",
	"grade":       "grade",
	"totalfees":   "fees",
	"fees":        "fees",
}

// ParseStudents reads import rows from an xlsx stream.
func ParseStudents(r io.Reader) ([]fees.ImportRow, ParseStats, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, ParseStats{}, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ParseStats{}, ErrNoSheets
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, ParseStats{}, fmt.Errorf("failed to read Excel rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, ParseStats{}, ErrEmptySheet
	}

	idx, err := locateColumns(rows[0])
	if err != nil {
		return nil, ParseStats{}, err
	}

	var (
		out   []fees.ImportRow
		stats ParseStats
	)
	for _, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		stats.Rows++

		ir, ok := parseRow(row, idx)
		if !ok {
			stats.Discarded++
			continue
		}
		out = append(out, ir)
		stats.Accepted++
	}
	return out, stats, nil
}

func locateColumns(header []string) (columnIndex, error) {
	idx := columnIndex{name: -1, roll: -1, class: -1, grade: -1, fees: -1}
	for i, h := range header {
		switch headerAliases[normalizeHeader(h)] {
		case "name":
			setOnce(&idx.name, i)
		case "roll":
			setOnce(&idx.roll, i)
		case "class":
			setOnce(&idx.class, i)
		case "grade":
			setOnce(&idx.grade, i)
		case "fees":
			setOnce(&idx.fees, i)
		}
	}

	var missing []string
	if idx.name < 0 {
		missing = append(missing, "Name")
	}
	if idx.roll < 0 {
		missing = append(missing, "Roll Number")
	}
	if idx.fees < 0 {
		missing = append(missing, "Total Fees")
	}
	if len(missing) > 0 {
		return idx, &MissingColumnsError{Columns: missing}
	}
	return idx, nil
}

func parseRow(row []string, idx columnIndex) (fees.ImportRow, bool) {
	ir := fees.ImportRow{
		Name:       cell(row, idx.name),
		RollNumber: cell(row, idx.roll),
		Class:      cell(row, idx.class),
		Grade:      cell(row, idx.grade),
	}
	if ir.Name == "" || ir.RollNumber == "" {
		return ir, false
	}

	amount, err := parseAmount(cell(row, idx.fees))
	if err != nil || !amount.IsPositive() {
		return ir, false
	}
	ir.TotalFees = amount
	return ir, true
}

// parseAmount accepts plain numbers and numbers written with a currency
// symbol or thousands separators.
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "₹")
	s = strings.TrimPrefix(s, "Rs.")
	s = strings.ReplaceAll(s, ",", "")
	return decimal.NewFromString(strings.TrimSpace(s))
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer(" ", "", "_", "", "-", "", ".", "").Replace(h)
}

func setOnce(dst *int, i int) {
	if *dst < 0 {
		*dst = i
	}
}
