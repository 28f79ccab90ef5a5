/*
importer.go - Roll-number keyed import reconciliation

PURPOSE:
  Merges an externally supplied batch of student rows into the roster. The
  roll number (case-insensitive, trimmed) decides whether a row updates an
  existing student or creates a new one.

MERGE RULES:
  Existing roll number:
    name, class, grade, total fees  <- taken from the row
    id, roll number, payments, discounts <- preserved
  New roll number:
    fresh id, empty payments and discounts
  Empty roll number:
    skipped, counted in Skipped only

  Rows are independent: nothing in one row can abort the batch. Rows are
  expected to have been filtered for required fields already (see
  spreadsheet.ParseStudents).

ORDERING:
  Existing students keep their position; new students are appended in input
  order. A roll number repeated inside the batch updates the student the
  earlier row created.

ATOMICITY:
  The whole batch is persisted with a single write.
*/
package fees

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// ImportStudents reconciles rows into the roster by roll number.
func (r *Roster) ImportStudents(ctx context.Context, rows []ImportRow) (ImportResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.snapshot()
	byRoll := make(map[string]int, len(next))
	for i, s := range next {
		byRoll[rollKey(s.RollNumber)] = i
	}

	var result ImportResult
	for _, row := range rows {
		key := rollKey(row.RollNumber)
		if key == "" {
			result.Skipped++
			continue
		}

		if i, ok := byRoll[key]; ok {
			s := next[i]
			s.Name = strings.TrimSpace(row.Name)
			s.Class = strings.TrimSpace(row.Class)
			s.Grade = strings.TrimSpace(row.Grade)
			s.TotalFees = row.TotalFees
			next[i] = s
			result.UpdatedCount++
			continue
		}

		next = append(next, Student{
			ID:         r.newID(),
			Name:       strings.TrimSpace(row.Name),
			RollNumber: strings.TrimSpace(row.RollNumber),
			Class:      strings.TrimSpace(row.Class),
			Grade:      strings.TrimSpace(row.Grade),
			TotalFees:  row.TotalFees,
			Payments:   []Payment{},
			Discounts:  []Discount{},
		})
		byRoll[key] = len(next) - 1
		result.NewCount++
	}

	if result.NewCount == 0 && result.UpdatedCount == 0 {
		return result, nil
	}
	if err := r.commit(ctx, next); err != nil {
		return ImportResult{}, err
	}

	r.log.Info("students imported",
		zap.Int("new", result.NewCount),
		zap.Int("updated", result.UpdatedCount),
		zap.Int("skipped", result.Skipped))
	return result, nil
}
