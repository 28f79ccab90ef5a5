/*
report.go - Roster-wide financial aggregates

PURPOSE:
  Produces the numbers the dashboard, summary, monthly and daily reports are
  built from. Everything is computed from the students passed in; nothing is
  cached.

REPORTS:
  Summarize:     totals across the roster + pending balance per class
  MonthlyReport: collections and discounts inside one calendar month,
                 with a per-day collection series
  DailyReport:   every transaction recorded on one calendar day

  Calendar boundaries are UTC.
*/
package fees

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SUMMARY
// =============================================================================

// ClassBalance is the pending amount for one class.
type ClassBalance struct {
	Class   string          `json:"class"`
	Pending decimal.Decimal `json:"pending"`
}

// Summary aggregates the ledgers of a set of students.
type Summary struct {
	TotalStudents  int             `json:"totalStudents"`
	TotalFees      decimal.Decimal `json:"totalFees"`
	TotalPaid      decimal.Decimal `json:"totalPaid"`
	TotalDiscount  decimal.Decimal `json:"totalDiscount"`
	TotalPending   decimal.Decimal `json:"totalPending"`
	WithBalanceDue int             `json:"withBalanceDue"`
	ByClass        []ClassBalance  `json:"byClass"`
}

// Summarize totals the ledgers of students. ByClass is sorted by class name.
func Summarize(students []Student) Summary {
	sum := Summary{
		TotalStudents: len(students),
		TotalFees:     decimal.Zero,
		TotalPaid:     decimal.Zero,
		TotalDiscount: decimal.Zero,
		TotalPending:  decimal.Zero,
	}

	byClass := make(map[string]decimal.Decimal)
	for _, s := range students {
		l := ComputeLedger(s)
		sum.TotalFees = sum.TotalFees.Add(s.TotalFees)
		sum.TotalPaid = sum.TotalPaid.Add(l.TotalPaid)
		sum.TotalDiscount = sum.TotalDiscount.Add(l.TotalDiscount)
		sum.TotalPending = sum.TotalPending.Add(l.RemainingBalance)
		if l.HasBalanceDue() {
			sum.WithBalanceDue++
		}
		byClass[s.Class] = byClass[s.Class].Add(l.RemainingBalance)
	}

	sum.ByClass = make([]ClassBalance, 0, len(byClass))
	for class, pending := range byClass {
		sum.ByClass = append(sum.ByClass, ClassBalance{Class: class, Pending: pending})
	}
	sort.Slice(sum.ByClass, func(i, j int) bool { return sum.ByClass[i].Class < sum.ByClass[j].Class })
	return sum
}

// =============================================================================
// TRANSACTION SLICES
// =============================================================================

// TransactionKind distinguishes payments from discounts in report rows.
type TransactionKind string

const (
	KindPayment  TransactionKind = "payment"
	KindDiscount TransactionKind = "discount"
)

// Transaction is a payment or discount flattened with its student.
type Transaction struct {
	Kind        TransactionKind `json:"kind"`
	ID          string          `json:"id"`
	StudentID   string          `json:"studentId"`
	StudentName string          `json:"studentName"`
	RollNumber  string          `json:"rollNumber"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	Details     string          `json:"details"`
}

// Transactions flattens every payment and discount in [from, to), ordered by date.
func Transactions(students []Student, from, to time.Time) []Transaction {
	var out []Transaction
	in := func(t time.Time) bool { return !t.Before(from) && t.Before(to) }

	for _, s := range students {
		for _, p := range s.Payments {
			if in(p.Date) {
				out = append(out, Transaction{
					Kind: KindPayment, ID: p.ID, StudentID: s.ID, StudentName: s.Name,
					RollNumber: s.RollNumber, Amount: p.Amount, Date: p.Date, Details: p.Remarks,
				})
			}
		}
		for _, d := range s.Discounts {
			if in(d.Date) {
				out = append(out, Transaction{
					Kind: KindDiscount, ID: d.ID, StudentID: s.ID, StudentName: s.Name,
					RollNumber: s.RollNumber, Amount: d.Amount, Date: d.Date, Details: d.Reason,
				})
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// =============================================================================
// MONTHLY
// =============================================================================

// DayCollection is the amount collected on one day of a month.
type DayCollection struct {
	Day       int             `json:"day"`
	Collected decimal.Decimal `json:"collected"`
}

// MonthlyReport covers one calendar month.
type MonthlyReport struct {
	Year             int             `json:"year"`
	Month            time.Month      `json:"month"`
	TotalCollected   decimal.Decimal `json:"totalCollected"`
	TotalDiscounted  decimal.Decimal `json:"totalDiscounted"`
	TransactionCount int             `json:"transactionCount"`
	Daily            []DayCollection `json:"daily"`
}

// BuildMonthlyReport aggregates transactions dated within year/month (UTC).
// Daily has one entry per day of the month, including days with nothing collected.
func BuildMonthlyReport(students []Student, year int, month time.Month) MonthlyReport {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	days := end.AddDate(0, 0, -1).Day()

	rep := MonthlyReport{
		Year:            year,
		Month:           month,
		TotalCollected:  decimal.Zero,
		TotalDiscounted: decimal.Zero,
		Daily:           make([]DayCollection, days),
	}
	for i := range rep.Daily {
		rep.Daily[i] = DayCollection{Day: i + 1, Collected: decimal.Zero}
	}

	for _, tx := range Transactions(students, start, end) {
		rep.TransactionCount++
		switch tx.Kind {
		case KindPayment:
			rep.TotalCollected = rep.TotalCollected.Add(tx.Amount)
			d := tx.Date.UTC().Day() - 1
			rep.Daily[d].Collected = rep.Daily[d].Collected.Add(tx.Amount)
		case KindDiscount:
			rep.TotalDiscounted = rep.TotalDiscounted.Add(tx.Amount)
		}
	}
	return rep
}

// =============================================================================
// DAILY
// =============================================================================

// DailyReport lists every transaction on one calendar day.
type DailyReport struct {
	Date            time.Time       `json:"date"`
	TotalCollected  decimal.Decimal `json:"totalCollected"`
	TotalDiscounted decimal.Decimal `json:"totalDiscounted"`
	Transactions    []Transaction   `json:"transactions"`
}

// BuildDailyReport aggregates transactions on the UTC calendar day containing day.
func BuildDailyReport(students []Student, day time.Time) DailyReport {
	day = day.UTC()
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)

	rep := DailyReport{
		Date:            start,
		TotalCollected:  decimal.Zero,
		TotalDiscounted: decimal.Zero,
		Transactions:    Transactions(students, start, start.AddDate(0, 0, 1)),
	}
	if rep.Transactions == nil {
		rep.Transactions = []Transaction{}
	}
	for _, tx := range rep.Transactions {
		if tx.Kind == KindPayment {
			rep.TotalCollected = rep.TotalCollected.Add(tx.Amount)
		} else {
			rep.TotalDiscounted = rep.TotalDiscounted.Add(tx.Amount)
		}
	}
	return rep
}
