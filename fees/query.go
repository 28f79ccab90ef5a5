package fees

import (
	"sort"
	"strings"
)

// SortKey names a column the roster can be ordered by.
type SortKey string

const (
	SortByName             SortKey = "name"
	SortByRollNumber       SortKey = "rollNumber"
	SortByClass            SortKey = "class"
	SortByTotalFees        SortKey = "totalFees"
	SortByTotalPaid        SortKey = "totalPaid"
	SortByRemainingBalance SortKey = "remainingBalance"
	SortByLastPaymentDate  SortKey = "lastPaymentDate"
)

// Query filters and orders ledger views.
// Zero values match everything and keep roster order.
type Query struct {
	Search     string  // case-insensitive substring of name or roll number
	Class      string  // exact match
	Grade      string  // exact match
	SortBy     SortKey
	Descending bool
}

// Ledgers returns every student matching q with its derived ledger.
func (r *Roster) Ledgers(q Query) []StudentLedger {
	return FilterLedgers(r.Students(), q)
}

// FilterLedgers applies q to students.
func FilterLedgers(students []Student, q Query) []StudentLedger {
	search := strings.ToLower(strings.TrimSpace(q.Search))

	out := make([]StudentLedger, 0, len(students))
	for _, s := range students {
		if search != "" &&
			!strings.Contains(strings.ToLower(s.Name), search) &&
			!strings.Contains(strings.ToLower(s.RollNumber), search) {
			continue
		}
		if q.Class != "" && s.Class != q.Class {
			continue
		}
		if q.Grade != "" && s.Grade != q.Grade {
			continue
		}
		out = append(out, WithLedger(s))
	}

	if less := lessFunc(q.SortBy); less != nil {
		sort.SliceStable(out, func(i, j int) bool {
			if q.Descending {
				return less(out[j], out[i])
			}
			return less(out[i], out[j])
		})
	}
	return out
}

func lessFunc(key SortKey) func(a, b StudentLedger) bool {
	switch key {
	case SortByName:
		return func(a, b StudentLedger) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	case SortByRollNumber:
		return func(a, b StudentLedger) bool { return strings.ToLower(a.RollNumber) < strings.ToLower(b.RollNumber) }
	case SortByClass:
		return func(a, b StudentLedger) bool { return a.Class < b.Class }
	case SortByTotalFees:
		return func(a, b StudentLedger) bool { return a.TotalFees.LessThan(b.TotalFees) }
	case SortByTotalPaid:
		return func(a, b StudentLedger) bool { return a.TotalPaid.LessThan(b.TotalPaid) }
	case SortByRemainingBalance:
		return func(a, b StudentLedger) bool { return a.RemainingBalance.LessThan(b.RemainingBalance) }
	case SortByLastPaymentDate:
		// Students without payments sort first
		return func(a, b StudentLedger) bool {
			if a.LastPaymentDate == nil {
				return b.LastPaymentDate != nil
			}
			if b.LastPaymentDate == nil {
				return false
			}
			return a.LastPaymentDate.Before(*b.LastPaymentDate)
		}
	default:
		return nil
	}
}

// Classes returns the distinct class names in sorted order.
func Classes(students []Student) []string {
	return distinct(students, func(s Student) string { return s.Class })
}

// Grades returns the distinct grades in sorted order.
func Grades(students []Student) []string {
	return distinct(students, func(s Student) string { return s.Grade })
}

func distinct(students []Student, field func(Student) string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range students {
		v := field(s)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
