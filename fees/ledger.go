/*
ledger.go - Balance derivation

PURPOSE:
  Answers "how much does this student still owe?" by replaying the student's
  payments and discounts against the total fee baseline. There is no stored
  balance field that could drift out of sync.

FORMULA:
  TotalPaid        = sum(payments)
  TotalDiscount    = sum(discounts)
  RemainingBalance = TotalFees - TotalPaid - TotalDiscount

  The balance is NOT clamped. A negative balance means the student overpaid;
  presentation decides how to color it.

EXAMPLE:
  TotalFees 50000, payments [20000, 15000], discounts [2000]
  TotalPaid 35000, TotalDiscount 2000, RemainingBalance 13000
*/
package fees

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ledger is the derived view of a student's account.
type Ledger struct {
	TotalPaid        decimal.Decimal `json:"totalPaid"`
	TotalDiscount    decimal.Decimal `json:"totalDiscount"`
	RemainingBalance decimal.Decimal `json:"remainingBalance"`
	LastPaymentDate  *time.Time      `json:"lastPaymentDate"`
}

// ComputeLedger derives the ledger for s. It is pure and never fails.
//
// When several payments share the latest timestamp, the first one in
// collection order wins.
func ComputeLedger(s Student) Ledger {
	paid := decimal.Zero
	var last *time.Time
	for i := range s.Payments {
		p := s.Payments[i]
		paid = paid.Add(p.Amount)
		if last == nil || p.Date.After(*last) {
			d := p.Date
			last = &d
		}
	}

	discounted := decimal.Zero
	for _, d := range s.Discounts {
		discounted = discounted.Add(d.Amount)
	}

	return Ledger{
		TotalPaid:        paid,
		TotalDiscount:    discounted,
		RemainingBalance: s.TotalFees.Sub(paid).Sub(discounted),
		LastPaymentDate:  last,
	}
}

// WithLedger pairs s with its computed ledger.
func WithLedger(s Student) StudentLedger {
	return StudentLedger{Student: s, Ledger: ComputeLedger(s)}
}

// HasBalanceDue reports whether the student still owes money.
func (l Ledger) HasBalanceDue() bool {
	return l.RemainingBalance.IsPositive()
}
