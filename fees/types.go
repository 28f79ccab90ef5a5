/*
Package fees provides the student fee ledger.

PURPOSE:
  Tracks students, the payments they make and the discounts they are given,
  and derives how much each one still owes. The derived view is never stored:
  it is recomputed from the transaction lists every time it is read.

KEY CONCEPTS IN THIS FILE (types.go):
  - Student: profile + total fee baseline + owned payments and discounts
  - Payment: money received, append-only
  - Discount: money waived, correctable (update/delete by id)
  - Input types (NewStudent, PaymentInput, ...): validated caller input

DESIGN PRINCIPLES:
  1. Precision: amounts are decimal.Decimal, never float64
  2. Ownership: payments and discounts belong to exactly one student and are
     deleted with it
  3. Identity: ids are UUIDs; the roll number is the business key and is
     never used as a storage key

SEE ALSO:
  - ledger.go: balance derivation
  - roster.go: the store that owns the students
  - importer.go: roll-number keyed reconciliation
*/
package fees

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TRANSACTIONS
// =============================================================================

// Payment is money received from a student.
type Payment struct {
	ID      string          `json:"id"`
	Amount  decimal.Decimal `json:"amount"`
	Date    time.Time       `json:"date"`
	Remarks string          `json:"remarks"`
}

// Discount is money the school waives for a student.
type Discount struct {
	ID     string          `json:"id"`
	Amount decimal.Decimal `json:"amount" validate:"gt=0"`
	Date   time.Time       `json:"date"`
	Reason string          `json:"reason" validate:"notblank"`
}

// =============================================================================
// STUDENT
// =============================================================================

// Student is the aggregate the roster stores.
type Student struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	RollNumber string          `json:"rollNumber"`
	Class      string          `json:"class"`
	Grade      string          `json:"grade"`
	TotalFees  decimal.Decimal `json:"totalFees"`
	Payments   []Payment       `json:"payments"`
	Discounts  []Discount      `json:"discounts"`
}

// Clone returns a deep copy so callers can never alias store state.
func (s Student) Clone() Student {
	c := s
	c.Payments = append([]Payment(nil), s.Payments...)
	c.Discounts = append([]Discount(nil), s.Discounts...)
	if c.Payments == nil {
		c.Payments = []Payment{}
	}
	if c.Discounts == nil {
		c.Discounts = []Discount{}
	}
	return c
}

// StudentLedger is a student together with its derived ledger.
type StudentLedger struct {
	Student
	Ledger
}

// =============================================================================
// INPUT
// =============================================================================

// NewStudent holds the fields needed to create a student.
type NewStudent struct {
	Name       string          `json:"name" validate:"notblank"`
	RollNumber string          `json:"rollNumber" validate:"notblank"`
	Class      string          `json:"class" validate:"notblank"`
	Grade      string          `json:"grade" validate:"notblank"`
	TotalFees  decimal.Decimal `json:"totalFees" validate:"gt=0"`
}

// StudentUpdate replaces a student's profile fields. Transactions are not
// part of an update. Class and Grade may be blank, as they may be on an
// imported student.
type StudentUpdate struct {
	Name       string          `json:"name" validate:"notblank"`
	RollNumber string          `json:"rollNumber" validate:"notblank"`
	Class      string          `json:"class"`
	Grade      string          `json:"grade"`
	TotalFees  decimal.Decimal `json:"totalFees" validate:"gt=0"`
}

// PaymentInput describes a payment to record. A nil Date means now.
type PaymentInput struct {
	Amount  decimal.Decimal `json:"amount" validate:"gt=0"`
	Date    *time.Time      `json:"date,omitempty"`
	Remarks string          `json:"remarks"`
}

// DiscountInput describes a discount to record. A nil Date means now.
type DiscountInput struct {
	Amount decimal.Decimal `json:"amount" validate:"gt=0"`
	Date   *time.Time      `json:"date,omitempty"`
	Reason string          `json:"reason" validate:"notblank"`
}

// ImportRow is one pre-filtered spreadsheet row handed to ImportStudents.
type ImportRow struct {
	Name       string
	RollNumber string
	Class      string
	Grade      string
	TotalFees  decimal.Decimal
}

// ImportResult reports what ImportStudents did.
type ImportResult struct {
	NewCount     int `json:"newCount"`
	UpdatedCount int `json:"updatedCount"`
	Skipped      int `json:"skipped"`
}
