/*
scenarios.go - Demo data loader

PURPOSE:
  Populates an empty roster with three students and a handful of payments
  and discounts so the dashboard and reports have something to show.

HOW IT WORKS:
  Students and transactions go through the normal roster operations, so
  seeded data is validated and persisted exactly like user input. Ids are
  generated; dates and amounts are fixed.

USAGE:
  At startup when seed_demo is set (cmd/server), or
  POST /api/demo/load (canManageUsers).

NOTE:
  Seeding is a no-op on a non-empty roster. It never resets data.

SEE ALSO:
  - fees/roster.go: operations used here
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/fee-engine/fees"
)

// =============================================================================
// DEMO DEFINITIONS
// =============================================================================

type demoTx struct {
	amount int64
	date   string
	note   string
}

type demoStudent struct {
	profile   fees.NewStudent
	payments  []demoTx
	discounts []demoTx
}

func inr(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

var demoStudents = []demoStudent{
	{
		profile: fees.NewStudent{Name: "Amit Kumar", RollNumber: "R001", Class: "10", Grade: "A", TotalFees: inr(50000)},
		payments: []demoTx{
			{20000, "2024-07-15T10:30:00Z", "First Installment"},
			{15000, "2024-08-20T14:00:00Z", "Second Installment"},
		},
		discounts: []demoTx{
			{2000, "2024-07-10T09:00:00Z", "Sibling Discount"},
		},
	},
	{
		profile: fees.NewStudent{Name: "Priya Sharma", RollNumber: "R002", Class: "12", Grade: "B", TotalFees: inr(60000)},
		payments: []demoTx{
			{30000, "2024-07-20T11:00:00Z", "Full Payment Attempt 1"},
		},
	},
	{
		profile: fees.NewStudent{Name: "Rahul Singh", RollNumber: "R003", Class: "10", Grade: "A", TotalFees: inr(50000)},
		payments: []demoTx{
			{10000, "2024-08-01T12:15:00Z", "Partial Payment"},
		},
		discounts: []demoTx{
			{1000, "2024-07-05T10:00:00Z", "Early Bird"},
		},
	},
}

// =============================================================================
// LOADER
// =============================================================================

// SeedDemoData loads the demo students into an empty roster. It reports
// whether anything was written.
func SeedDemoData(ctx context.Context, roster *fees.Roster, log *zap.Logger) (bool, error) {
	if roster.Len() > 0 {
		return false, nil
	}
	if log == nil {
		log = zap.NewNop()
	}

	for _, ds := range demoStudents {
		s, err := roster.AddStudent(ctx, ds.profile)
		if err != nil {
			return false, fmt.Errorf("seed student %s: %w", ds.profile.RollNumber, err)
		}
		for _, p := range ds.payments {
			date, err := time.Parse(time.RFC3339, p.date)
			if err != nil {
				return false, err
			}
			if _, err := roster.AddPayment(ctx, s.ID, fees.PaymentInput{Amount: inr(p.amount), Date: &date, Remarks: p.note}); err != nil {
				return false, fmt.Errorf("seed payment for %s: %w", s.RollNumber, err)
			}
		}
		for _, d := range ds.discounts {
			date, err := time.Parse(time.RFC3339, d.date)
			if err != nil {
				return false, err
			}
			if _, err := roster.AddDiscount(ctx, s.ID, fees.DiscountInput{Amount: inr(d.amount), Date: &date, Reason: d.note}); err != nil {
				return false, fmt.Errorf("seed discount for %s: %w", s.RollNumber, err)
			}
		}
	}

	log.Info("demo data loaded", zap.Int("students", len(demoStudents)))
	return true, nil
}

// LoadDemo seeds the demo students if the roster is empty.
// POST /api/demo/load
func (h *Handler) LoadDemo(w http.ResponseWriter, r *http.Request) {
	loaded, err := SeedDemoData(r.Context(), h.Roster, h.Log)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"loaded":   loaded,
		"students": h.Roster.Len(),
	})
}
