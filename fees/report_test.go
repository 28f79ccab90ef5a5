package fees_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/fee-engine/fees"
)

func reportFixture() []fees.Student {
	return []fees.Student{
		{
			ID: "1", Name: "Alice Smith", RollNumber: "S1001", Class: "10A", Grade: "10",
			TotalFees: inr(50000),
			Payments: []fees.Payment{
				pay("P1", 20000, at(2024, time.July, 15, 10)),
				pay("P2", 15000, at(2024, time.August, 20, 14)),
			},
			Discounts: []fees.Discount{disc("D1", 2000, at(2024, time.July, 10, 9))},
		},
		{
			ID: "2", Name: "Bob Johnson", RollNumber: "S1002", Class: "10B", Grade: "10",
			TotalFees: inr(48000),
			Payments:  []fees.Payment{pay("P3", 48000, at(2024, time.July, 15, 16))},
		},
		{
			ID: "3", Name: "Charlie Brown", RollNumber: "S1003", Class: "10A", Grade: "10",
			TotalFees: inr(50000),
			Discounts: []fees.Discount{disc("D2", 5000, at(2024, time.August, 1, 0))},
		},
	}
}

func TestSummarize(t *testing.T) {
	sum := fees.Summarize(reportFixture())

	assert.Equal(t, 3, sum.TotalStudents)
	assertDecimal(t, 148000, sum.TotalFees, "fees")
	assertDecimal(t, 83000, sum.TotalPaid, "paid")
	assertDecimal(t, 7000, sum.TotalDiscount, "discount")
	assertDecimal(t, 58000, sum.TotalPending, "pending")
	assert.Equal(t, 2, sum.WithBalanceDue)

	require.Len(t, sum.ByClass, 2)
	assert.Equal(t, "10A", sum.ByClass[0].Class)
	assertDecimal(t, 58000, sum.ByClass[0].Pending, "10A pending")
	assert.Equal(t, "10B", sum.ByClass[1].Class)
	assertDecimal(t, 0, sum.ByClass[1].Pending, "10B pending")
}

func TestSummarize_Empty(t *testing.T) {
	sum := fees.Summarize(nil)

	assert.Equal(t, 0, sum.TotalStudents)
	assert.True(t, sum.TotalPending.IsZero())
	assert.NotNil(t, sum.ByClass)
}

func TestBuildMonthlyReport(t *testing.T) {
	rep := fees.BuildMonthlyReport(reportFixture(), 2024, time.July)

	assertDecimal(t, 68000, rep.TotalCollected, "collected")
	assertDecimal(t, 2000, rep.TotalDiscounted, "discounted")
	assert.Equal(t, 3, rep.TransactionCount)
	require.Len(t, rep.Daily, 31)
	assertDecimal(t, 68000, rep.Daily[14].Collected, "15 July")
	assert.True(t, rep.Daily[0].Collected.IsZero())
}

func TestBuildMonthlyReport_FebruaryLeapYear(t *testing.T) {
	rep := fees.BuildMonthlyReport(nil, 2024, time.February)

	assert.Len(t, rep.Daily, 29)
	assert.Equal(t, 0, rep.TransactionCount)
}

func TestBuildDailyReport(t *testing.T) {
	rep := fees.BuildDailyReport(reportFixture(), at(2024, time.July, 15, 23))

	assert.Equal(t, at(2024, time.July, 15, 0), rep.Date)
	require.Len(t, rep.Transactions, 2)
	assert.Equal(t, "P1", rep.Transactions[0].ID, "ordered by time")
	assert.Equal(t, "Bob Johnson", rep.Transactions[1].StudentName)
	assertDecimal(t, 68000, rep.TotalCollected, "collected")
	assert.True(t, rep.TotalDiscounted.IsZero())
}

func TestBuildDailyReport_NoTransactions(t *testing.T) {
	rep := fees.BuildDailyReport(reportFixture(), at(2030, time.January, 1, 0))

	assert.NotNil(t, rep.Transactions)
	assert.Empty(t, rep.Transactions)
}

func TestTransactions_HalfOpenRange(t *testing.T) {
	from := at(2024, time.July, 10, 9)
	to := at(2024, time.July, 15, 16)

	txs := fees.Transactions(reportFixture(), from, to)

	require.Len(t, txs, 2)
	assert.Equal(t, fees.KindDiscount, txs[0].Kind)
	assert.Equal(t, "sibling", txs[0].Details)
	assert.Equal(t, fees.KindPayment, txs[1].Kind)
}
