/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Money is decimal inside
  the engine and a JSON number on the wire; these types do the conversion in
  one place.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Auth:      LoginRequest, LoginResponse, ChangePasswordRequest
  Users:     CreateUserRequest, ChangeRoleRequest
  Students:  StudentRequest, StudentDTO, PaymentRequest, DiscountRequest
  Import:    ImportResponse
  Reports:   SummaryDTO, MonthlyReportDTO, DailyReportDTO, DashboardDTO

VALIDATION:
  Handlers convert requests into fees/access input types; validation happens
  in the stores.

SEE ALSO:
  - handlers.go: Uses these types
  - fees/types.go: Domain types
*/
package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/fee-engine/access"
	"github.com/warp/fee-engine/fees"
	"github.com/warp/fee-engine/validation"
)

// =============================================================================
// AUTH
// =============================================================================

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the session token and the signed-in user.
type LoginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt string      `json:"expiresAt"`
	User      access.User `json:"user"`
}

// ChangePasswordRequest is the body of PUT /api/auth/password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// =============================================================================
// USERS
// =============================================================================

// CreateUserRequest is the body of POST /api/users.
type CreateUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ChangeRoleRequest is the body of PUT /api/users/{email}/role.
type ChangeRoleRequest struct {
	Role string `json:"role"`
}

// =============================================================================
// STUDENTS
// =============================================================================

// StudentRequest creates or updates a student profile.
type StudentRequest struct {
	Name       string  `json:"name"`
	RollNumber string  `json:"rollNumber"`
	Class      string  `json:"class"`
	Grade      string  `json:"grade"`
	TotalFees  float64 `json:"totalFees"`
}

func (r StudentRequest) toNewStudent() fees.NewStudent {
	return fees.NewStudent{
		Name:       r.Name,
		RollNumber: r.RollNumber,
		Class:      r.Class,
		Grade:      r.Grade,
		TotalFees:  decimal.NewFromFloat(r.TotalFees),
	}
}

// PaymentRequest records a payment. Date is optional (RFC 3339 or YYYY-MM-DD).
type PaymentRequest struct {
	Amount  float64 `json:"amount"`
	Date    string  `json:"date,omitempty"`
	Remarks string  `json:"remarks"`
}

func (r PaymentRequest) toInput() (fees.PaymentInput, error) {
	date, err := parseOptionalDate(r.Date)
	if err != nil {
		return fees.PaymentInput{}, err
	}
	return fees.PaymentInput{Amount: decimal.NewFromFloat(r.Amount), Date: date, Remarks: r.Remarks}, nil
}

// DiscountRequest records or corrects a discount.
type DiscountRequest struct {
	Amount float64 `json:"amount"`
	Date   string  `json:"date,omitempty"`
	Reason string  `json:"reason"`
}

func (r DiscountRequest) toInput() (fees.DiscountInput, error) {
	date, err := parseOptionalDate(r.Date)
	if err != nil {
		return fees.DiscountInput{}, err
	}
	return fees.DiscountInput{Amount: decimal.NewFromFloat(r.Amount), Date: date, Reason: r.Reason}, nil
}

func (r DiscountRequest) toDiscount(id string) (fees.Discount, error) {
	in, err := r.toInput()
	if err != nil {
		return fees.Discount{}, err
	}
	d := fees.Discount{ID: id, Amount: in.Amount, Reason: in.Reason}
	if in.Date != nil {
		d.Date = *in.Date
	}
	return d, nil
}

// PaymentDTO represents a payment in API responses.
type PaymentDTO struct {
	ID      string  `json:"id"`
	Amount  float64 `json:"amount"`
	Date    string  `json:"date"`
	Remarks string  `json:"remarks"`
}

// DiscountDTO represents a discount in API responses.
type DiscountDTO struct {
	ID     string  `json:"id"`
	Amount float64 `json:"amount"`
	Date   string  `json:"date"`
	Reason string  `json:"reason"`
}

// StudentDTO is a student with its derived ledger.
type StudentDTO struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	RollNumber       string        `json:"rollNumber"`
	Class            string        `json:"class"`
	Grade            string        `json:"grade"`
	TotalFees        float64       `json:"totalFees"`
	TotalPaid        float64       `json:"totalPaid"`
	TotalDiscount    float64       `json:"totalDiscount"`
	RemainingBalance float64       `json:"remainingBalance"`
	LastPaymentDate  *string       `json:"lastPaymentDate"`
	Payments         []PaymentDTO  `json:"payments"`
	Discounts        []DiscountDTO `json:"discounts"`
}

// ImportResponse reports the outcome of a spreadsheet import.
type ImportResponse struct {
	NewCount     int `json:"newCount"`
	UpdatedCount int `json:"updatedCount"`
	Skipped      int `json:"skipped"`
	Rows         int `json:"rows"`
	Discarded    int `json:"discarded"`
}

// =============================================================================
// REPORTS
// =============================================================================

// ClassBalanceDTO is the pending amount of one class.
type ClassBalanceDTO struct {
	Class   string  `json:"class"`
	Pending float64 `json:"pending"`
}

// SummaryDTO mirrors fees.Summary.
type SummaryDTO struct {
	TotalStudents  int               `json:"totalStudents"`
	TotalFees      float64           `json:"totalFees"`
	TotalPaid      float64           `json:"totalPaid"`
	TotalDiscount  float64           `json:"totalDiscount"`
	TotalPending   float64           `json:"totalPending"`
	WithBalanceDue int               `json:"withBalanceDue"`
	ByClass        []ClassBalanceDTO `json:"byClass"`
}

// DayCollectionDTO is one point of the monthly series.
type DayCollectionDTO struct {
	Day       int     `json:"day"`
	Collected float64 `json:"collected"`
}

// MonthlyReportDTO mirrors fees.MonthlyReport.
type MonthlyReportDTO struct {
	Year             int                `json:"year"`
	Month            int                `json:"month"`
	TotalCollected   float64            `json:"totalCollected"`
	TotalDiscounted  float64            `json:"totalDiscounted"`
	TransactionCount int                `json:"transactionCount"`
	Daily            []DayCollectionDTO `json:"daily"`
}

// TransactionDTO is a payment or discount with its student.
type TransactionDTO struct {
	Kind        string  `json:"kind"`
	ID          string  `json:"id"`
	StudentID   string  `json:"studentId"`
	StudentName string  `json:"studentName"`
	RollNumber  string  `json:"rollNumber"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
	Details     string  `json:"details"`
}

// DailyReportDTO mirrors fees.DailyReport.
type DailyReportDTO struct {
	Date            string           `json:"date"`
	TotalCollected  float64          `json:"totalCollected"`
	TotalDiscounted float64          `json:"totalDiscounted"`
	Transactions    []TransactionDTO `json:"transactions"`
}

// DashboardDTO is the dashboard header plus the filter choices.
type DashboardDTO struct {
	Summary SummaryDTO `json:"summary"`
	Classes []string   `json:"classes"`
	Grades  []string   `json:"grades"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string                  `json:"error"`
	Code    string                  `json:"code,omitempty"`
	Details string                  `json:"details,omitempty"`
	Fields  []validation.FieldError `json:"fields,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func money(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func toStudentDTO(s fees.Student) StudentDTO {
	return toLedgerDTO(fees.WithLedger(s))
}

// toLedgerDTO builds the response from a ledger the caller already computed.
func toLedgerDTO(sl fees.StudentLedger) StudentDTO {
	s, l := sl.Student, sl.Ledger
	dto := StudentDTO{
		ID:               s.ID,
		Name:             s.Name,
		RollNumber:       s.RollNumber,
		Class:            s.Class,
		Grade:            s.Grade,
		TotalFees:        money(s.TotalFees),
		TotalPaid:        money(l.TotalPaid),
		TotalDiscount:    money(l.TotalDiscount),
		RemainingBalance: money(l.RemainingBalance),
		Payments:         make([]PaymentDTO, len(s.Payments)),
		Discounts:        make([]DiscountDTO, len(s.Discounts)),
	}
	if l.LastPaymentDate != nil {
		v := formatTime(*l.LastPaymentDate)
		dto.LastPaymentDate = &v
	}
	for i, p := range s.Payments {
		dto.Payments[i] = toPaymentDTO(p)
	}
	for i, d := range s.Discounts {
		dto.Discounts[i] = toDiscountDTO(d)
	}
	return dto
}

func toPaymentDTO(p fees.Payment) PaymentDTO {
	return PaymentDTO{ID: p.ID, Amount: money(p.Amount), Date: formatTime(p.Date), Remarks: p.Remarks}
}

func toDiscountDTO(d fees.Discount) DiscountDTO {
	return DiscountDTO{ID: d.ID, Amount: money(d.Amount), Date: formatTime(d.Date), Reason: d.Reason}
}

func toSummaryDTO(sum fees.Summary) SummaryDTO {
	dto := SummaryDTO{
		TotalStudents:  sum.TotalStudents,
		TotalFees:      money(sum.TotalFees),
		TotalPaid:      money(sum.TotalPaid),
		TotalDiscount:  money(sum.TotalDiscount),
		TotalPending:   money(sum.TotalPending),
		WithBalanceDue: sum.WithBalanceDue,
		ByClass:        make([]ClassBalanceDTO, len(sum.ByClass)),
	}
	for i, c := range sum.ByClass {
		dto.ByClass[i] = ClassBalanceDTO{Class: c.Class, Pending: money(c.Pending)}
	}
	return dto
}

func toMonthlyDTO(rep fees.MonthlyReport) MonthlyReportDTO {
	dto := MonthlyReportDTO{
		Year:             rep.Year,
		Month:            int(rep.Month),
		TotalCollected:   money(rep.TotalCollected),
		TotalDiscounted:  money(rep.TotalDiscounted),
		TransactionCount: rep.TransactionCount,
		Daily:            make([]DayCollectionDTO, len(rep.Daily)),
	}
	for i, d := range rep.Daily {
		dto.Daily[i] = DayCollectionDTO{Day: d.Day, Collected: money(d.Collected)}
	}
	return dto
}

func toDailyDTO(rep fees.DailyReport) DailyReportDTO {
	dto := DailyReportDTO{
		Date:            rep.Date.Format(dateLayout),
		TotalCollected:  money(rep.TotalCollected),
		TotalDiscounted: money(rep.TotalDiscounted),
		Transactions:    make([]TransactionDTO, len(rep.Transactions)),
	}
	for i, tx := range rep.Transactions {
		dto.Transactions[i] = TransactionDTO{
			Kind:        string(tx.Kind),
			ID:          tx.ID,
			StudentID:   tx.StudentID,
			StudentName: tx.StudentName,
			RollNumber:  tx.RollNumber,
			Amount:      money(tx.Amount),
			Date:        formatTime(tx.Date),
			Details:     tx.Details,
		}
	}
	return dto
}

// =============================================================================
// DATES
// =============================================================================

const dateLayout = "2006-01-02"

// parseOptionalDate accepts "", RFC 3339 timestamps and YYYY-MM-DD dates.
func parseOptionalDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, validation.Field("date", fmt.Sprintf("invalid date %q (use YYYY-MM-DD or RFC 3339)", s))
	}
	return &t, nil
}
