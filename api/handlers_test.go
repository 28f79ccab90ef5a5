/*
handlers_test.go - HTTP API tests

Tests for:
- Login, token checks and logout
- Capability enforcement (403) and account invariants (409)
- Student CRUD, payments and discounts
- Spreadsheet import/export round trip
- Reports
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/warp/fee-engine/access"
	"github.com/warp/fee-engine/fees"
	"github.com/warp/fee-engine/kv"
	"github.com/warp/fee-engine/spreadsheet"
)

const (
	adminEmail    = "admin@school.test"
	adminPassword = "admin-pass"
)

type testServer struct {
	h      *Handler
	router http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	store := kv.NewMemory()

	ids, err := access.NewIdentityStore(ctx, store, access.WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, err)
	_, err = ids.EnsureAdmin(ctx, adminEmail, adminPassword)
	require.NoError(t, err)

	roster, err := fees.NewRoster(ctx, store)
	require.NoError(t, err)

	h := NewHandler(ids, roster, access.NewTokenIssuer("test-secret", time.Hour), nil)
	h.now = func() time.Time { return time.Date(2024, 7, 20, 12, 0, 0, 0, time.UTC) }
	return &testServer{h: h, router: NewRouter(h, []string{"http://localhost:5173"})}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{Email: email, Password: password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (s *testServer) createStudent(t *testing.T, token, name, roll string, totalFees float64) StudentDTO {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/students", token, StudentRequest{
		Name: name, RollNumber: roll, Class: "10", Grade: "A", TotalFees: totalFees,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[StudentDTO](t, rec)
}

// =============================================================================
// AUTH
// =============================================================================

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogin_TokenGrantsAccess(t *testing.T) {
	s := newTestServer(t)

	token := s.login(t, adminEmail, adminPassword)

	rec := s.do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[access.User](t, rec)
	assert.Equal(t, adminEmail, me.Email)
	assert.Equal(t, access.RoleAdmin, me.Role)
}

func TestLogin_Failures(t *testing.T) {
	s := newTestServer(t)

	for name, req := range map[string]LoginRequest{
		"wrong password": {Email: adminEmail, Password: "nope"},
		"unknown email":  {Email: "ghost@school.test", Password: adminPassword},
	} {
		t.Run(name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/auth/login", "", req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "unauthenticated", decode[ErrorResponse](t, rec).Code)
		})
	}
}

func TestRequireAuth(t *testing.T) {
	s := newTestServer(t)

	t.Run("no token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/students", "", nil).Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/students", "not-a-jwt", nil).Code)
	})

	t.Run("token outlives logout", func(t *testing.T) {
		// GIVEN: A valid token
		token := s.login(t, adminEmail, adminPassword)
		require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/students", token, nil).Code)

		// WHEN: The session is cleared
		require.Equal(t, http.StatusNoContent, s.do(t, http.MethodPost, "/api/auth/logout", token, nil).Code)

		// THEN: The token no longer authenticates
		assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/students", token, nil).Code)
	})
}

func TestLogout_RequiresTheSessionToken(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, adminEmail, adminPassword)

	// WHEN: Someone without the token tries to log out
	rec := s.do(t, http.MethodPost, "/api/auth/logout", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = s.do(t, http.MethodPost, "/api/auth/logout", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// THEN: The session survives
	require.NotNil(t, s.h.Identity.CurrentUser())
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/auth/me", token, nil).Code)
}

func TestPasswords_TooLongForBcrypt(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, adminEmail, adminPassword)
	long := string(bytes.Repeat([]byte("a"), 73))

	rec := s.do(t, http.MethodPost, "/api/users", token, CreateUserRequest{Email: "long@school.test", Password: long})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation", decode[ErrorResponse](t, rec).Code)

	rec = s.do(t, http.MethodPut, "/api/auth/password", token, ChangePasswordRequest{CurrentPassword: adminPassword, NewPassword: long + "bbbbbbb"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation", decode[ErrorResponse](t, rec).Code)
}

func TestChangePassword(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, adminEmail, adminPassword)

	rec := s.do(t, http.MethodPut, "/api/auth/password", token, ChangePasswordRequest{CurrentPassword: "wrong", NewPassword: "long-enough"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "wrong_password", decode[ErrorResponse](t, rec).Code)

	rec = s.do(t, http.MethodPut, "/api/auth/password", token, ChangePasswordRequest{CurrentPassword: adminPassword, NewPassword: "short"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation", decode[ErrorResponse](t, rec).Code)

	rec = s.do(t, http.MethodPut, "/api/auth/password", token, ChangePasswordRequest{CurrentPassword: adminPassword, NewPassword: "long-enough"})
	require.Equal(t, http.StatusNoContent, rec.Code)

	s.login(t, adminEmail, "long-enough")
}

// =============================================================================
// USERS AND PERMISSIONS
// =============================================================================

func TestPermissions_DefaultUser(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, adminEmail, adminPassword)

	// GIVEN: A user account with the default bundle
	rec := s.do(t, http.MethodPost, "/api/users", admin, CreateUserRequest{Email: "clerk@school.test", Password: "clerk-pass"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, access.DefaultUserPermissions(), decode[access.User](t, rec).Permissions)

	// WHEN: The clerk signs in
	clerk := s.login(t, "clerk@school.test", "clerk-pass")

	// THEN: Viewing works, everything else is forbidden
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/students", clerk, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/dashboard/summary", clerk, nil).Code)

	rec = s.do(t, http.MethodPost, "/api/students", clerk, StudentRequest{Name: "A", RollNumber: "R1", Class: "1", Grade: "A", TotalFees: 100})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", decode[ErrorResponse](t, rec).Code)

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/api/users", clerk, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/api/reports/summary", clerk, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/api/students/export", clerk, nil).Code)
}

func TestPermissions_GrantedCapabilityTakesEffect(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, adminEmail, adminPassword)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/users", admin, CreateUserRequest{Email: "clerk@school.test", Password: "clerk-pass"}).Code)

	perms := access.DefaultUserPermissions()
	perms.CanViewReports = true
	rec := s.do(t, http.MethodPut, "/api/users/clerk@school.test/permissions", admin, perms)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	clerk := s.login(t, "clerk@school.test", "clerk-pass")
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/reports/summary", clerk, nil).Code)
}

func TestUsers_AccountInvariants(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, adminEmail, adminPassword)

	t.Run("duplicate email", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/users", admin, CreateUserRequest{Email: adminEmail, Password: "whatever"})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "email_exists", decode[ErrorResponse](t, rec).Code)
	})

	t.Run("demoting the last admin", func(t *testing.T) {
		rec := s.do(t, http.MethodPut, "/api/users/"+adminEmail+"/role", admin, ChangeRoleRequest{Role: "user"})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "last_admin", decode[ErrorResponse](t, rec).Code)
	})

	t.Run("deleting yourself", func(t *testing.T) {
		rec := s.do(t, http.MethodDelete, "/api/users/"+adminEmail, admin, nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "self_deletion", decode[ErrorResponse](t, rec).Code)
	})

	t.Run("invalid role", func(t *testing.T) {
		rec := s.do(t, http.MethodPut, "/api/users/"+adminEmail+"/role", admin, ChangeRoleRequest{Role: "owner"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_role", decode[ErrorResponse](t, rec).Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/api/users/ghost@school.test", admin, nil).Code)
	})
}

func TestUsers_PromoteAndDelete(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, adminEmail, adminPassword)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/users", admin, CreateUserRequest{Email: "second@school.test", Password: "second-pass"}).Code)

	rec := s.do(t, http.MethodPut, "/api/users/second@school.test/role", admin, ChangeRoleRequest{Role: "admin"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, access.AdminPermissions(), decode[access.User](t, rec).Permissions)

	// Two admins exist, so either may be demoted.
	rec = s.do(t, http.MethodPut, "/api/users/second@school.test/role", admin, ChangeRoleRequest{Role: "user"})
	require.Equal(t, http.StatusOK, rec.Code)

	require.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/api/users/second@school.test", admin, nil).Code)

	users := decode[[]access.User](t, s.do(t, http.MethodGet, "/api/users", admin, nil))
	require.Len(t, users, 1)
	assert.Equal(t, adminEmail, users[0].Email)
}

// =============================================================================
// STUDENTS
// =============================================================================

func TestStudents_Lifecycle(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, adminEmail, adminPassword)

	// GIVEN: A student
	st := s.createStudent(t, token, "Amit Kumar", "R001", 50000)
	assert.Equal(t, 50000.0, st.RemainingBalance)
	assert.Nil(t, st.LastPaymentDate)
	path := "/api/students/" + st.ID

	// WHEN: A payment and a discount are recorded
	rec := s.do(t, http.MethodPost, path+"/payments", token, PaymentRequest{Amount: 20000, Date: "2024-07-15", Remarks: "First Installment"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, path+"/discounts", token, DiscountRequest{Amount: 2000, Reason: "Sibling Discount"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	discount := decode[DiscountDTO](t, rec)

	// THEN: The ledger reflects both
	got := decode[StudentDTO](t, s.do(t, http.MethodGet, path, token, nil))
	assert.Equal(t, 20000.0, got.TotalPaid)
	assert.Equal(t, 2000.0, got.TotalDiscount)
	assert.Equal(t, 28000.0, got.RemainingBalance)
	require.NotNil(t, got.LastPaymentDate)
	assert.Equal(t, "2024-07-15T00:00:00Z", *got.LastPaymentDate)

	// Discount correction and removal
	rec = s.do(t, http.MethodPut, path+"/discounts/"+discount.ID, token, DiscountRequest{Amount: 3000, Reason: "Sibling Discount"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 27000.0, decode[StudentDTO](t, s.do(t, http.MethodGet, path, token, nil)).RemainingBalance)

	require.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, path+"/discounts/"+discount.ID, token, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, path+"/discounts/"+discount.ID, token, nil).Code)

	// Profile update keeps transactions
	rec = s.do(t, http.MethodPut, path, token, StudentRequest{Name: "Amit K.", RollNumber: "R001", Class: "11", Grade: "A", TotalFees: 55000})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[StudentDTO](t, rec)
	assert.Equal(t, "11", updated.Class)
	assert.Len(t, updated.Payments, 1)
	assert.Equal(t, 35000.0, updated.RemainingBalance)

	// Delete
	require.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, path, token, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, path, token, nil).Code)
}

func TestStudents_Validation(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, adminEmail, adminPassword)
	st := s.createStudent(t, token, "Amit Kumar", "R001", 50000)

	t.Run("duplicate roll number", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/students", token, StudentRequest{Name: "Other", RollNumber: "r001", Class: "10", Grade: "A", TotalFees: 100})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "duplicate_roll_number", decode[ErrorResponse](t, rec).Code)
	})

	t.Run("blank name", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/students", token, StudentRequest{Name: " ", RollNumber: "R009", Class: "10", Grade: "A", TotalFees: 100})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decode[ErrorResponse](t, rec)
		require.NotEmpty(t, resp.Fields)
		assert.Equal(t, "name", resp.Fields[0].Field)
	})

	t.Run("non-positive payment", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/students/"+st.ID+"/payments", token, PaymentRequest{Amount: 0})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad date", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/students/"+st.ID+"/payments", token, PaymentRequest{Amount: 10, Date: "15/07/2024"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown student", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/students/nope/payments", token, PaymentRequest{Amount: 10})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unknown field", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/students", token, map[string]any{"name": "X", "nickname": "Y"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestStudents_ListFiltersAndSorts(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, adminEmail, adminPassword)
	s.createStudent(t, token, "Amit Kumar", "R001", 50000)
	s.createStudent(t, token, "Priya Sharma", "R002", 60000)
	s.createStudent(t, token, "Rahul Singh", "R003", 40000)

	list := decode[[]StudentDTO](t, s.do(t, http.MethodGet, "/api/students?sortBy=totalFees&order=desc", token, nil))
	require.Len(t, list, 3)
	assert.Equal(t, "R002", list[0].RollNumber)
	assert.Equal(t, "R003", list[2].RollNumber)

	list = decode[[]StudentDTO](t, s.do(t, http.MethodGet, "/api/students?search=sharma", token, nil))
	require.Len(t, list, 1)
	assert.Equal(t, "Priya Sharma", list[0].Name)
}

// =============================================================================
// IMPORT / EXPORT
// =============================================================================

func workbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func (s *testServer) upload(t *testing.T, token string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "students.xlsx")
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/students/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestImportStudents(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, adminEmail, adminPassword)
	existing := s.createStudent(t, token, "Amit Kumar", "R001", 50000)
	rec := s.do(t, http.MethodPost, "/api/students/"+existing.ID+"/payments", token, PaymentRequest{Amount: 1000})
	require.Equal(t, http.StatusCreated, rec.Code)

	// GIVEN: A workbook updating R001, adding R002, with one unusable row
	data := workbook(t, [][]any{
		{"Name", "Roll Number", "Class", "Grade", "Total Fees"},
		{"Amit Kumar", "r001", "11", "B", "55,000"},
		{"Priya Sharma", "R002", "12", "B", 60000},
		{"No Fees", "R003", "12", "B", "abc"},
	})

	// WHEN: It is uploaded
	rec = s.upload(t, token, data)

	// THEN: Counts reflect the merge and transactions survive
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[ImportResponse](t, rec)
	assert.Equal(t, ImportResponse{NewCount: 1, UpdatedCount: 1, Rows: 3, Discarded: 1}, resp)

	got := decode[StudentDTO](t, s.do(t, http.MethodGet, "/api/students/"+existing.ID, token, nil))
	assert.Equal(t, "11", got.Class)
	assert.Equal(t, 55000.0, got.TotalFees)
	assert.Len(t, got.Payments, 1)
}

func TestImportStudents_BadFiles(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, adminEmail, adminPassword)

	rec := s.upload(t, token, workbook(t, [][]any{{"Name", "Class"}, {"Amit", "10"}}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_file", decode[ErrorResponse](t, rec).Code)

	rec = s.upload(t, token, []byte("name,roll\nAmit,R1\n"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_file", decode[ErrorResponse](t, rec).Code)
}

func TestExportStudents(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, adminEmail, adminPassword)
	s.createStudent(t, token, "Amit Kumar", "R001", 50000)

	rec := s.do(t, http.MethodGet, "/api/students/export", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "students-2024-07-20.xlsx")

	// The export re-imports cleanly.
	rows, stats, err := spreadsheet.ParseStudents(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Accepted)
	assert.Equal(t, "R001", rows[0].RollNumber)
}

// =============================================================================
// REPORTS
// =============================================================================

func TestReports(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, adminEmail, adminPassword)
	loaded, err := SeedDemoData(context.Background(), s.h.Roster, nil)
	require.NoError(t, err)
	require.True(t, loaded)

	t.Run("summary", func(t *testing.T) {
		sum := decode[SummaryDTO](t, s.do(t, http.MethodGet, "/api/reports/summary", token, nil))
		assert.Equal(t, 3, sum.TotalStudents)
		assert.Equal(t, 160000.0, sum.TotalFees)
		assert.Equal(t, 75000.0, sum.TotalPaid)
		assert.Equal(t, 3000.0, sum.TotalDiscount)
		assert.Equal(t, 82000.0, sum.TotalPending)
	})

	t.Run("monthly", func(t *testing.T) {
		rep := decode[MonthlyReportDTO](t, s.do(t, http.MethodGet, "/api/reports/monthly?year=2024&month=7", token, nil))
		assert.Equal(t, 50000.0, rep.TotalCollected)
		assert.Equal(t, 3000.0, rep.TotalDiscounted)
		assert.Equal(t, 4, rep.TransactionCount)
		assert.Len(t, rep.Daily, 31)
		assert.Equal(t, 20000.0, rep.Daily[14].Collected)
	})

	t.Run("monthly defaults to the current month", func(t *testing.T) {
		rep := decode[MonthlyReportDTO](t, s.do(t, http.MethodGet, "/api/reports/monthly", token, nil))
		assert.Equal(t, 2024, rep.Year)
		assert.Equal(t, 7, rep.Month)
	})

	t.Run("bad month", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/reports/monthly?month=13", token, nil).Code)
	})

	t.Run("daily", func(t *testing.T) {
		rep := decode[DailyReportDTO](t, s.do(t, http.MethodGet, "/api/reports/daily?date=2024-08-20", token, nil))
		assert.Equal(t, "2024-08-20", rep.Date)
		assert.Equal(t, 15000.0, rep.TotalCollected)
		require.Len(t, rep.Transactions, 1)
		assert.Equal(t, "Amit Kumar", rep.Transactions[0].StudentName)
	})

	t.Run("exports", func(t *testing.T) {
		for _, path := range []string{"/api/reports/summary/export", "/api/reports/monthly/export?year=2024&month=8", "/api/reports/daily/export?date=2024-07-15"} {
			rec := s.do(t, http.MethodGet, path, token, nil)
			require.Equal(t, http.StatusOK, rec.Code, path)
			assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
		}
	})

	t.Run("dashboard", func(t *testing.T) {
		dash := decode[DashboardDTO](t, s.do(t, http.MethodGet, "/api/dashboard/summary", token, nil))
		assert.Equal(t, []string{"10", "12"}, dash.Classes)
		assert.Equal(t, []string{"A", "B"}, dash.Grades)
		assert.Equal(t, 3, dash.Summary.WithBalanceDue)
	})
}
