package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/warp/fee-engine/fees"
	"github.com/warp/fee-engine/spreadsheet"
)

// maxUploadBytes bounds the multipart body of an import.
const maxUploadBytes = 10 << 20

// =============================================================================
// STUDENT HANDLERS
// =============================================================================

// ListStudents returns students with their ledgers.
// GET /api/students?search=&class=&grade=&sortBy=&order=asc|desc
func (h *Handler) ListStudents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ledgers := h.Roster.Ledgers(fees.Query{
		Search:     q.Get("search"),
		Class:      q.Get("class"),
		Grade:      q.Get("grade"),
		SortBy:     fees.SortKey(q.Get("sortBy")),
		Descending: strings.EqualFold(q.Get("order"), "desc"),
	})

	out := make([]StudentDTO, len(ledgers))
	for i, l := range ledgers {
		out[i] = toLedgerDTO(l)
	}
	writeJSON(w, http.StatusOK, out)
}

// GetStudent returns one student.
// GET /api/students/{id}
func (h *Handler) GetStudent(w http.ResponseWriter, r *http.Request) {
	s, err := h.Roster.Student(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toStudentDTO(s))
}

// CreateStudent adds a student.
// POST /api/students
func (h *Handler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	var req StudentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	s, err := h.Roster.AddStudent(r.Context(), req.toNewStudent())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toStudentDTO(s))
}

// UpdateStudent replaces a student's profile. Transactions are kept.
// PUT /api/students/{id}
func (h *Handler) UpdateStudent(w http.ResponseWriter, r *http.Request) {
	var req StudentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	s, err := h.Roster.UpdateStudent(r.Context(), chi.URLParam(r, "id"), fees.StudentUpdate(req.toNewStudent()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toStudentDTO(s))
}

// DeleteStudent removes a student and its transactions.
// DELETE /api/students/{id}
func (h *Handler) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	if err := h.Roster.DeleteStudent(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// TRANSACTION HANDLERS
// =============================================================================

// AddPayment records a payment.
// POST /api/students/{id}/payments
func (h *Handler) AddPayment(w http.ResponseWriter, r *http.Request) {
	var req PaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	p, err := h.Roster.AddPayment(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPaymentDTO(p))
}

// AddDiscount records a discount.
// POST /api/students/{id}/discounts
func (h *Handler) AddDiscount(w http.ResponseWriter, r *http.Request) {
	var req DiscountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	d, err := h.Roster.AddDiscount(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDiscountDTO(d))
}

// UpdateDiscount corrects a discount.
// PUT /api/students/{id}/discounts/{discountID}
func (h *Handler) UpdateDiscount(w http.ResponseWriter, r *http.Request) {
	var req DiscountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	d, err := req.toDiscount(chi.URLParam(r, "discountID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	d, err = h.Roster.UpdateDiscount(r.Context(), chi.URLParam(r, "id"), d)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDiscountDTO(d))
}

// DeleteDiscount removes a discount.
// DELETE /api/students/{id}/discounts/{discountID}
func (h *Handler) DeleteDiscount(w http.ResponseWriter, r *http.Request) {
	if err := h.Roster.DeleteDiscount(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "discountID")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// IMPORT / EXPORT
// =============================================================================

// ImportStudents reconciles an uploaded workbook (form field "file") into
// the roster.
// POST /api/students/import
func (h *Handler) ImportStudents(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid upload", err)
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing file", err)
		return
	}
	defer file.Close()

	rows, stats, err := spreadsheet.ParseStudents(file)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := h.Roster.ImportStudents(r.Context(), rows)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.Log.Info("students imported",
		zap.Int("rows", stats.Rows),
		zap.Int("new", res.NewCount),
		zap.Int("updated", res.UpdatedCount),
		zap.Int("skipped", res.Skipped),
		zap.Int("discarded", stats.Discarded))

	writeJSON(w, http.StatusOK, ImportResponse{
		NewCount:     res.NewCount,
		UpdatedCount: res.UpdatedCount,
		Skipped:      res.Skipped,
		Rows:         stats.Rows,
		Discarded:    stats.Discarded,
	})
}

// ExportStudents downloads every student and transaction as a workbook.
// GET /api/students/export
func (h *Handler) ExportStudents(w http.ResponseWriter, r *http.Request) {
	data, err := spreadsheet.WriteWorkbook("Students", spreadsheet.StudentListRows(h.Roster.Students()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeXLSX(w, "students-"+h.now().Format(dateLayout)+".xlsx", data)
}
