/*
handlers.go - HTTP API handlers for the fee engine

PURPOSE:
  Exposes the identity store, the student roster and the reports via a JSON
  REST API. Handles HTTP request/response, JSON serialization, and delegates
  to the fees and access packages.

ENDPOINTS:
  Auth:
    POST   /api/auth/login              Sign in, returns a session token
    POST   /api/auth/logout             Clear own session
    GET    /api/auth/me                 Signed-in user
    PUT    /api/auth/password           Change own password

  Users (canManageUsers):
    GET    /api/users                   List accounts
    POST   /api/users                   Create account
    PUT    /api/users/{email}/role      Change role (resets permissions)
    PUT    /api/users/{email}/permissions  Overwrite permissions
    DELETE /api/users/{email}           Delete account

  Students:
    GET    /api/students                List with ledger (search/filter/sort)
    GET    /api/students/{id}           One student with transactions
    POST   /api/students                Create
    PUT    /api/students/{id}           Update profile
    DELETE /api/students/{id}           Delete with transactions
    POST   /api/students/{id}/payments  Record payment
    POST   /api/students/{id}/discounts Record discount
    PUT    /api/students/{id}/discounts/{discountID}
    DELETE /api/students/{id}/discounts/{discountID}
    POST   /api/students/import         xlsx upload
    GET    /api/students/export         xlsx download

  Reports:
    GET    /api/reports/summary|monthly|daily[/export]
    GET    /api/dashboard/summary

ARCHITECTURE:
  Handler struct holds all dependencies. Permission checks happen in
  middleware (auth.go) before a handler runs; the stores enforce their own
  invariants.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 401: Not signed in, bad credentials, bad token
  - 403: Missing capability
  - 404: Resource not found
  - 409: Duplicates and account invariants (stable "code" field)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - auth.go: Session and permission middleware
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/warp/fee-engine/access"
	"github.com/warp/fee-engine/fees"
	"github.com/warp/fee-engine/spreadsheet"
	"github.com/warp/fee-engine/validation"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Identity *access.IdentityStore
	Roster   *fees.Roster
	Tokens   *access.TokenIssuer
	Log      *zap.Logger

	now func() time.Time
}

// NewHandler creates a new handler with the given stores.
func NewHandler(identity *access.IdentityStore, roster *fees.Roster, tokens *access.TokenIssuer, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		Identity: identity,
		Roster:   roster,
		Tokens:   tokens,
		Log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Health reports that the server is up.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"students": h.Roster.Len(),
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func writeXLSX(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// fail maps a store error to its HTTP response.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Validation failed", Code: "validation", Fields: verr.Fields})

	case errors.Is(err, access.ErrNotAuthenticated),
		errors.Is(err, access.ErrInvalidCredentials),
		errors.Is(err, access.ErrInvalidToken):
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: err.Error(), Code: "unauthenticated"})

	case errors.Is(err, access.ErrPermissionDenied):
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "Permission denied", Code: "forbidden", Details: err.Error()})

	case fees.IsNotFound(err), access.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "not_found"})

	case errors.Is(err, fees.ErrDuplicateRollNumber):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: fees.ErrDuplicateRollNumber.Error(), Code: "duplicate_roll_number", Details: err.Error()})
	case errors.Is(err, access.ErrEmailExists):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "email_exists"})
	case errors.Is(err, access.ErrLastAdmin):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "last_admin"})
	case errors.Is(err, access.ErrSelfDeletion):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "self_deletion"})

	case errors.Is(err, access.ErrWrongPassword):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "wrong_password"})
	case errors.Is(err, access.ErrInvalidRole):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "invalid_role"})
	case errors.Is(err, spreadsheet.ErrUnreadable),
		errors.Is(err, spreadsheet.ErrMissingColumns),
		errors.Is(err, spreadsheet.ErrEmptySheet),
		errors.Is(err, spreadsheet.ErrNoSheets):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "invalid_file"})

	default:
		h.Log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal error", nil)
	}
}
