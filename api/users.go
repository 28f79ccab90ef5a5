package api

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/warp/fee-engine/access"
)

// =============================================================================
// USER MANAGEMENT HANDLERS
// =============================================================================

// ListUsers returns every account.
// GET /api/users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Identity.Users())
}

// CreateUser registers an account with the default user permissions.
// POST /api/users
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	user, err := h.Identity.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// ChangeUserRole sets an account's role and resets its permissions.
// PUT /api/users/{email}/role
func (h *Handler) ChangeUserRole(w http.ResponseWriter, r *http.Request) {
	var req ChangeRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	role, err := access.ParseRole(req.Role)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.Identity.ChangeRole(r.Context(), emailParam(r), role)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateUserPermissions overwrites an account's permission flags.
// PUT /api/users/{email}/permissions
func (h *Handler) UpdateUserPermissions(w http.ResponseWriter, r *http.Request) {
	var perms access.Permissions
	if err := decodeJSON(r, &perms); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	user, err := h.Identity.UpdatePermissions(r.Context(), emailParam(r), perms)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// DeleteUser removes an account.
// DELETE /api/users/{email}
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.Identity.DeleteUser(r.Context(), emailParam(r)); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func emailParam(r *http.Request) string {
	raw := chi.URLParam(r, "email")
	if email, err := url.PathUnescape(raw); err == nil {
		return email
	}
	return raw
}
