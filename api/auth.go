/*
auth.go - Session authentication and capability middleware

FLOW:
  1. POST /api/auth/login verifies credentials through the identity store,
     which records the session, and returns an HS256 token for it.
  2. RequireAuth accepts "Authorization: Bearer <token>" only when the
     token's subject is the user currently signed in. Logging out (or
     someone else logging in) invalidates every earlier token.
  3. RequirePermission(capability) asks access.Authorize about the user
     RequireAuth put into the request context.

SEE ALSO:
  - access/identity.go: session store
  - access/token.go: token signing
*/
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/warp/fee-engine/access"
)

type ctxKey int

const userKey ctxKey = iota

// UserFromContext returns the authenticated user of the request, or nil.
func UserFromContext(ctx context.Context) *access.User {
	u, _ := ctx.Value(userKey).(*access.User)
	return u
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

// RequireAuth rejects requests without a token for the signed-in user.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			h.fail(w, r, access.ErrNotAuthenticated)
			return
		}

		sub, err := h.Tokens.Subject(strings.TrimPrefix(auth, "Bearer "))
		if err != nil {
			h.fail(w, r, err)
			return
		}

		user := h.Identity.CurrentUser()
		if user == nil || !strings.EqualFold(user.Email, sub) {
			h.fail(w, r, access.ErrNotAuthenticated)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	})
}

// RequirePermission rejects requests whose user lacks c.
func (h *Handler) RequirePermission(c access.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := access.Authorize(UserFromContext(r.Context()), c); err != nil {
				h.fail(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// =============================================================================
// AUTH HANDLERS
// =============================================================================

// Login signs a user in.
// POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	user, err := h.Identity.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	tok, err := h.Tokens.Issue(user)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Token:     tok.Token,
		ExpiresAt: formatTime(tok.ExpiresAt),
		User:      user,
	})
}

// Logout clears the session of the signed-in user.
// POST /api/auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Identity.Logout(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the signed-in user.
// GET /api/auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, UserFromContext(r.Context()))
}

// ChangePassword changes the signed-in user's password.
// PUT /api/auth/password
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	user := UserFromContext(r.Context())
	if err := h.Identity.ChangePassword(r.Context(), user.Email, req.CurrentPassword, req.NewPassword); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
