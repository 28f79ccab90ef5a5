/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers and capabilities.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client address from proxy headers
  3. Logger:     zap request log (method, path, status, duration, request id)
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. CORS:       Cross-origin requests for the frontend

ROUTE GROUPS:
  /api/health           Liveness
  /api/auth/*           Login, logout, own account
  /api/users/*          Account management (canManageUsers)
  /api/students/*       Roster, transactions, import/export
  /api/reports/*        Summary, monthly and daily reports
  /api/dashboard/*      Dashboard header
  /api/demo/load        Seed demo students (canManageUsers)

SEE ALSO:
  - handlers.go: Handler implementations
  - auth.go: RequireAuth / RequirePermission
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/warp/fee-engine/access"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.Log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	}))

	need := h.RequirePermission

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", h.Login)
			r.Group(func(r chi.Router) {
				r.Use(h.RequireAuth)
				r.Post("/logout", h.Logout)
				r.Get("/me", h.Me)
				r.Put("/password", h.ChangePassword)
			})
		})

		// Everything below requires a session.
		r.Group(func(r chi.Router) {
			r.Use(h.RequireAuth)

			r.Route("/users", func(r chi.Router) {
				r.Use(need(access.CanManageUsers))
				r.Get("/", h.ListUsers)
				r.Post("/", h.CreateUser)
				r.Put("/{email}/role", h.ChangeUserRole)
				r.Put("/{email}/permissions", h.UpdateUserPermissions)
				r.Delete("/{email}", h.DeleteUser)
			})

			r.Route("/students", func(r chi.Router) {
				r.With(need(access.CanViewStudents)).Get("/", h.ListStudents)
				r.With(need(access.CanAddStudents)).Post("/", h.CreateStudent)
				r.With(need(access.CanImportExport)).Post("/import", h.ImportStudents)
				r.With(need(access.CanImportExport)).Get("/export", h.ExportStudents)

				r.Route("/{id}", func(r chi.Router) {
					r.With(need(access.CanViewStudents)).Get("/", h.GetStudent)
					r.With(need(access.CanEditStudents)).Put("/", h.UpdateStudent)
					r.With(need(access.CanDeleteStudents)).Delete("/", h.DeleteStudent)
					r.With(need(access.CanManagePayments)).Post("/payments", h.AddPayment)

					r.Route("/discounts", func(r chi.Router) {
						r.Use(need(access.CanManageDiscounts))
						r.Post("/", h.AddDiscount)
						r.Put("/{discountID}", h.UpdateDiscount)
						r.Delete("/{discountID}", h.DeleteDiscount)
					})
				})
			})

			r.Route("/reports", func(r chi.Router) {
				r.Use(need(access.CanViewReports))
				r.Get("/summary", h.Summary)
				r.Get("/summary/export", h.SummaryExport)
				r.Get("/monthly", h.MonthlyReport)
				r.Get("/monthly/export", h.MonthlyExport)
				r.Get("/daily", h.DailyReport)
				r.Get("/daily/export", h.DailyExport)
			})

			r.With(need(access.CanViewDashboardSummary)).Get("/dashboard/summary", h.Dashboard)
			r.With(need(access.CanManageUsers)).Post("/demo/load", h.LoadDemo)
		})
	})

	return r
}

// requestLogger logs one line per request through zap.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Info("request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())))
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
