/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging (zap, request-scoped logger in context)
  3. Metrics:    forklift_http_requests_total{method,status}
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. CORS:       Cross-origin requests for the admin frontend

ROUTE GROUPS:
  /healthz, /metrics        Unauthenticated
  /api/auth/token           Development login (when enabled)
  /api/*                    Bearer token required

SEE ALSO:
  - handlers.go: Handler implementations
  - auth.go: Token verification
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/warp/forklift-rental/logger"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(logger.Middleware(h.log))
	r.Use(h.observe)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if h.metrics != nil {
		r.Handle("/metrics", h.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/token", h.IssueToken)

		r.Group(func(r chi.Router) {
			r.Use(h.Authenticate)

			r.Get("/me", h.Me)

			// Rental company routes
			r.Route("/companies", func(r chi.Router) {
				r.Get("/", h.ListCompanies)
				r.Post("/", h.CreateCompany)
				r.Put("/{id}", h.UpdateCompany)
				r.Delete("/{id}", h.DeleteCompany)
			})

			// Forklift routes
			r.Route("/forklifts", func(r chi.Router) {
				r.Get("/", h.ListForklifts)
				r.Post("/", h.CreateForklift)
				r.Post("/import", h.ImportForklifts)
				r.Get("/{id}", h.GetForklift)
				r.Post("/{id}/transitions", h.TransitionForklift)
				r.Post("/{id}/remote", h.RemoteControl)
			})

			// Lessee routes
			r.Route("/lessees", func(r chi.Router) {
				r.Get("/", h.ListLessees)
				r.Post("/", h.CreateLessee)
			})

			// Contract routes
			r.Route("/contracts", func(r chi.Router) {
				r.Get("/", h.ListContracts)
				r.Post("/", h.CreateContract)
				r.Get("/{id}", h.GetContract)
				r.Post("/{id}/extend", h.ExtendContract)
				r.Post("/{id}/transitions", h.TransitionContract)
			})

			// Settlement routes
			r.Route("/settlements", func(r chi.Router) {
				r.Get("/", h.ListSettlements)
				r.Post("/", h.CreateSettlement)
				r.Get("/report", h.SettlementReport)
			})

			// Calendar routes
			r.Route("/calendar", func(r chi.Router) {
				r.Get("/", h.CalendarDay)
				r.Get("/range", h.CalendarRange)
			})

			// Overdue routes
			r.Route("/overdue", func(r chi.Router) {
				r.Get("/", h.ListOverdue)
				r.Post("/reconcile", h.TriggerReconcile)
				r.Get("/runs", h.ListOverdueRuns)
				r.Post("/{id}/actions", h.OverdueAction)
			})

			r.Get("/consistency", h.Consistency)

			// Account routes
			r.Route("/users", func(r chi.Router) {
				r.Get("/", h.ListUsers)
				r.Post("/", h.InviteUser)
			})
		})
	})

	return r
}

// observe counts finished requests by method and status.
func (h *Handler) observe(next http.Handler) http.Handler {
	if h.metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		h.metrics.ObserveRequest(r.Method, status)
	})
}
