/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. zap logger: Structured request logging
  4. CORS:       Cross-origin requests for the calendar frontend

ROUTE GROUPS:
  /api/employees/*   Roster, schedules, balances
  /api/records/*     Leave records
  /api/quotas        Allotment administration
  /api/exchanges/*   Shift trades

SECURITY NOTE:
  No authentication middleware. The API serves a trusted single-user
  frontend on localhost.

SEE ALSO:
  - handlers.go: Handler implementations
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
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(h.Log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{name}/schedule", h.GetSchedule)
			r.Post("/{name}/shifts", h.AddShift)
			r.Delete("/{name}/shifts", h.RemoveShift)
			r.Get("/{name}/records", h.GetEmployeeRecords)
			r.Get("/{name}/balance", h.GetBalance)
		})

		r.Route("/records", func(r chi.Router) {
			r.Get("/", h.ListRecords)
			r.Post("/", h.CreateRecord)
			r.Put("/{id}", h.UpdateRecord)
			r.Delete("/{id}", h.DeleteRecord)
		})

		r.Route("/quotas", func(r chi.Router) {
			r.Get("/", h.ListQuotas)
			r.Put("/", h.SetQuota)
		})

		r.Route("/exchanges", func(r chi.Router) {
			r.Get("/", h.ListTransactions)
			r.Post("/swap", h.Swap)
			r.Post("/restore", h.RestoreSwap)
			r.Get("/check", h.CheckExchange)
		})
	})

	return r
}

// requestLogger logs one line per request with method, path, status and
// duration, tagged with the chi request id.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			log.Info("http request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
