/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests from the POS frontend

ROUTE GROUPS:
  /api/plans/*                    Installment plans and payments
  /api/installment-transactions   Audit log
  /api/kpis, /api/sales/*         Dashboard
  /health                         Liveness
  /metrics                        Prometheus

SECURITY NOTE:
  No authentication middleware. Deploy behind the POS gateway.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/serve.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		// Plan routes
		r.Route("/plans", func(r chi.Router) {
			r.Get("/", h.ListPlans)
			r.Get("/due", h.ListDuePlans)
			r.Get("/{id}", h.GetPlan)
			r.Post("/{id}/payments", h.RecordPayment)
			r.Get("/{id}/payments/{number}/receipt", h.GetReceipt)
		})

		r.Get("/installment-transactions", h.ListInstallmentTransactions)
		r.Get("/kpis", h.GetKpis)

		// Sales routes
		r.Route("/sales", func(r chi.Router) {
			r.Get("/", h.ListSales)
			r.Get("/stats", h.GetSalesStats)
		})
	})

	return r
}
