/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging (zap)
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the front desk app

ROUTE GROUPS:
  /api/packages/*       Membership packages
  /api/members/*        Members, ledgers, payments, renewals
  /api/trainers/*       Trainers and their settlements
  /api/settlements/*    Settlement edit and printable slip
  /api/scenarios/*      Demo scenarios
  /healthz              Liveness + database ping

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Pinger is implemented by stores that can report database health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", h.Health)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/packages", func(r chi.Router) {
			r.Get("/", h.ListPackages)
			r.Post("/", h.CreatePackage)
		})

		r.Route("/members", func(r chi.Router) {
			r.Post("/", h.CreateMember)
			r.Get("/{id}", h.GetMember)
			r.Post("/{id}/memberships", h.Enrol)
			r.Post("/{id}/renewals", h.Renew)

			r.Route("/{id}/memberships/{type}", func(r chi.Router) {
				r.Put("/discount", h.SetExtraDiscount)
				r.Post("/payments", h.RecordPayment)
				r.Put("/payments/{paymentID}", h.EditPayment)
				r.Post("/validate", h.ValidatePayment)
			})
		})

		r.Route("/trainers", func(r chi.Router) {
			r.Post("/", h.CreateTrainer)
			r.Get("/{id}/settlements", h.ListSettlements)
			r.Post("/{id}/settlements", h.CreateSettlement)
			r.Post("/{id}/settlements/preview", h.PreviewSettlement)
		})

		r.Route("/settlements", func(r chi.Router) {
			r.Get("/{id}", h.GetSettlement)
			r.Put("/{id}", h.EditSettlement)
			r.Get("/{id}/slip", h.GetSlip)
		})

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	return r
}

// Health reports liveness, and database reachability when the store can ping.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if p, ok := h.store.(Pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "Database unavailable", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requestLogger logs one line per request through zap.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
