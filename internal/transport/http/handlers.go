// @title ClubLedger API
// @version 1.0.0
// @description Attendance, match and ranking ledger for multi-tenant sports clubs

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey OperatorToken
// @in header
// @name Authorization

package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/clubledger/clubledger/internal/attendance"
	"github.com/clubledger/clubledger/internal/clock"
	"github.com/clubledger/clubledger/internal/match"
	"github.com/clubledger/clubledger/internal/member"
	"github.com/clubledger/clubledger/internal/operator"
	"github.com/clubledger/clubledger/internal/ranking"
	"github.com/clubledger/clubledger/internal/session"
	"github.com/clubledger/clubledger/internal/tenant"
	"github.com/clubledger/clubledger/internal/visit"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Pinger reports storage health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies are the services the API is served from.
type Dependencies struct {
	Tenants    *tenant.Service
	Resolver   *tenant.Resolver
	Members    *member.Service
	Sessions   *session.Ledger
	Matches    *match.Service
	Duplicates *match.Detector
	Attendance *attendance.Service
	Rankings   *ranking.Aggregator
	Visits     *visit.Service
	Operators  *operator.Tokens
	Calendar   *clock.Calendar
	// Storage is optional; health checks skip it when nil.
	Storage Pinger
}

// Handler holds HTTP handlers and dependencies
type Handler struct {
	tenants    *tenant.Service
	resolver   *tenant.Resolver
	members    *member.Service
	sessions   *session.Ledger
	matches    *match.Service
	duplicates *match.Detector
	attendance *attendance.Service
	rankings   *ranking.Aggregator
	visits     *visit.Service
	operators  *operator.Tokens
	calendar   *clock.Calendar
	storage    Pinger
	validate   *validator.Validate
}

// NewHandler creates a new HTTP handler
func NewHandler(deps Dependencies) *Handler {
	return &Handler{
		tenants:    deps.Tenants,
		resolver:   deps.Resolver,
		members:    deps.Members,
		sessions:   deps.Sessions,
		matches:    deps.Matches,
		duplicates: deps.Duplicates,
		attendance: deps.Attendance,
		rankings:   deps.Rankings,
		visits:     deps.Visits,
		operators:  deps.Operators,
		calendar:   deps.Calendar,
		storage:    deps.Storage,
		validate:   newValidator(),
	}
}

// NewRouter creates a new HTTP router
func NewRouter(h *Handler, rateLimiter *RateLimiter) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(RateLimitMiddleware(rateLimiter))
	r.Use(func(handler http.Handler) http.Handler {
		return otelhttp.NewHandler(handler, "http_request",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})
	r.Use(LoggingMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", h.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.HealthCheck)

		// Operator endpoints span clubs and are never tenant-resolved.
		r.Route("/clubs", func(r chi.Router) {
			r.Use(h.OperatorMiddleware)
			r.Get("/", h.ListClubs)
			r.Get("/{slug}/summary", h.ClubSummary)
		})

		// Tenant-scoped endpoints
		r.Group(func(r chi.Router) {
			r.Use(h.TenantMiddleware)

			r.Route("/users", func(r chi.Router) {
				r.Get("/", h.ListMembers)
				r.Post("/", h.CreateMember)
				r.Get("/with-monthly-stats", h.MonthlyRankings)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.GetMember)
					r.Put("/", h.UpdateMember)
					r.Delete("/", h.DeleteMember)
					r.Get("/stats", h.MemberStats)
					r.Get("/versus/{opponentId}", h.Versus)
				})
			})

			r.Route("/sessions", func(r chi.Router) {
				r.Get("/", h.ListSessions)
				r.Get("/today/current", h.CurrentSession)
				r.Put("/{id}", h.UpdateSession)
			})

			r.Route("/matches", func(r chi.Router) {
				r.Get("/", h.ListMatches)
				r.Post("/", h.CreateMatch)
				r.Post("/check-duplicate", h.CheckDuplicate)
				r.Get("/{id}", h.GetMatch)
				r.Put("/{id}", h.UpdateMatch)
				r.Delete("/{id}", h.DeleteMatch)
				r.Post("/{id}/score", h.UpdateScore)
			})

			r.Route("/attendances", func(r chi.Router) {
				r.Get("/", h.ListAttendances)
				r.Post("/", h.MarkAttendance)
				r.Post("/checkin", h.CheckIn)
			})

			r.Post("/visits", h.RecordVisit)
		})
	})

	return r
}

// HealthCheck returns the health status
// @Summary Health Check
// @Description Checks if the service and its storage are reachable
// @Tags System
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if h.storage != nil {
		if err := h.storage.Ping(r.Context()); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":  "unhealthy",
				"service": "clubledger",
			})
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "clubledger",
	})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
