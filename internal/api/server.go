// Package api provides the hackgrid HTTP server: a JSON API over the
// engagement services, /health and the Prometheus /metrics endpoint.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/hackgrid/hackgrid/internal/app/engagement"
	"github.com/hackgrid/hackgrid/internal/domain"
	"github.com/hackgrid/hackgrid/internal/health"
	"github.com/hackgrid/hackgrid/internal/infra/metrics"
)

// Server is the hackgrid HTTP API server.
type Server struct {
	engine         *engagement.Engine
	checker        *health.Checker
	metricsEnabled bool
	requestLog     bool
	corsOrigins    []string
	now            func() time.Time
}

// NewServer creates a new API server.
func NewServer(engine *engagement.Engine) *Server {
	return &Server{
		engine:      engine,
		corsOrigins: []string{"*"},
		now:         time.Now,
	}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// EnableRequestLog logs every request through chi's logger.
func (s *Server) EnableRequestLog() { s.requestLog = true }

// SetHealthChecker reports checker results on /health.
func (s *Server) SetHealthChecker(c *health.Checker) { s.checker = c }

// SetCORSOrigins restricts the allowed browser origins.
func (s *Server) SetCORSOrigins(origins []string) {
	if len(origins) > 0 {
		s.corsOrigins = origins
	}
}

// SetClock overrides the time source. Tests only.
func (s *Server) SetClock(now func() time.Time) { s.now = now }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if s.requestLog {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.New(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler)
	r.Use(instrument)

	r.Get("/health", s.handleHealth)

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/users/{id}", func(r chi.Router) {
			r.Get("/", s.handleProfile)
			r.Post("/login", s.handleLogin)
			r.Post("/xp", s.handleGrantXP)
			r.Post("/solves", s.handleSolve)
			r.Get("/missions", s.handleMissions)
			r.Post("/missions/{mid}/claim", s.handleClaimMission)
			r.Get("/achievements", s.handleAchievements)
			r.Post("/achievements/check", s.handleCheckAchievements)
			r.Get("/ledger", s.handleLedger)
			r.Get("/notifications", s.handleNotifications)
			r.Post("/notifications/{nid}/shown", s.handleNotificationShown)
		})
		r.Get("/leaderboard", s.handleLeaderboard)
		r.Get("/level/{xp}", s.handleLevel)
		r.Get("/catalog/achievements", s.handleAchievementCatalog)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.checker == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	status, code := "ok", http.StatusOK
	if !s.checker.IsHealthy() {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]interface{}{
		"status": status,
		"checks": s.checker.Statuses(),
	})
}

// instrument records request latency by route pattern.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		metrics.HTTPRequestDuration.
			WithLabelValues(route, r.Method, strconv.Itoa(ww.Status())).
			Observe(time.Since(start).Seconds())
	})
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg, typ string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    typ,
		},
	})
}

// writeDomainError maps a service error to its HTTP status.
func writeDomainError(w http.ResponseWriter, err error) {
	status, typ := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Printf("[api] %v", err)
		msg = "internal error"
	}
	writeError(w, status, msg, typ)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrUnknownAction),
		errors.Is(err, domain.ErrUnknownMissionType),
		errors.Is(err, domain.ErrUnknownConditionType):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrMissionNotFound),
		errors.Is(err, domain.ErrNotificationNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrMissionAlreadyClaimed),
		errors.Is(err, domain.ErrPuzzleAlreadySolved):
		return http.StatusConflict, "conflict"
	case errors.Is(err, domain.ErrMissionNotCompleted):
		return http.StatusUnprocessableEntity, "not_completed"
	case errors.Is(err, domain.ErrMissionExpired):
		return http.StatusGone, "expired"
	}
	return http.StatusInternalServerError, "server_error"
}
