package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/student-ally/ally-core/internal/auth"
)

// healthCheckTimeout bounds the dependency checks behind /health.
const healthCheckTimeout = 2 * time.Second

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	if s.metrics != nil {
		r.Use(s.metricsMiddleware)
	}
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		path := s.metCfg.Path
		if path == "" {
			path = "/metrics"
		}
		r.Method(http.MethodGet, path, s.metrics.handler())
	}

	// Standard users
	r.Route("/api/auth", func(r chi.Router) {
		r.With(s.rateLimitMiddleware).Post("/register", s.handleRegister)
		r.With(s.rateLimitMiddleware).Post("/login", s.handleLogin)
		r.Post("/refresh", s.handleRefresh)
		r.Get("/me", s.handleMe)
	})

	// Administrators
	r.Route("/admin", func(r chi.Router) {
		r.With(s.rateLimitMiddleware).Post("/auth/login", s.handleAdminLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Group(func(r chi.Router) {
				r.Use(s.requireRoles(auth.SuperadminOnly...))
				r.Post("/register", s.handleAdminRegister)
				r.Get("/all-users", s.handleAllUsers)
				r.Delete("/delete/{id}", s.handleDeleteAdmin)
				r.Get("/audit-logs", s.handleListAuditLogs)
			})

			r.With(s.requireRoles(auth.StaffRoles...)).Get("/filtered", s.handleFilteredAdmins)
		})
	})

	r.Route("/alumni", func(r chi.Router) {
		r.Get("/", s.handleListAlumni)
		r.Post("/", s.handleCreateAlumni)
		r.Get("/{id}", s.handleGetAlumni)
		r.Put("/{id}", s.handleUpdateAlumni)
		r.Delete("/{id}", s.handleDeleteAlumni)
	})

	r.Route("/jobs", func(r chi.Router) {
		r.Get("/", s.handleListJobs)
		r.Post("/", s.handleCreateJob)
		r.Get("/{id}", s.handleGetJob)
		r.Delete("/{id}", s.handleDeleteJob)
	})

	r.Route("/events", func(r chi.Router) {
		r.Get("/", s.handleListEvents)
		r.Post("/", s.handleCreateEvent)
		r.Get("/{id}", s.handleGetEvent)
		r.Put("/{id}", s.handleUpdateEvent)
		r.Delete("/{id}", s.handleDeleteEvent)
	})

	r.Route("/donations", func(r chi.Router) {
		r.Get("/", s.handleListDonations)
		r.Post("/", s.handleCreateDonation)

		r.Post("/mentorship", s.handleCreateMentorship)
		r.With(s.authenticate, s.requireRoles(auth.StaffRoles...)).
			Get("/mentorship", s.handleListMentorships)

		r.Get("/{id}", s.handleGetDonation)
		r.With(s.authenticate, s.requireRoles(auth.DonationEditors...)).
			Put("/{id}", s.handleAddRaised)
		r.With(s.authenticate, s.requireRoles(auth.SuperadminOnly...)).
			Delete("/{id}", s.handleDeleteDonation)
	})

	r.Route("/success", func(r chi.Router) {
		r.Get("/", s.handleListStories)
		r.Post("/", s.handleCreateStory)
		r.Get("/{id}", s.handleGetStory)
		r.Delete("/{id}", s.handleDeleteStory)
	})

	return r
}

// handleRoot answers plain-text liveness probes.
func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	//nolint:errcheck // Best-effort write to response
	w.Write([]byte("Backend is running"))
}

// healthResponse is the /health body. Checks names each configured
// dependency with "ok" or "unavailable".
type healthResponse struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// handleHealth reports server health. A failing database answers 503; a
// failing broker or time-series store only marks the server degraded.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	resp := healthResponse{
		Status:  "OK",
		Message: "Server is running smoothly",
		Checks:  map[string]string{},
	}

	if s.db != nil {
		if err := s.db.HealthCheck(ctx); err != nil {
			s.logger.Error("health check: database unavailable", "error", err)
			resp.Checks["database"] = "unavailable"
			resp.Status = "DEGRADED"
			resp.Message = "Database unavailable"
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
		resp.Checks["database"] = "ok"
	}

	optional := []struct {
		name string
		dep  any
	}{
		{"mqtt", s.publisher},
		{"influxdb", s.engagement},
	}
	for _, o := range optional {
		hc, ok := o.dep.(HealthChecker)
		if !ok {
			continue
		}
		if err := hc.HealthCheck(ctx); err != nil {
			s.logger.Warn("health check: dependency unavailable", "dependency", o.name, "error", err)
			resp.Checks[o.name] = "unavailable"
			resp.Status = "DEGRADED"
			resp.Message = "Server is running with degraded dependencies"
			continue
		}
		resp.Checks[o.name] = "ok"
	}

	writeJSON(w, http.StatusOK, resp)
}
