package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/exterminus/internal/authz"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterConfig struct {
	Auth        *TokenAuthenticator
	Policy      PolicyChecker
	Jobs        *JobHandler
	Calendar    *CalendarHandler
	Locks       *LockHandler
	TimeOff     *TimeOffHandler
	Technicians *TechnicianHandler
	Health      Pinger
	Metrics     *Metrics
	Gatherer    prometheus.Gatherer
	Logger      *slog.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	logger := defaultLogger(cfg.Logger)
	responder := newResponder(logger)

	r := chi.NewRouter()
	r.Use(RequestLogger(logger))
	r.Use(Recoverer(logger))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if cfg.Health != nil {
			if err := cfg.Health.Ping(req.Context()); err != nil {
				responder.loggerFor(req.Context()).WarnContext(req.Context(), "health check failed", "error", err)
				responder.writeJSON(req.Context(), w, http.StatusServiceUnavailable, errorResponse{Message: errStorageDegraded.Error()})
				return
			}
		}
		responder.writeJSON(req.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(RequireToken(cfg.Auth, logger))
		allow := func(resource, action string) func(http.Handler) http.Handler {
			return RequirePermission(cfg.Policy, resource, action, logger)
		}

		if cfg.Calendar != nil {
			r.With(allow(authz.ResourceCalendar, authz.ActionRead)).Get("/calendar/{year}/{month}", cfg.Calendar.Month)
			r.With(allow(authz.ResourceCalendar, authz.ActionRead)).Get("/calendar/{year}/{month}/export.xlsx", cfg.Calendar.Export)
			r.With(allow(authz.ResourceCalendar, authz.ActionRead)).Get("/calendar/days/{date}", cfg.Calendar.Day)
		}

		if cfg.Jobs != nil {
			r.Route("/jobs", func(r chi.Router) {
				r.With(allow(authz.ResourceJobs, authz.ActionCreate)).Post("/", cfg.Jobs.Create)
				r.With(allow(authz.ResourceJobs, authz.ActionRead)).Get("/{id}", cfg.Jobs.Get)
				r.With(allow(authz.ResourceJobs, authz.ActionEdit)).Put("/{id}", cfg.Jobs.Edit)
				r.With(allow(authz.ResourceJobs, authz.ActionDelete)).Delete("/{id}", cfg.Jobs.Delete)
				r.With(allow(authz.ResourceJobs, authz.ActionMove)).Post("/{id}/move", cfg.Jobs.Move)
			})
		}

		if cfg.Locks != nil {
			r.With(allow(authz.ResourceLocks, authz.ActionToggle)).Post("/locks/{date}/toggle", cfg.Locks.Toggle)
		}

		if cfg.TimeOff != nil {
			r.With(allow(authz.ResourceTimeOff, authz.ActionCreate)).Post("/timeoff", cfg.TimeOff.Create)
			r.With(allow(authz.ResourceTimeOff, authz.ActionDelete)).Delete("/timeoff/{id}", cfg.TimeOff.Delete)
		}

		if cfg.Technicians != nil {
			r.With(allow(authz.ResourceTechnicians, authz.ActionRead)).Get("/technicians", cfg.Technicians.List)
			r.With(allow(authz.ResourceUsers, authz.ActionPromote)).Put("/users/{id}/role", cfg.Technicians.PromoteUser)
		}
	})

	return r
}
