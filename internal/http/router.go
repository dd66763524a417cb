package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	platformmetrics "notamcore/internal/platform/metrics"
	"notamcore/pkg/platform/httputil"
	"notamcore/pkg/platform/middleware/requestid"
	"notamcore/pkg/platform/middleware/requesttime"
)

// HealthCheck reports whether one backing dependency is reachable.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Registrar mounts a module's routes.
type Registrar interface {
	Register(r chi.Router)
}

// Config lists what the router serves.
type Config struct {
	Modules      []Registrar
	Metrics      *platformmetrics.Metrics
	HealthChecks []HealthCheck
}

// NewRouter wires middleware, the operational endpoints and every module.
func NewRouter(cfg Config) http.Handler {
	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(cfg.Metrics.Middleware)

	r.Get("/health", healthHandler(cfg.HealthChecks))
	r.Handle("/metrics", promhttp.Handler())

	for _, m := range cfg.Modules {
		m.Register(r)
	}
	return r
}

func healthHandler(checks []HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]string{"status": "ok"}
		for _, c := range checks {
			if err := c.Check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
				body[c.Name] = err.Error()
				continue
			}
			body[c.Name] = "ok"
		}
		httputil.WriteJSON(w, status, body)
	}
}
