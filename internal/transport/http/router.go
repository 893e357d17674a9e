// Package httptransport assembles the public HTTP surface: shared middleware,
// health and metrics endpoints, and the versioned API routes contributed by
// each bounded context's handler package.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"exportdocs/internal/platform/metrics"
	id "exportdocs/pkg/domain"
	"exportdocs/pkg/platform/httputil"
	authmw "exportdocs/pkg/platform/middleware/auth"
	request "exportdocs/pkg/platform/middleware/request"
)

const healthTimeout = 2 * time.Second

// Registrar mounts a context's routes.
type Registrar interface {
	Register(r chi.Router)
}

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// Deps holds what the router needs. Gatherer defaults to the Prometheus
// default registry.
type Deps struct {
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Validator authmw.JWTValidator
	Gatherer  prometheus.Gatherer
	Checks    map[string]HealthCheck
	Routes    []Registrar
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// NewRouter wires the middleware chain and mounts every registrar under the
// current API version behind bearer authentication.
func NewRouter(deps Deps) http.Handler {
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Time)
	r.Use(request.ClientMetadata)
	r.Use(AccessLog(deps.Logger, deps.Metrics))
	r.Use(Recovery(deps.Logger, deps.Metrics))

	r.Get("/health", handleHealth(deps.Checks))
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route(id.CurrentVersion().Prefix(), func(api chi.Router) {
		api.Use(authmw.RequireAuth(deps.Validator, deps.Logger))
		for _, reg := range deps.Routes {
			reg.Register(api)
		}
	})
	return r
}

func handleHealth(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		resp := HealthResponse{Status: "ok"}
		status := http.StatusOK
		if len(checks) > 0 {
			resp.Checks = make(map[string]string, len(checks))
		}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}
