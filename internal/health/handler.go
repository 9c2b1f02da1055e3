// Package health serves liveness and readiness probes.
package health

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"portfolio-api/internal/httputil"
	"portfolio-api/internal/metrics"

	"github.com/go-chi/chi/v5"
)

const checkTimeout = 2 * time.Second

// CheckFunc reports whether a dependency is reachable.
type CheckFunc func(ctx context.Context) error

type Handler struct {
	checks  map[string]CheckFunc
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewHandler(logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		checks:  make(map[string]CheckFunc),
		logger:  logger,
		metrics: m,
	}
}

// AddCheck registers a dependency consulted by /ready.
func (h *Handler) AddCheck(name string, check CheckFunc) {
	h.checks[name] = check
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/health", h.Health)
	router.Get("/ready", h.Ready)
}

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.RespondWithJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make(map[string]string, len(names))
	ready := true
	for _, name := range names {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		start := time.Now()
		err := h.checks[name](ctx)
		cancel()

		h.metrics.Health.RecordDependencyCheck(r.Context(), name, time.Since(start), err)
		if err != nil {
			h.logger.WarnContext(r.Context(), "readiness check failed", "dependency", name, "error", err)
			results[name] = "down"
			ready = false
			continue
		}
		results[name] = "up"
	}

	if !ready {
		httputil.RespondWithJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Checks: results})
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, HealthResponse{Status: "ready", Checks: results})
}
