package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const healthCheckTimeout = 2 * time.Second

// Pinger checks that a dependency is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingerFunc adapts a function to Pinger
type PingerFunc func(ctx context.Context) error

// PingContext calls f(ctx)
func (f PingerFunc) PingContext(ctx context.Context) error {
	return f(ctx)
}

type healthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// HealthHandler reports dependency health and exposes Prometheus metrics
type HealthHandler struct {
	BaseHandler
	checks      map[string]Pinger
	promHandler http.Handler
	metricsMw   func(http.Handler) http.Handler
}

// NewHealthHandler creates a new health handler. "checks" maps dependency names to their pingers.
// metricsMw guards /metrics; nil leaves the endpoint open.
func NewHealthHandler(checks map[string]Pinger, logger *zap.Logger, metricsMw func(http.Handler) http.Handler) *HealthHandler {
	return &HealthHandler{
		BaseHandler: newBaseHandler(logger),
		checks:      checks,
		promHandler: promhttp.Handler(),
		metricsMw:   orPassthrough(metricsMw),
	}
}

// RegisterRoutes registers the health and metrics routes
func (h *HealthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.Health)
	r.With(h.metricsMw).Handle("/metrics", h.promHandler)
}

// Health handles GET /health
// @Summary Health check
// @Description Ping the database and Redis
// @Tags health
// @Produce json
// @Success 200 {object} healthResponse
// @Failure 503 {object} healthResponse
// @Router /health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	resp := healthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    make(map[string]string, len(h.checks)),
	}

	for name, pinger := range h.checks {
		if err := pinger.PingContext(ctx); err != nil {
			h.Logger.Warn("health check failed", zap.String("dependency", name), zap.Error(err))
			resp.Checks[name] = "fail"
			resp.Status = "fail"
			continue
		}
		resp.Checks[name] = "ok"
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	h.RespondJSON(w, status, resp)
}
