package rest

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

const readinessTimeout = 2 * time.Second

// ReadinessCheck is one dependency probed by /readyz.
type ReadinessCheck struct {
	Check func(ctx context.Context) error
	Name  string
}

// HealthHandler provides HTTP health check endpoints for the risk service.
type HealthHandler struct {
	logger       *slog.Logger
	startTime    time.Time
	service      string
	modelVersion string
	checks       []ReadinessCheck
}

// NewHealthHandler creates a new health check handler.
func NewHealthHandler(service, modelVersion string, logger *slog.Logger, checks ...ReadinessCheck) *HealthHandler {
	return &HealthHandler{
		logger:       logger,
		startTime:    time.Now(),
		service:      service,
		modelVersion: modelVersion,
		checks:       checks,
	}
}

// HealthResponse is the JSON response for health checks.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Uptime  string `json:"uptime"`
}

// ReadinessResponse is the JSON response for readiness checks.
type ReadinessResponse struct {
	Checks       map[string]string `json:"checks"`
	Status       string            `json:"status"`
	Service      string            `json:"service"`
	ModelVersion string            `json:"model_version"`
}

// RegisterRoutes registers health endpoints on the provided ServeMux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
}

// Healthz handles liveness probe requests.
func (h *HealthHandler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: h.service,
		Uptime:  time.Since(h.startTime).Round(time.Second).String(),
	})
}

// Readyz handles readiness probe requests. Artifacts are loaded before the
// server starts, so only the optional sinks can make the service not ready.
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	resp := ReadinessResponse{
		Status:       "ready",
		Service:      h.service,
		ModelVersion: h.modelVersion,
		Checks:       map[string]string{"artifacts": "ok"},
	}
	code := http.StatusOK

	for _, c := range h.checks {
		if err := c.Check(ctx); err != nil {
			h.logger.WarnContext(ctx, "readiness check failed", "check", c.Name, "error", err)
			resp.Checks[c.Name] = err.Error()
			resp.Status = "not_ready"
			code = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[c.Name] = "ok"
	}

	writeJSON(w, code, resp)
}
