package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/upb/hybrid-summarizer/utils"
	"go.uber.org/zap"
)

// HealthChecker is implemented by dependencies that can report their own health
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	db     HealthChecker
	remote string
	logger *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. db may be nil when history is
// disabled and remote is "" when no remote provider is configured.
func NewHealthHandler(db HealthChecker, remote string, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		remote: remote,
		logger: logger,
	}
}

// HandleHealth handles GET /healthz
// Liveness check - always returns 200 if the process is serving
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleReadiness handles GET /readyz
// The database gates readiness. A missing remote provider only degrades it since
// every request can still be served locally.
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	status := "ok"
	httpStatus := http.StatusOK

	switch {
	case h.db == nil:
		checks["database"] = "disabled"
	default:
		if err := h.db.HealthCheck(ctx); err != nil {
			h.logger.Warn("database health check failed", zap.Error(err))
			checks["database"] = "unhealthy"
			status = "unhealthy"
			httpStatus = http.StatusServiceUnavailable
		} else {
			checks["database"] = "healthy"
		}
	}

	if h.remote == "" {
		checks["remote"] = "not_configured"
		if status == "ok" {
			status = "degraded"
		}
	} else {
		checks["remote"] = h.remote
	}
	checks["local"] = "ready"

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}

	if err := utils.WriteJSON(w, httpStatus, response); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}
