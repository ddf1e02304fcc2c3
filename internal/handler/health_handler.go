package handler

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck is a named dependency probed by the health endpoint.
type HealthCheck struct {
	Name   string
	Pinger Pinger
}

type HealthHandler struct {
	checks  []HealthCheck
	timeout time.Duration
	logger  *zap.Logger
}

func NewHealthHandler(logger *zap.Logger, checks ...HealthCheck) *HealthHandler {
	return &HealthHandler{
		checks:  checks,
		timeout: 2 * time.Second,
		logger:  logger.Named("HealthHandler"),
	}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for _, c := range h.checks {
		if err := c.Pinger.Ping(ctx); err != nil {
			h.logger.Warn("Health check failed", zap.String("check", c.Name), zap.Error(err))
			results[c.Name] = "error"
			status = http.StatusServiceUnavailable
			continue
		}
		results[c.Name] = "ok"
	}

	result := "ok"
	if status != http.StatusOK {
		result = "degraded"
	}
	writeJSON(w, status, map[string]any{
		"status": result,
		"checks": results,
	})
}
