package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/jwebster45206/iwc-bridge/internal/services"
)

const serviceName = "iwc-bridge"

type HealthResponse struct {
	Status     string         `json:"status"`
	Timestamp  time.Time      `json:"timestamp"`
	Service    string         `json:"service"`
	Components map[string]any `json:"components"`
}

// HealthHandler reports the state of the optional collaborators. A nil
// checker is reported as "disabled" and does not degrade the service.
type HealthHandler struct {
	redis  services.HealthChecker
	wallet services.HealthChecker
	logger *slog.Logger
}

func NewHealthHandler(redis, wallet services.HealthChecker, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		redis:  redis,
		wallet: wallet,
		logger: logger,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	h.logger.Debug("Health check requested",
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr)

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	components := make(map[string]any)
	overallStatus := "healthy"

	for name, checker := range map[string]services.HealthChecker{
		"redis":  h.redis,
		"wallet": h.wallet,
	} {
		if checker == nil {
			components[name] = "disabled"
			continue
		}
		if err := checker.Ping(ctx); err != nil {
			h.logger.Warn("Health check failed", "component", name, "error", err)
			components[name] = "unhealthy"
			overallStatus = "degraded"
			continue
		}
		components[name] = "healthy"
	}

	response := HealthResponse{
		Status:     overallStatus,
		Timestamp:  time.Now(),
		Service:    serviceName,
		Components: components,
	}

	statusCode := http.StatusOK
	if overallStatus != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Error encoding health response",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path)
	}
}
