package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/mvirta/postura-platform/pkg/mqtt"
	"github.com/mvirta/postura-platform/pkg/postgres"
	"github.com/mvirta/postura-platform/pkg/redis"
)

// Checker provides health check functionality for agents. The postgres
// client may be nil for agents that do not use the database.
type Checker struct {
	mqtt     mqtt.Client
	redis    redis.Client
	postgres postgres.Client
	logger   *slog.Logger
}

// NewChecker creates a new health checker with the given dependencies
func NewChecker(mqttClient mqtt.Client, redisClient redis.Client, pgClient postgres.Client, logger *slog.Logger) *Checker {
	return &Checker{
		mqtt:     mqttClient,
		redis:    redisClient,
		postgres: pgClient,
		logger:   logger,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp string    `json:"timestamp"`
	Services  *Services `json:"services,omitempty"`
}

// Services represents the status of external dependencies
type Services struct {
	Redis    string `json:"redis"`
	MQTT     string `json:"mqtt"`
	Postgres string `json:"postgres,omitempty"`
}

// HandlerFunc returns an HTTP handler function for health checks
// Returns 200 if process is alive without checking dependencies
func (h *Checker) HandlerFunc() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Simple health check - just return OK if process is alive
		// This keeps the health check fast for Nomad/Consul
		response := HealthResponse{
			Status:    "ok",
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode health response", "error", err)
		}
	}
}

// DetailedHandlerFunc returns a handler that checks all dependencies
// This is available but not used by default to keep health checks fast
func (h *Checker) DetailedHandlerFunc() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services := &Services{
			Redis: "unknown",
			MQTT:  "unknown",
		}

		// Check MQTT connection
		if h.mqtt != nil && h.mqtt.IsConnected() {
			services.MQTT = "connected"
		} else {
			services.MQTT = "disconnected"
		}

		// Check Redis connection
		// Note: We don't actually ping Redis here to keep it fast
		// In production, you might want to cache the last successful ping
		if h.redis != nil {
			services.Redis = "connected"
		} else {
			services.Redis = "disconnected"
		}

		// Check Postgres when the agent carries one. The detailed endpoint
		// is the slow path, so an actual ping is acceptable here.
		if h.postgres != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			if status, err := h.postgres.HealthCheck(ctx); err == nil && status.Connected {
				services.Postgres = "connected"
			} else {
				services.Postgres = "disconnected"
			}
		}

		// Determine overall status
		status := "healthy"
		statusCode := http.StatusOK

		if services.Redis == "disconnected" || services.MQTT == "disconnected" || services.Postgres == "disconnected" {
			status = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		response := HealthResponse{
			Status:    status,
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			Services:  services,
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)

		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode health response", "error", err)
		}
	}
}
