package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/wonny/compsync/pkg/database"
	"github.com/wonny/compsync/pkg/logger"
)

const healthCheckTimeout = 3 * time.Second

// DatabaseChecker reports Postgres health
type DatabaseChecker interface {
	HealthCheck(ctx context.Context) (*database.HealthStatus, error)
}

// Pinger reports Redis health
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports liveness plus the state of the optional stores.
// A failing store marks the service "degraded" but still answers 200:
// the file-backed record keeps being served without them.
type HealthHandler struct {
	db     DatabaseChecker // nil when DATABASE_URL is unset
	redis  Pinger          // nil when REDIS_ENABLED=false
	logger *logger.Logger
}

// NewHealthHandler creates a new health handler. db and redis may be nil.
func NewHealthHandler(db DatabaseChecker, redis Pinger, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		redis:  redis,
		logger: log,
	}
}

type redisHealth struct {
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

// GetHealth returns service health
// GET /health
func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"status":  "ok",
		"service": "compsync",
	}

	if h.db == nil && h.redis == nil {
		respondJSON(w, http.StatusOK, body)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	checks := map[string]interface{}{}
	healthy := true

	if h.db != nil {
		status, err := h.db.HealthCheck(ctx)
		if err != nil {
			h.logger.WithError(err).Warn("Database health check failed")
			healthy = false
		}
		checks["database"] = status
	}

	if h.redis != nil {
		rh := redisHealth{Healthy: true}
		if err := h.redis.Ping(ctx); err != nil {
			h.logger.WithError(err).Warn("Redis health check failed")
			rh = redisHealth{Healthy: false, Error: err.Error()}
			healthy = false
		}
		checks["redis"] = rh
	}

	if !healthy {
		body["status"] = "degraded"
	}
	body["checks"] = checks

	respondJSON(w, http.StatusOK, body)
}
