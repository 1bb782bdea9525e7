package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/pratik-mahalle/emsdispatch/internal/pkg/errors"
	"github.com/pratik-mahalle/emsdispatch/internal/pkg/logger"
	"github.com/pratik-mahalle/emsdispatch/internal/pkg/utils"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	db     *sql.DB
	redis  goredis.Cmdable
	logger *logger.Logger
}

// NewHealthHandler creates a new health handler. redis may be nil.
func NewHealthHandler(db *sql.DB, redis goredis.Cmdable, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		redis:  redis,
		logger: log,
	}
}

// Healthz handles liveness probe
// @Summary Liveness probe
// @Description Check if the application is alive
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string "Application is alive"
// @Router /healthz [get]
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	utils.WriteSuccess(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Readyz handles readiness probe
// @Summary Readiness probe
// @Description Check if the application is ready to serve requests
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string "Application is ready"
// @Failure 503 {object} utils.ErrorResponse "Service unavailable"
// @Router /readyz [get]
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{
		"status":   "ready",
		"database": "connected",
	}

	if err := h.db.PingContext(ctx); err != nil {
		h.logger.ErrorWithErr(err, "Database ping failed")
		utils.WriteError(w, errors.ServiceUnavailable("Database connection failed"))
		return
	}

	// The token cache falls back to the database, so Redis is reported but not required.
	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			h.logger.WarnWithErr(err, "Redis ping failed")
			status["cache"] = "degraded"
		} else {
			status["cache"] = "connected"
		}
	}

	utils.WriteSuccess(w, http.StatusOK, status)
}
