package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/focusarena/focusarena/internal/infrastructure/persistence/postgres"
	"github.com/focusarena/focusarena/internal/infrastructure/persistence/redis"
)

// HealthHandler serves the liveness/readiness probe.
type HealthHandler struct {
	db      *postgres.Connection
	cache   *redis.Cache
	version string
}

// NewHealthHandler creates a HealthHandler. cache may be nil.
func NewHealthHandler(db *postgres.Connection, cache *redis.Cache, version string) *HealthHandler {
	return &HealthHandler{db: db, cache: cache, version: version}
}

// Check reports the health of the service and its backends. A failing
// database makes the whole check fail with 503; the cache is optional and
// only reported.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	status := fiber.StatusOK
	dbStatus := "ok"

	if err := h.db.Ping(c.Context()); err != nil {
		status = fiber.StatusServiceUnavailable
		dbStatus = "unreachable"
	}

	cacheStatus := "disabled"
	if h.cache != nil {
		cacheStatus = "ok"
		if err := h.cache.Ping(c.Context()); err != nil {
			cacheStatus = "unreachable"
		}
	}

	resp := fiber.Map{
		"status":   "ok",
		"version":  h.version,
		"database": dbStatus,
		"cache":    cacheStatus,
	}
	if stats := h.db.Stats(); stats != nil {
		resp["pool"] = fiber.Map{
			"acquired": stats.AcquiredConns(),
			"idle":     stats.IdleConns(),
			"total":    stats.TotalConns(),
			"max":      stats.MaxConns(),
		}
	}
	if status != fiber.StatusOK {
		resp["status"] = "degraded"
	}

	return c.Status(status).JSON(resp)
}
