package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Skryldev/jobboard/db"
)

// HealthHandler reports store reachability, pool usage and statement
// counters.
type HealthHandler struct {
	db    *db.DB
	stats *db.QueryStats
}

// Check handles GET /healthz. It answers 503 when the store is unreachable.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	status, state := fiber.StatusOK, "ok"
	if err := h.db.Ping(c.UserContext()); err != nil {
		status, state = fiber.StatusServiceUnavailable, "unavailable"
	}

	pool := h.db.Stats()
	body := fiber.Map{
		"status": state,
		"pool": fiber.Map{
			"open":      pool.OpenConnections,
			"inUse":     pool.InUse,
			"idle":      pool.Idle,
			"waitCount": pool.WaitCount,
		},
	}
	if h.stats != nil {
		body["queries"] = h.stats.Snapshot()
	}
	return c.Status(status).JSON(body)
}
