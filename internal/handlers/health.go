package handlers

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Novice130/At-tayyibun/internal/db"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	db *db.DB
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(database *db.DB) *HealthHandler {
	return &HealthHandler{db: database}
}

// Live always answers 200 while the process is up.
func (h *HealthHandler) Live(c fiber.Ctx) error {
	return jsonSuccess(c, fiber.Map{"alive": true})
}

// Ready answers 200 only when the database is reachable.
func (h *HealthHandler) Ready(c fiber.Ctx) error {
	if err := h.db.Pool.Ping(c.Context()); err != nil {
		return jsonError(c, fiber.StatusServiceUnavailable, "database unreachable")
	}
	return jsonSuccess(c, fiber.Map{"ready": true})
}
