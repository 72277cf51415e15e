package handlers

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v3"

	"github.com/Novice130/At-tayyibun/internal/config"
	"github.com/Novice130/At-tayyibun/internal/jobs"
)

// JobsHandler exposes the background passes to an external scheduler.
// Guarded by a shared token so only the scheduler can trigger them; the
// passes are idempotent, so overlap with the internal ticker is harmless.
type JobsHandler struct {
	expiry  *jobs.RequestExpiry
	cleanup *jobs.TokenCleanup
	cfg     *config.Config
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(expiry *jobs.RequestExpiry, cleanup *jobs.TokenCleanup, cfg *config.Config) *JobsHandler {
	return &JobsHandler{expiry: expiry, cleanup: cleanup, cfg: cfg}
}

func (h *JobsHandler) authorized(c fiber.Ctx) bool {
	if h.cfg.JobToken == "" {
		return false
	}
	provided := c.Get("X-Job-Token")
	return subtle.ConstantTimeCompare([]byte(provided), []byte(h.cfg.JobToken)) == 1
}

// RunRequestExpiry triggers one expiry sweep and reports how many requests
// were processed.
func (h *JobsHandler) RunRequestExpiry(c fiber.Ctx) error {
	if !h.authorized(c) {
		return jsonError(c, fiber.StatusUnauthorized, "invalid job token")
	}

	processed, err := h.expiry.RunOnce(c.Context())
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "sweep failed")
	}

	return jsonSuccess(c, fiber.Map{"processed": processed})
}

// RunTokenCleanup triggers one token GC pass.
func (h *JobsHandler) RunTokenCleanup(c fiber.Ctx) error {
	if !h.authorized(c) {
		return jsonError(c, fiber.StatusUnauthorized, "invalid job token")
	}

	deleted, err := h.cleanup.RunOnce(c.Context())
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "cleanup failed")
	}

	return jsonSuccess(c, fiber.Map{"deleted": deleted})
}
