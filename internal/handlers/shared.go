package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Novice130/At-tayyibun/internal/requests"
)

// SharedHandler serves share token redemption. The endpoint is public:
// possession of the token is the credential.
type SharedHandler struct {
	svc *requests.Service
}

// NewSharedHandler creates a new shared resource handler.
func NewSharedHandler(svc *requests.Service) *SharedHandler {
	return &SharedHandler{svc: svc}
}

// Redeem consumes a share token and returns the disclosed resource.
// Unknown, spent and expired tokens all answer 404 with the same message.
func (h *SharedHandler) Redeem(c fiber.Ctx) error {
	token := c.Params("token")
	if token == "" {
		return jsonError(c, fiber.StatusNotFound, requests.ErrTokenInvalid.Error())
	}

	resource, err := h.svc.Redeem(c.Context(), token)
	if err != nil {
		if errors.Is(err, requests.ErrTokenInvalid) {
			return jsonError(c, fiber.StatusNotFound, err.Error())
		}
		return jsonError(c, fiber.StatusInternalServerError, "something went wrong")
	}

	// Signed URLs and contact details must never be cached by intermediaries.
	c.Set("Cache-Control", "no-store")
	return jsonSuccess(c, resource)
}
