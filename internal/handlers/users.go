package handlers

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/Novice130/At-tayyibun/internal/db"
	"github.com/Novice130/At-tayyibun/internal/models"
	"github.com/Novice130/At-tayyibun/internal/validation"
)

// UserHandler handles admin user management.
type UserHandler struct {
	db *db.DB
}

// NewUserHandler creates a new user handler.
func NewUserHandler(database *db.DB) *UserHandler {
	return &UserHandler{db: database}
}

// List returns all users (admin only).
func (h *UserHandler) List(c fiber.Ctx) error {
	limit, offset := validation.ClampPage(queryInt(c, "limit", 0), queryInt(c, "offset", 0))

	users, err := h.db.ListUsers(c.Context(), limit, offset)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to fetch users")
	}
	if users == nil {
		users = []models.User{}
	}
	return jsonSuccess(c, users)
}

// UpdateRole updates a user's role (admin only).
func (h *UserHandler) UpdateRole(c fiber.Ctx) error {
	currentUser := c.Locals("user").(*models.User)

	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid user id")
	}

	var body struct {
		Role string `json:"role"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if body.Role != models.RoleUser && body.Role != models.RoleAdmin {
		return jsonError(c, fiber.StatusBadRequest, "invalid role")
	}

	if userID == currentUser.ID && body.Role != models.RoleAdmin {
		return jsonError(c, fiber.StatusBadRequest, "cannot change your own role")
	}

	if err := h.db.UpdateUserRole(c.Context(), userID, body.Role); err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			return jsonError(c, fiber.StatusNotFound, "user not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to update role")
	}

	return jsonSuccess(c, fiber.Map{"message": "role updated successfully"})
}

// Deactivate soft-disables a user account (admin only). The profile stays in
// the database but drops out of browse, requests and redemptions.
func (h *UserHandler) Deactivate(c fiber.Ctx) error {
	currentUser := c.Locals("user").(*models.User)

	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid user id")
	}

	if userID == currentUser.ID {
		return jsonError(c, fiber.StatusBadRequest, "cannot deactivate your own account")
	}

	if err := h.db.SetUserActive(c.Context(), userID, false); err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			return jsonError(c, fiber.StatusNotFound, "user not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to deactivate user")
	}

	return jsonSuccess(c, fiber.Map{"message": "user deactivated"})
}

// Reactivate re-enables a user account (admin only).
func (h *UserHandler) Reactivate(c fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid user id")
	}

	if err := h.db.SetUserActive(c.Context(), userID, true); err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			return jsonError(c, fiber.StatusNotFound, "user not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to reactivate user")
	}

	return jsonSuccess(c, fiber.Map{"message": "user reactivated"})
}

// Me returns the authenticated caller's own account.
func (h *UserHandler) Me(c fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	return jsonSuccess(c, user)
}
