package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/Novice130/At-tayyibun/internal/db"
	"github.com/Novice130/At-tayyibun/internal/models"
	"github.com/Novice130/At-tayyibun/internal/requests"
	"github.com/Novice130/At-tayyibun/internal/validation"
)

// RequestHandler exposes the info request workflow over JSON.
type RequestHandler struct {
	svc *requests.Service
	db  *db.DB
}

// NewRequestHandler creates a new request handler.
func NewRequestHandler(svc *requests.Service, database *db.DB) *RequestHandler {
	return &RequestHandler{svc: svc, db: database}
}

// Create opens a new pending request against another member.
func (h *RequestHandler) Create(c fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var body struct {
		TargetPublicID string   `json:"target_public_id"`
		Share          []string `json:"share"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	targetPublicID, err := uuid.Parse(body.TargetPublicID)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid target_public_id")
	}

	scope, err := models.ParseShareKinds(body.Share)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, err.Error())
	}

	req, err := h.svc.Create(c.Context(), user, targetPublicID, scope)
	if err != nil {
		return mapWorkflowError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status": "ok",
		"data":   req,
	})
}

// Respond records the target's decision on a pending request.
func (h *RequestHandler) Respond(c fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	requestID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request id")
	}

	var body struct {
		Approve bool     `json:"approve"`
		Grant   []string `json:"grant"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	var grant models.ShareScope
	if body.Approve {
		grant, err = models.ParseShareKinds(body.Grant)
		if err != nil {
			return jsonError(c, fiber.StatusBadRequest, err.Error())
		}
	}

	req, err := h.svc.Respond(c.Context(), user, requestID, body.Approve, grant)
	if err != nil {
		return mapWorkflowError(c, err)
	}

	return jsonSuccess(c, req)
}

// Incoming lists requests addressed to the caller, newest first.
func (h *RequestHandler) Incoming(c fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	limit, offset := validation.ClampPage(queryInt(c, "limit", 0), queryInt(c, "offset", 0))

	list, err := h.db.ListIncomingRequests(c.Context(), user.ID, limit, offset)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to fetch requests")
	}
	if list == nil {
		list = []models.InfoRequestWithUser{}
	}
	return jsonSuccess(c, list)
}

// Outgoing lists requests the caller has sent, newest first.
func (h *RequestHandler) Outgoing(c fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	limit, offset := validation.ClampPage(queryInt(c, "limit", 0), queryInt(c, "offset", 0))

	list, err := h.db.ListOutgoingRequests(c.Context(), user.ID, limit, offset)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to fetch requests")
	}
	if list == nil {
		list = []models.InfoRequestWithUser{}
	}
	return jsonSuccess(c, list)
}

// mapWorkflowError translates workflow sentinels onto HTTP status codes.
func mapWorkflowError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, requests.ErrTargetNotFound),
		errors.Is(err, requests.ErrRequestNotFound):
		return jsonError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, requests.ErrSelfRequest),
		errors.Is(err, requests.ErrEmptyScope),
		errors.Is(err, requests.ErrEmptyGrant):
		return jsonError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, requests.ErrActiveRequestExists),
		errors.Is(err, requests.ErrAlreadyProcessed),
		errors.Is(err, requests.ErrCooldownActive):
		return jsonError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, requests.ErrNotRequestTarget):
		// Answer exactly like an unknown request so non-targets cannot
		// probe for request IDs.
		slog.Warn("respond attempt on someone else's request", "path", c.Path())
		return jsonError(c, fiber.StatusNotFound, requests.ErrRequestNotFound.Error())
	case errors.Is(err, requests.ErrRequestExpired):
		return jsonError(c, fiber.StatusGone, err.Error())
	default:
		return jsonError(c, fiber.StatusInternalServerError, "something went wrong")
	}
}
