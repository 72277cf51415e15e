package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/Novice130/At-tayyibun/internal/config"
	"github.com/Novice130/At-tayyibun/internal/db"
	"github.com/Novice130/At-tayyibun/internal/models"
	"github.com/Novice130/At-tayyibun/internal/storage"
)

// maxPhotosPerUser caps the gallery size.
const maxPhotosPerUser = 6

var allowedPhotoTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// PhotoHandler manages the photo upload lifecycle: presign, confirm, promote,
// delete. Bytes never pass through this server; clients PUT straight to
// object storage.
type PhotoHandler struct {
	db    *db.DB
	store *storage.PhotoStore
	cfg   *config.Config
}

// NewPhotoHandler creates a new photo handler.
func NewPhotoHandler(database *db.DB, store *storage.PhotoStore, cfg *config.Config) *PhotoHandler {
	return &PhotoHandler{db: database, store: store, cfg: cfg}
}

// Create registers a pending photo and returns a presigned upload URL.
func (h *PhotoHandler) Create(c fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var body struct {
		Filename    string `json:"filename"`
		ContentType string `json:"content_type"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if !allowedPhotoTypes[strings.ToLower(body.ContentType)] {
		return jsonError(c, fiber.StatusBadRequest, "content type must be image/jpeg, image/png or image/webp")
	}

	existing, err := h.db.ListPhotosByUser(c.Context(), user.ID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to create photo")
	}
	if len(existing) >= maxPhotosPerUser {
		return jsonError(c, fiber.StatusBadRequest, "photo limit reached")
	}

	photo := &models.Photo{
		UserID:      user.ID,
		ObjectKey:   storage.ObjectKey(user.ID, uuid.New(), body.Filename),
		ContentType: body.ContentType,
	}
	if err := h.db.CreatePhoto(c.Context(), photo); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to create photo")
	}

	uploadURL, err := h.store.SignedPutURL(c.Context(), photo.ObjectKey, photo.ContentType, h.cfg.UploadURLTTL)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to create upload url")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status": "ok",
		"data": fiber.Map{
			"photo":      photo,
			"upload_url": uploadURL,
		},
	})
}

// Confirm marks a photo as uploaded after the client's PUT succeeded.
// The first confirmed photo becomes primary automatically.
func (h *PhotoHandler) Confirm(c fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	photoID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid photo id")
	}

	if err := h.db.MarkPhotoUploaded(c.Context(), photoID, user.ID); err != nil {
		if errors.Is(err, db.ErrPhotoNotFound) {
			return jsonError(c, fiber.StatusNotFound, "photo not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to confirm upload")
	}

	if _, err := h.db.GetPrimaryPhoto(c.Context(), user.ID); errors.Is(err, db.ErrPhotoNotFound) {
		if err := h.db.SetPrimaryPhoto(c.Context(), photoID, user.ID); err != nil {
			slog.Error("failed to auto-promote first photo", "photo_id", photoID, "error", err)
		}
	}

	return jsonSuccess(c, fiber.Map{"message": "upload confirmed"})
}

// List returns the caller's photos with short-lived view URLs.
func (h *PhotoHandler) List(c fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	photos, err := h.db.ListPhotosByUser(c.Context(), user.ID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to fetch photos")
	}

	type photoResponse struct {
		models.Photo
		URL string `json:"url,omitempty"`
	}
	resp := make([]photoResponse, 0, len(photos))
	for _, p := range photos {
		entry := photoResponse{Photo: p}
		if p.Uploaded {
			if url, err := h.store.SignedGetURL(c.Context(), p.ObjectKey, h.cfg.SignedURLTTL); err == nil {
				entry.URL = url
			}
		}
		resp = append(resp, entry)
	}

	return jsonSuccess(c, resp)
}

// SetPrimary promotes one uploaded photo to primary.
func (h *PhotoHandler) SetPrimary(c fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	photoID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid photo id")
	}

	if err := h.db.SetPrimaryPhoto(c.Context(), photoID, user.ID); err != nil {
		if errors.Is(err, db.ErrPhotoNotFound) {
			return jsonError(c, fiber.StatusNotFound, "photo not found or not uploaded")
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to set primary photo")
	}

	return jsonSuccess(c, fiber.Map{"message": "primary photo updated"})
}

// Delete removes a photo row and its stored object.
func (h *PhotoHandler) Delete(c fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	photoID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid photo id")
	}

	photo, err := h.db.DeletePhoto(c.Context(), photoID, user.ID)
	if err != nil {
		if errors.Is(err, db.ErrPhotoNotFound) {
			return jsonError(c, fiber.StatusNotFound, "photo not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to delete photo")
	}

	if err := h.store.Delete(c.Context(), photo.ObjectKey); err != nil {
		// Row is gone; the object becomes an orphan to clean up later.
		slog.Error("failed to delete photo object", "object_key", photo.ObjectKey, "error", err)
	}

	return jsonSuccess(c, fiber.Map{"message": "photo deleted"})
}
