package handlers

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/Novice130/At-tayyibun/internal/config"
	"github.com/Novice130/At-tayyibun/internal/db"
	"github.com/Novice130/At-tayyibun/internal/models"
	"github.com/Novice130/At-tayyibun/internal/storage"
	"github.com/Novice130/At-tayyibun/internal/validation"
)

// ProfileHandler handles profile management and browsing.
type ProfileHandler struct {
	db        *db.DB
	photos    *storage.PhotoStore
	validator *validation.Validator
	yaml      *config.YAMLConfig
	cfg       *config.Config
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(database *db.DB, photos *storage.PhotoStore, yamlCfg *config.YAMLConfig, cfg *config.Config) *ProfileHandler {
	return &ProfileHandler{
		db:        database,
		photos:    photos,
		validator: validation.New(yamlCfg),
		yaml:      yamlCfg,
		cfg:       cfg,
	}
}

// Show returns the caller's own profile in full.
func (h *ProfileHandler) Show(c fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	profile, err := h.db.GetProfileByUserID(c.Context(), user.ID)
	if errors.Is(err, db.ErrProfileNotFound) {
		return jsonError(c, fiber.StatusNotFound, "profile not set up yet")
	}
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to fetch profile")
	}

	return jsonSuccess(c, profile)
}

// Update creates or replaces the caller's profile.
func (h *ProfileHandler) Update(c fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var body struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Gender    string `json:"gender"`
		DOB       string `json:"dob"` // YYYY-MM-DD
		Ethnicity string `json:"ethnicity"`
		Location  string `json:"location"`
		Phone     string `json:"phone"`
		Bio       string `json:"bio"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	dob, err := time.Parse("2006-01-02", body.DOB)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "dob: must be YYYY-MM-DD")
	}

	profile := &models.Profile{
		UserID:    user.ID,
		FirstName: body.FirstName,
		LastName:  body.LastName,
		Gender:    body.Gender,
		DOB:       dob,
		Ethnicity: body.Ethnicity,
		Location:  body.Location,
		Phone:     validation.NormalizePhone(body.Phone),
		Bio:       body.Bio,
	}

	if err := h.validator.ValidateProfile(profile, time.Now()); err != nil {
		return jsonError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.db.UpsertProfile(c.Context(), profile); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to save profile")
	}

	return jsonSuccess(c, profile)
}

// Browse lists public projections of active members' profiles.
func (h *ProfileHandler) Browse(c fiber.Ctx) error {
	limit, offset := validation.ClampPage(queryInt(c, "limit", 0), queryInt(c, "offset", 0))

	rows, err := h.db.BrowseProfiles(c.Context(), limit, offset)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to fetch profiles")
	}

	now := time.Now()
	result := make([]models.PublicProfile, 0, len(rows))
	for _, row := range rows {
		pub := row.Profile.Public(row.PublicID, now)
		pub.AvatarURL = h.avatarURL(c, row.Profile.UserID)
		result = append(result, pub)
	}

	return jsonSuccess(c, result)
}

// ShowPublic returns one member's public projection by public id.
func (h *ProfileHandler) ShowPublic(c fiber.Ctx) error {
	publicID, err := uuid.Parse(c.Params("publicId"))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid public id")
	}

	target, err := h.db.GetUserByPublicID(c.Context(), publicID)
	if errors.Is(err, db.ErrUserNotFound) {
		return jsonError(c, fiber.StatusNotFound, "member not found")
	}
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to fetch member")
	}
	if !target.Active {
		return jsonError(c, fiber.StatusNotFound, "member not found")
	}

	profile, err := h.db.GetProfileByUserID(c.Context(), target.ID)
	if errors.Is(err, db.ErrProfileNotFound) {
		return jsonError(c, fiber.StatusNotFound, "member not found")
	}
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to fetch member")
	}

	pub := profile.Public(publicID, time.Now())
	pub.AvatarURL = h.avatarURL(c, target.ID)
	return jsonSuccess(c, pub)
}

// Skip records why the caller passed over a profile. Best-effort analytics;
// never blocks browsing.
func (h *ProfileHandler) Skip(c fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	publicID, err := uuid.Parse(c.Params("publicId"))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid public id")
	}

	var body struct {
		ReasonCode string `json:"reason_code"`
		CustomText string `json:"custom_text"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if body.ReasonCode != "" && h.yaml != nil && h.yaml.SkipReasonByCode(body.ReasonCode) == nil {
		return jsonError(c, fiber.StatusBadRequest, "unknown reason code")
	}
	if body.ReasonCode == "" && body.CustomText == "" {
		return jsonError(c, fiber.StatusBadRequest, "reason_code or custom_text is required")
	}

	target, err := h.db.GetUserByPublicID(c.Context(), publicID)
	if errors.Is(err, db.ErrUserNotFound) {
		return jsonError(c, fiber.StatusNotFound, "member not found")
	}
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to record skip")
	}

	if err := h.db.UpsertSkip(c.Context(), user.ID, target.ID, body.ReasonCode, body.CustomText); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to record skip")
	}

	return jsonSuccess(c, fiber.Map{"message": "skip recorded"})
}

// Options returns the configured profile form option lists so clients don't
// hardcode them.
func (h *ProfileHandler) Options(c fiber.Ctx) error {
	resp := fiber.Map{
		"genders":      []string{"male", "female"},
		"ethnicities":  []string{},
		"locations":    []string{},
		"skip_reasons": []config.SkipReasonConfig{},
	}
	if h.yaml != nil {
		resp["genders"] = h.yaml.ProfileOptions.Genders
		resp["ethnicities"] = h.yaml.ProfileOptions.Ethnicities
		resp["locations"] = h.yaml.ProfileOptions.Locations
		resp["skip_reasons"] = h.yaml.SkipReasons
	}
	return jsonSuccess(c, resp)
}

// avatarURL signs a short-lived URL for the user's primary photo, or returns
// empty when there is none.
func (h *ProfileHandler) avatarURL(c fiber.Ctx, userID uuid.UUID) string {
	photo, err := h.db.GetPrimaryPhoto(c.Context(), userID)
	if err != nil {
		return ""
	}
	url, err := h.photos.SignedGetURL(c.Context(), photo.ObjectKey, h.cfg.SignedURLTTL)
	if err != nil {
		return ""
	}
	return url
}
