package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Novice130/At-tayyibun/internal/models"
)

// UpsertProfile creates or replaces the profile owned by a user.
func (d *DB) UpsertProfile(ctx context.Context, p *models.Profile) error {
	query := `
		INSERT INTO profiles (user_id, first_name, last_name, gender, dob, ethnicity, location, phone, bio)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			gender = EXCLUDED.gender,
			dob = EXCLUDED.dob,
			ethnicity = EXCLUDED.ethnicity,
			location = EXCLUDED.location,
			phone = EXCLUDED.phone,
			bio = EXCLUDED.bio,
			updated_at = NOW()
		RETURNING created_at, updated_at
	`
	return d.Pool.QueryRow(ctx, query,
		p.UserID, p.FirstName, p.LastName, p.Gender, p.DOB,
		p.Ethnicity, p.Location, p.Phone, p.Bio,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

// GetProfileByUserID retrieves the profile owned by a user.
func (d *DB) GetProfileByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	query := `
		SELECT user_id, first_name, last_name, gender, dob, ethnicity, location, phone, bio, created_at, updated_at
		FROM profiles WHERE user_id = $1
	`
	var p models.Profile
	err := d.Pool.QueryRow(ctx, query, userID).Scan(
		&p.UserID, &p.FirstName, &p.LastName, &p.Gender, &p.DOB,
		&p.Ethnicity, &p.Location, &p.Phone, &p.Bio, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// BrowseRow pairs a profile with its owner's public id for projection.
type BrowseRow struct {
	PublicID uuid.UUID
	Profile  models.Profile
}

// BrowseProfiles returns profiles of active users for the public browse view,
// newest first. Only rows with a complete profile are included; the caller
// derives the public projection before serving them.
func (d *DB) BrowseProfiles(ctx context.Context, limit, offset int) ([]BrowseRow, error) {
	query := `
		SELECT u.public_id, p.user_id, p.first_name, p.last_name, p.gender, p.dob,
		       p.ethnicity, p.location, p.phone, p.bio, p.created_at, p.updated_at
		FROM profiles p
		JOIN users u ON u.id = p.user_id
		WHERE u.active AND p.first_name <> ''
		ORDER BY p.created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := d.Pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []BrowseRow
	for rows.Next() {
		var r BrowseRow
		if err := rows.Scan(
			&r.PublicID, &r.Profile.UserID, &r.Profile.FirstName, &r.Profile.LastName,
			&r.Profile.Gender, &r.Profile.DOB, &r.Profile.Ethnicity, &r.Profile.Location,
			&r.Profile.Phone, &r.Profile.Bio, &r.Profile.CreatedAt, &r.Profile.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// UpsertSkip records (or refreshes) a skip reason for a requester/target pair.
func (d *DB) UpsertSkip(ctx context.Context, requesterID, targetID uuid.UUID, reasonCode, customText string) error {
	_, err := d.Pool.Exec(ctx, `
		INSERT INTO profile_skips (requester_id, target_id, reason_code, custom_text)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (requester_id, target_id) DO UPDATE SET
			reason_code = EXCLUDED.reason_code,
			custom_text = EXCLUDED.custom_text,
			updated_at = NOW()
	`, requesterID, targetID, reasonCode, customText)
	return err
}
