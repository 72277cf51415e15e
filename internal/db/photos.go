package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Novice130/At-tayyibun/internal/models"
)

// CreatePhoto inserts a photo row before the client uploads to storage.
// The row is flagged uploaded once the client confirms the PUT succeeded.
func (d *DB) CreatePhoto(ctx context.Context, photo *models.Photo) error {
	query := `
		INSERT INTO photos (user_id, object_key, content_type)
		VALUES ($1, $2, $3)
		RETURNING id, is_primary, uploaded, created_at
	`
	return d.Pool.QueryRow(ctx, query,
		photo.UserID, photo.ObjectKey, photo.ContentType,
	).Scan(&photo.ID, &photo.IsPrimary, &photo.Uploaded, &photo.CreatedAt)
}

const photoColumns = `id, user_id, object_key, content_type, is_primary, uploaded, created_at`

func scanPhoto(row pgx.Row) (*models.Photo, error) {
	var p models.Photo
	err := row.Scan(&p.ID, &p.UserID, &p.ObjectKey, &p.ContentType, &p.IsPrimary, &p.Uploaded, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPhotoNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPhotoByID retrieves a single photo.
func (d *DB) GetPhotoByID(ctx context.Context, id uuid.UUID) (*models.Photo, error) {
	return scanPhoto(d.Pool.QueryRow(ctx,
		`SELECT `+photoColumns+` FROM photos WHERE id = $1`, id))
}

// GetPrimaryPhoto retrieves the user's primary photo, if any.
func (d *DB) GetPrimaryPhoto(ctx context.Context, userID uuid.UUID) (*models.Photo, error) {
	return scanPhoto(d.Pool.QueryRow(ctx,
		`SELECT `+photoColumns+` FROM photos WHERE user_id = $1 AND is_primary AND uploaded`, userID))
}

// ListPhotosByUser returns all of a user's photos, primary first.
func (d *DB) ListPhotosByUser(ctx context.Context, userID uuid.UUID) ([]models.Photo, error) {
	rows, err := d.Pool.Query(ctx,
		`SELECT `+photoColumns+` FROM photos WHERE user_id = $1 ORDER BY is_primary DESC, created_at DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var photos []models.Photo
	for rows.Next() {
		var p models.Photo
		if err := rows.Scan(&p.ID, &p.UserID, &p.ObjectKey, &p.ContentType, &p.IsPrimary, &p.Uploaded, &p.CreatedAt); err != nil {
			return nil, err
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}

// MarkPhotoUploaded confirms the object landed in storage.
func (d *DB) MarkPhotoUploaded(ctx context.Context, id, userID uuid.UUID) error {
	result, err := d.Pool.Exec(ctx,
		`UPDATE photos SET uploaded = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrPhotoNotFound
	}
	return nil
}

// SetPrimaryPhoto makes one photo primary and demotes the rest in one tx.
// The partial unique index on (user_id) WHERE is_primary enforces at most one.
func (d *DB) SetPrimaryPhoto(ctx context.Context, id, userID uuid.UUID) error {
	tx, err := d.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE photos SET is_primary = FALSE WHERE user_id = $1 AND is_primary`, userID); err != nil {
		return err
	}

	result, err := tx.Exec(ctx,
		`UPDATE photos SET is_primary = TRUE WHERE id = $1 AND user_id = $2 AND uploaded`, id, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrPhotoNotFound
	}

	return tx.Commit(ctx)
}

// DeletePhoto removes a photo row. The caller deletes the stored object.
func (d *DB) DeletePhoto(ctx context.Context, id, userID uuid.UUID) (*models.Photo, error) {
	photo, err := scanPhoto(d.Pool.QueryRow(ctx,
		`DELETE FROM photos WHERE id = $1 AND user_id = $2 RETURNING `+photoColumns, id, userID))
	if err != nil {
		return nil, err
	}
	return photo, nil
}
