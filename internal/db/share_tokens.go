package db

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Novice130/At-tayyibun/internal/models"
)

const tokenColumns = `id, token, request_id, target_id, kind, expires_at, redeemed_at, created_at`

func scanToken(row pgx.Row) (*models.ShareToken, error) {
	var t models.ShareToken
	err := row.Scan(&t.ID, &t.Token, &t.RequestID, &t.TargetID, &t.Kind, &t.ExpiresAt, &t.RedeemedAt, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// RedeemShareToken marks a token redeemed and returns it in one conditional
// update. The redeemed_at IS NULL guard is what makes redemption
// exactly-once: two concurrent redemptions race on the same row and only one
// update matches. A miss is disambiguated with a follow-up read so the
// caller can log unknown vs spent/expired distinctly.
func (d *DB) RedeemShareToken(ctx context.Context, token string, now time.Time) (*models.ShareToken, error) {
	redeemed, err := scanToken(d.Pool.QueryRow(ctx, `
		UPDATE share_tokens
		SET redeemed_at = $2
		WHERE token = $1 AND redeemed_at IS NULL AND expires_at > $2
		RETURNING `+tokenColumns, token, now))
	if err == nil {
		return redeemed, nil
	}
	if !errors.Is(err, ErrTokenNotFound) {
		return nil, err
	}

	// The conditional update matched nothing: either the token never
	// existed, or it is spent/expired.
	if _, err := scanToken(d.Pool.QueryRow(ctx,
		`SELECT `+tokenColumns+` FROM share_tokens WHERE token = $1`, token)); err != nil {
		return nil, err
	}
	return nil, ErrTokenSpent
}

// ListTokensByRequest returns the tokens issued for a request.
func (d *DB) ListTokensByRequest(ctx context.Context, requestID uuid.UUID) ([]models.ShareToken, error) {
	rows, err := d.Pool.Query(ctx,
		`SELECT `+tokenColumns+` FROM share_tokens WHERE request_id = $1 ORDER BY kind`, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []models.ShareToken
	for rows.Next() {
		var t models.ShareToken
		if err := rows.Scan(&t.ID, &t.Token, &t.RequestID, &t.TargetID, &t.Kind, &t.ExpiresAt, &t.RedeemedAt, &t.CreatedAt); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

// DeleteExpiredTokens garbage-collects tokens past their deadline that were
// never redeemed, plus redeemed rows older than the retention cutoff.
func (d *DB) DeleteExpiredTokens(ctx context.Context, now time.Time, redeemedBefore time.Time) (int64, error) {
	result, err := d.Pool.Exec(ctx, `
		DELETE FROM share_tokens
		WHERE (redeemed_at IS NULL AND expires_at < $1)
		   OR (redeemed_at IS NOT NULL AND redeemed_at < $2)
	`, now, redeemedBefore)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
