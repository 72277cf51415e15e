package db

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Novice130/At-tayyibun/internal/models"
)

// CreateInfoRequest inserts a new pending request. The partial unique index
// one_pending_request_per_requester backs up the Redis lock: even if two
// creates race past the lock, only one row can land in pending.
func (d *DB) CreateInfoRequest(ctx context.Context, req *models.InfoRequest) error {
	query := `
		INSERT INTO info_requests (requester_id, target_id, requested_shares, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, status, created_at
	`
	err := d.Pool.QueryRow(ctx, query,
		req.RequesterID,
		req.TargetID,
		req.RequestedScope.Kinds(),
		req.ExpiresAt,
	).Scan(&req.ID, &req.Status, &req.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" && pgErr.ConstraintName == "one_pending_request_per_requester" {
				return ErrPendingExists
			}
			if pgErr.Code == "23514" && pgErr.ConstraintName == "no_self_request" {
				return ErrSelfRequest
			}
		}
		return err
	}
	return nil
}

func scanRequest(row pgx.Row) (*models.InfoRequest, error) {
	var req models.InfoRequest
	var requested, granted []string
	err := row.Scan(
		&req.ID, &req.RequesterID, &req.TargetID, &requested, &granted,
		&req.Status, &req.CreatedAt, &req.ExpiresAt, &req.RespondedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, err
	}
	if req.RequestedScope, err = models.ParseShareKinds(requested); err != nil {
		return nil, err
	}
	if req.GrantedScope, err = models.ParseShareKinds(granted); err != nil {
		return nil, err
	}
	return &req, nil
}

const requestColumns = `id, requester_id, target_id, requested_shares, granted_shares, status, created_at, expires_at, responded_at`

// GetInfoRequestByID retrieves a single request.
func (d *DB) GetInfoRequestByID(ctx context.Context, id uuid.UUID) (*models.InfoRequest, error) {
	return scanRequest(d.Pool.QueryRow(ctx,
		`SELECT `+requestColumns+` FROM info_requests WHERE id = $1`, id))
}

// GetPendingRequestByRequester returns the requester's open request, if any.
// Used to reconcile the Redis lock against the actual data.
func (d *DB) GetPendingRequestByRequester(ctx context.Context, requesterID uuid.UUID) (*models.InfoRequest, error) {
	return scanRequest(d.Pool.QueryRow(ctx,
		`SELECT `+requestColumns+` FROM info_requests WHERE requester_id = $1 AND status = $2`,
		requesterID, models.StatusPending))
}

// HasRecentClosedRequest reports whether the requester had a request to the
// same target denied or expired after the given cutoff. Drives the optional
// re-request cooldown.
func (d *DB) HasRecentClosedRequest(ctx context.Context, requesterID, targetID uuid.UUID, cutoff time.Time) (bool, error) {
	var exists bool
	err := d.Pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM info_requests
			WHERE requester_id = $1 AND target_id = $2
			  AND status IN ($3, $4)
			  AND COALESCE(responded_at, expires_at) > $5
		)
	`, requesterID, targetID, models.StatusDenied, models.StatusExpired, cutoff).Scan(&exists)
	return exists, err
}

// ApproveInfoRequest flips a pending request to approved and inserts the
// share tokens in the same transaction. The status guard makes the update
// conditional: a request already responded to or expired is left untouched
// and ErrRequestNotPending is returned.
func (d *DB) ApproveInfoRequest(ctx context.Context, id uuid.UUID, granted models.ShareScope, respondedAt time.Time, tokens []*models.ShareToken) error {
	tx, err := d.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx, `
		UPDATE info_requests
		SET status = $1, granted_shares = $2, responded_at = $3
		WHERE id = $4 AND status = $5
	`, models.StatusApproved, granted.Kinds(), respondedAt, id, models.StatusPending)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrRequestNotPending
	}

	for _, tok := range tokens {
		err := tx.QueryRow(ctx, `
			INSERT INTO share_tokens (token, request_id, target_id, kind, expires_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at
		`, tok.Token, id, tok.TargetID, tok.Kind, tok.ExpiresAt).Scan(&tok.ID, &tok.CreatedAt)
		if err != nil {
			return err
		}
		tok.RequestID = id
	}

	return tx.Commit(ctx)
}

// DenyInfoRequest flips a pending request to denied.
func (d *DB) DenyInfoRequest(ctx context.Context, id uuid.UUID, respondedAt time.Time) error {
	result, err := d.Pool.Exec(ctx, `
		UPDATE info_requests
		SET status = $1, responded_at = $2
		WHERE id = $3 AND status = $4
	`, models.StatusDenied, respondedAt, id, models.StatusPending)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrRequestNotPending
	}
	return nil
}

// ExpireInfoRequest flips a single pending request to expired. Idempotent:
// already-terminal rows report ErrRequestNotPending and stay untouched.
func (d *DB) ExpireInfoRequest(ctx context.Context, id uuid.UUID) error {
	result, err := d.Pool.Exec(ctx, `
		UPDATE info_requests SET status = $1 WHERE id = $2 AND status = $3
	`, models.StatusExpired, id, models.StatusPending)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrRequestNotPending
	}
	return nil
}

// ExpirePendingRequests is the sweeper's batch pass: every pending request
// past its deadline flips to expired in one conditional update. Rows another
// run already flipped don't match the status guard, so concurrent sweeps
// process each request exactly once between them.
func (d *DB) ExpirePendingRequests(ctx context.Context, now time.Time) ([]models.ExpiredRequestRef, error) {
	rows, err := d.Pool.Query(ctx, `
		UPDATE info_requests
		SET status = $1
		WHERE status = $2 AND expires_at < $3
		RETURNING id, requester_id
	`, models.StatusExpired, models.StatusPending, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []models.ExpiredRequestRef
	for rows.Next() {
		var ref models.ExpiredRequestRef
		if err := rows.Scan(&ref.ID, &ref.RequesterID); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// ListIncomingRequests returns requests addressed to a user, newest first,
// with the requester's public projection fields.
func (d *DB) ListIncomingRequests(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.InfoRequestWithUser, error) {
	query := `
		SELECT r.id, r.requester_id, r.target_id, r.requested_shares, r.granted_shares,
		       r.status, r.created_at, r.expires_at, r.responded_at,
		       u.public_id, COALESCE(p.first_name, ''), COALESCE(p.ethnicity, ''), COALESCE(p.location, '')
		FROM info_requests r
		JOIN users u ON u.id = r.requester_id
		LEFT JOIN profiles p ON p.user_id = r.requester_id
		WHERE r.target_id = $1
		ORDER BY r.created_at DESC
		LIMIT $2 OFFSET $3
	`
	return d.listRequestsWithUser(ctx, query, userID, limit, offset)
}

// ListOutgoingRequests returns requests a user has sent, newest first, with
// the target's public projection fields.
func (d *DB) ListOutgoingRequests(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.InfoRequestWithUser, error) {
	query := `
		SELECT r.id, r.requester_id, r.target_id, r.requested_shares, r.granted_shares,
		       r.status, r.created_at, r.expires_at, r.responded_at,
		       u.public_id, COALESCE(p.first_name, ''), COALESCE(p.ethnicity, ''), COALESCE(p.location, '')
		FROM info_requests r
		JOIN users u ON u.id = r.target_id
		LEFT JOIN profiles p ON p.user_id = r.target_id
		WHERE r.requester_id = $1
		ORDER BY r.created_at DESC
		LIMIT $2 OFFSET $3
	`
	return d.listRequestsWithUser(ctx, query, userID, limit, offset)
}

func (d *DB) listRequestsWithUser(ctx context.Context, query string, userID uuid.UUID, limit, offset int) ([]models.InfoRequestWithUser, error) {
	rows, err := d.Pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []models.InfoRequestWithUser
	for rows.Next() {
		var r models.InfoRequestWithUser
		var requested, granted []string
		if err := rows.Scan(
			&r.ID, &r.RequesterID, &r.TargetID, &requested, &granted,
			&r.Status, &r.CreatedAt, &r.ExpiresAt, &r.RespondedAt,
			&r.UserPublicID, &r.UserFirstName, &r.UserEthnicity, &r.UserLocation,
		); err != nil {
			return nil, err
		}
		if r.RequestedScope, err = models.ParseShareKinds(requested); err != nil {
			return nil, err
		}
		if r.GrantedScope, err = models.ParseShareKinds(granted); err != nil {
			return nil, err
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}
