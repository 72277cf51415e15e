// Package requests implements the consent-to-reveal workflow: pending info
// requests, the one-active-request lock, one-time share tokens and their
// redemption.
package requests

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Novice130/At-tayyibun/internal/db"
	"github.com/Novice130/At-tayyibun/internal/metrics"
	"github.com/Novice130/At-tayyibun/internal/models"
)

// Store is the persistence surface the workflow needs. *db.DB satisfies it.
type Store interface {
	GetUserByPublicID(ctx context.Context, publicID uuid.UUID) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetProfileByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	GetPrimaryPhoto(ctx context.Context, userID uuid.UUID) (*models.Photo, error)

	CreateInfoRequest(ctx context.Context, req *models.InfoRequest) error
	GetInfoRequestByID(ctx context.Context, id uuid.UUID) (*models.InfoRequest, error)
	GetPendingRequestByRequester(ctx context.Context, requesterID uuid.UUID) (*models.InfoRequest, error)
	HasRecentClosedRequest(ctx context.Context, requesterID, targetID uuid.UUID, cutoff time.Time) (bool, error)
	ApproveInfoRequest(ctx context.Context, id uuid.UUID, granted models.ShareScope, respondedAt time.Time, tokens []*models.ShareToken) error
	DenyInfoRequest(ctx context.Context, id uuid.UUID, respondedAt time.Time) error
	ExpireInfoRequest(ctx context.Context, id uuid.UUID) error
	RedeemShareToken(ctx context.Context, token string, now time.Time) (*models.ShareToken, error)
}

// Locker is the keyed mutual-exclusion store enforcing one pending request
// per requester. locks.Store satisfies it.
type Locker interface {
	Acquire(ctx context.Context, requesterID uuid.UUID, ttl time.Duration) (bool, error)
	Release(ctx context.Context, requesterID uuid.UUID) error
}

// PhotoSigner resolves a stored object key into a short-lived signed URL at
// redemption time. storage.PhotoStore satisfies it.
type PhotoSigner interface {
	SignedGetURL(ctx context.Context, objectKey string, ttl time.Duration) (string, error)
}

// Notifier dispatches workflow emails. Notifications carry redemption links
// only, never the disclosed data itself. email.Notifier satisfies it.
type Notifier interface {
	NotifyRequestReceived(ctx context.Context, target *models.User, requesterFirstName string)
	NotifyRequestApproved(ctx context.Context, requester *models.User, targetFirstName string, tokens []*models.ShareToken)
	NotifyRequestDenied(ctx context.Context, requester *models.User)
}

// Options carries the workflow tuning knobs.
type Options struct {
	ExpiryWindow time.Duration // pending request lifetime, also the lock TTL
	TokenTTL     time.Duration // share token lifetime
	SignedURLTTL time.Duration // lifetime of photo URLs minted at redemption
	Cooldown     time.Duration // wait before re-requesting a target after deny/expiry; 0 disables
}

// Service is the workflow engine. Construct with NewService; the zero value
// is not usable.
type Service struct {
	store    Store
	locks    Locker
	photos   PhotoSigner
	notifier Notifier // may be nil when email is disabled
	opts     Options
}

// NewService wires the workflow engine.
func NewService(store Store, locks Locker, photos PhotoSigner, notifier Notifier, opts Options) *Service {
	if opts.ExpiryWindow <= 0 {
		opts.ExpiryWindow = 24 * time.Hour
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	if opts.SignedURLTTL <= 0 {
		opts.SignedURLTTL = time.Hour
	}
	return &Service{store: store, locks: locks, photos: photos, notifier: notifier, opts: opts}
}

// Create opens a new pending request from requester to the user behind
// targetPublicID. Exactly one pending request may exist per requester; the
// Redis lock is acquired first and reconciled against the database when it
// disagrees (a crash between lock and insert leaves a stale lock behind).
func (s *Service) Create(ctx context.Context, requester *models.User, targetPublicID uuid.UUID, scope models.ShareScope) (*models.InfoRequest, error) {
	if scope.IsEmpty() {
		return nil, ErrEmptyScope
	}

	target, err := s.store.GetUserByPublicID(ctx, targetPublicID)
	if errors.Is(err, db.ErrUserNotFound) {
		return nil, ErrTargetNotFound
	}
	if err != nil {
		return nil, err
	}
	if !target.Active {
		return nil, ErrTargetNotFound
	}
	if target.ID == requester.ID {
		return nil, ErrSelfRequest
	}

	if s.opts.Cooldown > 0 {
		cutoff := time.Now().Add(-s.opts.Cooldown)
		recent, err := s.store.HasRecentClosedRequest(ctx, requester.ID, target.ID, cutoff)
		if err != nil {
			return nil, err
		}
		if recent {
			return nil, ErrCooldownActive
		}
	}

	if err := s.acquireLock(ctx, requester.ID); err != nil {
		return nil, err
	}

	now := time.Now()
	req := &models.InfoRequest{
		RequesterID:    requester.ID,
		TargetID:       target.ID,
		RequestedScope: scope,
		ExpiresAt:      now.Add(s.opts.ExpiryWindow),
	}
	if err := s.store.CreateInfoRequest(ctx, req); err != nil {
		// The insert failed after we took the lock; drop it so the
		// requester isn't stuck until the TTL runs out.
		s.releaseLock(ctx, requester.ID)
		switch {
		case errors.Is(err, db.ErrPendingExists):
			metrics.RecordRequestEvent("conflict")
			return nil, ErrActiveRequestExists
		case errors.Is(err, db.ErrSelfRequest):
			return nil, ErrSelfRequest
		default:
			return nil, err
		}
	}

	metrics.RecordRequestEvent("created")

	if s.notifier != nil {
		requesterName := s.firstNameOf(ctx, requester.ID)
		go s.notifier.NotifyRequestReceived(context.Background(), target, requesterName)
	}

	return req, nil
}

// acquireLock takes the requester's lock, reconciling a stale one: if the
// lock is held but no pending request exists in the database, the lock is
// cleared and acquisition retried exactly once.
func (s *Service) acquireLock(ctx context.Context, requesterID uuid.UUID) error {
	ok, err := s.locks.Acquire(ctx, requesterID, s.opts.ExpiryWindow)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	_, err = s.store.GetPendingRequestByRequester(ctx, requesterID)
	if err == nil {
		// Lock and data agree: a pending request really exists.
		metrics.RecordRequestEvent("conflict")
		return ErrActiveRequestExists
	}
	if !errors.Is(err, db.ErrRequestNotFound) {
		return err
	}

	// Stale lock: held in Redis with no pending row behind it.
	slog.Warn("clearing stale request lock", "requester_id", requesterID)
	if err := s.locks.Release(ctx, requesterID); err != nil {
		return err
	}
	ok, err = s.locks.Acquire(ctx, requesterID, s.opts.ExpiryWindow)
	if err != nil {
		return err
	}
	if !ok {
		metrics.RecordRequestEvent("conflict")
		return ErrActiveRequestExists
	}
	return nil
}

func (s *Service) releaseLock(ctx context.Context, requesterID uuid.UUID) {
	if err := s.locks.Release(ctx, requesterID); err != nil {
		// The TTL will clear it eventually.
		slog.Error("failed to release request lock", "requester_id", requesterID, "error", err)
	}
}

// Respond processes the target's decision on a pending request. Responding
// to a request past its deadline fails but still flips the row to expired
// (side-effecting read), so the outcome matches what the sweeper would do.
func (s *Service) Respond(ctx context.Context, target *models.User, requestID uuid.UUID, approve bool, grant models.ShareScope) (*models.InfoRequest, error) {
	req, err := s.store.GetInfoRequestByID(ctx, requestID)
	if errors.Is(err, db.ErrRequestNotFound) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, err
	}
	if req.TargetID != target.ID {
		return nil, ErrNotRequestTarget
	}
	if !req.IsPending() {
		return nil, ErrAlreadyProcessed
	}

	now := time.Now()
	if req.IsExpiredAt(now) {
		if err := s.store.ExpireInfoRequest(ctx, req.ID); err != nil && !errors.Is(err, db.ErrRequestNotPending) {
			return nil, err
		}
		s.releaseLock(ctx, req.RequesterID)
		metrics.RecordRequestEvent("expired")
		return nil, ErrRequestExpired
	}

	if !approve {
		if err := s.store.DenyInfoRequest(ctx, req.ID, now); err != nil {
			if errors.Is(err, db.ErrRequestNotPending) {
				return nil, ErrAlreadyProcessed
			}
			return nil, err
		}
		req.Status = models.StatusDenied
		req.RespondedAt = &now
		s.releaseLock(ctx, req.RequesterID)
		metrics.RecordRequestEvent("denied")
		s.notifyDecision(ctx, req, nil)
		return req, nil
	}

	// An omitted grant means "share everything that was asked for".
	if grant.IsEmpty() {
		grant = req.RequestedScope
	}
	granted := req.RequestedScope.Intersect(grant)
	if granted.IsEmpty() {
		return nil, ErrEmptyGrant
	}

	tokens, err := s.mintTokens(ctx, req, granted, now)
	if err != nil {
		return nil, err
	}

	if err := s.store.ApproveInfoRequest(ctx, req.ID, granted, now, tokens); err != nil {
		if errors.Is(err, db.ErrRequestNotPending) {
			return nil, ErrAlreadyProcessed
		}
		return nil, err
	}
	req.Status = models.StatusApproved
	req.GrantedScope = granted
	req.RespondedAt = &now
	s.releaseLock(ctx, req.RequesterID)
	metrics.RecordRequestEvent("approved")
	s.notifyDecision(ctx, req, tokens)
	return req, nil
}

// mintTokens builds one unpersisted token per granted share kind. A photo
// grant without an uploaded primary photo is skipped: there is nothing a
// redemption could disclose.
func (s *Service) mintTokens(ctx context.Context, req *models.InfoRequest, granted models.ShareScope, now time.Time) ([]*models.ShareToken, error) {
	var tokens []*models.ShareToken
	for _, kind := range granted.Kinds() {
		if kind == models.ShareKindPhoto {
			if _, err := s.store.GetPrimaryPhoto(ctx, req.TargetID); err != nil {
				if errors.Is(err, db.ErrPhotoNotFound) {
					slog.Warn("photo granted but target has no primary photo", "request_id", req.ID)
					continue
				}
				return nil, err
			}
		}
		value, err := generateToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, &models.ShareToken{
			Token:     value,
			RequestID: req.ID,
			TargetID:  req.TargetID,
			Kind:      kind,
			ExpiresAt: now.Add(s.opts.TokenTTL),
		})
	}
	return tokens, nil
}

// notifyDecision emails the requester about the outcome. Fire and forget;
// approval mail carries redemption links only.
func (s *Service) notifyDecision(ctx context.Context, req *models.InfoRequest, tokens []*models.ShareToken) {
	if s.notifier == nil {
		return
	}
	requester, err := s.store.GetUserByID(ctx, req.RequesterID)
	if err != nil {
		slog.Error("failed to load requester for notification", "request_id", req.ID, "error", err)
		return
	}
	targetName := s.firstNameOf(ctx, req.TargetID)
	if req.Status == models.StatusApproved {
		go s.notifier.NotifyRequestApproved(context.Background(), requester, targetName, tokens)
	} else {
		go s.notifier.NotifyRequestDenied(context.Background(), requester)
	}
}

// firstNameOf returns the user's profile first name, or a neutral fallback.
func (s *Service) firstNameOf(ctx context.Context, userID uuid.UUID) string {
	profile, err := s.store.GetProfileByUserID(ctx, userID)
	if err != nil || profile.FirstName == "" {
		return "A member"
	}
	return profile.FirstName
}

// Redeem consumes a share token exactly once and resolves the underlying
// resource. The token row never stores the resource: photo URLs are signed
// fresh here with their own expiry, and contact fields are read live.
func (s *Service) Redeem(ctx context.Context, token string) (*models.SharedResource, error) {
	spent, err := s.store.RedeemShareToken(ctx, token, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, db.ErrTokenNotFound):
			metrics.RecordTokenRedemption("unknown")
			slog.Info("redemption of unknown token")
			return nil, ErrTokenInvalid
		case errors.Is(err, db.ErrTokenSpent):
			metrics.RecordTokenRedemption("spent")
			slog.Info("redemption of spent or expired token")
			return nil, ErrTokenInvalid
		default:
			return nil, err
		}
	}

	resource, err := s.resolveResource(ctx, spent)
	if err != nil {
		return nil, err
	}
	metrics.RecordTokenRedemption("ok")
	return resource, nil
}

func (s *Service) resolveResource(ctx context.Context, tok *models.ShareToken) (*models.SharedResource, error) {
	resource := &models.SharedResource{Kind: tok.Kind}
	switch tok.Kind {
	case models.ShareKindPhoto:
		photo, err := s.store.GetPrimaryPhoto(ctx, tok.TargetID)
		if err != nil {
			if errors.Is(err, db.ErrPhotoNotFound) {
				// Photo deleted since approval.
				slog.Warn("redeemed photo token but primary photo is gone", "request_id", tok.RequestID)
				return nil, ErrTokenInvalid
			}
			return nil, err
		}
		url, err := s.photos.SignedGetURL(ctx, photo.ObjectKey, s.opts.SignedURLTTL)
		if err != nil {
			return nil, err
		}
		resource.PhotoURL = url
	case models.ShareKindPhone:
		profile, err := s.store.GetProfileByUserID(ctx, tok.TargetID)
		if err != nil {
			return nil, err
		}
		resource.Phone = profile.Phone
	case models.ShareKindEmail:
		target, err := s.store.GetUserByID(ctx, tok.TargetID)
		if err != nil {
			return nil, err
		}
		resource.Email = target.Email
	default:
		slog.Error("share token with unknown kind", "kind", tok.Kind, "request_id", tok.RequestID)
		return nil, ErrTokenInvalid
	}
	return resource, nil
}
