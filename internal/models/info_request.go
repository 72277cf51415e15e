package models

import (
	"time"

	"github.com/google/uuid"
)

// Request status constants. Pending is the only non-terminal state; the
// other three are final and never transition again.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusDenied   = "denied"
	StatusExpired  = "expired"
)

// InfoRequest is one user's ask to view another user's private data.
// At most one pending request may exist per requester at any time.
type InfoRequest struct {
	ID             uuid.UUID  `json:"id"`
	RequesterID    uuid.UUID  `json:"-"`
	TargetID       uuid.UUID  `json:"-"`
	RequestedScope ShareScope `json:"requested_scope"`
	GrantedScope   ShareScope `json:"granted_scope"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	ExpiresAt      time.Time  `json:"expires_at"`
	RespondedAt    *time.Time `json:"responded_at"`
}

// IsPending returns true while the request still awaits a response.
func (r *InfoRequest) IsPending() bool {
	return r.Status == StatusPending
}

// IsExpiredAt reports whether the request's deadline has passed.
func (r *InfoRequest) IsExpiredAt(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// InfoRequestWithUser is a request joined with the counterpart's public
// projection for list views.
type InfoRequestWithUser struct {
	InfoRequest

	// Populated via JOIN for display
	UserPublicID  uuid.UUID `json:"user_public_id"`
	UserFirstName string    `json:"user_first_name"`
	UserEthnicity string    `json:"user_ethnicity,omitempty"`
	UserLocation  string    `json:"user_location,omitempty"`
}

// ExpiredRequestRef identifies a request flipped to expired by the sweeper,
// carrying just enough to release the requester's lock.
type ExpiredRequestRef struct {
	ID          uuid.UUID
	RequesterID uuid.UUID
}
