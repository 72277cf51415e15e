package models

import (
	"time"

	"github.com/google/uuid"
)

// ShareToken is a one-time-use credential redeemable for exactly one
// disclosed resource. The row never embeds the resource itself; the photo
// URL or contact field is resolved fresh at redemption time.
type ShareToken struct {
	ID         uuid.UUID  `json:"id"`
	Token      string     `json:"-"`
	RequestID  uuid.UUID  `json:"request_id"`
	TargetID   uuid.UUID  `json:"-"`
	Kind       string     `json:"kind"` // photo, phone, email
	ExpiresAt  time.Time  `json:"expires_at"`
	RedeemedAt *time.Time `json:"redeemed_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

// IsSpent returns true once the token has been redeemed.
func (t *ShareToken) IsSpent() bool {
	return t.RedeemedAt != nil
}

// IsExpiredAt reports whether the token's own deadline has passed.
func (t *ShareToken) IsExpiredAt(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// SharedResource is the payload returned by a successful redemption.
// Exactly one of PhotoURL, Phone or Email is set, matching Kind.
type SharedResource struct {
	Kind     string `json:"kind"`
	PhotoURL string `json:"photo_url,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
}
