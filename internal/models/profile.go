package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile holds the private-by-default matrimonial data for a user.
// None of these fields are served to other users directly; browse views see
// only the PublicProfile projection, and contact fields are disclosed solely
// through an approved info request.
type Profile struct {
	UserID    uuid.UUID `json:"-"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Gender    string    `json:"gender"`
	DOB       time.Time `json:"dob"`
	Ethnicity string    `json:"ethnicity"`
	Location  string    `json:"location"`
	Phone     string    `json:"phone"`
	Bio       string    `json:"bio"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PublicProfile is the non-reversible projection shown in browse listings.
// AvatarURL, when set, is a short-lived signed URL for the primary photo.
type PublicProfile struct {
	PublicID  uuid.UUID `json:"public_id"`
	FirstName string    `json:"first_name"`
	Age       int       `json:"age"`
	Gender    string    `json:"gender"`
	Ethnicity string    `json:"ethnicity"`
	Location  string    `json:"location"`
	AvatarURL string    `json:"avatar_url,omitempty"`
}

// Public derives the browse projection for the profile's owner.
func (p *Profile) Public(publicID uuid.UUID, now time.Time) PublicProfile {
	return PublicProfile{
		PublicID:  publicID,
		FirstName: p.FirstName,
		Age:       p.Age(now),
		Gender:    p.Gender,
		Ethnicity: p.Ethnicity,
		Location:  p.Location,
	}
}

// Age computes the owner's age in whole years at the given instant.
func (p *Profile) Age(now time.Time) int {
	if p.DOB.IsZero() {
		return 0
	}
	age := now.Year() - p.DOB.Year()
	anniversary := p.DOB.AddDate(age, 0, 0)
	if anniversary.After(now) {
		age--
	}
	return age
}
