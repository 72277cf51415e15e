package models

import (
	"time"

	"github.com/google/uuid"
)

// Role constants
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents an account authenticated via OIDC. PublicID is the only
// identifier exposed in URLs and browse listings; the primary ID never
// leaves the service. Accounts are deactivated rather than deleted so past
// requests and audit rows keep their references.
type User struct {
	ID        uuid.UUID `json:"-"`
	PublicID  uuid.UUID `json:"public_id"`
	Sub       string    `json:"-"` // OIDC subject identifier
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Picture   string    `json:"picture"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsAdmin returns true if the user is an admin.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
