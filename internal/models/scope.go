package models

import (
	"encoding/json"
	"fmt"
)

// Share kinds a requester may ask for and a target may grant.
const (
	ShareKindPhoto = "photo"
	ShareKindPhone = "phone"
	ShareKindEmail = "email"
)

// ShareScope is a closed set of share kinds. The zero value is the empty
// scope. Scopes are stored in the database as arrays of kind strings and
// rendered the same way in JSON.
type ShareScope uint8

const (
	SharePhoto ShareScope = 1 << iota
	SharePhone
	ShareEmail

	ShareNone ShareScope = 0
	ShareAll             = SharePhoto | SharePhone | ShareEmail
)

// ScopeFromFlags builds a scope from individual request flags.
func ScopeFromFlags(photo, phone, email bool) ShareScope {
	var s ShareScope
	if photo {
		s |= SharePhoto
	}
	if phone {
		s |= SharePhone
	}
	if email {
		s |= ShareEmail
	}
	return s
}

// ParseShareKinds converts a list of kind strings into a scope.
// Unknown kinds are rejected.
func ParseShareKinds(kinds []string) (ShareScope, error) {
	var s ShareScope
	for _, k := range kinds {
		switch k {
		case ShareKindPhoto:
			s |= SharePhoto
		case ShareKindPhone:
			s |= SharePhone
		case ShareKindEmail:
			s |= ShareEmail
		default:
			return ShareNone, fmt.Errorf("unknown share kind %q", k)
		}
	}
	return s, nil
}

// Kinds returns the scope as kind strings in a fixed order.
func (s ShareScope) Kinds() []string {
	kinds := []string{}
	if s&SharePhoto != 0 {
		kinds = append(kinds, ShareKindPhoto)
	}
	if s&SharePhone != 0 {
		kinds = append(kinds, ShareKindPhone)
	}
	if s&ShareEmail != 0 {
		kinds = append(kinds, ShareKindEmail)
	}
	return kinds
}

// Contains reports whether every kind in other is also in s.
func (s ShareScope) Contains(other ShareScope) bool {
	return s&other == other
}

// Intersect returns the kinds present in both scopes.
func (s ShareScope) Intersect(other ShareScope) ShareScope {
	return s & other
}

// IsEmpty reports whether the scope holds no kinds.
func (s ShareScope) IsEmpty() bool {
	return s == ShareNone
}

// MarshalJSON renders the scope as an array of kind strings.
func (s ShareScope) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Kinds())
}

// UnmarshalJSON parses an array of kind strings.
func (s *ShareScope) UnmarshalJSON(data []byte) error {
	var kinds []string
	if err := json.Unmarshal(data, &kinds); err != nil {
		return err
	}
	parsed, err := ParseShareKinds(kinds)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
