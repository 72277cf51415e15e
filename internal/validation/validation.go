// Package validation checks user-supplied profile fields against the
// deployment's configured option lists.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Novice130/At-tayyibun/internal/config"
	"github.com/Novice130/At-tayyibun/internal/models"
)

const (
	maxNameLen = 100
	maxBioLen  = 2000
	minAge     = 18

	// DefaultPageSize is used when a listing request doesn't specify one.
	DefaultPageSize = 20
	// MaxPageSize caps listing page sizes.
	MaxPageSize = 100
)

// PhonePattern accepts E.164-ish numbers: optional +, 7 to 15 digits.
var PhonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

// FieldError describes a rejected profile field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validator checks profile input against the YAML option lists. A nil
// options config accepts any ethnicity/location and the default genders.
type Validator struct {
	opts *config.YAMLConfig
}

// New creates a validator.
func New(opts *config.YAMLConfig) *Validator {
	return &Validator{opts: opts}
}

// ValidateProfile checks all writable profile fields. Returns the first
// *FieldError encountered, or nil when the profile is acceptable.
func (v *Validator) ValidateProfile(p *models.Profile, now time.Time) error {
	if strings.TrimSpace(p.FirstName) == "" {
		return &FieldError{Field: "first_name", Message: "is required"}
	}
	if utf8.RuneCountInString(p.FirstName) > maxNameLen {
		return &FieldError{Field: "first_name", Message: "is too long"}
	}
	if utf8.RuneCountInString(p.LastName) > maxNameLen {
		return &FieldError{Field: "last_name", Message: "is too long"}
	}

	if !v.opts.AllowsGender(p.Gender) {
		return &FieldError{Field: "gender", Message: "is not an accepted value"}
	}

	if p.DOB.IsZero() {
		return &FieldError{Field: "dob", Message: "is required"}
	}
	if p.Age(now) < minAge {
		return &FieldError{Field: "dob", Message: fmt.Sprintf("must be at least %d years old", minAge)}
	}

	if p.Ethnicity != "" && !v.opts.AllowsEthnicity(p.Ethnicity) {
		return &FieldError{Field: "ethnicity", Message: "is not an accepted value"}
	}
	if p.Location != "" && !v.opts.AllowsLocation(p.Location) {
		return &FieldError{Field: "location", Message: "is not an accepted value"}
	}

	if p.Phone != "" && !ValidatePhone(p.Phone) {
		return &FieldError{Field: "phone", Message: "must be a valid phone number"}
	}

	if utf8.RuneCountInString(p.Bio) > maxBioLen {
		return &FieldError{Field: "bio", Message: "is too long"}
	}

	return nil
}

// ValidatePhone checks the phone number format after stripping common
// separators.
func ValidatePhone(phone string) bool {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')':
			return -1
		}
		return r
	}, phone)
	return PhonePattern.MatchString(cleaned)
}

// NormalizePhone strips separators so storage is consistent.
func NormalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')':
			return -1
		}
		return r
	}, phone)
}

// ClampPage returns limit and offset clamped to sane bounds.
func ClampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
