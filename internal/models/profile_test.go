package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestProfileAge(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		dob  time.Time
		want int
	}{
		{"birthday passed this year", time.Date(1996, 3, 1, 0, 0, 0, 0, time.UTC), 30},
		{"birthday later this year", time.Date(1996, 9, 1, 0, 0, 0, 0, time.UTC), 29},
		{"birthday today", time.Date(1996, 6, 15, 0, 0, 0, 0, time.UTC), 30},
		{"zero dob", time.Time{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Profile{DOB: tt.dob}
			if got := p.Age(now); got != tt.want {
				t.Errorf("Age() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestProfilePublicProjection(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	publicID := uuid.New()

	p := &Profile{
		UserID:    uuid.New(),
		FirstName: "Aisha",
		LastName:  "Rahman",
		Gender:    "female",
		DOB:       time.Date(1998, 1, 10, 0, 0, 0, 0, time.UTC),
		Ethnicity: "bengali",
		Location:  "london",
		Phone:     "+447700900000",
		Bio:       "private bio",
	}

	pub := p.Public(publicID, now)

	if pub.PublicID != publicID {
		t.Errorf("PublicID = %v, want %v", pub.PublicID, publicID)
	}
	if pub.FirstName != "Aisha" || pub.Age != 28 || pub.Gender != "female" {
		t.Errorf("unexpected projection: %+v", pub)
	}
	if pub.Ethnicity != "bengali" || pub.Location != "london" {
		t.Errorf("unexpected projection: %+v", pub)
	}
}
