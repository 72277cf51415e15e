package models

import (
	"time"

	"github.com/google/uuid"
)

// Photo references an object in the private photo bucket. Raw object keys
// are never exposed; clients only ever see short-lived signed URLs.
type Photo struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"-"`
	ObjectKey   string    `json:"-"`
	ContentType string    `json:"content_type"`
	IsPrimary   bool      `json:"is_primary"`
	Uploaded    bool      `json:"uploaded"`
	CreatedAt   time.Time `json:"created_at"`
}
