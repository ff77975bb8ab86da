package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/jwalitptl/medibook-api/pkg/errors"
)

// Base contains common fields for all stored records
type Base struct {
	ID        string    `json:"_id" bson:"_id" db:"id"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt" db:"updated_at"`
}

// NewBase stamps a fresh id and creation time.
func NewBase(now time.Time) Base {
	return Base{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NormalizeEmail lowercases and trims so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func invalidField(field string) error {
	return apperrors.BadRequest(fmt.Sprintf("Invalid %s", field), nil)
}
