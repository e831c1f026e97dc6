package models

import (
	"time"

	"github.com/google/uuid"
)

// Unit represents a single bookable tent/campsite slot within a camp.
// PricePerNight is read at booking time and snapshotted onto the booking,
// so later price changes never affect existing bookings.
type Unit struct {
	ID            uuid.UUID `json:"id" db:"id"`
	CampID        uuid.UUID `json:"camp_id" db:"camp_id"`
	Name          string    `json:"name" db:"name"`
	Description   string    `json:"description" db:"description"`
	PricePerNight float64   `json:"price_per_night" db:"price_per_night"`
	Currency      string    `json:"currency" db:"currency"`
	Capacity      int       `json:"capacity" db:"capacity"`
	Active        bool      `json:"active" db:"active"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// CreateUnitRequest is the payload for registering a bookable unit
type CreateUnitRequest struct {
	Name          string  `json:"name" binding:"required,min=1,max=120"`
	Description   string  `json:"description" binding:"max=2000"`
	PricePerNight float64 `json:"price_per_night" binding:"required,gt=0"`
	Currency      string  `json:"currency" binding:"omitempty,len=3"`
	Capacity      int     `json:"capacity" binding:"required,gt=0"`
}

// UpdateUnitRequest carries partial unit updates
type UpdateUnitRequest struct {
	Name          *string  `json:"name,omitempty" binding:"omitempty,min=1,max=120"`
	Description   *string  `json:"description,omitempty" binding:"omitempty,max=2000"`
	PricePerNight *float64 `json:"price_per_night,omitempty" binding:"omitempty,gt=0"`
	Capacity      *int     `json:"capacity,omitempty" binding:"omitempty,gt=0"`
	Active        *bool    `json:"active,omitempty"`
}

// AvailabilityResult is the response of an availability check
type AvailabilityResult struct {
	Available             bool        `json:"available"`
	ConflictingBookingIDs []uuid.UUID `json:"conflicting_booking_ids"`
}

// PriceQuote is the response of a price computation
type PriceQuote struct {
	Nights        int     `json:"nights"`
	PricePerNight float64 `json:"price_per_night"`
	TotalPrice    float64 `json:"total_price"`
	Currency      string  `json:"currency"`
}
