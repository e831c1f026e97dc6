package models

import (
	"time"

	"github.com/google/uuid"
)

// CampStatus represents the approval state of a camp
type CampStatus string

const (
	CampStatusPending   CampStatus = "pending"
	CampStatusActive    CampStatus = "active"
	CampStatusSuspended CampStatus = "suspended"
)

// Camp represents a campground owned by a camp manager
type Camp struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	OwnerUserID uuid.UUID  `json:"owner_user_id" db:"owner_user_id"`
	Name        string     `json:"name" db:"name"`
	Region      string     `json:"region" db:"region"`
	Description string     `json:"description" db:"description"`
	Status      CampStatus `json:"status" db:"status"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// CreateCampRequest is the payload for registering a new camp
type CreateCampRequest struct {
	Name        string `json:"name" binding:"required,min=2,max=120"`
	Region      string `json:"region" binding:"required,min=2,max=80"`
	Description string `json:"description" binding:"max=2000"`
}

// UpdateCampRequest carries partial camp updates
type UpdateCampRequest struct {
	Name        *string `json:"name,omitempty" binding:"omitempty,min=2,max=120"`
	Region      *string `json:"region,omitempty" binding:"omitempty,min=2,max=80"`
	Description *string `json:"description,omitempty" binding:"omitempty,max=2000"`
}
