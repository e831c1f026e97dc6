package services

import (
	"github.com/ethiocampground/booking-backend/internal/models"
	"github.com/google/uuid"
)

// Actions subject to capability checks
const (
	ActionViewBooking   = "booking:view"
	ActionPayBooking    = "booking:pay"
	ActionCancelBooking = "booking:cancel"
	ActionRefundBooking = "booking:refund"
)

// Actor is the authenticated principal a capability check runs against
type Actor struct {
	UserID uuid.UUID
	Roles  []string
}

func (a Actor) hasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Authorize is the single capability check for booking actions. Admins can
// do everything; refund confirmation is admin-only; everything else requires
// owning the booking. Returns a forbidden DomainError on denial so handlers
// map it uniformly.
func Authorize(actor Actor, action string, booking *models.Booking) error {
	if actor.hasRole(models.RoleAdmin) {
		return nil
	}

	switch action {
	case ActionRefundBooking:
		return models.NewDomainError(models.ErrForbidden, "refund confirmation requires admin role")
	case ActionViewBooking, ActionPayBooking, ActionCancelBooking:
		if booking != nil && booking.CamperID == actor.UserID {
			return nil
		}
		return models.NewDomainError(models.ErrForbidden, "booking belongs to another camper")
	default:
		return models.NewDomainError(models.ErrForbidden, "action not permitted")
	}
}
