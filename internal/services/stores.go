package services

import (
	"time"

	"github.com/ethiocampground/booking-backend/internal/models"
	"github.com/google/uuid"
)

// Store interfaces cover the repository surface the services consume.
// The database package's repositories satisfy them; tests substitute fakes.

// UnitStore provides unit lookups
type UnitStore interface {
	GetByID(unitID uuid.UUID) (*models.Unit, error)
}

// BookingStore provides booking persistence and state transitions
type BookingStore interface {
	CreateExclusive(booking *models.Booking) error
	GetByID(bookingID uuid.UUID) (*models.Booking, error)
	GetByIdempotencyKey(camperID uuid.UUID, key string) (*models.Booking, error)
	GetByTxRef(gateway, txRef string) (*models.Booking, error)
	ListByCamper(camperID uuid.UUID, limit, offset int) ([]models.Booking, error)
	FindOverlapping(unitID uuid.UUID, checkIn, checkOut time.Time) ([]models.Booking, error)
	MarkPaymentInitiated(bookingID uuid.UUID, gateway, txRef string) error
	ConfirmPaid(bookingID uuid.UUID) (bool, error)
	Cancel(bookingID uuid.UUID) error
	ConfirmRefund(bookingID uuid.UUID) error
	MarkCompleted(bookingID uuid.UUID, now time.Time) (bool, error)
	ExpirePendingUnpaid(now time.Time) (int, error)
	CompletePastStays(now time.Time) (int, error)
}

// PaymentEventStore provides the payment audit trail
type PaymentEventStore interface {
	Record(event *models.PaymentEvent) (bool, error)
	ListByBooking(bookingID uuid.UUID) ([]models.PaymentEvent, error)
}
