package models

import (
	"time"

	"github.com/google/uuid"
)

// DateLayout is the wire format for check-in/check-out dates
const DateLayout = "2006-01-02"

// BookingStatus represents the lifecycle status of a booking
// Matches PostgreSQL ENUM: booking_status
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"   // created, awaiting payment
	BookingStatusConfirmed BookingStatus = "confirmed" // payment verified
	BookingStatusCompleted BookingStatus = "completed" // stay window has passed
	BookingStatusCancelled BookingStatus = "cancelled" // terminal, soft lifecycle end
)

// PaymentStatus is the independent payment axis of a booking
// Matches PostgreSQL ENUM: payment_status
type PaymentStatus string

const (
	PaymentStatusUnpaid          PaymentStatus = "unpaid"
	PaymentStatusPaid            PaymentStatus = "paid"
	PaymentStatusRefundRequested PaymentStatus = "refund_requested"
	PaymentStatusRefunded        PaymentStatus = "refunded"
)

// Booking represents a reservation of a unit for a date range.
// Rows are never deleted; cancellation is a status transition.
type Booking struct {
	ID       uuid.UUID `json:"id" db:"id"`
	UnitID   uuid.UUID `json:"unit_id" db:"unit_id"`
	CamperID uuid.UUID `json:"camper_id" db:"camper_id"`

	// Date range, half-open [check_in, check_out)
	CheckIn  time.Time `json:"check_in" db:"check_in"`
	CheckOut time.Time `json:"check_out" db:"check_out"`
	Nights   int       `json:"nights" db:"nights"`
	Guests   int       `json:"guests" db:"guests"`

	// Pricing snapshot taken at creation; immutable afterwards
	PricePerNight float64 `json:"price_per_night" db:"price_per_night"`
	TotalPrice    float64 `json:"total_price" db:"total_price"`
	Currency      string  `json:"currency" db:"currency"`

	Status        BookingStatus `json:"status" db:"status"`
	PaymentStatus PaymentStatus `json:"payment_status" db:"payment_status"`

	// Gateway tracking
	PaymentGateway *string `json:"payment_gateway,omitempty" db:"payment_gateway"`
	PaymentTxRef   *string `json:"payment_tx_ref,omitempty" db:"payment_tx_ref"`

	// A pending/unpaid booking past this instant is swept to cancelled
	HoldExpiresAt time.Time `json:"hold_expires_at" db:"hold_expires_at"`

	ConfirmedAt *time.Time `json:"confirmed_at,omitempty" db:"confirmed_at"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty" db:"cancelled_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`

	IdempotencyKey *string `json:"idempotency_key,omitempty" db:"idempotency_key"`
}

// BlocksAvailability reports whether this booking counts against the unit's
// availability for overlapping ranges.
func (b *Booking) BlocksAvailability() bool {
	return b.Status == BookingStatusPending || b.Status == BookingStatusConfirmed
}

// CanInitiatePayment reports whether payment may be started.
func (b *Booking) CanInitiatePayment() bool {
	return b.Status == BookingStatusPending && b.PaymentStatus == PaymentStatusUnpaid
}

// CanCancel reports whether the booking may be cancelled.
func (b *Booking) CanCancel() bool {
	return b.Status == BookingStatusPending || b.Status == BookingStatusConfirmed
}

// Overlaps reports half-open interval overlap with [checkIn, checkOut).
func (b *Booking) Overlaps(checkIn, checkOut time.Time) bool {
	return b.CheckIn.Before(checkOut) && checkIn.Before(b.CheckOut)
}

// ============================================================================
// REQUEST / RESPONSE TYPES
// ============================================================================

// CreateBookingRequest is the payload for creating a booking
type CreateBookingRequest struct {
	UnitID         string  `json:"unit_id" binding:"required,uuid"`
	CheckIn        string  `json:"check_in" binding:"required,datetime=2006-01-02"`
	CheckOut       string  `json:"check_out" binding:"required,datetime=2006-01-02"`
	Guests         int     `json:"guests" binding:"required,gt=0"`
	IdempotencyKey *string `json:"idempotency_key,omitempty"`
}

// CreateBookingResponse is returned on successful creation
type CreateBookingResponse struct {
	BookingID     uuid.UUID     `json:"booking_id"`
	Status        BookingStatus `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	Nights        int           `json:"nights"`
	TotalPrice    float64       `json:"total_price"`
	Currency      string        `json:"currency"`
	HoldExpiresAt time.Time     `json:"hold_expires_at"`
}

// InitiatePaymentRequest selects the payment method for a booking
type InitiatePaymentRequest struct {
	Method string `json:"method" binding:"required,oneof=stripe chapa"`
}

// InitiatePaymentResponse carries the gateway handle back to the client.
// Exactly one of CheckoutURL/ClientSecret is set depending on the gateway.
type InitiatePaymentResponse struct {
	BookingID    uuid.UUID `json:"booking_id"`
	Gateway      string    `json:"gateway"`
	TxRef        string    `json:"tx_ref"`
	CheckoutURL  string    `json:"checkout_url,omitempty"`
	ClientSecret string    `json:"client_secret,omitempty"`
	Amount       float64   `json:"amount"`
	Currency     string    `json:"currency"`
}
