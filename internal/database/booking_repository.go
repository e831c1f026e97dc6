package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ethiocampground/booking-backend/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Postgres error codes relevant to booking creation
const (
	pgExclusionViolation = "23P01"
	pgUniqueViolation    = "23505"
)

const bookingColumns = `
	id, unit_id, camper_id, check_in, check_out, nights, guests,
	price_per_night, total_price, currency, status, payment_status,
	payment_gateway, payment_tx_ref, hold_expires_at,
	confirmed_at, cancelled_at, completed_at, created_at, updated_at,
	idempotency_key`

// BookingRepository handles booking database operations
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository creates a new BookingRepository
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// ============================================================================
// CREATION (atomic with respect to concurrent creations on the same unit)
// ============================================================================

// CreateExclusive checks availability and inserts the booking as one atomic
// unit. The unit row is locked for the duration of the transaction so two
// concurrent creations on the same unit serialize; the bookings_no_overlap
// exclusion constraint backstops the check at the schema level.
func (r *BookingRepository) CreateExclusive(booking *models.Booking) error {
	booking.ID = uuid.New()
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = booking.CreatedAt

	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Serialize concurrent creations on this unit
	var lockedID uuid.UUID
	err = tx.Get(&lockedID, `SELECT id FROM units WHERE id = $1 FOR UPDATE`, booking.UnitID)
	if err == sql.ErrNoRows {
		return models.NewDomainError(models.ErrNotFound, "unit not found")
	}
	if err != nil {
		return fmt.Errorf("failed to lock unit: %w", err)
	}

	var conflictIDs []uuid.UUID
	err = tx.Select(&conflictIDs, `
		SELECT id FROM bookings
		WHERE unit_id = $1
		  AND status IN ('pending', 'confirmed')
		  AND check_in < $3 AND $2 < check_out
		ORDER BY check_in`,
		booking.UnitID, booking.CheckIn, booking.CheckOut)
	if err != nil {
		return fmt.Errorf("failed to check overlapping bookings: %w", err)
	}
	if len(conflictIDs) > 0 {
		return models.NewConflictError("requested dates are no longer available", conflictIDs)
	}

	_, err = tx.Exec(`
		INSERT INTO bookings (
			id, unit_id, camper_id, check_in, check_out, nights, guests,
			price_per_night, total_price, currency, status, payment_status,
			hold_expires_at, created_at, updated_at, idempotency_key
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16
		)`,
		booking.ID, booking.UnitID, booking.CamperID,
		booking.CheckIn, booking.CheckOut, booking.Nights, booking.Guests,
		booking.PricePerNight, booking.TotalPrice, booking.Currency,
		booking.Status, booking.PaymentStatus, booking.HoldExpiresAt,
		booking.CreatedAt, booking.UpdatedAt, booking.IdempotencyKey,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pgExclusionViolation {
			return models.NewConflictError("requested dates are no longer available", nil)
		}
		return fmt.Errorf("failed to insert booking: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit booking: %w", err)
	}
	return nil
}

// ============================================================================
// LOOKUPS
// ============================================================================

// GetByID retrieves a booking by ID. Returns (nil, nil) when not found.
func (r *BookingRepository) GetByID(bookingID uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	err := r.db.Get(&booking, query, bookingID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch booking: %w", err)
	}
	return &booking, nil
}

// GetByIdempotencyKey retrieves a camper's booking by idempotency key
func (r *BookingRepository) GetByIdempotencyKey(camperID uuid.UUID, key string) (*models.Booking, error) {
	var booking models.Booking
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE camper_id = $1 AND idempotency_key = $2`

	err := r.db.Get(&booking, query, camperID, key)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch booking by idempotency key: %w", err)
	}
	return &booking, nil
}

// GetByTxRef retrieves a booking by its gateway transaction reference
func (r *BookingRepository) GetByTxRef(gateway, txRef string) (*models.Booking, error) {
	var booking models.Booking
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE payment_gateway = $1 AND payment_tx_ref = $2`

	err := r.db.Get(&booking, query, gateway, txRef)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch booking by tx ref: %w", err)
	}
	return &booking, nil
}

// ListByCamper returns a camper's bookings, newest first
func (r *BookingRepository) ListByCamper(camperID uuid.UUID, limit, offset int) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
		WHERE camper_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	var bookings []models.Booking
	if err := r.db.Select(&bookings, query, camperID, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

// FindOverlapping returns bookings on the unit whose date range overlaps
// [checkIn, checkOut) and whose status blocks availability.
func (r *BookingRepository) FindOverlapping(unitID uuid.UUID, checkIn, checkOut time.Time) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
		WHERE unit_id = $1
		  AND status IN ('pending', 'confirmed')
		  AND check_in < $3 AND $2 < check_out
		ORDER BY check_in`

	var bookings []models.Booking
	if err := r.db.Select(&bookings, query, unitID, checkIn, checkOut); err != nil {
		return nil, fmt.Errorf("failed to find overlapping bookings: %w", err)
	}
	return bookings, nil
}

// ============================================================================
// GUARDED STATE TRANSITIONS
// ============================================================================

// MarkPaymentInitiated records the gateway handle on a pending/unpaid
// booking. The WHERE guard rejects the transition from any other state.
func (r *BookingRepository) MarkPaymentInitiated(bookingID uuid.UUID, gateway, txRef string) error {
	query := `
		UPDATE bookings
		SET payment_gateway = $2, payment_tx_ref = $3, updated_at = NOW()
		WHERE id = $1 AND status = 'pending' AND payment_status = 'unpaid'`

	result, err := r.db.Exec(query, bookingID, gateway, txRef)
	if err != nil {
		return fmt.Errorf("failed to mark payment initiated: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return models.NewDomainError(models.ErrInvalidState, "booking is not awaiting payment")
	}
	return nil
}

// ConfirmPaid transitions pending/unpaid to confirmed/paid. Returns true
// when the transition happened, false when the booking was already past
// pending (the idempotent-webhook path).
func (r *BookingRepository) ConfirmPaid(bookingID uuid.UUID) (bool, error) {
	query := `
		UPDATE bookings
		SET status = 'confirmed', payment_status = 'paid',
		    confirmed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'pending' AND payment_status = 'unpaid'`

	result, err := r.db.Exec(query, bookingID)
	if err != nil {
		return false, fmt.Errorf("failed to confirm payment: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// Cancel transitions pending or confirmed to cancelled. If the booking was
// paid, the payment axis moves to refund_requested (phase one of the
// two-phase refund).
func (r *BookingRepository) Cancel(bookingID uuid.UUID) error {
	query := `
		UPDATE bookings
		SET status = 'cancelled',
		    payment_status = CASE WHEN payment_status = 'paid' THEN 'refund_requested' ELSE payment_status END,
		    cancelled_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status IN ('pending', 'confirmed')`

	result, err := r.db.Exec(query, bookingID)
	if err != nil {
		return fmt.Errorf("failed to cancel booking: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return models.NewDomainError(models.ErrInvalidState, "booking cannot be cancelled in its current state")
	}
	return nil
}

// ConfirmRefund completes phase two of a refund after the gateway refund
// has been externally confirmed.
func (r *BookingRepository) ConfirmRefund(bookingID uuid.UUID) error {
	query := `
		UPDATE bookings
		SET payment_status = 'refunded', updated_at = NOW()
		WHERE id = $1 AND status = 'cancelled' AND payment_status = 'refund_requested'`

	result, err := r.db.Exec(query, bookingID)
	if err != nil {
		return fmt.Errorf("failed to confirm refund: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return models.NewDomainError(models.ErrInvalidState, "no refund pending for this booking")
	}
	return nil
}

// MarkCompleted transitions confirmed to completed once the stay has ended.
// Zero rows affected is not an error: the caller treats it as a no-op.
func (r *BookingRepository) MarkCompleted(bookingID uuid.UUID, now time.Time) (bool, error) {
	query := `
		UPDATE bookings
		SET status = 'completed', completed_at = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'confirmed' AND check_out <= $2`

	result, err := r.db.Exec(query, bookingID, now)
	if err != nil {
		return false, fmt.Errorf("failed to mark booking completed: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// ============================================================================
// SWEEPS (background job support)
// ============================================================================

// ExpirePendingUnpaid cancels pending/unpaid bookings whose hold TTL has
// passed, freeing their date ranges. Safe to run concurrently with request
// handling: a single guarded UPDATE per sweep.
func (r *BookingRepository) ExpirePendingUnpaid(now time.Time) (int, error) {
	query := `
		UPDATE bookings
		SET status = 'cancelled', cancelled_at = $1, updated_at = NOW()
		WHERE status = 'pending' AND payment_status = 'unpaid' AND hold_expires_at < $1`

	result, err := r.db.Exec(query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to expire pending bookings: %w", err)
	}
	rows, _ := result.RowsAffected()
	return int(rows), nil
}

// CompletePastStays marks confirmed bookings whose check-out has passed as
// completed.
func (r *BookingRepository) CompletePastStays(now time.Time) (int, error) {
	query := `
		UPDATE bookings
		SET status = 'completed', completed_at = $1, updated_at = NOW()
		WHERE status = 'confirmed' AND check_out <= $1`

	result, err := r.db.Exec(query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to complete past stays: %w", err)
	}
	rows, _ := result.RowsAffected()
	return int(rows), nil
}
