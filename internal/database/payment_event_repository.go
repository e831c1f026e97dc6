package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/ethiocampground/booking-backend/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PaymentEventRepository handles the append-only payment audit trail
type PaymentEventRepository struct {
	db *sqlx.DB
}

// NewPaymentEventRepository creates a new PaymentEventRepository
func NewPaymentEventRepository(db *sqlx.DB) *PaymentEventRepository {
	return &PaymentEventRepository{db: db}
}

// Record appends a payment event. The partial unique index on
// (gateway, tx_ref, event_type) rejects a second non-duplicate insert for
// the same event; when that happens the event is written again with
// IsDuplicate set so redelivered webhooks still leave a trace. The returned
// bool reports whether the event was a duplicate.
func (r *PaymentEventRepository) Record(event *models.PaymentEvent) (bool, error) {
	event.ID = uuid.New()
	event.CreatedAt = time.Now()

	err := r.insert(event)
	if err == nil {
		return event.IsDuplicate, nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation && !event.IsDuplicate {
		event.ID = uuid.New()
		event.IsDuplicate = true
		if err := r.insert(event); err != nil {
			return true, fmt.Errorf("failed to record duplicate payment event: %w", err)
		}
		return true, nil
	}
	return false, fmt.Errorf("failed to record payment event: %w", err)
}

func (r *PaymentEventRepository) insert(event *models.PaymentEvent) error {
	query := `
		INSERT INTO payment_events (
			id, booking_id, gateway, tx_ref, event_type, amount, currency,
			success, is_duplicate, raw_payload, error_detail, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.Exec(query,
		event.ID, event.BookingID, event.Gateway, event.TxRef, event.EventType,
		event.Amount, event.Currency, event.Success, event.IsDuplicate,
		event.RawPayload, event.ErrorDetail, event.CreatedAt)
	return err
}

// ListByBooking returns the audit trail for a booking, oldest first
func (r *PaymentEventRepository) ListByBooking(bookingID uuid.UUID) ([]models.PaymentEvent, error) {
	query := `
		SELECT id, booking_id, gateway, tx_ref, event_type, amount, currency,
		       success, is_duplicate, raw_payload, error_detail, created_at
		FROM payment_events
		WHERE booking_id = $1
		ORDER BY created_at ASC`

	var events []models.PaymentEvent
	if err := r.db.Select(&events, query, bookingID); err != nil {
		return nil, fmt.Errorf("failed to list payment events: %w", err)
	}
	return events, nil
}
