package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentEventType classifies entries in the payment audit trail
type PaymentEventType string

const (
	PaymentEventInitiated PaymentEventType = "initiated"
	PaymentEventConfirmed PaymentEventType = "confirmed"
	PaymentEventFailed    PaymentEventType = "failed"
	PaymentEventRejected  PaymentEventType = "rejected" // verification failure
)

// PaymentEvent is an append-only audit record of every payment interaction.
// A unique index on (gateway, tx_ref, event_type) makes webhook redelivery
// detection a schema-level fact: the second insert fails and the event is
// recorded again with IsDuplicate set instead.
type PaymentEvent struct {
	ID          uuid.UUID        `json:"id" db:"id"`
	BookingID   *uuid.UUID       `json:"booking_id,omitempty" db:"booking_id"`
	Gateway     string           `json:"gateway" db:"gateway"`
	TxRef       string           `json:"tx_ref" db:"tx_ref"`
	EventType   PaymentEventType `json:"event_type" db:"event_type"`
	Amount      float64          `json:"amount" db:"amount"`
	Currency    string           `json:"currency" db:"currency"`
	Success     bool             `json:"success" db:"success"`
	IsDuplicate bool             `json:"is_duplicate" db:"is_duplicate"`
	RawPayload  []byte           `json:"-" db:"raw_payload"`
	ErrorDetail *string          `json:"error_detail,omitempty" db:"error_detail"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`
}
