package payment

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Sentinel errors gateways return so callers can classify failures
var (
	// ErrUnavailable wraps transport and upstream failures
	ErrUnavailable = errors.New("payment gateway unavailable")
	// ErrInvalidSignature means webhook signature verification failed
	ErrInvalidSignature = errors.New("webhook signature verification failed")
)

// IntentRequest carries everything a gateway needs to open a payment
type IntentRequest struct {
	BookingID   uuid.UUID
	TxRef       string
	Amount      float64
	Currency    string
	Email       string
	FirstName   string
	LastName    string
	CallbackURL string
	ReturnURL   string
}

// Intent is the gateway handle returned to the client. Exactly one of
// CheckoutURL (redirect gateways) or ClientSecret (embedded gateways) is set.
type Intent struct {
	TxRef        string
	CheckoutURL  string
	ClientSecret string
}

// WebhookEvent is the gateway-neutral form of a payment notification
type WebhookEvent struct {
	TxRef    string
	Success  bool
	Amount   float64
	Currency string
}

// Gateway defines the interface for collecting payments
type Gateway interface {
	// Name returns the gateway identifier stored on bookings and events
	Name() string

	// CreateIntent opens a payment for the given amount and returns the
	// handle the client uses to complete it
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)

	// VerifyWebhook checks the signature header against the raw payload.
	// Returns ErrInvalidSignature on mismatch.
	VerifyWebhook(signature string, payload []byte) error

	// ParseWebhook extracts the gateway-neutral event from a verified payload
	ParseWebhook(payload []byte) (*WebhookEvent, error)
}
