package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ethiocampground/booking-backend/internal/models"
	"github.com/ethiocampground/booking-backend/pkg/payment"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// BookingServiceConfig holds configuration for the booking lifecycle
type BookingServiceConfig struct {
	HoldTTL         time.Duration // how long a pending booking holds its dates
	DefaultCurrency string
	DefaultGateway  string
	CallbackURL     string // webhook endpoint registered with the gateways
	ReturnURL       string // client redirect after hosted checkout
	IntentAttempts  int    // bounded retry for opening payment intents
	IntentBackoff   time.Duration
}

// DefaultBookingServiceConfig returns default configuration
func DefaultBookingServiceConfig() BookingServiceConfig {
	return BookingServiceConfig{
		HoldTTL:         30 * time.Minute,
		DefaultCurrency: "ETB",
		DefaultGateway:  "chapa",
		IntentAttempts:  3,
		IntentBackoff:   500 * time.Millisecond,
	}
}

// BookingService handles the booking lifecycle: create with a TTL hold,
// initiate payment, confirm via webhook, cancel with two-phase refund, and
// complete after the stay.
type BookingService struct {
	units    UnitStore
	bookings BookingStore
	events   PaymentEventStore
	gateways map[string]payment.Gateway
	config   BookingServiceConfig
	clock    Clock
	logger   *logrus.Logger
}

// NewBookingService creates a new BookingService
func NewBookingService(
	units UnitStore,
	bookings BookingStore,
	events PaymentEventStore,
	gateways map[string]payment.Gateway,
	config BookingServiceConfig,
	clock Clock,
	logger *logrus.Logger,
) *BookingService {
	if config.IntentAttempts <= 0 {
		config.IntentAttempts = 3
	}
	return &BookingService{
		units:    units,
		bookings: bookings,
		events:   events,
		gateways: gateways,
		config:   config,
		clock:    clock,
		logger:   logger,
	}
}

// ============================================================================
// CREATE
// ============================================================================

// CreateBooking creates a pending booking holding its date range for the
// configured TTL. The price is snapshotted from the unit's current rate.
// A repeated request with the same idempotency key returns the original
// booking instead of creating a second one.
func (s *BookingService) CreateBooking(camperID uuid.UUID, req *models.CreateBookingRequest) (*models.CreateBookingResponse, error) {
	if req.IdempotencyKey != nil && *req.IdempotencyKey != "" {
		existing, err := s.bookings.GetByIdempotencyKey(camperID, *req.IdempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("failed to check idempotency: %w", err)
		}
		if existing != nil {
			return buildCreateResponse(existing), nil
		}
	}

	unitID, err := uuid.Parse(req.UnitID)
	if err != nil {
		return nil, models.NewDomainError(models.ErrNotFound, "unit not found")
	}

	checkIn, checkOut, err := ParseDateRange(req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, err
	}
	today := s.clock.Now().UTC().Truncate(24 * time.Hour)
	if checkIn.Before(today) {
		return nil, models.NewDomainError(models.ErrInvalidRange, "check_in must not be in the past")
	}

	unit, err := s.units.GetByID(unitID)
	if err != nil {
		return nil, fmt.Errorf("failed to load unit: %w", err)
	}
	if unit == nil {
		return nil, models.NewDomainError(models.ErrNotFound, "unit not found")
	}
	if !unit.Active {
		return nil, models.NewDomainError(models.ErrInvalidState, "unit is not accepting bookings")
	}
	if req.Guests > unit.Capacity {
		return nil, models.NewDomainError(models.ErrCapacityExceeded,
			fmt.Sprintf("unit sleeps %d, requested %d guests", unit.Capacity, req.Guests))
	}

	nights := Nights(checkIn, checkOut)
	currency := unit.Currency
	if currency == "" {
		currency = s.config.DefaultCurrency
	}

	booking := &models.Booking{
		UnitID:         unitID,
		CamperID:       camperID,
		CheckIn:        checkIn,
		CheckOut:       checkOut,
		Nights:         nights,
		Guests:         req.Guests,
		PricePerNight:  unit.PricePerNight,
		TotalPrice:     float64(nights) * unit.PricePerNight,
		Currency:       currency,
		Status:         models.BookingStatusPending,
		PaymentStatus:  models.PaymentStatusUnpaid,
		HoldExpiresAt:  s.clock.Now().Add(s.config.HoldTTL),
		IdempotencyKey: req.IdempotencyKey,
	}

	if err := s.bookings.CreateExclusive(booking); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"unit_id":    booking.UnitID,
		"check_in":   req.CheckIn,
		"check_out":  req.CheckOut,
		"total":      booking.TotalPrice,
	}).Info("booking created")

	return buildCreateResponse(booking), nil
}

func buildCreateResponse(booking *models.Booking) *models.CreateBookingResponse {
	return &models.CreateBookingResponse{
		BookingID:     booking.ID,
		Status:        booking.Status,
		PaymentStatus: booking.PaymentStatus,
		Nights:        booking.Nights,
		TotalPrice:    booking.TotalPrice,
		Currency:      booking.Currency,
		HoldExpiresAt: booking.HoldExpiresAt,
	}
}

// ============================================================================
// PAYMENT
// ============================================================================

// InitiatePayment opens a payment intent for a pending booking on the
// selected gateway. Transient gateway failures are retried a bounded number
// of times before surfacing as gateway_unavailable.
func (s *BookingService) InitiatePayment(ctx context.Context, actor Actor, bookingID uuid.UUID, req *models.InitiatePaymentRequest) (*models.InitiatePaymentResponse, error) {
	booking, err := s.bookings.GetByID(bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	if booking == nil {
		return nil, models.NewDomainError(models.ErrNotFound, "booking not found")
	}
	if err := Authorize(actor, ActionPayBooking, booking); err != nil {
		return nil, err
	}
	if !booking.CanInitiatePayment() {
		return nil, models.NewDomainError(models.ErrInvalidState, "booking is not awaiting payment")
	}
	if s.clock.Now().After(booking.HoldExpiresAt) {
		return nil, models.NewDomainError(models.ErrInvalidState, "booking hold has expired")
	}

	method := req.Method
	if method == "" {
		method = s.config.DefaultGateway
	}
	gw, ok := s.gateways[method]
	if !ok {
		return nil, models.NewDomainError(models.ErrGatewayUnavailable,
			fmt.Sprintf("payment gateway %q is not configured", method))
	}

	txRef := fmt.Sprintf("ecg-%s", uuid.New())
	intent, err := payment.CreateIntentWithRetry(ctx, gw, payment.IntentRequest{
		BookingID:   booking.ID,
		TxRef:       txRef,
		Amount:      booking.TotalPrice,
		Currency:    booking.Currency,
		CallbackURL: s.config.CallbackURL,
		ReturnURL:   s.config.ReturnURL,
	}, s.config.IntentAttempts, s.config.IntentBackoff)
	if err != nil {
		if errors.Is(err, payment.ErrUnavailable) {
			return nil, models.NewDomainError(models.ErrGatewayUnavailable, "payment gateway is unavailable, try again later")
		}
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	if err := s.bookings.MarkPaymentInitiated(booking.ID, gw.Name(), txRef); err != nil {
		return nil, err
	}

	s.recordEvent(&models.PaymentEvent{
		BookingID: &booking.ID,
		Gateway:   gw.Name(),
		TxRef:     txRef,
		EventType: models.PaymentEventInitiated,
		Amount:    booking.TotalPrice,
		Currency:  booking.Currency,
		Success:   true,
	})

	return &models.InitiatePaymentResponse{
		BookingID:    booking.ID,
		Gateway:      gw.Name(),
		TxRef:        txRef,
		CheckoutURL:  intent.CheckoutURL,
		ClientSecret: intent.ClientSecret,
		Amount:       booking.TotalPrice,
		Currency:     booking.Currency,
	}, nil
}

// ConfirmPayment processes a gateway webhook: verify the signature, match
// the booking by tx_ref, check the paid amount, and confirm. Redelivered
// webhooks for an already confirmed booking succeed without a second
// transition; the audit trail records them as duplicates.
func (s *BookingService) ConfirmPayment(gatewayName, signature string, payload []byte) error {
	gw, ok := s.gateways[gatewayName]
	if !ok {
		return models.NewDomainError(models.ErrNotFound, "unknown payment gateway")
	}

	if err := gw.VerifyWebhook(signature, payload); err != nil {
		s.recordEvent(&models.PaymentEvent{
			Gateway:     gw.Name(),
			TxRef:       fmt.Sprintf("unverified-%s", uuid.New()),
			EventType:   models.PaymentEventRejected,
			RawPayload:  payload,
			ErrorDetail: strPtr(err.Error()),
		})
		return models.NewDomainError(models.ErrPaymentVerification, "webhook signature verification failed")
	}

	event, err := gw.ParseWebhook(payload)
	if err != nil {
		return models.NewDomainError(models.ErrPaymentVerification, "webhook payload could not be parsed")
	}

	booking, err := s.bookings.GetByTxRef(gw.Name(), event.TxRef)
	if err != nil {
		return fmt.Errorf("failed to load booking by tx ref: %w", err)
	}
	if booking == nil {
		return models.NewDomainError(models.ErrNotFound, "no booking for transaction reference")
	}

	if !event.Success {
		s.recordEvent(&models.PaymentEvent{
			BookingID:  &booking.ID,
			Gateway:    gw.Name(),
			TxRef:      event.TxRef,
			EventType:  models.PaymentEventFailed,
			Amount:     event.Amount,
			Currency:   event.Currency,
			RawPayload: payload,
		})
		// The booking stays pending; the camper may retry until the hold
		// expires.
		return nil
	}

	if event.Amount > 0 && math.Abs(event.Amount-booking.TotalPrice) > 0.01 {
		s.recordEvent(&models.PaymentEvent{
			BookingID:   &booking.ID,
			Gateway:     gw.Name(),
			TxRef:       event.TxRef,
			EventType:   models.PaymentEventRejected,
			Amount:      event.Amount,
			Currency:    event.Currency,
			RawPayload:  payload,
			ErrorDetail: strPtr(fmt.Sprintf("amount mismatch: got %.2f, expected %.2f", event.Amount, booking.TotalPrice)),
		})
		return models.NewDomainError(models.ErrPaymentVerification, "paid amount does not match booking total")
	}

	transitioned, err := s.bookings.ConfirmPaid(booking.ID)
	if err != nil {
		return err
	}
	if !transitioned && booking.Status != models.BookingStatusConfirmed {
		// Not pending anymore and not confirmed either: the hold lapsed or
		// the booking was cancelled before the webhook arrived.
		s.recordEvent(&models.PaymentEvent{
			BookingID:   &booking.ID,
			Gateway:     gw.Name(),
			TxRef:       event.TxRef,
			EventType:   models.PaymentEventRejected,
			Amount:      event.Amount,
			Currency:    event.Currency,
			RawPayload:  payload,
			ErrorDetail: strPtr(fmt.Sprintf("booking in state %s cannot be confirmed", booking.Status)),
		})
		return models.NewDomainError(models.ErrInvalidState, "booking can no longer be confirmed")
	}

	duplicate, _ := s.recordEvent(&models.PaymentEvent{
		BookingID:  &booking.ID,
		Gateway:    gw.Name(),
		TxRef:      event.TxRef,
		EventType:  models.PaymentEventConfirmed,
		Amount:     event.Amount,
		Currency:   event.Currency,
		Success:    true,
		RawPayload: payload,
	})

	s.logger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"gateway":    gw.Name(),
		"tx_ref":     event.TxRef,
		"duplicate":  duplicate,
	}).Info("payment confirmed")
	return nil
}

// ============================================================================
// CANCEL / REFUND
// ============================================================================

// CancelBooking cancels a pending or confirmed booking, freeing its dates.
// A paid booking enters refund_requested; the money side completes later
// via ConfirmRefund once the gateway refund has been issued.
func (s *BookingService) CancelBooking(actor Actor, bookingID uuid.UUID) (*models.Booking, error) {
	booking, err := s.bookings.GetByID(bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	if booking == nil {
		return nil, models.NewDomainError(models.ErrNotFound, "booking not found")
	}
	if err := Authorize(actor, ActionCancelBooking, booking); err != nil {
		return nil, err
	}
	if !booking.CanCancel() {
		return nil, models.NewDomainError(models.ErrInvalidState,
			fmt.Sprintf("booking in state %s cannot be cancelled", booking.Status))
	}

	if err := s.bookings.Cancel(booking.ID); err != nil {
		return nil, err
	}

	updated, err := s.bookings.GetByID(booking.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload booking: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":     booking.ID,
		"payment_status": updated.PaymentStatus,
	}).Info("booking cancelled")
	return updated, nil
}

// ConfirmRefund completes a pending refund after an operator has issued it
// on the gateway. Admin only.
func (s *BookingService) ConfirmRefund(actor Actor, bookingID uuid.UUID) error {
	booking, err := s.bookings.GetByID(bookingID)
	if err != nil {
		return fmt.Errorf("failed to load booking: %w", err)
	}
	if booking == nil {
		return models.NewDomainError(models.ErrNotFound, "booking not found")
	}
	if err := Authorize(actor, ActionRefundBooking, booking); err != nil {
		return err
	}

	if err := s.bookings.ConfirmRefund(booking.ID); err != nil {
		return err
	}

	s.logger.WithField("booking_id", booking.ID).Info("refund confirmed")
	return nil
}

// ============================================================================
// COMPLETION / QUERIES
// ============================================================================

// MarkCompleted transitions a confirmed booking whose stay has ended to
// completed. When the booking is not eligible (stay not ended, already
// completed, cancelled) the call is a silent no-op so sweeps and retries
// stay idempotent.
func (s *BookingService) MarkCompleted(bookingID uuid.UUID) error {
	booking, err := s.bookings.GetByID(bookingID)
	if err != nil {
		return fmt.Errorf("failed to load booking: %w", err)
	}
	if booking == nil {
		return models.NewDomainError(models.ErrNotFound, "booking not found")
	}

	if _, err := s.bookings.MarkCompleted(booking.ID, s.clock.Now()); err != nil {
		return err
	}
	return nil
}

// GetBooking returns a booking the actor is allowed to see
func (s *BookingService) GetBooking(actor Actor, bookingID uuid.UUID) (*models.Booking, error) {
	booking, err := s.bookings.GetByID(bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	if booking == nil {
		return nil, models.NewDomainError(models.ErrNotFound, "booking not found")
	}
	if err := Authorize(actor, ActionViewBooking, booking); err != nil {
		return nil, err
	}
	return booking, nil
}

// ListMyBookings returns the actor's bookings, newest first
func (s *BookingService) ListMyBookings(actor Actor, limit, offset int) ([]models.Booking, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.bookings.ListByCamper(actor.UserID, limit, offset)
}

// recordEvent appends to the audit trail; failures are logged, never fatal
func (s *BookingService) recordEvent(event *models.PaymentEvent) (bool, error) {
	duplicate, err := s.events.Record(event)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"tx_ref":     event.TxRef,
			"event_type": event.EventType,
			"error":      err.Error(),
		}).Error("failed to record payment event")
	}
	return duplicate, err
}

func strPtr(s string) *string { return &s }
