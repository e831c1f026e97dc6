package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ethiocampground/booking-backend/internal/models"
	"github.com/ethiocampground/booking-backend/pkg/payment"
)

// In-memory fakes implementing the store interfaces for service tests.

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock { return &fakeClock{now: now} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeUnitStore struct {
	units map[uuid.UUID]*models.Unit
}

func newFakeUnitStore(units ...*models.Unit) *fakeUnitStore {
	s := &fakeUnitStore{units: make(map[uuid.UUID]*models.Unit)}
	for _, u := range units {
		s.units[u.ID] = u
	}
	return s
}

func (s *fakeUnitStore) GetByID(unitID uuid.UUID) (*models.Unit, error) {
	u, ok := s.units[unitID]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

type fakeBookingStore struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*models.Booking
}

func newFakeBookingStore() *fakeBookingStore {
	return &fakeBookingStore{bookings: make(map[uuid.UUID]*models.Booking)}
}

func (s *fakeBookingStore) CreateExclusive(booking *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var conflictIDs []uuid.UUID
	for _, b := range s.bookings {
		if b.UnitID == booking.UnitID && b.BlocksAvailability() && b.Overlaps(booking.CheckIn, booking.CheckOut) {
			conflictIDs = append(conflictIDs, b.ID)
		}
	}
	if len(conflictIDs) > 0 {
		return models.NewConflictError("requested dates are no longer available", conflictIDs)
	}

	booking.ID = uuid.New()
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = booking.CreatedAt
	copied := *booking
	s.bookings[booking.ID] = &copied
	return nil
}

func (s *fakeBookingStore) GetByID(bookingID uuid.UUID) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[bookingID]
	if !ok {
		return nil, nil
	}
	copied := *b
	return &copied, nil
}

func (s *fakeBookingStore) GetByIdempotencyKey(camperID uuid.UUID, key string) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bookings {
		if b.CamperID == camperID && b.IdempotencyKey != nil && *b.IdempotencyKey == key {
			copied := *b
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *fakeBookingStore) GetByTxRef(gateway, txRef string) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bookings {
		if b.PaymentGateway != nil && *b.PaymentGateway == gateway &&
			b.PaymentTxRef != nil && *b.PaymentTxRef == txRef {
			copied := *b
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *fakeBookingStore) ListByCamper(camperID uuid.UUID, limit, offset int) ([]models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Booking
	for _, b := range s.bookings {
		if b.CamperID == camperID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *fakeBookingStore) FindOverlapping(unitID uuid.UUID, checkIn, checkOut time.Time) ([]models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Booking
	for _, b := range s.bookings {
		if b.UnitID == unitID && b.BlocksAvailability() && b.Overlaps(checkIn, checkOut) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *fakeBookingStore) MarkPaymentInitiated(bookingID uuid.UUID, gateway, txRef string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[bookingID]
	if !ok || !b.CanInitiatePayment() {
		return models.NewDomainError(models.ErrInvalidState, "booking is not awaiting payment")
	}
	b.PaymentGateway = &gateway
	b.PaymentTxRef = &txRef
	return nil
}

func (s *fakeBookingStore) ConfirmPaid(bookingID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[bookingID]
	if !ok || b.Status != models.BookingStatusPending || b.PaymentStatus != models.PaymentStatusUnpaid {
		return false, nil
	}
	now := time.Now()
	b.Status = models.BookingStatusConfirmed
	b.PaymentStatus = models.PaymentStatusPaid
	b.ConfirmedAt = &now
	return true, nil
}

func (s *fakeBookingStore) Cancel(bookingID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[bookingID]
	if !ok || !b.CanCancel() {
		return models.NewDomainError(models.ErrInvalidState, "booking cannot be cancelled in its current state")
	}
	now := time.Now()
	b.Status = models.BookingStatusCancelled
	b.CancelledAt = &now
	if b.PaymentStatus == models.PaymentStatusPaid {
		b.PaymentStatus = models.PaymentStatusRefundRequested
	}
	return nil
}

func (s *fakeBookingStore) ConfirmRefund(bookingID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[bookingID]
	if !ok || b.Status != models.BookingStatusCancelled || b.PaymentStatus != models.PaymentStatusRefundRequested {
		return models.NewDomainError(models.ErrInvalidState, "no refund pending for this booking")
	}
	b.PaymentStatus = models.PaymentStatusRefunded
	return nil
}

func (s *fakeBookingStore) MarkCompleted(bookingID uuid.UUID, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[bookingID]
	if !ok || b.Status != models.BookingStatusConfirmed || b.CheckOut.After(now) {
		return false, nil
	}
	b.Status = models.BookingStatusCompleted
	b.CompletedAt = &now
	return true, nil
}

func (s *fakeBookingStore) ExpirePendingUnpaid(now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, b := range s.bookings {
		if b.Status == models.BookingStatusPending && b.PaymentStatus == models.PaymentStatusUnpaid && b.HoldExpiresAt.Before(now) {
			b.Status = models.BookingStatusCancelled
			cancelledAt := now
			b.CancelledAt = &cancelledAt
			count++
		}
	}
	return count, nil
}

func (s *fakeBookingStore) CompletePastStays(now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, b := range s.bookings {
		if b.Status == models.BookingStatusConfirmed && !b.CheckOut.After(now) {
			b.Status = models.BookingStatusCompleted
			completedAt := now
			b.CompletedAt = &completedAt
			count++
		}
	}
	return count, nil
}

type fakeEventStore struct {
	mu     sync.Mutex
	events []models.PaymentEvent
}

func newFakeEventStore() *fakeEventStore { return &fakeEventStore{} }

func (s *fakeEventStore) Record(event *models.PaymentEvent) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.events {
		if !e.IsDuplicate && e.Gateway == event.Gateway && e.TxRef == event.TxRef && e.EventType == event.EventType {
			event.IsDuplicate = true
			break
		}
	}
	event.ID = uuid.New()
	event.CreatedAt = time.Now()
	s.events = append(s.events, *event)
	return event.IsDuplicate, nil
}

func (s *fakeEventStore) ListByBooking(bookingID uuid.UUID) ([]models.PaymentEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.PaymentEvent
	for _, e := range s.events {
		if e.BookingID != nil && *e.BookingID == bookingID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeEventStore) byType(eventType models.PaymentEventType) []models.PaymentEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.PaymentEvent
	for _, e := range s.events {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

// fakeGateway implements payment.Gateway with scriptable behavior
type fakeGateway struct {
	name        string
	failures    int // CreateIntent failures before succeeding
	calls       int
	verifyErr   error
	parsedEvent *payment.WebhookEvent
}

func (g *fakeGateway) Name() string { return g.name }

func (g *fakeGateway) CreateIntent(ctx context.Context, req payment.IntentRequest) (*payment.Intent, error) {
	g.calls++
	if g.calls <= g.failures {
		return nil, fmt.Errorf("%w: connection refused", payment.ErrUnavailable)
	}
	return &payment.Intent{TxRef: req.TxRef, CheckoutURL: "https://checkout.test/" + req.TxRef}, nil
}

func (g *fakeGateway) VerifyWebhook(signature string, payload []byte) error {
	return g.verifyErr
}

func (g *fakeGateway) ParseWebhook(payload []byte) (*payment.WebhookEvent, error) {
	if g.parsedEvent == nil {
		return nil, fmt.Errorf("no event scripted")
	}
	return g.parsedEvent, nil
}
