package services

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethiocampground/booking-backend/internal/models"
	"github.com/ethiocampground/booking-backend/pkg/payment"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type serviceFixture struct {
	service  *BookingService
	units    *fakeUnitStore
	bookings *fakeBookingStore
	events   *fakeEventStore
	gateway  *fakeGateway
	clock    *fakeClock
	unit     *models.Unit
	camperID uuid.UUID
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	unit := &models.Unit{
		ID:            uuid.New(),
		CampID:        uuid.New(),
		Name:          "Lakeside Tent 1",
		PricePerNight: 1500,
		Currency:      "ETB",
		Capacity:      4,
		Active:        true,
	}

	units := newFakeUnitStore(unit)
	bookings := newFakeBookingStore()
	events := newFakeEventStore()
	gateway := &fakeGateway{name: "chapa"}
	clock := newFakeClock(time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC))

	config := DefaultBookingServiceConfig()
	config.IntentBackoff = time.Millisecond

	service := NewBookingService(
		units, bookings, events,
		map[string]payment.Gateway{"chapa": gateway},
		config, clock, testLogger(),
	)

	return &serviceFixture{
		service:  service,
		units:    units,
		bookings: bookings,
		events:   events,
		gateway:  gateway,
		clock:    clock,
		unit:     unit,
		camperID: uuid.New(),
	}
}

func (f *serviceFixture) createRequest() *models.CreateBookingRequest {
	return &models.CreateBookingRequest{
		UnitID:   f.unit.ID.String(),
		CheckIn:  "2026-10-01",
		CheckOut: "2026-10-04",
		Guests:   2,
	}
}

func (f *serviceFixture) actor() Actor {
	return Actor{UserID: f.camperID, Roles: []string{models.RoleCamper}}
}

func TestCreateBooking(t *testing.T) {
	t.Run("Snapshots Price And Sets Hold", func(t *testing.T) {
		f := newServiceFixture(t)

		resp, err := f.service.CreateBooking(f.camperID, f.createRequest())
		require.NoError(t, err)

		assert.Equal(t, models.BookingStatusPending, resp.Status)
		assert.Equal(t, models.PaymentStatusUnpaid, resp.PaymentStatus)
		assert.Equal(t, 3, resp.Nights)
		assert.Equal(t, 4500.0, resp.TotalPrice)
		assert.Equal(t, "ETB", resp.Currency)
		assert.Equal(t, f.clock.Now().Add(30*time.Minute), resp.HoldExpiresAt)
	})

	t.Run("Rejects Inverted Range", func(t *testing.T) {
		f := newServiceFixture(t)

		req := f.createRequest()
		req.CheckIn, req.CheckOut = req.CheckOut, req.CheckIn

		_, err := f.service.CreateBooking(f.camperID, req)
		assert.Equal(t, models.ErrInvalidRange, models.KindOf(err))
	})

	t.Run("Rejects Zero Nights", func(t *testing.T) {
		f := newServiceFixture(t)

		req := f.createRequest()
		req.CheckOut = req.CheckIn

		_, err := f.service.CreateBooking(f.camperID, req)
		assert.Equal(t, models.ErrInvalidRange, models.KindOf(err))
	})

	t.Run("Rejects Past Check-In", func(t *testing.T) {
		f := newServiceFixture(t)

		req := f.createRequest()
		req.CheckIn = "2026-08-01"

		_, err := f.service.CreateBooking(f.camperID, req)
		assert.Equal(t, models.ErrInvalidRange, models.KindOf(err))
	})

	t.Run("Rejects Too Many Guests", func(t *testing.T) {
		f := newServiceFixture(t)

		req := f.createRequest()
		req.Guests = 5

		_, err := f.service.CreateBooking(f.camperID, req)
		assert.Equal(t, models.ErrCapacityExceeded, models.KindOf(err))
	})

	t.Run("Unknown Unit", func(t *testing.T) {
		f := newServiceFixture(t)

		req := f.createRequest()
		req.UnitID = uuid.New().String()

		_, err := f.service.CreateBooking(f.camperID, req)
		assert.Equal(t, models.ErrNotFound, models.KindOf(err))
	})

	t.Run("Inactive Unit", func(t *testing.T) {
		f := newServiceFixture(t)
		f.units.units[f.unit.ID].Active = false

		_, err := f.service.CreateBooking(f.camperID, f.createRequest())
		assert.Equal(t, models.ErrInvalidState, models.KindOf(err))
	})

	t.Run("Overlapping Dates Conflict", func(t *testing.T) {
		f := newServiceFixture(t)

		first, err := f.service.CreateBooking(f.camperID, f.createRequest())
		require.NoError(t, err)

		req := f.createRequest()
		req.CheckIn = "2026-10-03"
		req.CheckOut = "2026-10-06"

		_, err = f.service.CreateBooking(uuid.New(), req)
		require.Error(t, err)
		assert.Equal(t, models.ErrConflict, models.KindOf(err))

		var de *models.DomainError
		require.ErrorAs(t, err, &de)
		assert.Contains(t, de.ConflictingBookingIDs, first.BookingID)
	})

	t.Run("Back To Back Stays Do Not Conflict", func(t *testing.T) {
		f := newServiceFixture(t)

		_, err := f.service.CreateBooking(f.camperID, f.createRequest())
		require.NoError(t, err)

		// New check-in on the previous check-out day: half-open ranges
		req := f.createRequest()
		req.CheckIn = "2026-10-04"
		req.CheckOut = "2026-10-07"

		_, err = f.service.CreateBooking(uuid.New(), req)
		assert.NoError(t, err)
	})

	t.Run("Idempotency Key Returns Original", func(t *testing.T) {
		f := newServiceFixture(t)

		key := "retry-abc-123"
		req := f.createRequest()
		req.IdempotencyKey = &key

		first, err := f.service.CreateBooking(f.camperID, req)
		require.NoError(t, err)

		second, err := f.service.CreateBooking(f.camperID, req)
		require.NoError(t, err)
		assert.Equal(t, first.BookingID, second.BookingID)
	})
}

func TestInitiatePayment(t *testing.T) {
	create := func(t *testing.T, f *serviceFixture) uuid.UUID {
		t.Helper()
		resp, err := f.service.CreateBooking(f.camperID, f.createRequest())
		require.NoError(t, err)
		return resp.BookingID
	}

	t.Run("Success", func(t *testing.T) {
		f := newServiceFixture(t)
		bookingID := create(t, f)

		resp, err := f.service.InitiatePayment(context.Background(), f.actor(), bookingID,
			&models.InitiatePaymentRequest{Method: "chapa"})
		require.NoError(t, err)

		assert.Equal(t, "chapa", resp.Gateway)
		assert.NotEmpty(t, resp.TxRef)
		assert.NotEmpty(t, resp.CheckoutURL)
		assert.Equal(t, 4500.0, resp.Amount)

		booking, _ := f.bookings.GetByID(bookingID)
		require.NotNil(t, booking.PaymentTxRef)
		assert.Equal(t, resp.TxRef, *booking.PaymentTxRef)

		assert.Len(t, f.events.byType(models.PaymentEventInitiated), 1)
	})

	t.Run("Retries Transient Failures", func(t *testing.T) {
		f := newServiceFixture(t)
		f.gateway.failures = 2
		bookingID := create(t, f)

		_, err := f.service.InitiatePayment(context.Background(), f.actor(), bookingID,
			&models.InitiatePaymentRequest{Method: "chapa"})
		require.NoError(t, err)
		assert.Equal(t, 3, f.gateway.calls)
	})

	t.Run("Gateway Unavailable After Retries", func(t *testing.T) {
		f := newServiceFixture(t)
		f.gateway.failures = 10
		bookingID := create(t, f)

		_, err := f.service.InitiatePayment(context.Background(), f.actor(), bookingID,
			&models.InitiatePaymentRequest{Method: "chapa"})
		assert.Equal(t, models.ErrGatewayUnavailable, models.KindOf(err))
		assert.Equal(t, 3, f.gateway.calls)

		// Booking is untouched and can be retried later
		booking, _ := f.bookings.GetByID(bookingID)
		assert.True(t, booking.CanInitiatePayment())
	})

	t.Run("Expired Hold", func(t *testing.T) {
		f := newServiceFixture(t)
		bookingID := create(t, f)

		f.clock.Advance(31 * time.Minute)

		_, err := f.service.InitiatePayment(context.Background(), f.actor(), bookingID,
			&models.InitiatePaymentRequest{Method: "chapa"})
		assert.Equal(t, models.ErrInvalidState, models.KindOf(err))
	})

	t.Run("Another Campers Booking", func(t *testing.T) {
		f := newServiceFixture(t)
		bookingID := create(t, f)

		other := Actor{UserID: uuid.New(), Roles: []string{models.RoleCamper}}
		_, err := f.service.InitiatePayment(context.Background(), other, bookingID,
			&models.InitiatePaymentRequest{Method: "chapa"})
		assert.Equal(t, models.ErrForbidden, models.KindOf(err))
	})

	t.Run("Unconfigured Gateway", func(t *testing.T) {
		f := newServiceFixture(t)
		bookingID := create(t, f)

		_, err := f.service.InitiatePayment(context.Background(), f.actor(), bookingID,
			&models.InitiatePaymentRequest{Method: "stripe"})
		assert.Equal(t, models.ErrGatewayUnavailable, models.KindOf(err))
	})
}

func TestConfirmPayment(t *testing.T) {
	setup := func(t *testing.T) (*serviceFixture, uuid.UUID, string) {
		t.Helper()
		f := newServiceFixture(t)
		resp, err := f.service.CreateBooking(f.camperID, f.createRequest())
		require.NoError(t, err)

		payResp, err := f.service.InitiatePayment(context.Background(), f.actor(), resp.BookingID,
			&models.InitiatePaymentRequest{Method: "chapa"})
		require.NoError(t, err)
		return f, resp.BookingID, payResp.TxRef
	}

	t.Run("Confirms Booking", func(t *testing.T) {
		f, bookingID, txRef := setup(t)
		f.gateway.parsedEvent = &payment.WebhookEvent{TxRef: txRef, Success: true, Amount: 4500, Currency: "ETB"}

		err := f.service.ConfirmPayment("chapa", "sig", []byte(`{}`))
		require.NoError(t, err)

		booking, _ := f.bookings.GetByID(bookingID)
		assert.Equal(t, models.BookingStatusConfirmed, booking.Status)
		assert.Equal(t, models.PaymentStatusPaid, booking.PaymentStatus)
	})

	t.Run("Redelivered Webhook Is Idempotent", func(t *testing.T) {
		f, bookingID, txRef := setup(t)
		f.gateway.parsedEvent = &payment.WebhookEvent{TxRef: txRef, Success: true, Amount: 4500, Currency: "ETB"}

		require.NoError(t, f.service.ConfirmPayment("chapa", "sig", []byte(`{}`)))
		require.NoError(t, f.service.ConfirmPayment("chapa", "sig", []byte(`{}`)))

		booking, _ := f.bookings.GetByID(bookingID)
		assert.Equal(t, models.BookingStatusConfirmed, booking.Status)

		confirmed := f.events.byType(models.PaymentEventConfirmed)
		require.Len(t, confirmed, 2)
		assert.False(t, confirmed[0].IsDuplicate)
		assert.True(t, confirmed[1].IsDuplicate)
	})

	t.Run("Bad Signature", func(t *testing.T) {
		f, bookingID, _ := setup(t)
		f.gateway.verifyErr = payment.ErrInvalidSignature

		err := f.service.ConfirmPayment("chapa", "bad-sig", []byte(`{}`))
		assert.Equal(t, models.ErrPaymentVerification, models.KindOf(err))

		booking, _ := f.bookings.GetByID(bookingID)
		assert.Equal(t, models.BookingStatusPending, booking.Status)
		assert.Len(t, f.events.byType(models.PaymentEventRejected), 1)
	})

	t.Run("Amount Mismatch", func(t *testing.T) {
		f, bookingID, txRef := setup(t)
		f.gateway.parsedEvent = &payment.WebhookEvent{TxRef: txRef, Success: true, Amount: 100, Currency: "ETB"}

		err := f.service.ConfirmPayment("chapa", "sig", []byte(`{}`))
		assert.Equal(t, models.ErrPaymentVerification, models.KindOf(err))

		booking, _ := f.bookings.GetByID(bookingID)
		assert.Equal(t, models.BookingStatusPending, booking.Status)
	})

	t.Run("Failed Charge Leaves Booking Pending", func(t *testing.T) {
		f, bookingID, txRef := setup(t)
		f.gateway.parsedEvent = &payment.WebhookEvent{TxRef: txRef, Success: false, Amount: 4500, Currency: "ETB"}

		err := f.service.ConfirmPayment("chapa", "sig", []byte(`{}`))
		require.NoError(t, err)

		booking, _ := f.bookings.GetByID(bookingID)
		assert.Equal(t, models.BookingStatusPending, booking.Status)
		assert.Len(t, f.events.byType(models.PaymentEventFailed), 1)
	})

	t.Run("Unknown Tx Ref", func(t *testing.T) {
		f, _, _ := setup(t)
		f.gateway.parsedEvent = &payment.WebhookEvent{TxRef: "ecg-nope", Success: true}

		err := f.service.ConfirmPayment("chapa", "sig", []byte(`{}`))
		assert.Equal(t, models.ErrNotFound, models.KindOf(err))
	})
}

func TestCancelBooking(t *testing.T) {
	t.Run("Unpaid Booking Frees Dates", func(t *testing.T) {
		f := newServiceFixture(t)
		resp, err := f.service.CreateBooking(f.camperID, f.createRequest())
		require.NoError(t, err)

		cancelled, err := f.service.CancelBooking(f.actor(), resp.BookingID)
		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusCancelled, cancelled.Status)
		assert.Equal(t, models.PaymentStatusUnpaid, cancelled.PaymentStatus)

		// The date range is free again
		_, err = f.service.CreateBooking(uuid.New(), f.createRequest())
		assert.NoError(t, err)
	})

	t.Run("Paid Booking Enters Refund Requested", func(t *testing.T) {
		f := newServiceFixture(t)
		resp, err := f.service.CreateBooking(f.camperID, f.createRequest())
		require.NoError(t, err)

		payResp, err := f.service.InitiatePayment(context.Background(), f.actor(), resp.BookingID,
			&models.InitiatePaymentRequest{Method: "chapa"})
		require.NoError(t, err)
		f.gateway.parsedEvent = &payment.WebhookEvent{TxRef: payResp.TxRef, Success: true, Amount: 4500, Currency: "ETB"}
		require.NoError(t, f.service.ConfirmPayment("chapa", "sig", []byte(`{}`)))

		cancelled, err := f.service.CancelBooking(f.actor(), resp.BookingID)
		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusCancelled, cancelled.Status)
		assert.Equal(t, models.PaymentStatusRefundRequested, cancelled.PaymentStatus)

		// Camper cannot confirm their own refund
		err = f.service.ConfirmRefund(f.actor(), resp.BookingID)
		assert.Equal(t, models.ErrForbidden, models.KindOf(err))

		// Admin completes the refund
		admin := Actor{UserID: uuid.New(), Roles: []string{models.RoleAdmin}}
		require.NoError(t, f.service.ConfirmRefund(admin, resp.BookingID))

		booking, _ := f.bookings.GetByID(resp.BookingID)
		assert.Equal(t, models.PaymentStatusRefunded, booking.PaymentStatus)
	})

	t.Run("Cancelled Booking Cannot Be Cancelled Again", func(t *testing.T) {
		f := newServiceFixture(t)
		resp, err := f.service.CreateBooking(f.camperID, f.createRequest())
		require.NoError(t, err)

		_, err = f.service.CancelBooking(f.actor(), resp.BookingID)
		require.NoError(t, err)

		_, err = f.service.CancelBooking(f.actor(), resp.BookingID)
		assert.Equal(t, models.ErrInvalidState, models.KindOf(err))
	})
}

func TestMarkCompleted(t *testing.T) {
	confirm := func(t *testing.T, f *serviceFixture) uuid.UUID {
		t.Helper()
		resp, err := f.service.CreateBooking(f.camperID, f.createRequest())
		require.NoError(t, err)
		payResp, err := f.service.InitiatePayment(context.Background(), f.actor(), resp.BookingID,
			&models.InitiatePaymentRequest{Method: "chapa"})
		require.NoError(t, err)
		f.gateway.parsedEvent = &payment.WebhookEvent{TxRef: payResp.TxRef, Success: true, Amount: 4500, Currency: "ETB"}
		require.NoError(t, f.service.ConfirmPayment("chapa", "sig", []byte(`{}`)))
		return resp.BookingID
	}

	t.Run("Before Check-Out Is A No-Op", func(t *testing.T) {
		f := newServiceFixture(t)
		bookingID := confirm(t, f)

		require.NoError(t, f.service.MarkCompleted(bookingID))

		booking, _ := f.bookings.GetByID(bookingID)
		assert.Equal(t, models.BookingStatusConfirmed, booking.Status)
	})

	t.Run("Unknown Booking", func(t *testing.T) {
		f := newServiceFixture(t)

		err := f.service.MarkCompleted(uuid.New())
		assert.Equal(t, models.ErrNotFound, models.KindOf(err))
	})

	t.Run("After Check-Out And Idempotent", func(t *testing.T) {
		f := newServiceFixture(t)
		bookingID := confirm(t, f)

		f.clock.Advance(40 * 24 * time.Hour)

		require.NoError(t, f.service.MarkCompleted(bookingID))

		booking, _ := f.bookings.GetByID(bookingID)
		assert.Equal(t, models.BookingStatusCompleted, booking.Status)

		// Second call is a no-op
		assert.NoError(t, f.service.MarkCompleted(bookingID))
	})
}

func TestSweeperSweep(t *testing.T) {
	f := newServiceFixture(t)

	resp, err := f.service.CreateBooking(f.camperID, f.createRequest())
	require.NoError(t, err)

	sweeper := NewSweeperService(f.bookings, f.clock, "0 */5 * * * *", testLogger())

	// Hold still live: nothing happens
	sweeper.Sweep()
	booking, _ := f.bookings.GetByID(resp.BookingID)
	assert.Equal(t, models.BookingStatusPending, booking.Status)

	// Past the hold TTL the booking is expired and its dates freed
	f.clock.Advance(31 * time.Minute)
	sweeper.Sweep()

	booking, _ = f.bookings.GetByID(resp.BookingID)
	assert.Equal(t, models.BookingStatusCancelled, booking.Status)

	_, err = f.service.CreateBooking(uuid.New(), f.createRequest())
	assert.NoError(t, err)
}
