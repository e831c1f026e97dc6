package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethiocampground/booking-backend/internal/models"
)

func availabilityFixture(t *testing.T) (*AvailabilityService, *fakeBookingStore, *models.Unit) {
	t.Helper()

	unit := &models.Unit{
		ID:            uuid.New(),
		CampID:        uuid.New(),
		Name:          "Ridge Cabin",
		PricePerNight: 2000,
		Currency:      "ETB",
		Capacity:      3,
		Active:        true,
	}
	bookings := newFakeBookingStore()
	clock := newFakeClock(time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC))
	return NewAvailabilityService(newFakeUnitStore(unit), bookings, clock), bookings, unit
}

func seedBooking(t *testing.T, store *fakeBookingStore, unitID uuid.UUID, checkIn, checkOut string) uuid.UUID {
	t.Helper()
	in, err := time.ParseInLocation(models.DateLayout, checkIn, time.UTC)
	require.NoError(t, err)
	out, err := time.ParseInLocation(models.DateLayout, checkOut, time.UTC)
	require.NoError(t, err)

	booking := &models.Booking{
		UnitID:        unitID,
		CamperID:      uuid.New(),
		CheckIn:       in,
		CheckOut:      out,
		Status:        models.BookingStatusConfirmed,
		PaymentStatus: models.PaymentStatusPaid,
	}
	require.NoError(t, store.CreateExclusive(booking))
	return booking.ID
}

func TestCheckAvailability(t *testing.T) {
	t.Run("Free Range", func(t *testing.T) {
		svc, _, unit := availabilityFixture(t)

		result, err := svc.CheckAvailability(unit.ID, "2026-10-01", "2026-10-05")
		require.NoError(t, err)
		assert.True(t, result.Available)
		assert.Empty(t, result.ConflictingBookingIDs)
	})

	t.Run("Overlap Reports Blocking Bookings", func(t *testing.T) {
		svc, store, unit := availabilityFixture(t)
		blockingID := seedBooking(t, store, unit.ID, "2026-10-03", "2026-10-06")

		result, err := svc.CheckAvailability(unit.ID, "2026-10-01", "2026-10-05")
		require.NoError(t, err)
		assert.False(t, result.Available)
		assert.Equal(t, []uuid.UUID{blockingID}, result.ConflictingBookingIDs)
	})

	t.Run("Half-Open Boundary Does Not Overlap", func(t *testing.T) {
		svc, store, unit := availabilityFixture(t)
		seedBooking(t, store, unit.ID, "2026-10-01", "2026-10-04")

		// Check-in on the existing check-out day
		result, err := svc.CheckAvailability(unit.ID, "2026-10-04", "2026-10-07")
		require.NoError(t, err)
		assert.True(t, result.Available)

		// Check-out on the existing check-in day
		result, err = svc.CheckAvailability(unit.ID, "2026-09-28", "2026-10-01")
		require.NoError(t, err)
		assert.True(t, result.Available)
	})

	t.Run("Invalid Range", func(t *testing.T) {
		svc, _, unit := availabilityFixture(t)

		_, err := svc.CheckAvailability(unit.ID, "2026-10-05", "2026-10-05")
		assert.Equal(t, models.ErrInvalidRange, models.KindOf(err))

		_, err = svc.CheckAvailability(unit.ID, "not-a-date", "2026-10-05")
		assert.Equal(t, models.ErrInvalidRange, models.KindOf(err))
	})

	t.Run("Past Check-In", func(t *testing.T) {
		svc, _, unit := availabilityFixture(t)

		_, err := svc.CheckAvailability(unit.ID, "2020-01-01", "2020-01-05")
		assert.Equal(t, models.ErrInvalidRange, models.KindOf(err))

		// Yesterday relative to the injected clock
		_, err = svc.CheckAvailability(unit.ID, "2026-08-31", "2026-09-03")
		assert.Equal(t, models.ErrInvalidRange, models.KindOf(err))

		// Today is fine
		result, err := svc.CheckAvailability(unit.ID, "2026-09-01", "2026-09-03")
		require.NoError(t, err)
		assert.True(t, result.Available)
	})

	t.Run("Unknown Unit", func(t *testing.T) {
		svc, _, _ := availabilityFixture(t)

		_, err := svc.CheckAvailability(uuid.New(), "2026-10-01", "2026-10-05")
		assert.Equal(t, models.ErrNotFound, models.KindOf(err))
	})
}

func TestComputePrice(t *testing.T) {
	t.Run("Nights Times Rate", func(t *testing.T) {
		svc, _, unit := availabilityFixture(t)

		quote, err := svc.ComputePrice(unit.ID, "2026-10-01", "2026-10-05", 2)
		require.NoError(t, err)
		assert.Equal(t, 4, quote.Nights)
		assert.Equal(t, 2000.0, quote.PricePerNight)
		assert.Equal(t, 8000.0, quote.TotalPrice)
		assert.Equal(t, "ETB", quote.Currency)
	})

	t.Run("Single Night", func(t *testing.T) {
		svc, _, unit := availabilityFixture(t)

		quote, err := svc.ComputePrice(unit.ID, "2026-10-01", "2026-10-02", 1)
		require.NoError(t, err)
		assert.Equal(t, 1, quote.Nights)
		assert.Equal(t, 2000.0, quote.TotalPrice)
	})

	t.Run("Capacity Exceeded", func(t *testing.T) {
		svc, _, unit := availabilityFixture(t)

		_, err := svc.ComputePrice(unit.ID, "2026-10-01", "2026-10-05", 4)
		assert.Equal(t, models.ErrCapacityExceeded, models.KindOf(err))
	})
}
