package services

import (
	"fmt"
	"time"

	"github.com/ethiocampground/booking-backend/internal/models"
	"github.com/google/uuid"
)

// AvailabilityService answers availability checks and computes price quotes.
// Both operations are read-only; the authoritative availability decision is
// made again inside booking creation under a lock.
type AvailabilityService struct {
	units    UnitStore
	bookings BookingStore
	clock    Clock
}

// NewAvailabilityService creates a new AvailabilityService
func NewAvailabilityService(units UnitStore, bookings BookingStore, clock Clock) *AvailabilityService {
	return &AvailabilityService{
		units:    units,
		bookings: bookings,
		clock:    clock,
	}
}

// ParseDateRange parses and validates a [check_in, check_out) date range.
// Ranges are half-open: check-out day is not occupied, so back-to-back
// bookings sharing a boundary date do not overlap.
func ParseDateRange(checkInStr, checkOutStr string) (checkIn, checkOut time.Time, err error) {
	checkIn, err = time.ParseInLocation(models.DateLayout, checkInStr, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, models.NewDomainError(models.ErrInvalidRange,
			fmt.Sprintf("invalid check_in date: %s", checkInStr))
	}
	checkOut, err = time.ParseInLocation(models.DateLayout, checkOutStr, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, models.NewDomainError(models.ErrInvalidRange,
			fmt.Sprintf("invalid check_out date: %s", checkOutStr))
	}
	if !checkIn.Before(checkOut) {
		return time.Time{}, time.Time{}, models.NewDomainError(models.ErrInvalidRange,
			"check_out must be after check_in")
	}
	return checkIn, checkOut, nil
}

// Nights returns the number of nights in a half-open range
func Nights(checkIn, checkOut time.Time) int {
	return int(checkOut.Sub(checkIn).Hours() / 24)
}

// CheckAvailability reports whether the unit is free for the given range and,
// when it is not, which bookings block it.
func (s *AvailabilityService) CheckAvailability(unitID uuid.UUID, checkInStr, checkOutStr string) (*models.AvailabilityResult, error) {
	checkIn, checkOut, err := ParseDateRange(checkInStr, checkOutStr)
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
		return &models.AvailabilityResult{Available: false}, nil
	}

	overlapping, err := s.bookings.FindOverlapping(unitID, checkIn, checkOut)
	if err != nil {
		return nil, fmt.Errorf("failed to check availability: %w", err)
	}

	result := &models.AvailabilityResult{Available: len(overlapping) == 0}
	for _, b := range overlapping {
		result.ConflictingBookingIDs = append(result.ConflictingBookingIDs, b.ID)
	}
	return result, nil
}

// ComputePrice quotes the total for a stay: nights times the unit's current
// nightly rate. Guests beyond the unit's capacity are rejected.
func (s *AvailabilityService) ComputePrice(unitID uuid.UUID, checkInStr, checkOutStr string, guests int) (*models.PriceQuote, error) {
	checkIn, checkOut, err := ParseDateRange(checkInStr, checkOutStr)
	if err != nil {
		return nil, err
	}

	unit, err := s.units.GetByID(unitID)
	if err != nil {
		return nil, fmt.Errorf("failed to load unit: %w", err)
	}
	if unit == nil {
		return nil, models.NewDomainError(models.ErrNotFound, "unit not found")
	}
	if guests > unit.Capacity {
		return nil, models.NewDomainError(models.ErrCapacityExceeded,
			fmt.Sprintf("unit sleeps %d, requested %d guests", unit.Capacity, guests))
	}

	nights := Nights(checkIn, checkOut)
	return &models.PriceQuote{
		Nights:        nights,
		PricePerNight: unit.PricePerNight,
		TotalPrice:    float64(nights) * unit.PricePerNight,
		Currency:      unit.Currency,
	}, nil
}
