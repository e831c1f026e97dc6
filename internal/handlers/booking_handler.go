package handlers

import (
	"net/http"
	"strconv"

	"github.com/ethiocampground/booking-backend/internal/middleware"
	"github.com/ethiocampground/booking-backend/internal/models"
	"github.com/ethiocampground/booking-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// BookingHandler handles booking lifecycle endpoints
type BookingHandler struct {
	bookingService *services.BookingService
	logger         *logrus.Logger
}

// NewBookingHandler creates a new BookingHandler
func NewBookingHandler(bookingService *services.BookingService, logger *logrus.Logger) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
		logger:         logger,
	}
}

func actorFrom(userCtx middleware.UserContext) services.Actor {
	return services.Actor{UserID: userCtx.UserID, Roles: userCtx.Roles}
}

// Create creates a new booking with a TTL-based hold
// @Summary Create booking
// @Description Creates a pending booking holding the date range until payment or expiry
// @Tags Bookings
// @Accept json
// @Produce json
// @Param request body models.CreateBookingRequest true "Booking request"
// @Success 201 {object} models.CreateBookingResponse
// @Failure 409 {object} map[string]interface{} "Dates unavailable"
// @Router /bookings [post]
func (h *BookingHandler) Create(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	response, err := h.bookingService.CreateBooking(userCtx.UserID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, response)
}

// Get returns a single booking
// @Summary Get booking
// @Tags Bookings
// @Produce json
// @Param booking_id path string true "Booking ID"
// @Success 200 {object} models.Booking
// @Router /bookings/{booking_id} [get]
func (h *BookingHandler) Get(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	bookingID, err := uuid.Parse(c.Param("booking_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "invalid booking_id"})
		return
	}

	booking, err := h.bookingService.GetBooking(actorFrom(userCtx), bookingID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

// ListMine returns the authenticated camper's bookings
func (h *BookingHandler) ListMine(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	bookings, err := h.bookingService.ListMyBookings(actorFrom(userCtx), limit, offset)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings, "count": len(bookings)})
}

// InitiatePayment opens a payment intent for a pending booking
// @Summary Initiate payment
// @Description Returns the gateway handle (checkout URL or client secret)
// @Tags Bookings
// @Accept json
// @Produce json
// @Param booking_id path string true "Booking ID"
// @Param request body models.InitiatePaymentRequest true "Payment method"
// @Success 200 {object} models.InitiatePaymentResponse
// @Router /bookings/{booking_id}/payment [post]
func (h *BookingHandler) InitiatePayment(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	bookingID, err := uuid.Parse(c.Param("booking_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "invalid booking_id"})
		return
	}

	var req models.InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	response, err := h.bookingService.InitiatePayment(c.Request.Context(), actorFrom(userCtx), bookingID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// Cancel cancels a pending or confirmed booking
func (h *BookingHandler) Cancel(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	bookingID, err := uuid.Parse(c.Param("booking_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "invalid booking_id"})
		return
	}

	booking, err := h.bookingService.CancelBooking(actorFrom(userCtx), bookingID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

// ConfirmRefund completes a pending refund (admin only)
func (h *BookingHandler) ConfirmRefund(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	bookingID, err := uuid.Parse(c.Param("booking_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "invalid booking_id"})
		return
	}

	if err := h.bookingService.ConfirmRefund(actorFrom(userCtx), bookingID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking_id": bookingID, "payment_status": models.PaymentStatusRefunded})
}
