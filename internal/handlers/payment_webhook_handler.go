package handlers

import (
	"io"
	"net/http"

	"github.com/ethiocampground/booking-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// signatureHeaders maps gateway names to their webhook signature header
var signatureHeaders = map[string]string{
	"stripe": "Stripe-Signature",
	"chapa":  "Chapa-Signature",
}

// PaymentWebhookHandler receives gateway payment notifications. These
// endpoints are unauthenticated; the webhook signature is the credential.
type PaymentWebhookHandler struct {
	bookingService *services.BookingService
	logger         *logrus.Logger
}

// NewPaymentWebhookHandler creates a new PaymentWebhookHandler
func NewPaymentWebhookHandler(bookingService *services.BookingService, logger *logrus.Logger) *PaymentWebhookHandler {
	return &PaymentWebhookHandler{
		bookingService: bookingService,
		logger:         logger,
	}
}

// Callback processes a payment confirmation webhook. Gateways retry on
// non-2xx, so duplicates and already-confirmed bookings return 200.
func (h *PaymentWebhookHandler) Callback(c *gin.Context) {
	gateway := c.Param("gateway")
	header, ok := signatureHeaders[gateway]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "unknown payment gateway"})
		return
	}

	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "failed to read payload"})
		return
	}

	if err := h.bookingService.ConfirmPayment(gateway, c.GetHeader(header), payload); err != nil {
		h.logger.WithFields(logrus.Fields{
			"gateway": gateway,
			"error":   err.Error(),
		}).Warn("payment webhook rejected")
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
