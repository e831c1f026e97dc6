package handlers

import (
	"errors"
	"net/http"

	"github.com/ethiocampground/booking-backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// kindStatus maps domain error kinds to HTTP status codes
var kindStatus = map[models.ErrorKind]int{
	models.ErrNotFound:            http.StatusNotFound,
	models.ErrInvalidRange:        http.StatusBadRequest,
	models.ErrCapacityExceeded:    http.StatusBadRequest,
	models.ErrConflict:            http.StatusConflict,
	models.ErrInvalidState:        http.StatusConflict,
	models.ErrGatewayUnavailable:  http.StatusBadGateway,
	models.ErrPaymentVerification: http.StatusBadRequest,
	models.ErrForbidden:           http.StatusForbidden,
}

// respondError writes a classified error response. Unclassified errors are
// logged and surface as a generic 500 so internals never leak to clients.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	var de *models.DomainError
	if errors.As(err, &de) {
		status, ok := kindStatus[de.Kind]
		if !ok {
			status = http.StatusInternalServerError
		}
		body := gin.H{
			"error":   string(de.Kind),
			"message": de.Message,
		}
		if len(de.ConflictingBookingIDs) > 0 {
			body["conflicting_booking_ids"] = de.ConflictingBookingIDs
		}
		c.JSON(status, body)
		return
	}

	logger.WithFields(logrus.Fields{
		"path":  c.Request.URL.Path,
		"error": err.Error(),
	}).Error("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "internal_error",
		"message": "something went wrong",
	})
}
