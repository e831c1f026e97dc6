package handlers

import (
	"net/http"
	"strconv"

	"github.com/ethiocampground/booking-backend/internal/database"
	"github.com/ethiocampground/booking-backend/internal/middleware"
	"github.com/ethiocampground/booking-backend/internal/models"
	"github.com/ethiocampground/booking-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// UnitHandler handles unit management and availability endpoints
type UnitHandler struct {
	unitRepo            *database.UnitRepository
	campRepo            *database.CampRepository
	availabilityService *services.AvailabilityService
	logger              *logrus.Logger
}

// NewUnitHandler creates a new UnitHandler
func NewUnitHandler(
	unitRepo *database.UnitRepository,
	campRepo *database.CampRepository,
	availabilityService *services.AvailabilityService,
	logger *logrus.Logger,
) *UnitHandler {
	return &UnitHandler{
		unitRepo:            unitRepo,
		campRepo:            campRepo,
		availabilityService: availabilityService,
		logger:              logger,
	}
}

// Create registers a new bookable unit under a camp (manager only)
func (h *UnitHandler) Create(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	campID, err := uuid.Parse(c.Param("camp_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "invalid camp_id"})
		return
	}

	camp, err := h.campRepo.GetByID(campID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if camp == nil {
		respondError(c, h.logger, models.NewDomainError(models.ErrNotFound, "camp not found"))
		return
	}
	if camp.OwnerUserID != userCtx.UserID && !hasRole(userCtx, models.RoleAdmin) {
		respondError(c, h.logger, models.NewDomainError(models.ErrForbidden, "camp belongs to another manager"))
		return
	}

	var req models.CreateUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	unit := &models.Unit{
		CampID:        campID,
		Name:          req.Name,
		Description:   req.Description,
		PricePerNight: req.PricePerNight,
		Currency:      req.Currency,
		Capacity:      req.Capacity,
		Active:        true,
	}
	if err := h.unitRepo.CreateUnit(unit); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, unit)
}

// Get returns a single unit
func (h *UnitHandler) Get(c *gin.Context) {
	unitID, err := uuid.Parse(c.Param("unit_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "invalid unit_id"})
		return
	}

	unit, err := h.unitRepo.GetByID(unitID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if unit == nil {
		respondError(c, h.logger, models.NewDomainError(models.ErrNotFound, "unit not found"))
		return
	}
	c.JSON(http.StatusOK, unit)
}

// ListByCamp returns a camp's units
func (h *UnitHandler) ListByCamp(c *gin.Context) {
	campID, err := uuid.Parse(c.Param("camp_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "invalid camp_id"})
		return
	}

	units, err := h.unitRepo.ListByCamp(campID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"units": units, "count": len(units)})
}

// Update applies a partial update to a unit (owning manager or admin)
func (h *UnitHandler) Update(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	unitID, err := uuid.Parse(c.Param("unit_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "invalid unit_id"})
		return
	}

	unit, err := h.unitRepo.GetByID(unitID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if unit == nil {
		respondError(c, h.logger, models.NewDomainError(models.ErrNotFound, "unit not found"))
		return
	}

	camp, err := h.campRepo.GetByID(unit.CampID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if camp == nil || (camp.OwnerUserID != userCtx.UserID && !hasRole(userCtx, models.RoleAdmin)) {
		respondError(c, h.logger, models.NewDomainError(models.ErrForbidden, "camp belongs to another manager"))
		return
	}

	var req models.UpdateUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	if err := h.unitRepo.UpdateUnit(unitID, &req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	updated, err := h.unitRepo.GetByID(unitID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Availability checks whether a unit is free for a date range
// @Summary Check availability
// @Description Reports whether the unit is free for [check_in, check_out)
// @Tags Units
// @Produce json
// @Param unit_id path string true "Unit ID"
// @Param check_in query string true "Check-in date (YYYY-MM-DD)"
// @Param check_out query string true "Check-out date (YYYY-MM-DD)"
// @Success 200 {object} models.AvailabilityResult
// @Router /units/{unit_id}/availability [get]
func (h *UnitHandler) Availability(c *gin.Context) {
	unitID, err := uuid.Parse(c.Param("unit_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "invalid unit_id"})
		return
	}

	result, err := h.availabilityService.CheckAvailability(unitID, c.Query("check_in"), c.Query("check_out"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Quote computes the total price for a stay without creating a booking
func (h *UnitHandler) Quote(c *gin.Context) {
	unitID, err := uuid.Parse(c.Param("unit_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "invalid unit_id"})
		return
	}

	guests, err := strconv.Atoi(c.DefaultQuery("guests", "1"))
	if err != nil || guests <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "guests must be a positive integer"})
		return
	}

	quote, err := h.availabilityService.ComputePrice(unitID, c.Query("check_in"), c.Query("check_out"), guests)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

func hasRole(userCtx middleware.UserContext, role string) bool {
	for _, r := range userCtx.Roles {
		if r == role {
			return true
		}
	}
	return false
}
