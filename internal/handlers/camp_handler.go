package handlers

import (
	"net/http"
	"strconv"

	"github.com/ethiocampground/booking-backend/internal/database"
	"github.com/ethiocampground/booking-backend/internal/middleware"
	"github.com/ethiocampground/booking-backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// CampHandler handles camp management endpoints
type CampHandler struct {
	campRepo *database.CampRepository
	logger   *logrus.Logger
}

// NewCampHandler creates a new CampHandler
func NewCampHandler(campRepo *database.CampRepository, logger *logrus.Logger) *CampHandler {
	return &CampHandler{
		campRepo: campRepo,
		logger:   logger,
	}
}

// Create registers a new camp under the authenticated manager
func (h *CampHandler) Create(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req models.CreateCampRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	camp, err := h.campRepo.Create(userCtx.UserID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, camp)
}

// Get returns a single camp
func (h *CampHandler) Get(c *gin.Context) {
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
	c.JSON(http.StatusOK, camp)
}

// List returns camps, optionally filtered by status
func (h *CampHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	camps, err := h.campRepo.List(models.CampStatus(c.Query("status")), limit, offset)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"camps": camps, "count": len(camps)})
}

// Update applies a partial update (owning manager or admin)
func (h *CampHandler) Update(c *gin.Context) {
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

	var req models.UpdateCampRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	if err := h.campRepo.Update(campID, &req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	updated, err := h.campRepo.GetByID(campID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// SetStatus approves or suspends a camp (admin only)
func (h *CampHandler) SetStatus(c *gin.Context) {
	campID, err := uuid.Parse(c.Param("camp_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "invalid camp_id"})
		return
	}

	var req struct {
		Status models.CampStatus `json:"status" binding:"required,oneof=pending active suspended"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	if err := h.campRepo.SetStatus(campID, req.Status); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"camp_id": campID, "status": req.Status})
}
