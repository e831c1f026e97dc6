package handlers

import (
	"net/http"

	"github.com/ethiocampground/booking-backend/internal/database"
	"github.com/ethiocampground/booking-backend/internal/middleware"
	"github.com/ethiocampground/booking-backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// UserHandler handles account endpoints
type UserHandler struct {
	userRepo *database.UserRepository
	logger   *logrus.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userRepo *database.UserRepository, logger *logrus.Logger) *UserHandler {
	return &UserHandler{
		userRepo: userRepo,
		logger:   logger,
	}
}

// Me returns the authenticated user's profile
func (h *UserHandler) Me(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	user, err := h.userRepo.GetByID(userCtx.UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if user == nil {
		respondError(c, h.logger, models.NewDomainError(models.ErrNotFound, "user not found"))
		return
	}
	c.JSON(http.StatusOK, user)
}

// Create provisions an account (admin only)
func (h *UserHandler) Create(c *gin.Context) {
	var req struct {
		Phone     string   `json:"phone" binding:"required"`
		FirstName string   `json:"first_name" binding:"required"`
		LastName  string   `json:"last_name" binding:"required"`
		Email     string   `json:"email" binding:"omitempty,email"`
		Roles     []string `json:"roles" binding:"omitempty,dive,oneof=camper manager admin"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	existing, err := h.userRepo.GetByPhone(req.Phone)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if existing != nil {
		respondError(c, h.logger, models.NewDomainError(models.ErrConflict, "phone number already registered"))
		return
	}

	user := &models.User{
		Phone:     req.Phone,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Roles:     req.Roles,
	}
	if err := h.userRepo.Create(user); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}
