package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ethiocampground/booking-backend/internal/config"
	"github.com/ethiocampground/booking-backend/internal/database"
	"github.com/ethiocampground/booking-backend/internal/handlers"
	"github.com/ethiocampground/booking-backend/internal/middleware"
	"github.com/ethiocampground/booking-backend/internal/models"
	"github.com/ethiocampground/booking-backend/internal/services"
	"github.com/ethiocampground/booking-backend/pkg/jwt"
	"github.com/ethiocampground/booking-backend/pkg/payment"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting EthioCampGround Booking Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	// Repositories
	userRepo := database.NewUserRepository(db.DB)
	unitRepo := database.NewUnitRepository(db.DB)
	campRepo := database.NewCampRepository(db.DB)
	bookingRepo := database.NewBookingRepository(db.DB)
	eventRepo := database.NewPaymentEventRepository(db.DB)

	// Payment gateways
	gateways := map[string]payment.Gateway{
		"stripe": payment.NewStripeGateway(payment.StripeConfig{
			SecretKey:     cfg.Payment.StripeSecretKey,
			WebhookSecret: cfg.Payment.StripeWebhookSecret,
		}),
		"chapa": payment.NewChapaGateway(payment.ChapaConfig{
			APIURL:        cfg.Payment.ChapaBaseURL,
			SecretKey:     cfg.Payment.ChapaSecretKey,
			WebhookSecret: cfg.Payment.ChapaWebhookSecret,
		}),
	}

	// Services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)
	clock := services.NewRealClock()

	availabilityService := services.NewAvailabilityService(unitRepo, bookingRepo, clock)
	bookingService := services.NewBookingService(
		unitRepo,
		bookingRepo,
		eventRepo,
		gateways,
		services.BookingServiceConfig{
			HoldTTL:         cfg.Booking.HoldTTL,
			DefaultCurrency: cfg.Booking.DefaultCurrency,
			DefaultGateway:  cfg.Payment.DefaultGateway,
			CallbackURL:     cfg.Payment.CallbackURL,
			ReturnURL:       cfg.Payment.ReturnURL,
			IntentAttempts:  3,
			IntentBackoff:   500 * time.Millisecond,
		},
		clock,
		logger,
	)

	sweeperService := services.NewSweeperService(bookingRepo, clock, cfg.Booking.SweepSchedule, logger)
	if err := sweeperService.Start(); err != nil {
		logger.Fatalf("Failed to start sweeper service: %v", err)
	}

	// Handlers
	userHandler := handlers.NewUserHandler(userRepo, logger)
	campHandler := handlers.NewCampHandler(campRepo, logger)
	unitHandler := handlers.NewUnitHandler(unitRepo, campRepo, availabilityService, logger)
	bookingHandler := handlers.NewBookingHandler(bookingService, logger)
	webhookHandler := handlers.NewPaymentWebhookHandler(bookingService, logger)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", healthCheckHandler(db))

	v1 := router.Group("/api/v1")
	{
		// Payment webhooks (public; authenticated by signature)
		v1.POST("/payments/callback/:gateway", webhookHandler.Callback)

		// Users
		users := v1.Group("/users")
		users.Use(middleware.AuthMiddleware(jwtService, logger))
		{
			users.GET("/me", userHandler.Me)
			users.POST("", middleware.RequireRole(models.RoleAdmin), userHandler.Create)
		}

		// Camps
		camps := v1.Group("/camps")
		{
			camps.GET("", campHandler.List)
			camps.GET("/:camp_id", campHandler.Get)
			camps.GET("/:camp_id/units", unitHandler.ListByCamp)

			campsAuth := camps.Group("")
			campsAuth.Use(middleware.AuthMiddleware(jwtService, logger))
			{
				campsAuth.POST("", middleware.RequireRole(models.RoleManager, models.RoleAdmin), campHandler.Create)
				campsAuth.PATCH("/:camp_id", middleware.RequireRole(models.RoleManager, models.RoleAdmin), campHandler.Update)
				campsAuth.PUT("/:camp_id/status", middleware.RequireRole(models.RoleAdmin), campHandler.SetStatus)
				campsAuth.POST("/:camp_id/units", middleware.RequireRole(models.RoleManager, models.RoleAdmin), unitHandler.Create)
			}
		}

		// Units
		units := v1.Group("/units")
		{
			units.GET("/:unit_id", unitHandler.Get)
			units.GET("/:unit_id/availability", unitHandler.Availability)
			units.GET("/:unit_id/quote", unitHandler.Quote)

			unitsAuth := units.Group("")
			unitsAuth.Use(middleware.AuthMiddleware(jwtService, logger))
			{
				unitsAuth.PATCH("/:unit_id", middleware.RequireRole(models.RoleManager, models.RoleAdmin), unitHandler.Update)
			}
		}

		// Bookings (all protected)
		bookings := v1.Group("/bookings")
		bookings.Use(middleware.AuthMiddleware(jwtService, logger))
		{
			bookings.POST("", bookingHandler.Create)
			bookings.GET("", bookingHandler.ListMine)
			bookings.GET("/:booking_id", bookingHandler.Get)
			bookings.POST("/:booking_id/payment", bookingHandler.InitiatePayment)
			bookings.POST("/:booking_id/cancel", bookingHandler.Cancel)
			bookings.POST("/:booking_id/refund-confirm", middleware.RequireRole(models.RoleAdmin), bookingHandler.ConfirmRefund)
		}
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	sweeperService.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": time.Since(start).Milliseconds(),
		}
		if userCtx, exists := middleware.GetUserContext(c); exists {
			fields["user_id"] = userCtx.UserID
		}

		entry := logger.WithFields(fields)
		status := c.Writer.Status()
		switch {
		case status >= 500:
			entry.Error("Request completed with server error")
		case status >= 400:
			entry.Warn("Request completed with client error")
		default:
			entry.Info("Request completed successfully")
		}
	}
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
