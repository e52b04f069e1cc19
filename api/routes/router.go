// api/routes/router.go
package routes

import (
	"net/http"
	"time"

	"boxoffice/internal/bookings"
	"boxoffice/internal/notifications"
	"boxoffice/internal/payments"
	"boxoffice/internal/performances"
	"boxoffice/internal/shared/config"
	"boxoffice/internal/shared/database"
	"boxoffice/internal/transfers"
	"boxoffice/pkg/cache"
	"boxoffice/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Router holds all route dependencies
type Router struct {
	config   *config.Config
	db       *database.DB
	producer notifications.Producer
	log      *logger.Logger

	// Services built during wiring, kept for background workers.
	bookingService bookings.Service
}

// NewRouter creates a new router instance. producer may be nil when the
// event stream is disabled.
func NewRouter(cfg *config.Config, db *database.DB, producer notifications.Producer) *Router {
	return &Router{
		config:   cfg,
		db:       db,
		producer: producer,
		log:      logger.GetDefault(),
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	r.setupHealthRoutes(engine)

	api := engine.Group(r.config.GetAPIBasePath())
	{
		r.setupPerformanceRoutes(api)
		bookingService := r.setupBookingRoutes(api)
		r.setupPaymentRoutes(api, bookingService)
		r.setupTransferRoutes(api)
	}
}

// BookingService exposes the wired booking service for background workers.
// SetupRoutes must run first.
func (r *Router) BookingService() bookings.Service {
	return r.bookingService
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "boxoffice",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "boxoffice",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "operational",
			"api_version": r.config.APIVersion,
			"timestamp":   time.Now(),
		})
	})
}

// setupPerformanceRoutes configures programme and availability routes
func (r *Router) setupPerformanceRoutes(rg *gin.RouterGroup) {
	var cacheService cache.Service
	if r.db.Redis != nil {
		cacheService = cache.NewService(r.db.GetRedisClient())
	}

	performanceRepo := performances.NewRepository(r.db.GetPostgreSQL())
	performanceService := performances.NewService(performanceRepo, cacheService, r.config.Redis.AvailabilityTTL)
	performanceController := performances.NewController(performanceService)

	performances.SetupPerformanceRoutes(rg, performanceController)
}

// setupBookingRoutes configures booking lifecycle routes
func (r *Router) setupBookingRoutes(rg *gin.RouterGroup) bookings.Service {
	inventory := performances.NewInventory()
	bookingRepo := bookings.NewRepository(r.db.GetPostgreSQL(), inventory)
	bookingService := bookings.NewService(
		bookingRepo,
		r.producer,
		r.log,
		r.config.Booking.HoldTTL,
		r.config.Booking.Currency,
	)
	bookingController := bookings.NewController(bookingService)

	bookings.SetupBookingRoutes(rg, bookingController)
	r.bookingService = bookingService
	return bookingService
}

// setupPaymentRoutes configures transaction ledger routes
func (r *Router) setupPaymentRoutes(rg *gin.RouterGroup, bookingService bookings.Service) {
	gateway := r.buildGateway()

	paymentRepo := payments.NewRepository(r.db.GetPostgreSQL())
	paymentService := payments.NewService(paymentRepo, gateway, bookingService, r.producer, r.log)
	paymentController := payments.NewController(paymentService)

	payments.SetupPaymentRoutes(rg, paymentController)
}

// setupTransferRoutes configures the settlement transfer ledger routes
func (r *Router) setupTransferRoutes(rg *gin.RouterGroup) {
	transferRepo := transfers.NewRepository(r.db.GetPostgreSQL())
	transferService := transfers.NewService(transferRepo, r.producer, r.log, r.config.Booking.Currency)
	transferController := transfers.NewController(transferService)

	transfers.SetupTransferRoutes(rg, transferController)
}

// buildGateway picks the payment provider implementation from config.
func (r *Router) buildGateway() payments.PaymentGateway {
	if !r.config.Gateway.UseMock {
		gateway, err := payments.NewStripeGateway(&payments.StripeGatewayConfig{
			SecretKey:   r.config.Gateway.StripeSecretKey,
			Environment: r.config.Gateway.StripeEnvironment,
		})
		if err == nil {
			r.log.Info("stripe payment gateway initialized")
			return gateway
		}
		r.log.Error("failed to initialize stripe gateway, falling back to mock", "error", err)
	}

	mockConfig := payments.DefaultMockGatewayConfig()
	mockConfig.SuccessRate = r.config.Gateway.MockSuccessRate
	r.log.Info("mock payment gateway initialized", "success_rate", mockConfig.SuccessRate)
	return payments.NewMockGateway(mockConfig)
}
