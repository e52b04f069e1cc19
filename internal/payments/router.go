package payments

import (
	"boxoffice/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupPaymentRoutes configures all payment-related routes
func SetupPaymentRoutes(rg *gin.RouterGroup, controller *Controller) {
	payments := rg.Group("/payments")
	payments.Use(middleware.JWTAuth(), middleware.RequireRoles("USER", "ADMIN"))
	{
		payments.POST("", controller.InitiatePayment)    // POST /api/v1/payments
		payments.GET("/:id", controller.GetTransaction)  // GET /api/v1/payments/:id
	}

	// Refunds are an administrative action.
	adminPayments := rg.Group("/admin/payments")
	adminPayments.Use(middleware.JWTAuth(), middleware.RequireRoles("ADMIN"))
	{
		adminPayments.POST("/refunds", controller.InitiateRefund) // POST /api/v1/admin/payments/refunds
	}

	// Provider callbacks authenticate by shared secret at the gateway, not JWT.
	rg.POST("/payments/webhook", controller.ProviderCallback) // POST /api/v1/payments/webhook

	bookings := rg.Group("/bookings")
	bookings.Use(middleware.JWTAuth(), middleware.RequireRoles("USER", "ADMIN"))
	{
		bookings.GET("/:id/transactions", controller.ListBookingTransactions) // GET /api/v1/bookings/:id/transactions
	}
}
