package bookings

import (
	"boxoffice/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupBookingRoutes configures all booking-related routes
func SetupBookingRoutes(rg *gin.RouterGroup, controller *Controller) {
	bookings := rg.Group("/bookings")
	bookings.Use(middleware.JWTAuth(), middleware.RequireRoles("USER", "ADMIN"))
	{
		bookings.POST("", controller.CreateBooking)                // POST /api/v1/bookings
		bookings.GET("/:id", controller.GetBooking)                // GET /api/v1/bookings/:id
		bookings.POST("/:id/cancel", controller.CancelBooking)     // POST /api/v1/bookings/:id/cancel
		bookings.POST("/:id/transfer", controller.TransferBooking) // POST /api/v1/bookings/:id/transfer
	}

	users := rg.Group("/users")
	users.Use(middleware.JWTAuth(), middleware.RequireRoles("USER", "ADMIN"))
	{
		users.GET("/bookings", controller.GetUserBookings) // GET /api/v1/users/bookings
	}

	admin := rg.Group("/admin/performances")
	admin.Use(middleware.JWTAuth(), middleware.RequireRoles("ADMIN"))
	{
		admin.GET("/:id/bookings", controller.GetPerformanceBookings) // GET /api/v1/admin/performances/:id/bookings
	}
}
