package performances

import (
	"boxoffice/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupPerformanceRoutes configures catalog and availability routes
func SetupPerformanceRoutes(rg *gin.RouterGroup, controller *Controller) {
	// Public routes - anyone can browse the programme
	public := rg.Group("/performances")
	{
		public.GET("", controller.ListPerformances)                   // GET /api/v1/performances
		public.GET("/:id", controller.GetPerformance)                 // GET /api/v1/performances/:id
		public.GET("/:id/availability", controller.GetAvailability)   // GET /api/v1/performances/:id/availability
	}

	// Admin routes - box office managers maintain the programme
	admin := rg.Group("/admin/performances")
	admin.Use(middleware.JWTAuth(), middleware.RequireRoles("ADMIN"))
	{
		admin.POST("", controller.CreatePerformance)                                  // POST /api/v1/admin/performances
		admin.PATCH("/:id", controller.UpdatePerformance)                             // PATCH /api/v1/admin/performances/:id
		admin.POST("/:id/allocations", controller.AddAllocation)                      // POST /api/v1/admin/performances/:id/allocations
		admin.PATCH("/:id/allocations/:allocationId", controller.UpdateAllocation)    // PATCH /api/v1/admin/performances/:id/allocations/:allocationId
	}
}
