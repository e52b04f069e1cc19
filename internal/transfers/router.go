package transfers

import (
	"boxoffice/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupTransferRoutes configures transfer ledger routes. All of them are
// administrative.
func SetupTransferRoutes(rg *gin.RouterGroup, controller *Controller) {
	admin := rg.Group("/admin/transfers")
	admin.Use(middleware.JWTAuth(), middleware.RequireRoles("ADMIN"))
	{
		admin.POST("", controller.RecordTransfer)          // POST /api/v1/admin/transfers
		admin.GET("", controller.ListTransfers)            // GET /api/v1/admin/transfers
		admin.GET("/total", controller.BeneficiaryTotal)   // GET /api/v1/admin/transfers/total
		admin.GET("/:id", controller.GetTransfer)          // GET /api/v1/admin/transfers/:id
	}
}
