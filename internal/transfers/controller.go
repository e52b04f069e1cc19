package transfers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, ErrTransferNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// RecordTransfer handles POST /api/v1/admin/transfers
func (c *Controller) RecordTransfer(ctx *gin.Context) {
	userIDInterface, exists := ctx.Get("user_id")
	if !exists {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	userIDStr, ok := userIDInterface.(string)
	if !ok {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user ID format"})
		return
	}
	createdBy, err := uuid.Parse(userIDStr)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var req RecordTransferRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	transfer, err := c.service.RecordTransfer(ctx.Request.Context(), createdBy, req)
	if err != nil {
		ctx.JSON(statusForError(err), gin.H{"error": "Failed to record transfer", "details": err.Error()})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "Transfer recorded successfully",
		"data":    transfer,
	})
}

// GetTransfer handles GET /api/v1/admin/transfers/:id
func (c *Controller) GetTransfer(ctx *gin.Context) {
	transferID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid transfer ID"})
		return
	}

	transfer, err := c.service.GetTransfer(ctx.Request.Context(), transferID)
	if err != nil {
		ctx.JSON(statusForError(err), gin.H{"error": "Failed to get transfer", "details": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Transfer retrieved successfully",
		"data":    transfer,
	})
}

// ListTransfers handles GET /api/v1/admin/transfers
func (c *Controller) ListTransfers(ctx *gin.Context) {
	var query TransferListQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters", "details": err.Error()})
		return
	}

	result, err := c.service.ListTransfers(ctx.Request.Context(), query)
	if err != nil {
		ctx.JSON(statusForError(err), gin.H{"error": "Failed to list transfers", "details": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Transfers retrieved successfully",
		"data":    result,
	})
}

// BeneficiaryTotal handles GET /api/v1/admin/transfers/total
func (c *Controller) BeneficiaryTotal(ctx *gin.Context) {
	total, err := c.service.BeneficiaryTotal(ctx.Request.Context(), ctx.Query("society_id"), ctx.Query("user_id"))
	if err != nil {
		ctx.JSON(statusForError(err), gin.H{"error": "Failed to compute total", "details": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Total retrieved successfully",
		"data": gin.H{
			"total_minor_units": total,
		},
	})
}
