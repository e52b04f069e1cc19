package performances

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
	case errors.Is(err, ErrPerformanceNotFound), errors.Is(err, ErrAllocationNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrCeilingExceeded), errors.Is(err, ErrCapacityExceeded):
		return http.StatusConflict
	case errors.Is(err, ErrValidation):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// CreatePerformance handles POST /api/v1/performances
func (c *Controller) CreatePerformance(ctx *gin.Context) {
	userID, ok := userIDFromContext(ctx)
	if !ok {
		return
	}

	var req CreatePerformanceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	performance, err := c.service.CreatePerformance(ctx.Request.Context(), userID, req)
	if err != nil {
		ctx.JSON(statusForError(err), gin.H{"error": "Failed to create performance", "details": err.Error()})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "Performance created successfully",
		"data":    performance,
	})
}

// GetPerformance handles GET /api/v1/performances/:id
func (c *Controller) GetPerformance(ctx *gin.Context) {
	performanceID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid performance ID"})
		return
	}

	performance, err := c.service.GetPerformance(ctx.Request.Context(), performanceID)
	if err != nil {
		ctx.JSON(statusForError(err), gin.H{"error": "Performance not found", "details": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Performance retrieved successfully",
		"data":    performance,
	})
}

// ListPerformances handles GET /api/v1/performances
func (c *Controller) ListPerformances(ctx *gin.Context) {
	var query PerformanceListQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters", "details": err.Error()})
		return
	}

	result, err := c.service.ListPerformances(ctx.Request.Context(), query)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list performances", "details": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Performances retrieved successfully",
		"data":    result,
	})
}

// UpdatePerformance handles PATCH /api/v1/performances/:id
func (c *Controller) UpdatePerformance(ctx *gin.Context) {
	performanceID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid performance ID"})
		return
	}

	var req UpdatePerformanceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	performance, err := c.service.UpdatePerformance(ctx.Request.Context(), performanceID, req)
	if err != nil {
		ctx.JSON(statusForError(err), gin.H{"error": "Failed to update performance", "details": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Performance updated successfully",
		"data":    performance,
	})
}

// AddAllocation handles POST /api/v1/performances/:id/allocations
func (c *Controller) AddAllocation(ctx *gin.Context) {
	performanceID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid performance ID"})
		return
	}

	var line AllocationLine
	if err := ctx.ShouldBindJSON(&line); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	allocation, err := c.service.AddAllocation(ctx.Request.Context(), performanceID, line)
	if err != nil {
		ctx.JSON(statusForError(err), gin.H{"error": "Failed to add allocation", "details": err.Error()})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "Allocation created successfully",
		"data":    allocation,
	})
}

// UpdateAllocation handles PATCH /api/v1/performances/:id/allocations/:allocationId
func (c *Controller) UpdateAllocation(ctx *gin.Context) {
	performanceID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid performance ID"})
		return
	}
	allocationID, err := uuid.Parse(ctx.Param("allocationId"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid allocation ID"})
		return
	}

	var req UpdateAllocationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	allocation, err := c.service.UpdateAllocation(ctx.Request.Context(), performanceID, allocationID, req)
	if err != nil {
		ctx.JSON(statusForError(err), gin.H{"error": "Failed to update allocation", "details": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Allocation updated successfully",
		"data":    allocation,
	})
}

// GetAvailability handles GET /api/v1/performances/:id/availability
func (c *Controller) GetAvailability(ctx *gin.Context) {
	performanceID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid performance ID"})
		return
	}

	availability, err := c.service.GetAvailability(ctx.Request.Context(), performanceID)
	if err != nil {
		ctx.JSON(statusForError(err), gin.H{"error": "Failed to get availability", "details": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Availability retrieved successfully",
		"data":    availability,
	})
}

// userIDFromContext extracts the authenticated user ID set by the JWT middleware.
func userIDFromContext(ctx *gin.Context) (uuid.UUID, bool) {
	userIDInterface, exists := ctx.Get("user_id")
	if !exists {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return uuid.Nil, false
	}

	userIDStr, ok := userIDInterface.(string)
	if !ok {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user ID format"})
		return uuid.Nil, false
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return uuid.Nil, false
	}

	return userID, true
}
