package bookings

import (
	"errors"
	"net/http"

	"boxoffice/internal/performances"

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
	case errors.Is(err, ErrBookingNotFound), errors.Is(err, performances.ErrPerformanceNotFound),
		errors.Is(err, performances.ErrAllocationNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicateInProgress), errors.Is(err, performances.ErrCapacityExceeded):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidStateTransition):
		return http.StatusConflict
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrValidation), errors.Is(err, performances.ErrPerformanceDisabled):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// CreateBooking handles POST /api/v1/bookings
func (c *Controller) CreateBooking(ctx *gin.Context) {
	actorID, ok := actorFromContext(ctx)
	if !ok {
		return
	}

	var req CreateBookingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	// Booking for another user is a staff capability.
	if req.ForUserID != "" && !isStaff(ctx) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Only staff can book on behalf of another user"})
		return
	}

	booking, err := c.service.Create(ctx.Request.Context(), actorID, req)
	if err != nil {
		ctx.JSON(statusForError(err), gin.H{"error": "Failed to create booking", "details": err.Error()})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "Booking created successfully",
		"data":    booking,
	})
}

// GetBooking handles GET /api/v1/bookings/:id
func (c *Controller) GetBooking(ctx *gin.Context) {
	bookingID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID"})
		return
	}

	actorID, ok := actorFromContext(ctx)
	if !ok {
		return
	}

	booking, err := c.service.GetBooking(ctx.Request.Context(), bookingID, actorID, isStaff(ctx))
	if err != nil {
		ctx.JSON(statusForError(err), gin.H{"error": "Failed to get booking", "details": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Booking retrieved successfully",
		"data":    booking,
	})
}

// GetUserBookings handles GET /api/v1/users/bookings
func (c *Controller) GetUserBookings(ctx *gin.Context) {
	actorID, ok := actorFromContext(ctx)
	if !ok {
		return
	}

	var query BookingListQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters", "details": err.Error()})
		return
	}

	result, err := c.service.GetUserBookings(ctx.Request.Context(), actorID, query)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list bookings", "details": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Bookings retrieved successfully",
		"data":    result,
	})
}

// GetPerformanceBookings handles GET /api/v1/admin/performances/:id/bookings
func (c *Controller) GetPerformanceBookings(ctx *gin.Context) {
	performanceID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid performance ID"})
		return
	}

	var query BookingListQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters", "details": err.Error()})
		return
	}

	result, err := c.service.GetPerformanceBookings(ctx.Request.Context(), performanceID, query)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list bookings", "details": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Bookings retrieved successfully",
		"data":    result,
	})
}

// CancelBooking handles POST /api/v1/bookings/:id/cancel
func (c *Controller) CancelBooking(ctx *gin.Context) {
	bookingID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID"})
		return
	}

	actorID, ok := actorFromContext(ctx)
	if !ok {
		return
	}

	if err := c.service.Cancel(ctx.Request.Context(), bookingID, actorID, isStaff(ctx)); err != nil {
		ctx.JSON(statusForError(err), gin.H{"error": "Failed to cancel booking", "details": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Booking cancelled successfully",
	})
}

// TransferBooking handles POST /api/v1/bookings/:id/transfer
func (c *Controller) TransferBooking(ctx *gin.Context) {
	bookingID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID"})
		return
	}

	actorID, ok := actorFromContext(ctx)
	if !ok {
		return
	}

	var req TransferBookingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	result, err := c.service.Transfer(ctx.Request.Context(), bookingID, actorID, isStaff(ctx), req)
	if err != nil {
		ctx.JSON(statusForError(err), gin.H{"error": "Failed to transfer booking", "details": err.Error()})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "Booking transferred successfully",
		"data":    result,
	})
}

func actorFromContext(ctx *gin.Context) (uuid.UUID, bool) {
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

func isStaff(ctx *gin.Context) bool {
	role, exists := ctx.Get("user_role")
	if !exists {
		return false
	}
	roleStr, ok := role.(string)
	return ok && roleStr == "ADMIN"
}
