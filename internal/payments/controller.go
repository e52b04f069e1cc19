package payments

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
	case errors.Is(err, ErrTransactionNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrReconciliationConflict):
		return http.StatusConflict
	case errors.Is(err, ErrOverRefund), errors.Is(err, ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrProviderUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// InitiatePayment handles POST /api/v1/payments
func (c *Controller) InitiatePayment(ctx *gin.Context) {
	var req InitiatePaymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	transaction, err := c.service.InitiatePayment(ctx.Request.Context(), req)
	if err != nil {
		ctx.JSON(statusForError(err), gin.H{"error": "Failed to process payment", "details": err.Error()})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "Payment processed",
		"data":    transaction,
	})
}

// InitiateRefund handles POST /api/v1/payments/refunds
func (c *Controller) InitiateRefund(ctx *gin.Context) {
	var req InitiateRefundRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	transaction, err := c.service.InitiateRefund(ctx.Request.Context(), req)
	if err != nil {
		ctx.JSON(statusForError(err), gin.H{"error": "Failed to process refund", "details": err.Error()})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "Refund processed",
		"data":    transaction,
	})
}

// ProviderCallback handles POST /api/v1/payments/webhook
func (c *Controller) ProviderCallback(ctx *gin.Context) {
	var req ProviderCallbackRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid callback payload", "details": err.Error()})
		return
	}

	transaction, err := c.service.HandleProviderCallback(ctx.Request.Context(), req)
	if err != nil {
		ctx.JSON(statusForError(err), gin.H{"error": "Failed to reconcile callback", "details": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Callback reconciled",
		"data":    transaction,
	})
}

// GetTransaction handles GET /api/v1/payments/:id
func (c *Controller) GetTransaction(ctx *gin.Context) {
	transactionID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid transaction ID"})
		return
	}

	transaction, err := c.service.GetTransaction(ctx.Request.Context(), transactionID)
	if err != nil {
		ctx.JSON(statusForError(err), gin.H{"error": "Failed to get transaction", "details": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Transaction retrieved successfully",
		"data":    transaction,
	})
}

// ListBookingTransactions handles GET /api/v1/bookings/:id/transactions
func (c *Controller) ListBookingTransactions(ctx *gin.Context) {
	bookingID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID"})
		return
	}

	transactions, err := c.service.ListBookingTransactions(ctx.Request.Context(), bookingID)
	if err != nil {
		ctx.JSON(statusForError(err), gin.H{"error": "Failed to list transactions", "details": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Transactions retrieved successfully",
		"data":    transactions,
	})
}
