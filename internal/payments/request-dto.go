package payments

// InitiatePaymentRequest starts a charge for a booking's full price.
type InitiatePaymentRequest struct {
	BookingID          string `json:"booking_id" binding:"required,uuid"`
	IdempotencyKey     string `json:"idempotency_key" binding:"required,min=8,max=100"`
	PaymentMethodToken string `json:"payment_method_token" binding:"required"`
}

// InitiateRefundRequest returns money against a booking's settled payments.
type InitiateRefundRequest struct {
	BookingID       string `json:"booking_id" binding:"required,uuid"`
	ValueMinorUnits int64  `json:"value_minor_units" binding:"required,gt=0"`
	IdempotencyKey  string `json:"idempotency_key" binding:"required,min=8,max=100"`
	Reason          string `json:"reason,omitempty" binding:"max=255"`
}

// ProviderCallbackRequest is the provider's asynchronous verdict. Callbacks
// may arrive duplicated or out of order; either identifier locates the entry.
type ProviderCallbackRequest struct {
	ProviderTransactionID string `json:"provider_transaction_id"`
	IdempotencyKey        string `json:"idempotency_key"`
	Outcome               string `json:"outcome" binding:"required,oneof=COMPLETED FAILED"`
	FailureReason         string `json:"failure_reason,omitempty"`
}
