package payments

import "context"

// PaymentGateway defines the interface for the external payment provider
type PaymentGateway interface {
	// Charge processes a payment charge
	Charge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error)

	// Refund processes a refund against an earlier charge
	Refund(ctx context.Context, req *RefundRequest) (*ChargeResult, error)

	// Name returns the gateway name
	Name() string
}

// ChargeRequest represents a charge request sent to the provider
type ChargeRequest struct {
	AmountMinor        int64
	Currency           string
	IdempotencyKey     string
	PaymentMethodToken string
	Description        string
}

// RefundRequest represents a refund request sent to the provider
type RefundRequest struct {
	ProviderTransactionID string
	AmountMinor           int64
	Currency              string
	IdempotencyKey        string
}

// ChargeResult is the provider's verdict on a charge or refund. A transport
// failure is returned as an error instead; a decline is a result with a
// FAILED outcome.
type ChargeResult struct {
	ProviderTransactionID string
	Outcome               Status
	CardBrand             string
	Last4                 string
	FailureReason         string
}
