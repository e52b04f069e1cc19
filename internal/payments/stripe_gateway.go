package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/refund"
)

// StripeGateway implements PaymentGateway using Stripe
type StripeGateway struct {
	config *StripeGatewayConfig
}

// StripeGatewayConfig holds configuration for the Stripe gateway
type StripeGatewayConfig struct {
	SecretKey   string
	Environment string // "test" or "live"
}

// NewStripeGateway creates a new Stripe gateway
func NewStripeGateway(config *StripeGatewayConfig) (*StripeGateway, error) {
	if config == nil {
		return nil, fmt.Errorf("stripe config is required")
	}
	if config.SecretKey == "" {
		return nil, fmt.Errorf("stripe secret key is required")
	}

	stripe.Key = config.SecretKey

	return &StripeGateway{config: config}, nil
}

// Charge processes a payment charge through Stripe
func (g *StripeGateway) Charge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error) {
	if req == nil {
		return nil, fmt.Errorf("charge request is required")
	}

	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(req.AmountMinor),
		Currency:      stripe.String(req.Currency),
		PaymentMethod: stripe.String(req.PaymentMethodToken),
		Confirm:       stripe.Bool(true),
	}
	params.Context = ctx
	params.IdempotencyKey = stripe.String(req.IdempotencyKey)
	params.AddExpand("latest_charge")
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		if result, handled := declineResult(err); handled {
			return result, nil
		}
		return nil, fmt.Errorf("stripe charge failed: %w", err)
	}

	result := &ChargeResult{ProviderTransactionID: pi.ID}
	if pi.LatestCharge != nil && pi.LatestCharge.PaymentMethodDetails != nil &&
		pi.LatestCharge.PaymentMethodDetails.Card != nil {
		result.CardBrand = string(pi.LatestCharge.PaymentMethodDetails.Card.Brand)
		result.Last4 = pi.LatestCharge.PaymentMethodDetails.Card.Last4
	}

	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		result.Outcome = StatusCompleted
	case stripe.PaymentIntentStatusCanceled:
		result.Outcome = StatusFailed
		result.FailureReason = "payment_canceled"
	default:
		result.Outcome = StatusFailed
		result.FailureReason = fmt.Sprintf("unexpected status: %s", pi.Status)
	}

	return result, nil
}

// Refund processes a refund through Stripe
func (g *StripeGateway) Refund(ctx context.Context, req *RefundRequest) (*ChargeResult, error) {
	if req == nil {
		return nil, fmt.Errorf("refund request is required")
	}
	if req.ProviderTransactionID == "" {
		return nil, fmt.Errorf("provider transaction ID is required")
	}

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(req.ProviderTransactionID),
		Amount:        stripe.Int64(req.AmountMinor),
	}
	params.Context = ctx
	params.IdempotencyKey = stripe.String(req.IdempotencyKey)

	ref, err := refund.New(params)
	if err != nil {
		if result, handled := declineResult(err); handled {
			return result, nil
		}
		return nil, fmt.Errorf("stripe refund failed: %w", err)
	}

	result := &ChargeResult{ProviderTransactionID: ref.ID}
	switch ref.Status {
	case stripe.RefundStatusSucceeded, stripe.RefundStatusPending:
		result.Outcome = StatusCompleted
	default:
		result.Outcome = StatusFailed
		result.FailureReason = string(ref.FailureReason)
	}

	return result, nil
}

// Name returns the gateway name
func (g *StripeGateway) Name() string {
	return "stripe"
}

// declineResult turns a provider decline into a terminal FAILED result.
// Transport and server-side errors are not declines and stay as errors so
// the caller can retry with the same idempotency key.
func declineResult(err error) (*ChargeResult, bool) {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		return nil, false
	}

	switch stripeErr.Type {
	case stripe.ErrorTypeCard, stripe.ErrorTypeInvalidRequest:
		result := &ChargeResult{
			Outcome:       StatusFailed,
			FailureReason: string(stripeErr.Code),
		}
		if stripeErr.PaymentIntent != nil {
			result.ProviderTransactionID = stripeErr.PaymentIntent.ID
		}
		if result.FailureReason == "" {
			result.FailureReason = "payment_failed"
		}
		return result, true
	}
	return nil, false
}
