package payments

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockGateway implements PaymentGateway for development and testing
type MockGateway struct {
	config       *MockGatewayConfig
	transactions sync.Map
	mu           sync.RWMutex
}

// MockGatewayConfig holds configuration for the mock gateway
type MockGatewayConfig struct {
	// SuccessRate is the probability of a successful charge (0.0 to 1.0)
	SuccessRate float64

	// DelayMs is the simulated processing delay in milliseconds
	DelayMs int

	// FailureReasons is a list of possible decline reasons
	FailureReasons []string
}

// DefaultMockGatewayConfig returns default configuration
func DefaultMockGatewayConfig() *MockGatewayConfig {
	return &MockGatewayConfig{
		SuccessRate: 0.95,
		DelayMs:     100,
		FailureReasons: []string{
			"insufficient_funds",
			"card_declined",
			"expired_card",
			"processing_error",
		},
	}
}

// NewMockGateway creates a new mock gateway
func NewMockGateway(config *MockGatewayConfig) *MockGateway {
	if config == nil {
		config = DefaultMockGatewayConfig()
	}
	if config.SuccessRate < 0 {
		config.SuccessRate = 0
	}
	if config.SuccessRate > 1 {
		config.SuccessRate = 1
	}
	return &MockGateway{config: config}
}

// Charge processes a mock payment charge
func (g *MockGateway) Charge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error) {
	if req == nil {
		return nil, fmt.Errorf("charge request is required")
	}
	if req.IdempotencyKey == "" {
		return nil, fmt.Errorf("idempotency key is required")
	}

	if err := g.delay(ctx); err != nil {
		return nil, err
	}

	// Replay of a key the provider has already settled returns the same verdict.
	if prior, ok := g.transactions.Load(req.IdempotencyKey); ok {
		return prior.(*ChargeResult), nil
	}

	result := &ChargeResult{
		ProviderTransactionID: fmt.Sprintf("mock_txn_%s", uuid.New().String()[:8]),
	}

	g.mu.RLock()
	success := rand.Float64() < g.config.SuccessRate
	g.mu.RUnlock()

	if success {
		result.Outcome = StatusCompleted
		result.CardBrand = "visa"
		result.Last4 = fmt.Sprintf("%04d", rand.Intn(10000))
	} else {
		result.Outcome = StatusFailed
		if len(g.config.FailureReasons) > 0 {
			result.FailureReason = g.config.FailureReasons[rand.Intn(len(g.config.FailureReasons))]
		} else {
			result.FailureReason = "payment_failed"
		}
	}

	g.transactions.Store(req.IdempotencyKey, result)
	return result, nil
}

// Refund processes a mock refund
func (g *MockGateway) Refund(ctx context.Context, req *RefundRequest) (*ChargeResult, error) {
	if req == nil {
		return nil, fmt.Errorf("refund request is required")
	}
	if req.ProviderTransactionID == "" {
		return nil, fmt.Errorf("provider transaction ID is required")
	}
	if req.IdempotencyKey == "" {
		return nil, fmt.Errorf("idempotency key is required")
	}

	if err := g.delay(ctx); err != nil {
		return nil, err
	}

	if prior, ok := g.transactions.Load(req.IdempotencyKey); ok {
		return prior.(*ChargeResult), nil
	}

	result := &ChargeResult{
		ProviderTransactionID: fmt.Sprintf("mock_ref_%s", uuid.New().String()[:8]),
		Outcome:               StatusCompleted,
	}
	g.transactions.Store(req.IdempotencyKey, result)
	return result, nil
}

// Name returns the gateway name
func (g *MockGateway) Name() string {
	return "mock"
}

// SetSuccessRate updates the success rate (for testing)
func (g *MockGateway) SetSuccessRate(rate float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if rate < 0 {
		rate = 0
	}
	if rate > 1 {
		rate = 1
	}
	g.config.SuccessRate = rate
}

func (g *MockGateway) delay(ctx context.Context) error {
	if g.config.DelayMs <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Duration(g.config.DelayMs) * time.Millisecond):
		return nil
	}
}
