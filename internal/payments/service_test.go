package payments

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Create(ctx context.Context, transaction *Transaction) error {
	args := m.Called(ctx, transaction)
	return args.Error(0)
}

func (m *mockRepo) CreateRefund(ctx context.Context, transaction *Transaction) error {
	args := m.Called(ctx, transaction)
	return args.Error(0)
}

func (m *mockRepo) GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	args := m.Called(ctx, id)
	if t := args.Get(0); t != nil {
		return t.(*Transaction), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepo) GetByIdempotencyKey(ctx context.Context, key string) (*Transaction, error) {
	args := m.Called(ctx, key)
	if t := args.Get(0); t != nil {
		return t.(*Transaction), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepo) GetByProviderTransactionID(ctx context.Context, providerTxnID string) (*Transaction, error) {
	args := m.Called(ctx, providerTxnID)
	if t := args.Get(0); t != nil {
		return t.(*Transaction), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepo) ListByPayable(ctx context.Context, payableType PayableType, payableID uuid.UUID) ([]Transaction, error) {
	args := m.Called(ctx, payableType, payableID)
	return args.Get(0).([]Transaction), args.Error(1)
}

func (m *mockRepo) MarkOutcome(ctx context.Context, id uuid.UUID, outcome Status, result *ChargeResult) error {
	args := m.Called(ctx, id, outcome, result)
	return args.Error(0)
}

func (m *mockRepo) NetCompletedTotal(ctx context.Context, payableType PayableType, payableID uuid.UUID) (int64, error) {
	args := m.Called(ctx, payableType, payableID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRepo) LatestCompletedPayment(ctx context.Context, payableType PayableType, payableID uuid.UUID) (*Transaction, error) {
	args := m.Called(ctx, payableType, payableID)
	if t := args.Get(0); t != nil {
		return t.(*Transaction), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) Charge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error) {
	args := m.Called(ctx, req)
	if r := args.Get(0); r != nil {
		return r.(*ChargeResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGateway) Refund(ctx context.Context, req *RefundRequest) (*ChargeResult, error) {
	args := m.Called(ctx, req)
	if r := args.Get(0); r != nil {
		return r.(*ChargeResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGateway) Name() string {
	return "mock"
}

type mockBookings struct {
	mock.Mock
}

func (m *mockBookings) BookingCharge(ctx context.Context, bookingID uuid.UUID) (int64, string, string, error) {
	args := m.Called(ctx, bookingID)
	return args.Get(0).(int64), args.String(1), args.String(2), args.Error(3)
}

func (m *mockBookings) MarkPaid(ctx context.Context, bookingID uuid.UUID) error {
	args := m.Called(ctx, bookingID)
	return args.Error(0)
}

func (m *mockBookings) MarkRefunded(ctx context.Context, bookingID uuid.UUID) error {
	args := m.Called(ctx, bookingID)
	return args.Error(0)
}

func TestInitiatePaymentRecordsPendingBeforeCharging(t *testing.T) {
	repo := new(mockRepo)
	gateway := new(mockGateway)
	books := new(mockBookings)
	svc := NewService(repo, gateway, books, nil, nil)

	ctx := context.Background()
	bookingID := uuid.New()
	txnID := uuid.New()
	providerID := "mock_txn_abc123"

	repo.On("GetByIdempotencyKey", ctx, "pay-key-1").Return(nil, ErrTransactionNotFound).Once()
	books.On("BookingCharge", ctx, bookingID).Return(int64(2500), "GBP", "IN_PROGRESS", nil)

	pendingRecorded := false
	repo.On("Create", ctx, mock.MatchedBy(func(txn *Transaction) bool {
		return txn.Type == TypePayment &&
			txn.Status == StatusPending &&
			txn.ValueMinorUnits == 2500 &&
			txn.PayableID == bookingID
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*Transaction).ID = txnID
		pendingRecorded = true
	}).Return(nil)

	gateway.On("Charge", ctx, mock.MatchedBy(func(req *ChargeRequest) bool {
		// The PENDING entry must already be durable when the provider is hit.
		return pendingRecorded && req.AmountMinor == 2500 && req.IdempotencyKey == "pay-key-1"
	})).Return(&ChargeResult{
		ProviderTransactionID: providerID,
		Outcome:               StatusCompleted,
		CardBrand:             "visa",
		Last4:                 "4242",
	}, nil)

	repo.On("MarkOutcome", ctx, txnID, StatusCompleted, mock.Anything).Return(nil)
	books.On("MarkPaid", ctx, bookingID).Return(nil)
	repo.On("GetByID", ctx, txnID).Return(&Transaction{
		ID:                    txnID,
		Status:                StatusCompleted,
		ProviderTransactionID: &providerID,
	}, nil)

	txn, err := svc.InitiatePayment(ctx, InitiatePaymentRequest{
		BookingID:          bookingID.String(),
		IdempotencyKey:     "pay-key-1",
		PaymentMethodToken: "tok_visa",
	})

	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, txn.Status)
	repo.AssertExpectations(t)
	gateway.AssertExpectations(t)
	books.AssertExpectations(t)
}

func TestInitiatePaymentReplayReturnsRecordedEntry(t *testing.T) {
	repo := new(mockRepo)
	gateway := new(mockGateway)
	books := new(mockBookings)
	svc := NewService(repo, gateway, books, nil, nil)

	ctx := context.Background()
	bookingID := uuid.New()
	recorded := &Transaction{
		ID:          uuid.New(),
		PayableType: PayableBooking,
		PayableID:   bookingID,
		Type:        TypePayment,
		Status:      StatusCompleted,
	}

	repo.On("GetByIdempotencyKey", ctx, "pay-key-1").Return(recorded, nil)

	txn, err := svc.InitiatePayment(ctx, InitiatePaymentRequest{
		BookingID:          bookingID.String(),
		IdempotencyKey:     "pay-key-1",
		PaymentMethodToken: "tok_visa",
	})

	require.NoError(t, err)
	assert.Equal(t, recorded.ID, txn.ID)
	gateway.AssertNotCalled(t, "Charge", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestInitiatePaymentRejectsKeyReusedForAnotherBooking(t *testing.T) {
	repo := new(mockRepo)
	svc := NewService(repo, new(mockGateway), new(mockBookings), nil, nil)

	ctx := context.Background()
	repo.On("GetByIdempotencyKey", ctx, "pay-key-1").Return(&Transaction{
		ID:          uuid.New(),
		PayableType: PayableBooking,
		PayableID:   uuid.New(),
	}, nil)

	_, err := svc.InitiatePayment(ctx, InitiatePaymentRequest{
		BookingID:          uuid.New().String(),
		IdempotencyKey:     "pay-key-1",
		PaymentMethodToken: "tok_visa",
	})

	assert.ErrorIs(t, err, ErrValidation)
}

func TestInitiatePaymentRejectsSettledBooking(t *testing.T) {
	repo := new(mockRepo)
	books := new(mockBookings)
	svc := NewService(repo, new(mockGateway), books, nil, nil)

	ctx := context.Background()
	bookingID := uuid.New()
	repo.On("GetByIdempotencyKey", ctx, "pay-key-1").Return(nil, ErrTransactionNotFound)
	books.On("BookingCharge", ctx, bookingID).Return(int64(2500), "GBP", "PAID", nil)

	_, err := svc.InitiatePayment(ctx, InitiatePaymentRequest{
		BookingID:          bookingID.String(),
		IdempotencyKey:     "pay-key-1",
		PaymentMethodToken: "tok_visa",
	})

	assert.ErrorIs(t, err, ErrValidation)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestInitiatePaymentProviderDownLeavesEntryPending(t *testing.T) {
	repo := new(mockRepo)
	gateway := new(mockGateway)
	books := new(mockBookings)
	svc := NewService(repo, gateway, books, nil, nil)

	ctx := context.Background()
	bookingID := uuid.New()

	repo.On("GetByIdempotencyKey", ctx, "pay-key-1").Return(nil, ErrTransactionNotFound)
	books.On("BookingCharge", ctx, bookingID).Return(int64(2500), "GBP", "IN_PROGRESS", nil)
	repo.On("Create", ctx, mock.Anything).Return(nil)
	gateway.On("Charge", ctx, mock.Anything).Return(nil, errors.New("connection refused"))

	_, err := svc.InitiatePayment(ctx, InitiatePaymentRequest{
		BookingID:          bookingID.String(),
		IdempotencyKey:     "pay-key-1",
		PaymentMethodToken: "tok_visa",
	})

	assert.ErrorIs(t, err, ErrProviderUnavailable)
	repo.AssertNotCalled(t, "MarkOutcome", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestInitiatePaymentDeclineSettlesFailed(t *testing.T) {
	repo := new(mockRepo)
	gateway := new(mockGateway)
	books := new(mockBookings)
	svc := NewService(repo, gateway, books, nil, nil)

	ctx := context.Background()
	bookingID := uuid.New()
	txnID := uuid.New()

	repo.On("GetByIdempotencyKey", ctx, "pay-key-1").Return(nil, ErrTransactionNotFound)
	books.On("BookingCharge", ctx, bookingID).Return(int64(2500), "GBP", "IN_PROGRESS", nil)
	repo.On("Create", ctx, mock.Anything).Run(func(args mock.Arguments) {
		args.Get(1).(*Transaction).ID = txnID
	}).Return(nil)
	gateway.On("Charge", ctx, mock.Anything).Return(&ChargeResult{
		ProviderTransactionID: "mock_txn_declined",
		Outcome:               StatusFailed,
		FailureReason:         "insufficient_funds",
	}, nil)
	repo.On("MarkOutcome", ctx, txnID, StatusFailed, mock.Anything).Return(nil)
	repo.On("GetByID", ctx, txnID).Return(&Transaction{
		ID:            txnID,
		Status:        StatusFailed,
		FailureReason: "insufficient_funds",
	}, nil)

	txn, err := svc.InitiatePayment(ctx, InitiatePaymentRequest{
		BookingID:          bookingID.String(),
		IdempotencyKey:     "pay-key-1",
		PaymentMethodToken: "tok_visa",
	})

	require.NoError(t, err)
	assert.Equal(t, StatusFailed, txn.Status)
	books.AssertNotCalled(t, "MarkPaid", mock.Anything, mock.Anything)
}

func TestInitiateRefundRejectsOverRefundWithoutDispatching(t *testing.T) {
	repo := new(mockRepo)
	gateway := new(mockGateway)
	svc := NewService(repo, gateway, new(mockBookings), nil, nil)

	ctx := context.Background()
	bookingID := uuid.New()
	originalProviderID := "mock_txn_original"

	repo.On("GetByIdempotencyKey", ctx, "ref-key-1").Return(nil, ErrTransactionNotFound)
	repo.On("LatestCompletedPayment", ctx, PayableBooking, bookingID).Return(&Transaction{
		ID:                    uuid.New(),
		Currency:              "GBP",
		ProviderTransactionID: &originalProviderID,
	}, nil)
	repo.On("CreateRefund", ctx, mock.Anything).
		Return(fmt.Errorf("%w: requested 1500, refundable 1000", ErrOverRefund))

	_, err := svc.InitiateRefund(ctx, InitiateRefundRequest{
		BookingID:       bookingID.String(),
		ValueMinorUnits: 1500,
		IdempotencyKey:  "ref-key-1",
	})

	assert.ErrorIs(t, err, ErrOverRefund)
	gateway.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "MarkOutcome", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestInitiateRefundFullAmountMarksBookingRefunded(t *testing.T) {
	repo := new(mockRepo)
	gateway := new(mockGateway)
	books := new(mockBookings)
	svc := NewService(repo, gateway, books, nil, nil)

	ctx := context.Background()
	bookingID := uuid.New()
	txnID := uuid.New()
	originalProviderID := "mock_txn_original"

	repo.On("GetByIdempotencyKey", ctx, "ref-key-1").Return(nil, ErrTransactionNotFound)
	repo.On("LatestCompletedPayment", ctx, PayableBooking, bookingID).Return(&Transaction{
		ID:                    uuid.New(),
		Currency:              "GBP",
		ProviderTransactionID: &originalProviderID,
	}, nil)
	repo.On("CreateRefund", ctx, mock.MatchedBy(func(txn *Transaction) bool {
		return txn.Type == TypeRefund && txn.Status == StatusPending && txn.ValueMinorUnits == 3000
	})).Run(func(args mock.Arguments) {
		txn := args.Get(1).(*Transaction)
		txn.ID = txnID
		txn.PayableID = bookingID
		txn.PayableType = PayableBooking
		txn.Type = TypeRefund
	}).Return(nil)
	gateway.On("Refund", ctx, mock.MatchedBy(func(req *RefundRequest) bool {
		return req.ProviderTransactionID == originalProviderID && req.AmountMinor == 3000
	})).Return(&ChargeResult{
		ProviderTransactionID: "mock_ref_xyz",
		Outcome:               StatusCompleted,
	}, nil)
	repo.On("MarkOutcome", ctx, txnID, StatusCompleted, mock.Anything).Return(nil)
	// Net position after the completed refund.
	repo.On("NetCompletedTotal", ctx, PayableBooking, bookingID).Return(int64(0), nil)
	books.On("MarkRefunded", ctx, bookingID).Return(nil)
	repo.On("GetByID", ctx, txnID).Return(&Transaction{ID: txnID, Status: StatusCompleted}, nil)

	txn, err := svc.InitiateRefund(ctx, InitiateRefundRequest{
		BookingID:       bookingID.String(),
		ValueMinorUnits: 3000,
		IdempotencyKey:  "ref-key-1",
	})

	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, txn.Status)
	books.AssertExpectations(t)
}

func TestInitiateRefundPartialAmountLeavesBookingPaid(t *testing.T) {
	repo := new(mockRepo)
	gateway := new(mockGateway)
	books := new(mockBookings)
	svc := NewService(repo, gateway, books, nil, nil)

	ctx := context.Background()
	bookingID := uuid.New()
	txnID := uuid.New()
	originalProviderID := "mock_txn_original"

	repo.On("GetByIdempotencyKey", ctx, "ref-key-2").Return(nil, ErrTransactionNotFound)
	repo.On("LatestCompletedPayment", ctx, PayableBooking, bookingID).Return(&Transaction{
		ID:                    uuid.New(),
		Currency:              "GBP",
		ProviderTransactionID: &originalProviderID,
	}, nil)
	repo.On("CreateRefund", ctx, mock.Anything).Run(func(args mock.Arguments) {
		txn := args.Get(1).(*Transaction)
		txn.ID = txnID
		txn.PayableID = bookingID
		txn.PayableType = PayableBooking
	}).Return(nil)
	gateway.On("Refund", ctx, mock.Anything).Return(&ChargeResult{
		ProviderTransactionID: "mock_ref_partial",
		Outcome:               StatusCompleted,
	}, nil)
	repo.On("MarkOutcome", ctx, txnID, StatusCompleted, mock.Anything).Return(nil)
	repo.On("NetCompletedTotal", ctx, PayableBooking, bookingID).Return(int64(2000), nil)
	repo.On("GetByID", ctx, txnID).Return(&Transaction{ID: txnID, Status: StatusCompleted}, nil)

	_, err := svc.InitiateRefund(ctx, InitiateRefundRequest{
		BookingID:       bookingID.String(),
		ValueMinorUnits: 1000,
		IdempotencyKey:  "ref-key-2",
	})

	require.NoError(t, err)
	books.AssertNotCalled(t, "MarkRefunded", mock.Anything, mock.Anything)
}

func TestHandleProviderCallbackReplayIsNoOp(t *testing.T) {
	repo := new(mockRepo)
	svc := NewService(repo, new(mockGateway), new(mockBookings), nil, nil)

	ctx := context.Background()
	providerID := "mock_txn_abc"
	recorded := &Transaction{
		ID:                    uuid.New(),
		Status:                StatusCompleted,
		ProviderTransactionID: &providerID,
	}
	repo.On("GetByProviderTransactionID", ctx, providerID).Return(recorded, nil)

	txn, err := svc.HandleProviderCallback(ctx, ProviderCallbackRequest{
		ProviderTransactionID: providerID,
		Outcome:               "COMPLETED",
	})

	require.NoError(t, err)
	assert.Equal(t, recorded.ID, txn.ID)
	repo.AssertNotCalled(t, "MarkOutcome", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleProviderCallbackConflictingVerdict(t *testing.T) {
	repo := new(mockRepo)
	svc := NewService(repo, new(mockGateway), new(mockBookings), nil, nil)

	ctx := context.Background()
	providerID := "mock_txn_abc"
	repo.On("GetByProviderTransactionID", ctx, providerID).Return(&Transaction{
		ID:                    uuid.New(),
		Status:                StatusCompleted,
		ProviderTransactionID: &providerID,
	}, nil)

	_, err := svc.HandleProviderCallback(ctx, ProviderCallbackRequest{
		ProviderTransactionID: providerID,
		Outcome:               "FAILED",
		FailureReason:         "chargeback",
	})

	assert.ErrorIs(t, err, ErrReconciliationConflict)
	repo.AssertNotCalled(t, "MarkOutcome", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleProviderCallbackSettlesPendingEntry(t *testing.T) {
	repo := new(mockRepo)
	books := new(mockBookings)
	svc := NewService(repo, new(mockGateway), books, nil, nil)

	ctx := context.Background()
	bookingID := uuid.New()
	txnID := uuid.New()
	providerID := "mock_txn_late"

	pending := &Transaction{
		ID:          txnID,
		PayableType: PayableBooking,
		PayableID:   bookingID,
		Type:        TypePayment,
		Status:      StatusPending,
	}
	repo.On("GetByProviderTransactionID", ctx, providerID).Return(nil, ErrTransactionNotFound)
	repo.On("GetByIdempotencyKey", ctx, "pay-key-late").Return(pending, nil)
	repo.On("MarkOutcome", ctx, txnID, StatusCompleted, mock.Anything).Return(nil)
	books.On("MarkPaid", ctx, bookingID).Return(nil)
	repo.On("GetByID", ctx, txnID).Return(&Transaction{ID: txnID, Status: StatusCompleted}, nil)

	txn, err := svc.HandleProviderCallback(ctx, ProviderCallbackRequest{
		ProviderTransactionID: providerID,
		IdempotencyKey:        "pay-key-late",
		Outcome:               "COMPLETED",
	})

	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, txn.Status)
	books.AssertExpectations(t)
}

func TestHandleProviderCallbackRejectsNonTerminalOutcome(t *testing.T) {
	repo := new(mockRepo)
	svc := NewService(repo, new(mockGateway), new(mockBookings), nil, nil)

	_, err := svc.HandleProviderCallback(context.Background(), ProviderCallbackRequest{
		ProviderTransactionID: "mock_txn_abc",
		Outcome:               "PENDING",
	})

	assert.ErrorIs(t, err, ErrValidation)
}
