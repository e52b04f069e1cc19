package payments

import (
	"context"
	"errors"
	"fmt"

	"boxoffice/pkg/logger"

	"github.com/google/uuid"
)

// BookingService exposes the booking operations the ledger needs (to avoid
// circular dependency)
type BookingService interface {
	BookingCharge(ctx context.Context, bookingID uuid.UUID) (amountMinor int64, currency string, status string, err error)
	MarkPaid(ctx context.Context, bookingID uuid.UUID) error
	MarkRefunded(ctx context.Context, bookingID uuid.UUID) error
}

// EventPublisher publishes payment lifecycle events (to avoid circular dependency)
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, aggregateID uuid.UUID, payload interface{}) error
}

// Service interface defines the contract for the transaction ledger
type Service interface {
	InitiatePayment(ctx context.Context, req InitiatePaymentRequest) (*Transaction, error)
	InitiateRefund(ctx context.Context, req InitiateRefundRequest) (*Transaction, error)
	HandleProviderCallback(ctx context.Context, req ProviderCallbackRequest) (*Transaction, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (*Transaction, error)
	ListBookingTransactions(ctx context.Context, bookingID uuid.UUID) ([]Transaction, error)
}

type service struct {
	repo      Repository
	gateway   PaymentGateway
	bookings  BookingService
	publisher EventPublisher
	log       *logger.Logger
}

func NewService(repo Repository, gateway PaymentGateway, bookings BookingService, publisher EventPublisher, log *logger.Logger) Service {
	if log == nil {
		log = logger.GetDefault()
	}
	return &service{
		repo:      repo,
		gateway:   gateway,
		bookings:  bookings,
		publisher: publisher,
		log:       log,
	}
}

// InitiatePayment charges a booking's full price. The PENDING entry is
// committed before the provider is contacted, so a crash mid-charge leaves a
// durable record to reconcile against. Retrying with the same idempotency key
// returns the recorded entry instead of charging twice.
func (s *service) InitiatePayment(ctx context.Context, req InitiatePaymentRequest) (*Transaction, error) {
	bookingID, err := uuid.Parse(req.BookingID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid booking ID", ErrValidation)
	}

	if existing, err := s.replay(ctx, req.IdempotencyKey, PayableBooking, bookingID); existing != nil || err != nil {
		return existing, err
	}

	amountMinor, currency, bookingStatus, err := s.bookings.BookingCharge(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if bookingStatus != "IN_PROGRESS" {
		return nil, fmt.Errorf("%w: booking is %s, not awaiting payment", ErrValidation, bookingStatus)
	}
	if amountMinor <= 0 {
		return nil, fmt.Errorf("%w: booking has no chargeable amount", ErrValidation)
	}

	transaction := &Transaction{
		PayableType:     PayableBooking,
		PayableID:       bookingID,
		Type:            TypePayment,
		Status:          StatusPending,
		ValueMinorUnits: amountMinor,
		Currency:        currency,
		Provider:        s.gateway.Name(),
		IdempotencyKey:  req.IdempotencyKey,
	}

	if err := s.repo.Create(ctx, transaction); err != nil {
		if errors.Is(err, ErrIdempotencyReplay) {
			return s.repo.GetByIdempotencyKey(ctx, req.IdempotencyKey)
		}
		return nil, err
	}
	s.log.LogTransactionCreated(ctx, transaction.ID.String(), bookingID.String(), TypePayment.String(), amountMinor)

	result, err := s.gateway.Charge(ctx, &ChargeRequest{
		AmountMinor:        amountMinor,
		Currency:           currency,
		IdempotencyKey:     req.IdempotencyKey,
		PaymentMethodToken: req.PaymentMethodToken,
		Description:        fmt.Sprintf("booking %s", bookingID),
	})
	if err != nil {
		// Entry stays PENDING; the caller retries with the same key or the
		// provider callback settles it later.
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	if err := s.settle(ctx, transaction, result); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, transaction.ID)
}

// InitiateRefund records and dispatches a refund. The refundable ceiling is
// enforced by the repository in the same serialized step that writes the
// PENDING row, so concurrent refunds cannot both squeeze past it; an
// over-refund writes nothing.
func (s *service) InitiateRefund(ctx context.Context, req InitiateRefundRequest) (*Transaction, error) {
	bookingID, err := uuid.Parse(req.BookingID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid booking ID", ErrValidation)
	}
	if req.ValueMinorUnits <= 0 {
		return nil, fmt.Errorf("%w: refund value must be positive", ErrValidation)
	}

	if existing, err := s.replay(ctx, req.IdempotencyKey, PayableBooking, bookingID); existing != nil || err != nil {
		return existing, err
	}

	original, err := s.repo.LatestCompletedPayment(ctx, PayableBooking, bookingID)
	if err != nil {
		if errors.Is(err, ErrTransactionNotFound) {
			return nil, fmt.Errorf("%w: no completed payment to refund against", ErrValidation)
		}
		return nil, err
	}
	if original.ProviderTransactionID == nil {
		return nil, fmt.Errorf("%w: completed payment has no provider reference", ErrValidation)
	}

	transaction := &Transaction{
		PayableType:     PayableBooking,
		PayableID:       bookingID,
		Type:            TypeRefund,
		Status:          StatusPending,
		ValueMinorUnits: req.ValueMinorUnits,
		Currency:        original.Currency,
		Provider:        s.gateway.Name(),
		IdempotencyKey:  req.IdempotencyKey,
	}

	if err := s.repo.CreateRefund(ctx, transaction); err != nil {
		if errors.Is(err, ErrIdempotencyReplay) {
			return s.repo.GetByIdempotencyKey(ctx, req.IdempotencyKey)
		}
		return nil, err
	}
	s.log.LogTransactionCreated(ctx, transaction.ID.String(), bookingID.String(), TypeRefund.String(), req.ValueMinorUnits)

	result, err := s.gateway.Refund(ctx, &RefundRequest{
		ProviderTransactionID: *original.ProviderTransactionID,
		AmountMinor:           req.ValueMinorUnits,
		Currency:              original.Currency,
		IdempotencyKey:        req.IdempotencyKey,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	if err := s.settle(ctx, transaction, result); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, transaction.ID)
}

// HandleProviderCallback applies an asynchronous provider verdict. Replays of
// a verdict already recorded are no-ops; a contradicting verdict is surfaced
// for manual review and never overwrites ledger history.
func (s *service) HandleProviderCallback(ctx context.Context, req ProviderCallbackRequest) (*Transaction, error) {
	outcome := Status(req.Outcome)
	if !outcome.IsTerminal() {
		return nil, fmt.Errorf("%w: outcome must be COMPLETED or FAILED", ErrValidation)
	}
	if req.ProviderTransactionID == "" && req.IdempotencyKey == "" {
		return nil, fmt.Errorf("%w: callback carries no transaction identifier", ErrValidation)
	}

	transaction, err := s.locate(ctx, req.ProviderTransactionID, req.IdempotencyKey)
	if err != nil {
		return nil, err
	}

	if transaction.IsTerminal() {
		if transaction.Status == outcome {
			return transaction, nil
		}
		s.log.LogReconciliationConflict(ctx, transaction.ID.String(), transaction.Status.String(), outcome.String())
		return nil, fmt.Errorf("%w: recorded %s, reported %s", ErrReconciliationConflict, transaction.Status, outcome)
	}

	result := &ChargeResult{
		ProviderTransactionID: req.ProviderTransactionID,
		Outcome:               outcome,
		FailureReason:         req.FailureReason,
	}
	if err := s.settle(ctx, transaction, result); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, transaction.ID)
}

func (s *service) GetTransaction(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListBookingTransactions(ctx context.Context, bookingID uuid.UUID) ([]Transaction, error) {
	return s.repo.ListByPayable(ctx, PayableBooking, bookingID)
}

// replay returns the recorded entry when the idempotency key has been seen
// before. Reusing a key against a different payable is a client error.
func (s *service) replay(ctx context.Context, key string, payableType PayableType, payableID uuid.UUID) (*Transaction, error) {
	existing, err := s.repo.GetByIdempotencyKey(ctx, key)
	if err != nil {
		if errors.Is(err, ErrTransactionNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if existing.PayableType != payableType || existing.PayableID != payableID {
		return nil, fmt.Errorf("%w: idempotency key already used for another payable", ErrValidation)
	}
	return existing, nil
}

func (s *service) locate(ctx context.Context, providerTxnID, idempotencyKey string) (*Transaction, error) {
	if providerTxnID != "" {
		transaction, err := s.repo.GetByProviderTransactionID(ctx, providerTxnID)
		if err == nil {
			return transaction, nil
		}
		if !errors.Is(err, ErrTransactionNotFound) {
			return nil, err
		}
	}
	if idempotencyKey != "" {
		return s.repo.GetByIdempotencyKey(ctx, idempotencyKey)
	}
	return nil, ErrTransactionNotFound
}

// settle records the terminal outcome and applies booking side effects.
func (s *service) settle(ctx context.Context, transaction *Transaction, result *ChargeResult) error {
	if err := s.repo.MarkOutcome(ctx, transaction.ID, result.Outcome, result); err != nil {
		if errors.Is(err, ErrReconciliationConflict) {
			s.log.LogReconciliationConflict(ctx, transaction.ID.String(), transaction.Status.String(), result.Outcome.String())
		}
		return err
	}
	s.log.LogTransactionReconciled(ctx, transaction.ID.String(), result.ProviderTransactionID, result.Outcome.String())

	if result.Outcome != StatusCompleted {
		return nil
	}

	switch transaction.Type {
	case TypePayment:
		// Full price is charged in one transaction, so a completed payment
		// settles the booking.
		if err := s.bookings.MarkPaid(ctx, transaction.PayableID); err != nil {
			s.log.ErrorWithContext(ctx, "failed to mark booking paid after completed payment", err, map[string]interface{}{
				"booking_id":     transaction.PayableID.String(),
				"transaction_id": transaction.ID.String(),
			})
		}
		s.publish(ctx, "payment.completed", transaction)
	case TypeRefund:
		net, err := s.repo.NetCompletedTotal(ctx, transaction.PayableType, transaction.PayableID)
		if err != nil {
			return err
		}
		if net <= 0 {
			if err := s.bookings.MarkRefunded(ctx, transaction.PayableID); err != nil {
				s.log.ErrorWithContext(ctx, "failed to mark booking refunded", err, map[string]interface{}{
					"booking_id":     transaction.PayableID.String(),
					"transaction_id": transaction.ID.String(),
				})
			}
		}
		s.publish(ctx, "refund.completed", transaction)
	}
	return nil
}

func (s *service) publish(ctx context.Context, eventType string, transaction *Transaction) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, eventType, transaction.ID, transaction); err != nil {
		s.log.ErrorWithContext(ctx, "failed to publish payment event", err, map[string]interface{}{
			"event_type":     eventType,
			"transaction_id": transaction.ID.String(),
		})
	}
}
