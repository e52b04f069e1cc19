package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrIdempotencyReplay signals that a row with the same idempotency key
// already exists; the caller should fetch and return the existing entry.
var ErrIdempotencyReplay = errors.New("idempotency key already recorded")

type Repository interface {
	Create(ctx context.Context, transaction *Transaction) error

	// CreateRefund checks the refund against the refundable ceiling and
	// inserts the PENDING row in one serialized step.
	CreateRefund(ctx context.Context, transaction *Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*Transaction, error)
	GetByProviderTransactionID(ctx context.Context, providerTxnID string) (*Transaction, error)
	ListByPayable(ctx context.Context, payableType PayableType, payableID uuid.UUID) ([]Transaction, error)

	// MarkOutcome settles a PENDING entry; it touches nothing once terminal.
	MarkOutcome(ctx context.Context, id uuid.UUID, outcome Status, result *ChargeResult) error

	// Settlement aggregates
	NetCompletedTotal(ctx context.Context, payableType PayableType, payableID uuid.UUID) (int64, error)
	LatestCompletedPayment(ctx context.Context, payableType PayableType, payableID uuid.UUID) (*Transaction, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, transaction *Transaction) error {
	err := r.db.WithContext(ctx).Create(transaction).Error
	if err != nil && isUniqueViolation(err) {
		return ErrIdempotencyReplay
	}
	return err
}

// CreateRefund inserts a PENDING refund after bounding it against the
// payable's refundable ceiling under row locks. The ceiling counts completed
// payments minus every refund not yet FAILED, so a refund still in flight
// already consumes headroom. Locking the payable's existing ledger rows
// serializes concurrent refunds: each sees the other's PENDING row or waits
// for it, and two refunds that individually fit can never jointly exceed
// what was paid.
func (r *repository) CreateRefund(ctx context.Context, transaction *Transaction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []Transaction
		err := tx.
			Set("gorm:query_option", "FOR UPDATE").
			Where("payable_type = ? AND payable_id = ?", transaction.PayableType, transaction.PayableID).
			Find(&rows).Error
		if err != nil {
			return fmt.Errorf("failed to lock ledger rows: %w", err)
		}

		var refundable int64
		for _, row := range rows {
			switch {
			case row.Type == TypePayment && row.Status == StatusCompleted:
				refundable += row.ValueMinorUnits
			case row.Type == TypeRefund && row.Status != StatusFailed:
				refundable -= row.ValueMinorUnits
			}
		}
		if transaction.ValueMinorUnits > refundable {
			return fmt.Errorf("%w: requested %d, refundable %d",
				ErrOverRefund, transaction.ValueMinorUnits, refundable)
		}

		err = tx.Create(transaction).Error
		if err != nil && isUniqueViolation(err) {
			return ErrIdempotencyReplay
		}
		return err
	})
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	var transaction Transaction
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&transaction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &transaction, nil
}

func (r *repository) GetByIdempotencyKey(ctx context.Context, key string) (*Transaction, error) {
	var transaction Transaction
	err := r.db.WithContext(ctx).Where("idempotency_key = ?", key).First(&transaction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &transaction, nil
}

func (r *repository) GetByProviderTransactionID(ctx context.Context, providerTxnID string) (*Transaction, error) {
	var transaction Transaction
	err := r.db.WithContext(ctx).Where("provider_transaction_id = ?", providerTxnID).First(&transaction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &transaction, nil
}

func (r *repository) ListByPayable(ctx context.Context, payableType PayableType, payableID uuid.UUID) ([]Transaction, error) {
	var transactions []Transaction
	err := r.db.WithContext(ctx).
		Where("payable_type = ? AND payable_id = ?", payableType, payableID).
		Order("created_at ASC").
		Find(&transactions).Error
	return transactions, err
}

func (r *repository) MarkOutcome(ctx context.Context, id uuid.UUID, outcome Status, result *ChargeResult) error {
	if !outcome.IsTerminal() {
		return fmt.Errorf("%w: outcome must be terminal, got %s", ErrValidation, outcome)
	}

	now := time.Now().UTC()
	updates := map[string]interface{}{
		"status":        outcome,
		"reconciled_at": now,
	}
	if result != nil {
		if result.ProviderTransactionID != "" {
			updates["provider_transaction_id"] = result.ProviderTransactionID
		}
		if result.CardBrand != "" {
			updates["card_brand"] = result.CardBrand
		}
		if result.Last4 != "" {
			updates["last4"] = result.Last4
		}
		if result.FailureReason != "" {
			updates["failure_reason"] = result.FailureReason
		}
	}

	dbResult := r.db.WithContext(ctx).
		Model(&Transaction{}).
		Where("id = ? AND status = ?", id, StatusPending).
		Updates(updates)
	if dbResult.Error != nil {
		return dbResult.Error
	}
	if dbResult.RowsAffected == 0 {
		// Already settled or missing; the caller decides whether the prior
		// outcome agrees with the new one.
		current, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if current.Status == outcome {
			return nil
		}
		return fmt.Errorf("%w: recorded %s, reported %s", ErrReconciliationConflict, current.Status, outcome)
	}
	return nil
}

// NetCompletedTotal returns completed payments minus completed refunds for a
// payable. A net of zero or below after a completed refund means the payable
// is fully refunded.
func (r *repository) NetCompletedTotal(ctx context.Context, payableType PayableType, payableID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&Transaction{}).
		Select("COALESCE(SUM(CASE WHEN type = ? THEN value_minor_units ELSE -value_minor_units END), 0)", TypePayment).
		Where("payable_type = ? AND payable_id = ? AND status = ?", payableType, payableID, StatusCompleted).
		Scan(&total).Error
	return total, err
}

func (r *repository) LatestCompletedPayment(ctx context.Context, payableType PayableType, payableID uuid.UUID) (*Transaction, error) {
	var transaction Transaction
	err := r.db.WithContext(ctx).
		Where("payable_type = ? AND payable_id = ? AND type = ? AND status = ?",
			payableType, payableID, TypePayment, StatusCompleted).
		Order("created_at DESC").
		First(&transaction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &transaction, nil
}

func isUniqueViolation(err error) bool {
	// Postgres unique_violation is SQLSTATE 23505.
	return strings.Contains(err.Error(), "23505") ||
		strings.Contains(err.Error(), "duplicate key value")
}
