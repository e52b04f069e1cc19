package transfers

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, transfer *FinancialTransfer) error
	GetByID(ctx context.Context, id uuid.UUID) (*FinancialTransfer, error)
	List(ctx context.Context, query TransferListQuery) ([]FinancialTransfer, int64, error)
	TotalForBeneficiary(ctx context.Context, societyID, userID *uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, transfer *FinancialTransfer) error {
	return r.db.WithContext(ctx).Create(transfer).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*FinancialTransfer, error) {
	var transfer FinancialTransfer
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&transfer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransferNotFound
		}
		return nil, err
	}
	return &transfer, nil
}

func (r *repository) List(ctx context.Context, query TransferListQuery) ([]FinancialTransfer, int64, error) {
	var transfers []FinancialTransfer
	var totalCount int64

	if query.Page <= 0 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 10
	}

	baseQuery := r.db.WithContext(ctx).Model(&FinancialTransfer{})
	if query.SocietyID != "" {
		baseQuery = baseQuery.Where("society_id = ?", query.SocietyID)
	}
	if query.UserID != "" {
		baseQuery = baseQuery.Where("user_id = ?", query.UserID)
	}
	if query.Method != "" {
		baseQuery = baseQuery.Where("method = ?", query.Method)
	}

	if err := baseQuery.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	offset := (query.Page - 1) * query.Limit
	err := baseQuery.
		Order("created_at DESC").
		Offset(offset).
		Limit(query.Limit).
		Find(&transfers).Error

	return transfers, totalCount, err
}

// TotalForBeneficiary sums everything already moved to one beneficiary.
func (r *repository) TotalForBeneficiary(ctx context.Context, societyID, userID *uuid.UUID) (int64, error) {
	var total int64
	baseQuery := r.db.WithContext(ctx).
		Model(&FinancialTransfer{}).
		Select("COALESCE(SUM(value_minor_units), 0)")
	if societyID != nil {
		baseQuery = baseQuery.Where("society_id = ?", *societyID)
	}
	if userID != nil {
		baseQuery = baseQuery.Where("user_id = ?", *userID)
	}
	err := baseQuery.Scan(&total).Error
	return total, err
}
