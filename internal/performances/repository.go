package performances

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	// Performance catalog
	CreatePerformance(ctx context.Context, performance *Performance) error
	GetPerformanceByID(ctx context.Context, id uuid.UUID) (*Performance, error)
	ListPerformances(ctx context.Context, query PerformanceListQuery) ([]Performance, int64, error)
	UpdatePerformance(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error

	// Allocations
	CreateAllocation(ctx context.Context, allocation *SeatGroupAllocation) error
	GetAllocationByID(ctx context.Context, id uuid.UUID) (*SeatGroupAllocation, error)
	GetAllocationsByPerformance(ctx context.Context, performanceID uuid.UUID) ([]SeatGroupAllocation, error)
	UpdateAllocation(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error
	SumAllocationCapacity(ctx context.Context, performanceID uuid.UUID, exclude uuid.UUID) (int, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreatePerformance(ctx context.Context, performance *Performance) error {
	return r.db.WithContext(ctx).Create(performance).Error
}

func (r *repository) GetPerformanceByID(ctx context.Context, id uuid.UUID) (*Performance, error) {
	var performance Performance
	err := r.db.WithContext(ctx).
		Preload("SeatGroupAllocations", func(db *gorm.DB) *gorm.DB {
			return db.Order("ordering ASC")
		}).
		Where("id = ?", id).
		First(&performance).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPerformanceNotFound
		}
		return nil, err
	}
	return &performance, nil
}

func (r *repository) ListPerformances(ctx context.Context, query PerformanceListQuery) ([]Performance, int64, error) {
	var performances []Performance
	var totalCount int64

	// Set defaults
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 10
	}

	baseQuery := r.db.WithContext(ctx).Model(&Performance{})

	if query.Production != "" {
		baseQuery = baseQuery.Where("production_name ILIKE ?", "%"+query.Production+"%")
	}
	if query.Venue != "" {
		baseQuery = baseQuery.Where("venue_name ILIKE ?", "%"+query.Venue+"%")
	}
	if !query.IncludeDisabled {
		baseQuery = baseQuery.Where("disabled = ?", false)
	}
	if query.From != "" {
		if from, err := time.Parse("2006-01-02", query.From); err == nil {
			baseQuery = baseQuery.Where("starts_at >= ?", from)
		}
	}

	if err := baseQuery.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	offset := (query.Page - 1) * query.Limit
	err := baseQuery.
		Preload("SeatGroupAllocations").
		Order("starts_at ASC").
		Offset(offset).
		Limit(query.Limit).
		Find(&performances).Error

	return performances, totalCount, err
}

func (r *repository) UpdatePerformance(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	result := r.db.WithContext(ctx).
		Model(&Performance{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPerformanceNotFound
	}
	return nil
}

func (r *repository) CreateAllocation(ctx context.Context, allocation *SeatGroupAllocation) error {
	return r.db.WithContext(ctx).Create(allocation).Error
}

func (r *repository) GetAllocationByID(ctx context.Context, id uuid.UUID) (*SeatGroupAllocation, error) {
	var allocation SeatGroupAllocation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&allocation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAllocationNotFound
		}
		return nil, err
	}
	return &allocation, nil
}

func (r *repository) GetAllocationsByPerformance(ctx context.Context, performanceID uuid.UUID) ([]SeatGroupAllocation, error) {
	var allocations []SeatGroupAllocation
	err := r.db.WithContext(ctx).
		Where("performance_id = ?", performanceID).
		Order("ordering ASC").
		Find(&allocations).Error
	return allocations, err
}

func (r *repository) UpdateAllocation(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	result := r.db.WithContext(ctx).
		Model(&SeatGroupAllocation{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAllocationNotFound
	}
	return nil
}

func (r *repository) SumAllocationCapacity(ctx context.Context, performanceID uuid.UUID, exclude uuid.UUID) (int, error) {
	var total int
	query := r.db.WithContext(ctx).
		Model(&SeatGroupAllocation{}).
		Where("performance_id = ?", performanceID)
	if exclude != uuid.Nil {
		query = query.Where("id <> ?", exclude)
	}
	err := query.Select("COALESCE(SUM(capacity), 0)").Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum allocation capacity: %w", err)
	}
	return total, nil
}
