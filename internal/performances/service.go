package performances

import (
	"context"
	"fmt"
	"time"

	"boxoffice/pkg/cache"

	"github.com/google/uuid"
)

// Service interface defines the contract for performance catalog logic
type Service interface {
	CreatePerformance(ctx context.Context, createdBy uuid.UUID, req CreatePerformanceRequest) (*Performance, error)
	GetPerformance(ctx context.Context, id uuid.UUID) (*Performance, error)
	ListPerformances(ctx context.Context, query PerformanceListQuery) (*PaginatedPerformances, error)
	UpdatePerformance(ctx context.Context, id uuid.UUID, req UpdatePerformanceRequest) (*Performance, error)

	AddAllocation(ctx context.Context, performanceID uuid.UUID, line AllocationLine) (*SeatGroupAllocation, error)
	UpdateAllocation(ctx context.Context, performanceID, allocationID uuid.UUID, req UpdateAllocationRequest) (*SeatGroupAllocation, error)

	GetAvailability(ctx context.Context, performanceID uuid.UUID) (*PerformanceAvailability, error)
}

// service implements the Service interface
type service struct {
	repo            Repository
	cache           cache.Service
	availabilityTTL time.Duration
}

// NewService creates a new performance service instance. The cache service is
// optional; without it availability reads go straight to the database.
func NewService(repo Repository, cacheService cache.Service, availabilityTTL time.Duration) Service {
	return &service{
		repo:            repo,
		cache:           cacheService,
		availabilityTTL: availabilityTTL,
	}
}

func availabilityCacheKey(performanceID uuid.UUID) string {
	return fmt.Sprintf("boxoffice:availability:%s", performanceID)
}

func (s *service) CreatePerformance(ctx context.Context, createdBy uuid.UUID, req CreatePerformanceRequest) (*Performance, error) {
	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		return nil, fmt.Errorf("%w: starts_at must be RFC3339", ErrValidation)
	}

	var totalCapacity int
	allocations := make([]SeatGroupAllocation, 0, len(req.Allocations))
	for _, line := range req.Allocations {
		totalCapacity += line.Capacity
		allocations = append(allocations, SeatGroupAllocation{
			SeatGroupName:   line.SeatGroupName,
			Ordering:        line.Ordering,
			PriceMinorUnits: line.PriceMinorUnits,
			Capacity:        line.Capacity,
		})
	}
	if totalCapacity > req.CapacityCeiling {
		return nil, fmt.Errorf("%w: allocations total %d seats, ceiling is %d",
			ErrCeilingExceeded, totalCapacity, req.CapacityCeiling)
	}

	performance := &Performance{
		ProductionName:       req.ProductionName,
		VenueName:            req.VenueName,
		StartsAt:             startsAt,
		CapacityCeiling:      req.CapacityCeiling,
		CreatedBy:            createdBy,
		SeatGroupAllocations: allocations,
	}

	if err := s.repo.CreatePerformance(ctx, performance); err != nil {
		return nil, fmt.Errorf("failed to create performance: %w", err)
	}
	return performance, nil
}

func (s *service) GetPerformance(ctx context.Context, id uuid.UUID) (*Performance, error) {
	return s.repo.GetPerformanceByID(ctx, id)
}

func (s *service) ListPerformances(ctx context.Context, query PerformanceListQuery) (*PaginatedPerformances, error) {
	performances, totalCount, err := s.repo.ListPerformances(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list performances: %w", err)
	}

	if query.Page <= 0 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 10
	}

	return &PaginatedPerformances{
		Performances: performances,
		TotalCount:   totalCount,
		Page:         query.Page,
		Limit:        query.Limit,
	}, nil
}

func (s *service) UpdatePerformance(ctx context.Context, id uuid.UUID, req UpdatePerformanceRequest) (*Performance, error) {
	updates := map[string]interface{}{}

	if req.CapacityCeiling != nil {
		allocated, err := s.repo.SumAllocationCapacity(ctx, id, uuid.Nil)
		if err != nil {
			return nil, err
		}
		if allocated > *req.CapacityCeiling {
			return nil, fmt.Errorf("%w: %d seats already allocated", ErrCeilingExceeded, allocated)
		}
		updates["capacity_ceiling"] = *req.CapacityCeiling
	}
	if req.Disabled != nil {
		updates["disabled"] = *req.Disabled
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("%w: nothing to update", ErrValidation)
	}

	if err := s.repo.UpdatePerformance(ctx, id, updates); err != nil {
		return nil, err
	}
	s.invalidateAvailability(ctx, id)
	return s.repo.GetPerformanceByID(ctx, id)
}

func (s *service) AddAllocation(ctx context.Context, performanceID uuid.UUID, line AllocationLine) (*SeatGroupAllocation, error) {
	performance, err := s.repo.GetPerformanceByID(ctx, performanceID)
	if err != nil {
		return nil, err
	}

	allocated, err := s.repo.SumAllocationCapacity(ctx, performanceID, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if allocated+line.Capacity > performance.CapacityCeiling {
		return nil, fmt.Errorf("%w: %d seats already allocated, ceiling is %d",
			ErrCeilingExceeded, allocated, performance.CapacityCeiling)
	}

	allocation := &SeatGroupAllocation{
		PerformanceID:   performanceID,
		SeatGroupName:   line.SeatGroupName,
		Ordering:        line.Ordering,
		PriceMinorUnits: line.PriceMinorUnits,
		Capacity:        line.Capacity,
	}
	if err := s.repo.CreateAllocation(ctx, allocation); err != nil {
		return nil, fmt.Errorf("failed to create allocation: %w", err)
	}
	s.invalidateAvailability(ctx, performanceID)
	return allocation, nil
}

func (s *service) UpdateAllocation(ctx context.Context, performanceID, allocationID uuid.UUID, req UpdateAllocationRequest) (*SeatGroupAllocation, error) {
	allocation, err := s.repo.GetAllocationByID(ctx, allocationID)
	if err != nil {
		return nil, err
	}
	if allocation.PerformanceID != performanceID {
		return nil, ErrAllocationNotFound
	}

	updates := map[string]interface{}{}
	if req.PriceMinorUnits != nil {
		updates["price_minor_units"] = *req.PriceMinorUnits
	}
	if req.Capacity != nil {
		if *req.Capacity < allocation.ReservedCount {
			return nil, fmt.Errorf("%w: %d seats already reserved", ErrValidation, allocation.ReservedCount)
		}
		performance, err := s.repo.GetPerformanceByID(ctx, performanceID)
		if err != nil {
			return nil, err
		}
		others, err := s.repo.SumAllocationCapacity(ctx, performanceID, allocationID)
		if err != nil {
			return nil, err
		}
		if others+*req.Capacity > performance.CapacityCeiling {
			return nil, fmt.Errorf("%w: ceiling is %d", ErrCeilingExceeded, performance.CapacityCeiling)
		}
		updates["capacity"] = *req.Capacity
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("%w: nothing to update", ErrValidation)
	}

	if err := s.repo.UpdateAllocation(ctx, allocationID, updates); err != nil {
		return nil, err
	}
	s.invalidateAvailability(ctx, performanceID)
	return s.repo.GetAllocationByID(ctx, allocationID)
}

// GetAvailability returns live seat counts per allocation, cached briefly to
// keep the browse path off the allocation rows that booking transactions lock.
func (s *service) GetAvailability(ctx context.Context, performanceID uuid.UUID) (*PerformanceAvailability, error) {
	key := availabilityCacheKey(performanceID)

	if s.cache != nil {
		var cached PerformanceAvailability
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	performance, err := s.repo.GetPerformanceByID(ctx, performanceID)
	if err != nil {
		return nil, err
	}

	availability := &PerformanceAvailability{
		PerformanceID: performance.ID.String(),
		StartsAt:      performance.StartsAt,
		Disabled:      performance.Disabled,
	}
	for _, alloc := range performance.SeatGroupAllocations {
		availability.Allocations = append(availability.Allocations, AllocationAvailability{
			AllocationID:    alloc.ID.String(),
			SeatGroupName:   alloc.SeatGroupName,
			PriceMinorUnits: alloc.PriceMinorUnits,
			Capacity:        alloc.Capacity,
			Available:       alloc.Available(),
		})
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, availability, s.availabilityTTL); err != nil {
			// Stale availability is acceptable; a failed cache write is not
			// worth failing the read.
			_ = err
		}
	}

	return availability, nil
}

func (s *service) invalidateAvailability(ctx context.Context, performanceID uuid.UUID) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Delete(ctx, availabilityCacheKey(performanceID))
}
