package performances

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) CreatePerformance(ctx context.Context, performance *Performance) error {
	args := m.Called(ctx, performance)
	return args.Error(0)
}

func (m *mockRepository) GetPerformanceByID(ctx context.Context, id uuid.UUID) (*Performance, error) {
	args := m.Called(ctx, id)
	if p := args.Get(0); p != nil {
		return p.(*Performance), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepository) ListPerformances(ctx context.Context, query PerformanceListQuery) ([]Performance, int64, error) {
	args := m.Called(ctx, query)
	return args.Get(0).([]Performance), args.Get(1).(int64), args.Error(2)
}

func (m *mockRepository) UpdatePerformance(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	args := m.Called(ctx, id, updates)
	return args.Error(0)
}

func (m *mockRepository) CreateAllocation(ctx context.Context, allocation *SeatGroupAllocation) error {
	args := m.Called(ctx, allocation)
	return args.Error(0)
}

func (m *mockRepository) GetAllocationByID(ctx context.Context, id uuid.UUID) (*SeatGroupAllocation, error) {
	args := m.Called(ctx, id)
	if a := args.Get(0); a != nil {
		return a.(*SeatGroupAllocation), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepository) GetAllocationsByPerformance(ctx context.Context, performanceID uuid.UUID) ([]SeatGroupAllocation, error) {
	args := m.Called(ctx, performanceID)
	return args.Get(0).([]SeatGroupAllocation), args.Error(1)
}

func (m *mockRepository) UpdateAllocation(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	args := m.Called(ctx, id, updates)
	return args.Error(0)
}

func (m *mockRepository) SumAllocationCapacity(ctx context.Context, performanceID uuid.UUID, exclude uuid.UUID) (int, error) {
	args := m.Called(ctx, performanceID, exclude)
	return args.Int(0), args.Error(1)
}

func TestCreatePerformanceRejectsAllocationsOverCeiling(t *testing.T) {
	repo := new(mockRepository)
	svc := NewService(repo, nil, time.Minute)

	_, err := svc.CreatePerformance(context.Background(), uuid.New(), CreatePerformanceRequest{
		ProductionName:  "Iolanthe",
		VenueName:       "ADC Theatre",
		StartsAt:        time.Now().Add(48 * time.Hour).Format(time.RFC3339),
		CapacityCeiling: 100,
		Allocations: []AllocationLine{
			{SeatGroupName: "Stalls", Capacity: 80, PriceMinorUnits: 1500},
			{SeatGroupName: "Circle", Capacity: 30, PriceMinorUnits: 1200},
		},
	})

	assert.ErrorIs(t, err, ErrCeilingExceeded)
	repo.AssertNotCalled(t, "CreatePerformance", mock.Anything, mock.Anything)
}

func TestCreatePerformanceRejectsBadStartTime(t *testing.T) {
	repo := new(mockRepository)
	svc := NewService(repo, nil, time.Minute)

	_, err := svc.CreatePerformance(context.Background(), uuid.New(), CreatePerformanceRequest{
		ProductionName:  "Iolanthe",
		VenueName:       "ADC Theatre",
		StartsAt:        "next tuesday",
		CapacityCeiling: 100,
	})

	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreatePerformanceBuildsAllocations(t *testing.T) {
	repo := new(mockRepository)
	svc := NewService(repo, nil, time.Minute)

	ctx := context.Background()
	createdBy := uuid.New()

	repo.On("CreatePerformance", ctx, mock.MatchedBy(func(p *Performance) bool {
		return p.CreatedBy == createdBy &&
			len(p.SeatGroupAllocations) == 2 &&
			p.SeatGroupAllocations[0].PriceMinorUnits == 1500
	})).Return(nil)

	performance, err := svc.CreatePerformance(ctx, createdBy, CreatePerformanceRequest{
		ProductionName:  "Iolanthe",
		VenueName:       "ADC Theatre",
		StartsAt:        time.Now().Add(48 * time.Hour).Format(time.RFC3339),
		CapacityCeiling: 120,
		Allocations: []AllocationLine{
			{SeatGroupName: "Stalls", Capacity: 80, PriceMinorUnits: 1500},
			{SeatGroupName: "Circle", Capacity: 30, PriceMinorUnits: 1200},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "Iolanthe", performance.ProductionName)
	repo.AssertExpectations(t)
}

func TestAddAllocationRespectsCeiling(t *testing.T) {
	repo := new(mockRepository)
	svc := NewService(repo, nil, time.Minute)

	ctx := context.Background()
	performanceID := uuid.New()

	repo.On("GetPerformanceByID", ctx, performanceID).Return(&Performance{
		ID:              performanceID,
		CapacityCeiling: 100,
	}, nil)
	repo.On("SumAllocationCapacity", ctx, performanceID, uuid.Nil).Return(90, nil)

	_, err := svc.AddAllocation(ctx, performanceID, AllocationLine{
		SeatGroupName:   "Restricted View",
		Capacity:        20,
		PriceMinorUnits: 700,
	})

	assert.ErrorIs(t, err, ErrCeilingExceeded)
	repo.AssertNotCalled(t, "CreateAllocation", mock.Anything, mock.Anything)
}

func TestUpdateAllocationCannotShrinkBelowReserved(t *testing.T) {
	repo := new(mockRepository)
	svc := NewService(repo, nil, time.Minute)

	ctx := context.Background()
	performanceID := uuid.New()
	allocationID := uuid.New()

	repo.On("GetAllocationByID", ctx, allocationID).Return(&SeatGroupAllocation{
		ID:            allocationID,
		PerformanceID: performanceID,
		Capacity:      50,
		ReservedCount: 35,
	}, nil)

	smaller := 30
	_, err := svc.UpdateAllocation(ctx, performanceID, allocationID, UpdateAllocationRequest{
		Capacity: &smaller,
	})

	assert.ErrorIs(t, err, ErrValidation)
	repo.AssertNotCalled(t, "UpdateAllocation", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateAllocationChecksPerformanceOwnership(t *testing.T) {
	repo := new(mockRepository)
	svc := NewService(repo, nil, time.Minute)

	ctx := context.Background()
	allocationID := uuid.New()

	repo.On("GetAllocationByID", ctx, allocationID).Return(&SeatGroupAllocation{
		ID:            allocationID,
		PerformanceID: uuid.New(),
	}, nil)

	price := int64(900)
	_, err := svc.UpdateAllocation(ctx, uuid.New(), allocationID, UpdateAllocationRequest{
		PriceMinorUnits: &price,
	})

	assert.ErrorIs(t, err, ErrAllocationNotFound)
}

func TestGetAvailabilityComputesRemainingSeats(t *testing.T) {
	repo := new(mockRepository)
	svc := NewService(repo, nil, time.Minute)

	ctx := context.Background()
	performanceID := uuid.New()
	stallsID := uuid.New()

	repo.On("GetPerformanceByID", ctx, performanceID).Return(&Performance{
		ID:       performanceID,
		StartsAt: time.Now().Add(24 * time.Hour),
		SeatGroupAllocations: []SeatGroupAllocation{
			{
				ID:              stallsID,
				SeatGroupName:   "Stalls",
				PriceMinorUnits: 1500,
				Capacity:        120,
				ReservedCount:   45,
			},
		},
	}, nil)

	availability, err := svc.GetAvailability(ctx, performanceID)

	require.NoError(t, err)
	require.Len(t, availability.Allocations, 1)
	assert.Equal(t, stallsID.String(), availability.Allocations[0].AllocationID)
	assert.Equal(t, 75, availability.Allocations[0].Available)
	assert.Equal(t, 120, availability.Allocations[0].Capacity)
}
