package bookings

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"boxoffice/internal/performances"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRepository honours the repository's atomic contract in memory: the
// duplicate check, the capacity check and the insert happen under one lock
// and in that order, the way the real implementation runs them inside one
// row-locked database transaction.
type fakeRepository struct {
	mu         sync.Mutex
	capacity   int
	reserved   int
	unitPrice  int64
	bookings   map[uuid.UUID]*Booking
	quantities map[uuid.UUID]int
}

func newFakeRepository(capacity int, unitPrice int64) *fakeRepository {
	return &fakeRepository{
		capacity:   capacity,
		unitPrice:  unitPrice,
		bookings:   make(map[uuid.UUID]*Booking),
		quantities: make(map[uuid.UUID]int),
	}
}

func (f *fakeRepository) CreateWithReservation(ctx context.Context, booking *Booking, items []performances.ReserveItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, b := range f.bookings {
		if b.UserID == booking.UserID && b.PerformanceID == booking.PerformanceID && b.Status == StatusInProgress {
			return ErrDuplicateInProgress
		}
	}

	quantity := 0
	for _, item := range items {
		quantity += item.Quantity
	}
	if f.reserved+quantity > f.capacity {
		return performances.ErrCapacityExceeded
	}

	f.reserved += quantity
	booking.ID = uuid.New()
	booking.TotalPriceMinorUnits = f.unitPrice * int64(quantity)
	stored := *booking
	f.bookings[booking.ID] = &stored
	f.quantities[booking.ID] = quantity
	return nil
}

func (f *fakeRepository) GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	copied := *b
	return &copied, nil
}

func (f *fakeRepository) CancelAndRelease(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return ErrBookingNotFound
	}
	if b.Status != StatusInProgress {
		return ErrInvalidStateTransition
	}
	b.Status = StatusCancelled
	f.reserved -= f.quantities[id]
	return nil
}

func (f *fakeRepository) MarkPaid(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return ErrBookingNotFound
	}
	if b.Status != StatusInProgress {
		return ErrInvalidStateTransition
	}
	b.Status = StatusPaid
	b.ExpiresAt = nil
	return nil
}

func (f *fakeRepository) GetBookingByReference(ctx context.Context, reference string) (*Booking, error) {
	return nil, ErrBookingNotFound
}

func (f *fakeRepository) GetUserBookings(ctx context.Context, userID uuid.UUID, query BookingListQuery) ([]Booking, int64, error) {
	return nil, 0, nil
}

func (f *fakeRepository) GetBookingsByPerformance(ctx context.Context, performanceID uuid.UUID, query BookingListQuery) ([]Booking, int64, error) {
	return nil, 0, nil
}

func (f *fakeRepository) TransferWithReservation(ctx context.Context, fromBookingID uuid.UUID, newBooking *Booking, items []performances.ReserveItem) error {
	return errors.New("not supported")
}

func (f *fakeRepository) MarkRefunded(ctx context.Context, id uuid.UUID) error {
	return errors.New("not supported")
}

func (f *fakeRepository) FindExpired(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	return nil, nil
}

func TestConcurrentCreatesNeverOversell(t *testing.T) {
	const racers = 32

	repo := newFakeRepository(1, 1500)
	svc := newTestService(repo, nil)

	ctx := context.Background()
	performanceID := uuid.New()
	allocationID := uuid.New()

	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Create(ctx, uuid.New(), CreateBookingRequest{
				PerformanceID: performanceID.String(),
				LineItems:     []BookingLineItem{{AllocationID: allocationID.String(), Quantity: 1}},
			})
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, performances.ErrCapacityExceeded)
		}
	}
	assert.Equal(t, 1, successes, "exactly one racer may claim the last seat")
	assert.Equal(t, 1, repo.reserved)
}

func TestRetryAgainstOwnFullHoldReportsDuplicateNotCapacity(t *testing.T) {
	repo := newFakeRepository(1, 1500)
	svc := newTestService(repo, nil)

	ctx := context.Background()
	userID := uuid.New()
	performanceID := uuid.New()
	allocationID := uuid.New()

	request := CreateBookingRequest{
		PerformanceID: performanceID.String(),
		LineItems:     []BookingLineItem{{AllocationID: allocationID.String(), Quantity: 1}},
	}

	// The user's own hold consumes the last seat.
	_, err := svc.Create(ctx, userID, request)
	require.NoError(t, err)

	// Retrying must point at the existing hold, not at capacity.
	_, err = svc.Create(ctx, userID, request)
	assert.ErrorIs(t, err, ErrDuplicateInProgress)
	assert.NotErrorIs(t, err, performances.ErrCapacityExceeded)

	// A different user hitting the full allocation still hears capacity.
	_, err = svc.Create(ctx, uuid.New(), request)
	assert.ErrorIs(t, err, performances.ErrCapacityExceeded)
}

func TestSingleInProgressInvariantAcrossLifecycle(t *testing.T) {
	repo := newFakeRepository(10, 1500)
	svc := newTestService(repo, nil)

	ctx := context.Background()
	userID := uuid.New()
	performanceID := uuid.New()
	allocationID := uuid.New()

	request := CreateBookingRequest{
		PerformanceID: performanceID.String(),
		LineItems:     []BookingLineItem{{AllocationID: allocationID.String(), Quantity: 1}},
	}

	first, err := svc.Create(ctx, userID, request)
	require.NoError(t, err)

	// A second hold for the same user and performance is refused.
	_, err = svc.Create(ctx, userID, request)
	assert.ErrorIs(t, err, ErrDuplicateInProgress)

	// Cancelling the hold frees the slot for a new one.
	require.NoError(t, svc.Cancel(ctx, first.ID, userID, false))
	second, err := svc.Create(ctx, userID, request)
	require.NoError(t, err)

	// Paying the hold also frees the slot.
	require.NoError(t, svc.MarkPaid(ctx, second.ID))
	_, err = svc.Create(ctx, userID, request)
	assert.NoError(t, err)
}
