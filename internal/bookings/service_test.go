package bookings

import (
	"context"
	"regexp"
	"testing"
	"time"

	"boxoffice/internal/performances"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	args := m.Called(ctx, id)
	if b := args.Get(0); b != nil {
		return b.(*Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepository) GetBookingByReference(ctx context.Context, reference string) (*Booking, error) {
	args := m.Called(ctx, reference)
	if b := args.Get(0); b != nil {
		return b.(*Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepository) GetUserBookings(ctx context.Context, userID uuid.UUID, query BookingListQuery) ([]Booking, int64, error) {
	args := m.Called(ctx, userID, query)
	return args.Get(0).([]Booking), args.Get(1).(int64), args.Error(2)
}

func (m *mockRepository) GetBookingsByPerformance(ctx context.Context, performanceID uuid.UUID, query BookingListQuery) ([]Booking, int64, error) {
	args := m.Called(ctx, performanceID, query)
	return args.Get(0).([]Booking), args.Get(1).(int64), args.Error(2)
}

func (m *mockRepository) CreateWithReservation(ctx context.Context, booking *Booking, items []performances.ReserveItem) error {
	args := m.Called(ctx, booking, items)
	return args.Error(0)
}

func (m *mockRepository) TransferWithReservation(ctx context.Context, fromBookingID uuid.UUID, newBooking *Booking, items []performances.ReserveItem) error {
	args := m.Called(ctx, fromBookingID, newBooking, items)
	return args.Error(0)
}

func (m *mockRepository) MarkPaid(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockRepository) MarkRefunded(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockRepository) CancelAndRelease(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockRepository) FindExpired(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	args := m.Called(ctx, now, limit)
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, eventType string, aggregateID uuid.UUID, payload interface{}) error {
	args := m.Called(ctx, eventType, aggregateID, payload)
	return args.Error(0)
}

func newTestService(repo Repository, publisher EventPublisher) Service {
	return NewService(repo, publisher, nil, 15*time.Minute, "GBP")
}

func TestCreateBookingSuccess(t *testing.T) {
	repo := new(mockRepository)
	publisher := new(mockPublisher)
	svc := newTestService(repo, publisher)

	ctx := context.Background()
	actorID := uuid.New()
	performanceID := uuid.New()
	allocationID := uuid.New()
	bookingID := uuid.New()

	repo.On("CreateWithReservation", ctx, mock.AnythingOfType("*bookings.Booking"), mock.Anything).
		Run(func(args mock.Arguments) {
			b := args.Get(1).(*Booking)
			b.ID = bookingID
			b.TotalPriceMinorUnits = 3000
		}).
		Return(nil)
	publisher.On("Publish", ctx, "booking.created", bookingID, mock.Anything).Return(nil)

	resp, err := svc.Create(ctx, actorID, CreateBookingRequest{
		PerformanceID: performanceID.String(),
		LineItems:     []BookingLineItem{{AllocationID: allocationID.String(), Quantity: 2}},
	})

	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, StatusInProgress.String(), resp.Status)
	assert.Equal(t, int64(3000), resp.TotalPriceMinorUnits)
	assert.Equal(t, "GBP", resp.Currency)
	assert.Regexp(t, regexp.MustCompile(`^THR-\d{8}-[A-Z]{6}$`), resp.Reference)
	require.NotNil(t, resp.ExpiresAt)
	assert.WithinDuration(t, time.Now().UTC().Add(15*time.Minute), *resp.ExpiresAt, time.Minute)

	repo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestCreateBookingForAnotherUserKeepsCreatorOnRecord(t *testing.T) {
	repo := new(mockRepository)
	svc := newTestService(repo, nil)

	ctx := context.Background()
	staffID := uuid.New()
	customerID := uuid.New()

	repo.On("CreateWithReservation", ctx, mock.MatchedBy(func(b *Booking) bool {
		return b.UserID == customerID && b.CreatorID == staffID
	}), mock.Anything).Return(nil)

	_, err := svc.Create(ctx, staffID, CreateBookingRequest{
		PerformanceID: uuid.New().String(),
		LineItems:     []BookingLineItem{{AllocationID: uuid.New().String(), Quantity: 1}},
		ForUserID:     customerID.String(),
	})

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestCreateBookingInvalidPerformanceID(t *testing.T) {
	repo := new(mockRepository)
	svc := newTestService(repo, nil)

	_, err := svc.Create(context.Background(), uuid.New(), CreateBookingRequest{
		PerformanceID: "not-a-uuid",
		LineItems:     []BookingLineItem{{AllocationID: uuid.New().String(), Quantity: 1}},
	})

	assert.ErrorIs(t, err, ErrValidation)
	repo.AssertNotCalled(t, "CreateWithReservation", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateBookingDuplicateInProgress(t *testing.T) {
	repo := new(mockRepository)
	svc := newTestService(repo, nil)

	ctx := context.Background()
	repo.On("CreateWithReservation", ctx, mock.Anything, mock.Anything).Return(ErrDuplicateInProgress)

	_, err := svc.Create(ctx, uuid.New(), CreateBookingRequest{
		PerformanceID: uuid.New().String(),
		LineItems:     []BookingLineItem{{AllocationID: uuid.New().String(), Quantity: 1}},
	})

	assert.ErrorIs(t, err, ErrDuplicateInProgress)
}

func TestGetBookingForbiddenForStranger(t *testing.T) {
	repo := new(mockRepository)
	svc := newTestService(repo, nil)

	ctx := context.Background()
	bookingID := uuid.New()
	repo.On("GetBookingByID", ctx, bookingID).Return(&Booking{
		ID:        bookingID,
		UserID:    uuid.New(),
		CreatorID: uuid.New(),
		Status:    StatusInProgress,
	}, nil)

	_, err := svc.GetBooking(ctx, bookingID, uuid.New(), false)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.GetBooking(ctx, bookingID, uuid.New(), true)
	assert.NoError(t, err)
}

func TestCancelForbiddenForStranger(t *testing.T) {
	repo := new(mockRepository)
	svc := newTestService(repo, nil)

	ctx := context.Background()
	bookingID := uuid.New()
	repo.On("GetBookingByID", ctx, bookingID).Return(&Booking{
		ID:     bookingID,
		UserID: uuid.New(),
		Status: StatusInProgress,
	}, nil)

	err := svc.Cancel(ctx, bookingID, uuid.New(), false)
	assert.ErrorIs(t, err, ErrForbidden)
	repo.AssertNotCalled(t, "CancelAndRelease", mock.Anything, mock.Anything)
}

func TestTransferReportsRefundDueWhenCheaper(t *testing.T) {
	repo := new(mockRepository)
	svc := newTestService(repo, nil)

	ctx := context.Background()
	userID := uuid.New()
	originalID := uuid.New()
	toPerformanceID := uuid.New()

	repo.On("GetBookingByID", ctx, originalID).Return(&Booking{
		ID:                   originalID,
		UserID:               userID,
		CreatorID:            userID,
		Status:               StatusPaid,
		TotalPriceMinorUnits: 3000,
		Currency:             "GBP",
	}, nil)
	repo.On("TransferWithReservation", ctx, originalID, mock.AnythingOfType("*bookings.Booking"), mock.Anything).
		Run(func(args mock.Arguments) {
			b := args.Get(2).(*Booking)
			b.ID = uuid.New()
			b.TotalPriceMinorUnits = 2000
			b.Status = StatusPaid
			b.ExpiresAt = nil
		}).
		Return(nil)

	result, err := svc.Transfer(ctx, originalID, userID, false, TransferBookingRequest{
		ToPerformanceID: toPerformanceID.String(),
		LineItems:       []BookingLineItem{{AllocationID: uuid.New().String(), Quantity: 2}},
	})

	require.NoError(t, err)
	assert.Equal(t, int64(-1000), result.PriceDifferenceMinorUnits)
	assert.Equal(t, StatusPaid.String(), result.Booking.Status)
}

func TestTransferReportsPaymentDueWhenDearer(t *testing.T) {
	repo := new(mockRepository)
	svc := newTestService(repo, nil)

	ctx := context.Background()
	userID := uuid.New()
	originalID := uuid.New()

	repo.On("GetBookingByID", ctx, originalID).Return(&Booking{
		ID:                   originalID,
		UserID:               userID,
		CreatorID:            userID,
		Status:               StatusPaid,
		TotalPriceMinorUnits: 2000,
		Currency:             "GBP",
	}, nil)
	repo.On("TransferWithReservation", ctx, originalID, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			b := args.Get(2).(*Booking)
			b.ID = uuid.New()
			b.TotalPriceMinorUnits = 3500
		}).
		Return(nil)

	result, err := svc.Transfer(ctx, originalID, userID, false, TransferBookingRequest{
		ToPerformanceID: uuid.New().String(),
		LineItems:       []BookingLineItem{{AllocationID: uuid.New().String(), Quantity: 2}},
	})

	require.NoError(t, err)
	assert.Equal(t, int64(1500), result.PriceDifferenceMinorUnits)
	assert.Equal(t, StatusInProgress.String(), result.Booking.Status)
}

func TestTransferOfUnpaidBookingChargesFullReplacementPrice(t *testing.T) {
	repo := new(mockRepository)
	svc := newTestService(repo, nil)

	ctx := context.Background()
	userID := uuid.New()
	originalID := uuid.New()

	repo.On("GetBookingByID", ctx, originalID).Return(&Booking{
		ID:                   originalID,
		UserID:               userID,
		CreatorID:            userID,
		Status:               StatusInProgress,
		TotalPriceMinorUnits: 2000,
		Currency:             "GBP",
	}, nil)
	repo.On("TransferWithReservation", ctx, originalID, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			b := args.Get(2).(*Booking)
			b.ID = uuid.New()
			b.TotalPriceMinorUnits = 1800
		}).
		Return(nil)

	result, err := svc.Transfer(ctx, originalID, userID, false, TransferBookingRequest{
		ToPerformanceID: uuid.New().String(),
		LineItems:       []BookingLineItem{{AllocationID: uuid.New().String(), Quantity: 1}},
	})

	require.NoError(t, err)
	assert.Equal(t, int64(1800), result.PriceDifferenceMinorUnits)
}

func TestTransferReservationFailureSurfacesError(t *testing.T) {
	repo := new(mockRepository)
	svc := newTestService(repo, nil)

	ctx := context.Background()
	userID := uuid.New()
	originalID := uuid.New()

	repo.On("GetBookingByID", ctx, originalID).Return(&Booking{
		ID:        originalID,
		UserID:    userID,
		CreatorID: userID,
		Status:    StatusPaid,
	}, nil)
	repo.On("TransferWithReservation", ctx, originalID, mock.Anything, mock.Anything).
		Return(performances.ErrCapacityExceeded)

	_, err := svc.Transfer(ctx, originalID, userID, false, TransferBookingRequest{
		ToPerformanceID: uuid.New().String(),
		LineItems:       []BookingLineItem{{AllocationID: uuid.New().String(), Quantity: 4}},
	})

	assert.ErrorIs(t, err, performances.ErrCapacityExceeded)
}

func TestExpireStaleSkipsBookingsSettledMidSweep(t *testing.T) {
	repo := new(mockRepository)
	svc := newTestService(repo, nil)

	ctx := context.Background()
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

	repo.On("FindExpired", ctx, mock.AnythingOfType("time.Time"), 100).Return(ids, nil)
	repo.On("CancelAndRelease", ctx, ids[0]).Return(nil)
	// Paid between the scan and the cancel.
	repo.On("CancelAndRelease", ctx, ids[1]).Return(ErrInvalidStateTransition)
	repo.On("CancelAndRelease", ctx, ids[2]).Return(nil)

	expired, err := svc.ExpireStale(ctx)

	require.NoError(t, err)
	assert.Equal(t, 2, expired)
	repo.AssertExpectations(t)
}

func TestBookingChargeExposesLedgerView(t *testing.T) {
	repo := new(mockRepository)
	svc := newTestService(repo, nil)

	ctx := context.Background()
	bookingID := uuid.New()
	repo.On("GetBookingByID", ctx, bookingID).Return(&Booking{
		ID:                   bookingID,
		Status:               StatusInProgress,
		TotalPriceMinorUnits: 4500,
		Currency:             "GBP",
	}, nil)

	amount, currency, status, err := svc.BookingCharge(ctx, bookingID)

	require.NoError(t, err)
	assert.Equal(t, int64(4500), amount)
	assert.Equal(t, "GBP", currency)
	assert.Equal(t, "IN_PROGRESS", status)
}
