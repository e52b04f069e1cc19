package transfers

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) Create(ctx context.Context, transfer *FinancialTransfer) error {
	args := m.Called(ctx, transfer)
	return args.Error(0)
}

func (m *mockRepository) GetByID(ctx context.Context, id uuid.UUID) (*FinancialTransfer, error) {
	args := m.Called(ctx, id)
	if t := args.Get(0); t != nil {
		return t.(*FinancialTransfer), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepository) List(ctx context.Context, query TransferListQuery) ([]FinancialTransfer, int64, error) {
	args := m.Called(ctx, query)
	return args.Get(0).([]FinancialTransfer), args.Get(1).(int64), args.Error(2)
}

func (m *mockRepository) TotalForBeneficiary(ctx context.Context, societyID, userID *uuid.UUID) (int64, error) {
	args := m.Called(ctx, societyID, userID)
	return args.Get(0).(int64), args.Error(1)
}

func TestRecordTransferToSociety(t *testing.T) {
	repo := new(mockRepository)
	svc := NewService(repo, nil, nil, "GBP")

	ctx := context.Background()
	societyID := uuid.New()
	createdBy := uuid.New()

	repo.On("Create", ctx, mock.MatchedBy(func(tr *FinancialTransfer) bool {
		return tr.SocietyID != nil && *tr.SocietyID == societyID &&
			tr.UserID == nil &&
			tr.Method == MethodBACS &&
			tr.ValueMinorUnits == 125000 &&
			tr.Currency == "GBP" &&
			tr.CreatedBy == createdBy
	})).Return(nil)

	transfer, err := svc.RecordTransfer(ctx, createdBy, RecordTransferRequest{
		SocietyID:       societyID.String(),
		Method:          "BACS",
		ValueMinorUnits: 125000,
		Reason:          "settlement for autumn season",
	})

	require.NoError(t, err)
	assert.Equal(t, MethodBACS, transfer.Method)
	repo.AssertExpectations(t)
}

func TestRecordTransferToUser(t *testing.T) {
	repo := new(mockRepository)
	svc := NewService(repo, nil, nil, "GBP")

	ctx := context.Background()
	userID := uuid.New()

	repo.On("Create", ctx, mock.MatchedBy(func(tr *FinancialTransfer) bool {
		return tr.UserID != nil && *tr.UserID == userID && tr.SocietyID == nil
	})).Return(nil)

	_, err := svc.RecordTransfer(ctx, uuid.New(), RecordTransferRequest{
		UserID:          userID.String(),
		Method:          "INTERNAL",
		ValueMinorUnits: 500,
	})

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestRecordTransferRequiresExactlyOneBeneficiary(t *testing.T) {
	repo := new(mockRepository)
	svc := NewService(repo, nil, nil, "GBP")
	ctx := context.Background()

	_, err := svc.RecordTransfer(ctx, uuid.New(), RecordTransferRequest{
		Method:          "INTERNAL",
		ValueMinorUnits: 500,
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.RecordTransfer(ctx, uuid.New(), RecordTransferRequest{
		SocietyID:       uuid.New().String(),
		UserID:          uuid.New().String(),
		Method:          "INTERNAL",
		ValueMinorUnits: 500,
	})
	assert.ErrorIs(t, err, ErrValidation)

	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRecordTransferRejectsNonPositiveValue(t *testing.T) {
	repo := new(mockRepository)
	svc := NewService(repo, nil, nil, "GBP")
	ctx := context.Background()

	_, err := svc.RecordTransfer(ctx, uuid.New(), RecordTransferRequest{
		UserID:          uuid.New().String(),
		Method:          "INTERNAL",
		ValueMinorUnits: 0,
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.RecordTransfer(ctx, uuid.New(), RecordTransferRequest{
		UserID:          uuid.New().String(),
		Method:          "INTERNAL",
		ValueMinorUnits: -100,
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRecordTransferRejectsUnknownMethod(t *testing.T) {
	repo := new(mockRepository)
	svc := NewService(repo, nil, nil, "GBP")

	_, err := svc.RecordTransfer(context.Background(), uuid.New(), RecordTransferRequest{
		UserID:          uuid.New().String(),
		Method:          "CHEQUE",
		ValueMinorUnits: 500,
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestBeneficiaryTotal(t *testing.T) {
	repo := new(mockRepository)
	svc := NewService(repo, nil, nil, "GBP")

	ctx := context.Background()
	societyID := uuid.New()

	repo.On("TotalForBeneficiary", ctx, mock.MatchedBy(func(id *uuid.UUID) bool {
		return id != nil && *id == societyID
	}), (*uuid.UUID)(nil)).Return(int64(99000), nil)

	total, err := svc.BeneficiaryTotal(ctx, societyID.String(), "")
	require.NoError(t, err)
	assert.Equal(t, int64(99000), total)

	_, err = svc.BeneficiaryTotal(ctx, "", "")
	assert.ErrorIs(t, err, ErrValidation)
}
