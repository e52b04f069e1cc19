package transfers

import (
	"context"
	"fmt"

	"boxoffice/pkg/logger"

	"github.com/google/uuid"
)

// EventPublisher publishes transfer ledger events (to avoid circular dependency)
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, aggregateID uuid.UUID, payload interface{}) error
}

// Service interface defines the contract for the transfer ledger
type Service interface {
	RecordTransfer(ctx context.Context, createdBy uuid.UUID, req RecordTransferRequest) (*FinancialTransfer, error)
	GetTransfer(ctx context.Context, id uuid.UUID) (*FinancialTransfer, error)
	ListTransfers(ctx context.Context, query TransferListQuery) (*PaginatedTransfers, error)
	BeneficiaryTotal(ctx context.Context, societyID, userID string) (int64, error)
}

type service struct {
	repo      Repository
	publisher EventPublisher
	log       *logger.Logger
	currency  string
}

func NewService(repo Repository, publisher EventPublisher, log *logger.Logger, currency string) Service {
	if log == nil {
		log = logger.GetDefault()
	}
	return &service{
		repo:      repo,
		publisher: publisher,
		log:       log,
		currency:  currency,
	}
}

// RecordTransfer appends one immutable ledger row. Exactly one beneficiary
// must be named and the value must be positive; invalid rows are never written.
func (s *service) RecordTransfer(ctx context.Context, createdBy uuid.UUID, req RecordTransferRequest) (*FinancialTransfer, error) {
	if req.ValueMinorUnits <= 0 {
		return nil, fmt.Errorf("%w: value must be positive", ErrValidation)
	}

	method := Method(req.Method)
	if !method.IsValid() {
		return nil, fmt.Errorf("%w: method must be INTERNAL or BACS", ErrValidation)
	}

	societyID, userID, err := parseBeneficiary(req.SocietyID, req.UserID)
	if err != nil {
		return nil, err
	}

	transfer := &FinancialTransfer{
		SocietyID:       societyID,
		UserID:          userID,
		Method:          method,
		ValueMinorUnits: req.ValueMinorUnits,
		Currency:        s.currency,
		Reason:          req.Reason,
		CreatedBy:       createdBy,
	}

	if err := s.repo.Create(ctx, transfer); err != nil {
		return nil, err
	}

	s.log.InfoWithContext(ctx, "financial transfer recorded", map[string]interface{}{
		"transfer_id": transfer.ID.String(),
		"method":      method.String(),
		"value_minor": req.ValueMinorUnits,
	})
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, "transfer.recorded", transfer.ID, transfer); err != nil {
			s.log.ErrorWithContext(ctx, "failed to publish transfer event", err, map[string]interface{}{
				"transfer_id": transfer.ID.String(),
			})
		}
	}

	return transfer, nil
}

func (s *service) GetTransfer(ctx context.Context, id uuid.UUID) (*FinancialTransfer, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListTransfers(ctx context.Context, query TransferListQuery) (*PaginatedTransfers, error) {
	if query.SocietyID != "" {
		if _, err := uuid.Parse(query.SocietyID); err != nil {
			return nil, fmt.Errorf("%w: invalid society ID", ErrValidation)
		}
	}
	if query.UserID != "" {
		if _, err := uuid.Parse(query.UserID); err != nil {
			return nil, fmt.Errorf("%w: invalid user ID", ErrValidation)
		}
	}

	transfers, total, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, err
	}

	if query.Page <= 0 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 10
	}
	return &PaginatedTransfers{
		Transfers:  transfers,
		TotalCount: total,
		Page:       query.Page,
		Limit:      query.Limit,
	}, nil
}

func (s *service) BeneficiaryTotal(ctx context.Context, societyID, userID string) (int64, error) {
	society, user, err := parseBeneficiary(societyID, userID)
	if err != nil {
		return 0, err
	}
	return s.repo.TotalForBeneficiary(ctx, society, user)
}

// parseBeneficiary enforces the exactly-one-beneficiary rule.
func parseBeneficiary(societyID, userID string) (*uuid.UUID, *uuid.UUID, error) {
	if (societyID == "") == (userID == "") {
		return nil, nil, fmt.Errorf("%w: exactly one of society_id or user_id is required", ErrValidation)
	}

	if societyID != "" {
		id, err := uuid.Parse(societyID)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: invalid society ID", ErrValidation)
		}
		return &id, nil, nil
	}

	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: invalid user ID", ErrValidation)
	}
	return nil, &id, nil
}
