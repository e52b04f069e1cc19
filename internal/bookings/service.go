package bookings

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"boxoffice/internal/performances"
	"boxoffice/pkg/logger"

	"github.com/google/uuid"
)

// EventPublisher publishes booking lifecycle events (to avoid circular dependency)
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, aggregateID uuid.UUID, payload interface{}) error
}

// Service interface defines the contract for booking business logic
type Service interface {
	Create(ctx context.Context, actorID uuid.UUID, req CreateBookingRequest) (*BookingResponse, error)
	GetBooking(ctx context.Context, bookingID, actorID uuid.UUID, isAdmin bool) (*BookingResponse, error)
	GetUserBookings(ctx context.Context, userID uuid.UUID, query BookingListQuery) (*PaginatedBookings, error)
	GetPerformanceBookings(ctx context.Context, performanceID uuid.UUID, query BookingListQuery) (*PaginatedBookings, error)
	Cancel(ctx context.Context, bookingID, actorID uuid.UUID, isAdmin bool) error
	Transfer(ctx context.Context, bookingID, actorID uuid.UUID, isAdmin bool, req TransferBookingRequest) (*TransferResult, error)
	ExpireStale(ctx context.Context) (int, error)

	// Payment reconciliation hooks
	MarkPaid(ctx context.Context, bookingID uuid.UUID) error
	MarkRefunded(ctx context.Context, bookingID uuid.UUID) error
	BookingCharge(ctx context.Context, bookingID uuid.UUID) (int64, string, string, error)
}

// TransferResult reports the replacement booking and the price movement the
// caller still has to settle. A positive difference means payment is due, a
// negative one means a refund is due.
type TransferResult struct {
	Booking                   BookingResponse `json:"booking"`
	PriceDifferenceMinorUnits int64           `json:"price_difference_minor_units"`
}

type service struct {
	repo      Repository
	publisher EventPublisher
	log       *logger.Logger
	holdTTL   time.Duration
	currency  string
}

func NewService(repo Repository, publisher EventPublisher, log *logger.Logger, holdTTL time.Duration, currency string) Service {
	if log == nil {
		log = logger.GetDefault()
	}
	return &service{
		repo:      repo,
		publisher: publisher,
		log:       log,
		holdTTL:   holdTTL,
		currency:  currency,
	}
}

func (s *service) Create(ctx context.Context, actorID uuid.UUID, req CreateBookingRequest) (*BookingResponse, error) {
	performanceID, err := uuid.Parse(req.PerformanceID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid performance ID", ErrValidation)
	}

	// Staff may book on behalf of a customer; the actor stays on record as creator.
	userID := actorID
	if req.ForUserID != "" {
		userID, err = uuid.Parse(req.ForUserID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid user ID", ErrValidation)
		}
	}

	items, err := toReserveItems(req.LineItems)
	if err != nil {
		return nil, err
	}

	reference, err := generateBookingReference()
	if err != nil {
		return nil, fmt.Errorf("failed to generate booking reference: %w", err)
	}

	expiresAt := time.Now().UTC().Add(s.holdTTL)
	booking := &Booking{
		UserID:        userID,
		CreatorID:     actorID,
		PerformanceID: performanceID,
		Status:        StatusInProgress,
		Reference:     reference,
		Currency:      s.currency,
		ExpiresAt:     &expiresAt,
	}

	if err := s.repo.CreateWithReservation(ctx, booking, items); err != nil {
		return nil, err
	}

	s.log.LogBookingCreated(ctx, booking.ID.String(), performanceID.String(), userID.String())
	s.publish(ctx, "booking.created", booking.ID, toBookingResponse(booking))

	response := toBookingResponse(booking)
	return &response, nil
}

func (s *service) GetBooking(ctx context.Context, bookingID, actorID uuid.UUID, isAdmin bool) (*BookingResponse, error) {
	booking, err := s.repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && booking.UserID != actorID && booking.CreatorID != actorID {
		return nil, ErrForbidden
	}
	response := toBookingResponse(booking)
	return &response, nil
}

func (s *service) GetUserBookings(ctx context.Context, userID uuid.UUID, query BookingListQuery) (*PaginatedBookings, error) {
	bookings, total, err := s.repo.GetUserBookings(ctx, userID, query)
	if err != nil {
		return nil, err
	}
	return paginatedResponse(bookings, total, query), nil
}

func (s *service) GetPerformanceBookings(ctx context.Context, performanceID uuid.UUID, query BookingListQuery) (*PaginatedBookings, error) {
	bookings, total, err := s.repo.GetBookingsByPerformance(ctx, performanceID, query)
	if err != nil {
		return nil, err
	}
	return paginatedResponse(bookings, total, query), nil
}

func (s *service) Cancel(ctx context.Context, bookingID, actorID uuid.UUID, isAdmin bool) error {
	booking, err := s.repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if !isAdmin && booking.UserID != actorID && booking.CreatorID != actorID {
		return ErrForbidden
	}

	if err := s.repo.CancelAndRelease(ctx, bookingID); err != nil {
		return err
	}

	s.log.LogBookingCancelled(ctx, bookingID.String(), booking.PerformanceID.String(), booking.UserID.String())
	s.publish(ctx, "booking.cancelled", bookingID, map[string]string{
		"booking_id":     bookingID.String(),
		"performance_id": booking.PerformanceID.String(),
		"user_id":        booking.UserID.String(),
	})
	return nil
}

func (s *service) Transfer(ctx context.Context, bookingID, actorID uuid.UUID, isAdmin bool, req TransferBookingRequest) (*TransferResult, error) {
	original, err := s.repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && original.UserID != actorID && original.CreatorID != actorID {
		return nil, ErrForbidden
	}

	toPerformanceID, err := uuid.Parse(req.ToPerformanceID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid performance ID", ErrValidation)
	}

	items, err := toReserveItems(req.LineItems)
	if err != nil {
		return nil, err
	}

	reference, err := generateBookingReference()
	if err != nil {
		return nil, fmt.Errorf("failed to generate booking reference: %w", err)
	}

	expiresAt := time.Now().UTC().Add(s.holdTTL)
	replacement := &Booking{
		UserID:        original.UserID,
		CreatorID:     actorID,
		PerformanceID: toPerformanceID,
		Status:        StatusInProgress,
		Reference:     reference,
		Currency:      original.Currency,
		ExpiresAt:     &expiresAt,
	}

	if err := s.repo.TransferWithReservation(ctx, bookingID, replacement, items); err != nil {
		return nil, err
	}

	s.log.LogBookingTransferred(ctx, bookingID.String(), replacement.ID.String())
	s.publish(ctx, "booking.transferred", replacement.ID, map[string]string{
		"from_booking_id": bookingID.String(),
		"to_booking_id":   replacement.ID.String(),
		"performance_id":  toPerformanceID.String(),
	})

	var difference int64
	if original.Status == StatusPaid {
		difference = replacement.TotalPriceMinorUnits - original.TotalPriceMinorUnits
	} else {
		difference = replacement.TotalPriceMinorUnits
	}

	return &TransferResult{
		Booking:                   toBookingResponse(replacement),
		PriceDifferenceMinorUnits: difference,
	}, nil
}

// ExpireStale cancels in-progress bookings whose hold window has passed.
// Each booking is handled in its own transaction so one contended row cannot
// stall the whole sweep.
func (s *service) ExpireStale(ctx context.Context) (int, error) {
	ids, err := s.repo.FindExpired(ctx, time.Now().UTC(), 100)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, id := range ids {
		err := s.repo.CancelAndRelease(ctx, id)
		if err != nil {
			// Paid or already cancelled between the scan and the cancel.
			if errors.Is(err, ErrInvalidStateTransition) || errors.Is(err, ErrBookingNotFound) {
				continue
			}
			return expired, err
		}
		expired++
		s.publish(ctx, "booking.expired", id, map[string]string{"booking_id": id.String()})
	}
	return expired, nil
}

func (s *service) MarkPaid(ctx context.Context, bookingID uuid.UUID) error {
	return s.repo.MarkPaid(ctx, bookingID)
}

func (s *service) MarkRefunded(ctx context.Context, bookingID uuid.UUID) error {
	return s.repo.MarkRefunded(ctx, bookingID)
}

// BookingCharge exposes the amount, currency and status the payment ledger
// needs without the payments package importing booking internals.
func (s *service) BookingCharge(ctx context.Context, bookingID uuid.UUID) (int64, string, string, error) {
	booking, err := s.repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return 0, "", "", err
	}
	return booking.TotalPriceMinorUnits, booking.Currency, booking.Status.String(), nil
}

func (s *service) publish(ctx context.Context, eventType string, aggregateID uuid.UUID, payload interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, eventType, aggregateID, payload); err != nil {
		s.log.ErrorWithContext(ctx, "failed to publish booking event", err, map[string]interface{}{
			"event_type":   eventType,
			"aggregate_id": aggregateID.String(),
		})
	}
}

func paginatedResponse(bookings []Booking, total int64, query BookingListQuery) *PaginatedBookings {
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 10
	}
	responses := make([]BookingResponse, 0, len(bookings))
	for i := range bookings {
		responses = append(responses, toBookingResponse(&bookings[i]))
	}
	return &PaginatedBookings{
		Bookings:   responses,
		TotalCount: total,
		Page:       query.Page,
		Limit:      query.Limit,
	}
}

func toReserveItems(lineItems []BookingLineItem) ([]performances.ReserveItem, error) {
	items := make([]performances.ReserveItem, 0, len(lineItems))
	for _, line := range lineItems {
		allocationID, err := uuid.Parse(line.AllocationID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid allocation ID %q", ErrValidation, line.AllocationID)
		}
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
		}
		items = append(items, performances.ReserveItem{
			AllocationID: allocationID,
			Quantity:     line.Quantity,
		})
	}
	return items, nil
}

// generateBookingReference generates a unique booking reference
func generateBookingReference() (string, error) {
	timestamp := time.Now().Format("20060102")

	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	randomPart := make([]byte, 6)

	for i := range randomPart {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(letters))))
		if err != nil {
			return "", err
		}
		randomPart[i] = letters[num.Int64()]
	}

	return fmt.Sprintf("THR-%s-%s", timestamp, string(randomPart)), nil
}
