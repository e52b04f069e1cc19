package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"boxoffice/internal/performances"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	// Core booking operations
	GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetBookingByReference(ctx context.Context, reference string) (*Booking, error)
	GetUserBookings(ctx context.Context, userID uuid.UUID, query BookingListQuery) ([]Booking, int64, error)
	GetBookingsByPerformance(ctx context.Context, performanceID uuid.UUID, query BookingListQuery) ([]Booking, int64, error)

	// Concurrency-safe lifecycle operations
	CreateWithReservation(ctx context.Context, booking *Booking, items []performances.ReserveItem) error
	TransferWithReservation(ctx context.Context, fromBookingID uuid.UUID, newBooking *Booking, items []performances.ReserveItem) error
	MarkPaid(ctx context.Context, id uuid.UUID) error
	MarkRefunded(ctx context.Context, id uuid.UUID) error
	CancelAndRelease(ctx context.Context, id uuid.UUID) error

	// Expiry sweep support
	FindExpired(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)
}

type repository struct {
	db        *gorm.DB
	inventory *performances.Inventory
}

func NewRepository(db *gorm.DB, inventory *performances.Inventory) Repository {
	return &repository{db: db, inventory: inventory}
}

func (r *repository) GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).
		Preload("Tickets").
		Where("id = ?", id).
		First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &booking, nil
}

func (r *repository) GetBookingByReference(ctx context.Context, reference string) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).
		Preload("Tickets").
		Where("reference = ?", reference).
		First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &booking, nil
}

func (r *repository) GetUserBookings(ctx context.Context, userID uuid.UUID, query BookingListQuery) ([]Booking, int64, error) {
	baseQuery := r.db.WithContext(ctx).
		Model(&Booking{}).
		Where("user_id = ?", userID)
	return r.paginate(baseQuery, query)
}

func (r *repository) GetBookingsByPerformance(ctx context.Context, performanceID uuid.UUID, query BookingListQuery) ([]Booking, int64, error) {
	baseQuery := r.db.WithContext(ctx).
		Model(&Booking{}).
		Where("performance_id = ?", performanceID)
	return r.paginate(baseQuery, query)
}

func (r *repository) paginate(baseQuery *gorm.DB, query BookingListQuery) ([]Booking, int64, error) {
	var bookings []Booking
	var totalCount int64

	if query.Page <= 0 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 10
	}
	if query.Status != "" {
		baseQuery = baseQuery.Where("status = ?", query.Status)
	}

	if err := baseQuery.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	offset := (query.Page - 1) * query.Limit
	err := baseQuery.
		Preload("Tickets").
		Order("created_at DESC").
		Offset(offset).
		Limit(query.Limit).
		Find(&bookings).Error

	return bookings, totalCount, err
}

// CreateWithReservation reserves capacity and inserts the booking atomically.
// The performance row lock is taken first and the duplicate IN_PROGRESS check
// runs under it, before any capacity moves: a user retrying against a
// performance their own hold filled up hears about the existing hold, not
// about capacity. Concurrent creates for the same user and performance
// serialize on the lock and the loser observes the winner's row.
func (r *repository) CreateWithReservation(ctx context.Context, booking *Booking, items []performances.ReserveItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.inventory.LockPerformance(tx, booking.PerformanceID); err != nil {
			return err
		}

		var inProgressCount int64
		err := tx.Model(&Booking{}).
			Where("user_id = ? AND performance_id = ? AND status = ?",
				booking.UserID, booking.PerformanceID, StatusInProgress).
			Count(&inProgressCount).Error
		if err != nil {
			return fmt.Errorf("failed to check in-progress bookings: %w", err)
		}
		if inProgressCount > 0 {
			return ErrDuplicateInProgress
		}

		prices, err := r.inventory.Reserve(tx, booking.PerformanceID, items)
		if err != nil {
			return err
		}

		attachTickets(booking, items, prices)

		if err := tx.Create(booking).Error; err != nil {
			return fmt.Errorf("failed to create booking: %w", err)
		}
		return nil
	})
}

// TransferWithReservation supersedes an existing booking with a new one. The
// new booking's seats are reserved and committed before the original is
// cancelled, so a reservation failure leaves the original untouched.
func (r *repository) TransferWithReservation(ctx context.Context, fromBookingID uuid.UUID, newBooking *Booking, items []performances.ReserveItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var original Booking
		err := tx.
			Set("gorm:query_option", "FOR UPDATE").
			Where("id = ?", fromBookingID).
			First(&original).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("failed to lock booking: %w", err)
		}

		if !original.Status.HoldsSeats() {
			return fmt.Errorf("%w: cannot transfer booking in status %s", ErrInvalidStateTransition, original.Status)
		}

		var supersededCount int64
		err = tx.Model(&Booking{}).
			Where("transferred_from_id = ?", fromBookingID).
			Count(&supersededCount).Error
		if err != nil {
			return fmt.Errorf("failed to check supersede history: %w", err)
		}
		if supersededCount > 0 {
			return fmt.Errorf("%w: booking already transferred", ErrInvalidStateTransition)
		}

		prices, err := r.inventory.Reserve(tx, newBooking.PerformanceID, items)
		if err != nil {
			return err
		}

		transferredFrom := fromBookingID
		newBooking.TransferredFromID = &transferredFrom
		attachTickets(newBooking, items, prices)

		// A paid original whose price covers the replacement carries its paid
		// standing over; any shortfall leaves the replacement awaiting payment.
		if original.Status == StatusPaid && newBooking.TotalPriceMinorUnits <= original.TotalPriceMinorUnits {
			newBooking.Status = StatusPaid
			newBooking.ExpiresAt = nil
		}

		if newBooking.Status == StatusInProgress {
			var inProgressCount int64
			err = tx.Model(&Booking{}).
				Where("user_id = ? AND performance_id = ? AND status = ?",
					newBooking.UserID, newBooking.PerformanceID, StatusInProgress).
				Count(&inProgressCount).Error
			if err != nil {
				return fmt.Errorf("failed to check in-progress bookings: %w", err)
			}
			if inProgressCount > 0 {
				return ErrDuplicateInProgress
			}
		}

		if err := tx.Create(newBooking).Error; err != nil {
			return fmt.Errorf("failed to create replacement booking: %w", err)
		}

		// New booking is in; now close out the original.
		now := time.Now().UTC()
		err = tx.Model(&Booking{}).
			Where("id = ?", fromBookingID).
			Updates(map[string]interface{}{
				"status":       StatusCancelled,
				"cancelled_at": now,
				"updated_at":   now,
			}).Error
		if err != nil {
			return fmt.Errorf("failed to cancel original booking: %w", err)
		}

		if _, err := r.inventory.Release(tx, fromBookingID); err != nil {
			return fmt.Errorf("failed to release original seats: %w", err)
		}
		return nil
	})
}

// MarkPaid transitions a booking from IN_PROGRESS to PAID and clears its hold
// expiry. Any other starting status is an invalid transition.
func (r *repository) MarkPaid(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&Booking{}).
		Where("id = ? AND status = ?", id, StatusInProgress).
		Updates(map[string]interface{}{
			"status":     StatusPaid,
			"expires_at": nil,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.classifyMissedUpdate(ctx, id)
	}
	return nil
}

// MarkRefunded transitions a booking from PAID to REFUNDED and returns its
// seats to the allocations.
func (r *repository) MarkRefunded(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Booking{}).
			Where("id = ? AND status = ?", id, StatusPaid).
			Updates(map[string]interface{}{
				"status":     StatusRefunded,
				"updated_at": time.Now().UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return r.classifyMissedUpdateTx(tx, id)
		}
		if _, err := r.inventory.Release(tx, id); err != nil {
			return fmt.Errorf("failed to release seats: %w", err)
		}
		return nil
	})
}

// CancelAndRelease cancels an IN_PROGRESS booking and returns its seats. PAID
// bookings leave the seat pool via transfer or refund, not plain cancel.
func (r *repository) CancelAndRelease(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		result := tx.Model(&Booking{}).
			Where("id = ? AND status = ?", id, StatusInProgress).
			Updates(map[string]interface{}{
				"status":       StatusCancelled,
				"cancelled_at": now,
				"updated_at":   now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return r.classifyMissedUpdateTx(tx, id)
		}
		if _, err := r.inventory.Release(tx, id); err != nil {
			return fmt.Errorf("failed to release seats: %w", err)
		}
		return nil
	})
}

func (r *repository) FindExpired(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	if limit <= 0 {
		limit = 100
	}
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&Booking{}).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at < ?", StatusInProgress, now).
		Order("expires_at ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}

// classifyMissedUpdate distinguishes a missing row from a state-machine
// violation after a conditional update touched nothing.
func (r *repository) classifyMissedUpdate(ctx context.Context, id uuid.UUID) error {
	return r.classifyMissedUpdateTx(r.db.WithContext(ctx), id)
}

func (r *repository) classifyMissedUpdateTx(tx *gorm.DB, id uuid.UUID) error {
	var current Booking
	err := tx.Select("id, status").Where("id = ?", id).First(&current).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBookingNotFound
		}
		return err
	}
	return fmt.Errorf("%w: booking is %s", ErrInvalidStateTransition, current.Status)
}

// attachTickets expands reserve lines into ticket rows priced from the locked
// allocation snapshot and sets the booking total.
func attachTickets(booking *Booking, items []performances.ReserveItem, prices map[uuid.UUID]int64) {
	var tickets []Ticket
	var total int64
	for _, item := range items {
		price := prices[item.AllocationID]
		for i := 0; i < item.Quantity; i++ {
			tickets = append(tickets, Ticket{
				SeatGroupAllocationID: item.AllocationID,
				PriceMinorUnits:       price,
			})
			total += price
		}
	}
	booking.Tickets = tickets
	booking.TotalPriceMinorUnits = total
}
