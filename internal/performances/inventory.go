package performances

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReserveItem is one seat-group line of a reservation request.
type ReserveItem struct {
	AllocationID uuid.UUID
	Quantity     int
}

// Inventory owns the capacity counters of seat group allocations. All methods
// run inside a caller-supplied transaction so a reservation spanning several
// allocations commits or rolls back as one unit.
type Inventory struct{}

// NewInventory creates a new seat inventory handler.
func NewInventory() *Inventory {
	return &Inventory{}
}

// LockPerformance takes the performance row lock that serializes every
// capacity-affecting operation for a performance. Missing or disabled
// performances fail here before any counter moves. Callers holding the lock
// may run their own pre-reservation checks race-free before calling Reserve.
func (inv *Inventory) LockPerformance(tx *gorm.DB, performanceID uuid.UUID) error {
	var perf struct {
		ID       uuid.UUID `gorm:"column:id"`
		Disabled bool      `gorm:"column:disabled"`
	}
	err := tx.Table("performances").
		Select("id, disabled").
		Where("id = ?", performanceID).
		Set("gorm:query_option", "FOR UPDATE").
		First(&perf).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPerformanceNotFound
		}
		return fmt.Errorf("failed to lock performance: %w", err)
	}
	if perf.Disabled {
		return ErrPerformanceDisabled
	}
	return nil
}

// Reserve atomically checks and takes capacity for every item. The performance
// row is locked first, then allocation rows in ID order so concurrent
// reservations against overlapping allocations serialize instead of
// deadlocking. Returns the unit price of each allocation touched so callers
// can price their line items from the same locked snapshot.
func (inv *Inventory) Reserve(tx *gorm.DB, performanceID uuid.UUID, items []ReserveItem) (map[uuid.UUID]int64, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: at least one seat group line is required", ErrValidation)
	}

	if err := inv.LockPerformance(tx, performanceID); err != nil {
		return nil, err
	}

	// Merge duplicate lines and order by allocation ID for a deterministic
	// lock order.
	quantities := make(map[uuid.UUID]int, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
		}
		quantities[item.AllocationID] += item.Quantity
	}

	ids := make([]uuid.UUID, 0, len(quantities))
	for id := range quantities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	prices := make(map[uuid.UUID]int64, len(ids))
	for _, id := range ids {
		quantity := quantities[id]

		var alloc struct {
			ID              uuid.UUID `gorm:"column:id"`
			Capacity        int       `gorm:"column:capacity"`
			ReservedCount   int       `gorm:"column:reserved_count"`
			PriceMinorUnits int64     `gorm:"column:price_minor_units"`
		}
		err := tx.Table("seat_group_allocations").
			Select("id, capacity, reserved_count, price_minor_units").
			Where("id = ? AND performance_id = ?", id, performanceID).
			Set("gorm:query_option", "FOR UPDATE").
			First(&alloc).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrAllocationNotFound
			}
			return nil, fmt.Errorf("failed to lock allocation %s: %w", id, err)
		}

		if alloc.ReservedCount+quantity > alloc.Capacity {
			return nil, fmt.Errorf("%w: %d seats requested, %d available",
				ErrCapacityExceeded, quantity, alloc.Capacity-alloc.ReservedCount)
		}

		err = tx.Table("seat_group_allocations").
			Where("id = ?", id).
			Update("reserved_count", gorm.Expr("reserved_count + ?", quantity)).Error
		if err != nil {
			return nil, fmt.Errorf("failed to reserve seats for allocation %s: %w", id, err)
		}

		prices[id] = alloc.PriceMinorUnits
	}

	return prices, nil
}

// Release returns every seat still held by a booking to its allocations.
// Idempotent: tickets already flagged released are skipped, so releasing a
// booking twice (or racing a sweep against an explicit cancel) is a no-op.
func (inv *Inventory) Release(tx *gorm.DB, bookingID uuid.UUID) (int, error) {
	var held []struct {
		ID                    uuid.UUID `gorm:"column:id"`
		SeatGroupAllocationID uuid.UUID `gorm:"column:seat_group_allocation_id"`
	}
	err := tx.Table("tickets").
		Select("id, seat_group_allocation_id").
		Where("booking_id = ? AND released = ?", bookingID, false).
		Set("gorm:query_option", "FOR UPDATE").
		Find(&held).Error
	if err != nil {
		return 0, fmt.Errorf("failed to lock tickets for booking %s: %w", bookingID, err)
	}
	if len(held) == 0 {
		return 0, nil
	}

	// Group by allocation, then decrement in deterministic order.
	counts := make(map[uuid.UUID]int)
	for _, t := range held {
		counts[t.SeatGroupAllocationID]++
	}
	ids := make([]uuid.UUID, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	for _, id := range ids {
		err := tx.Table("seat_group_allocations").
			Where("id = ?", id).
			Update("reserved_count", gorm.Expr("GREATEST(reserved_count - ?, 0)", counts[id])).Error
		if err != nil {
			return 0, fmt.Errorf("failed to release seats for allocation %s: %w", id, err)
		}
	}

	err = tx.Table("tickets").
		Where("booking_id = ? AND released = ?", bookingID, false).
		Update("released", true).Error
	if err != nil {
		return 0, fmt.Errorf("failed to mark tickets released: %w", err)
	}

	return len(held), nil
}
