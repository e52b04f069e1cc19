package database

import (
	"gorm.io/gorm"
)

// MigrateConstraints adds database constraints and indexes used by the
// booking and payment hot paths. The capacity and single-in-progress
// invariants themselves are enforced inside row-locked transactions so the
// guarantees stay portable; these indexes keep those checks fast and make
// idempotency-key reuse impossible at the storage layer.
func MigrateConstraints(db *gorm.DB) error {
	// Idempotency keys are unique per gateway call.
	err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS uniq_transactions_idempotency_key
		ON transactions (idempotency_key);
	`).Error
	if err != nil {
		return err
	}

	// Fast lookup of in-progress bookings for the duplicate check.
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_bookings_user_performance_status
		ON bookings (user_id, performance_id, status);
	`).Error
	if err != nil {
		return err
	}

	// Ticket release path groups by allocation.
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_tickets_booking_allocation
		ON tickets (booking_id, seat_group_allocation_id);
	`).Error
	if err != nil {
		return err
	}

	// Ledger queries by payable.
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_transactions_payable
		ON transactions (payable_type, payable_id);
	`).Error
	if err != nil {
		return err
	}

	// A booking can supersede at most one prior booking.
	err = db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS uniq_bookings_transferred_from
		ON bookings (transferred_from_id) WHERE transferred_from_id IS NOT NULL;
	`).Error
	if err != nil {
		return err
	}

	return nil
}
