package database

import (
	"boxoffice/internal/bookings"
	"boxoffice/internal/payments"
	"boxoffice/internal/performances"
	"boxoffice/internal/transfers"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&performances.Performance{},
		&performances.SeatGroupAllocation{},
		&bookings.Booking{},
		&bookings.Ticket{},
		&payments.Transaction{},
		&transfers.FinancialTransfer{},
	)
}
