package bookings

import (
	"time"

	"github.com/google/uuid"
)

// Booking represents a booking record in the database
type Booking struct {
	ID                   uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	UserID               uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;index"`
	CreatorID            uuid.UUID  `json:"creator_id" gorm:"type:uuid;not null"`
	PerformanceID        uuid.UUID  `json:"performance_id" gorm:"type:uuid;not null;index"`
	Status               Status     `json:"status" gorm:"type:varchar(20);not null;default:'IN_PROGRESS';index"`
	Reference            string     `json:"reference" gorm:"type:varchar(30);uniqueIndex;not null"`
	TotalPriceMinorUnits int64      `json:"total_price_minor_units" gorm:"not null;check:total_price_minor_units >= 0"`
	Currency             string     `json:"currency" gorm:"type:varchar(3);not null"`
	TransferredFromID    *uuid.UUID `json:"transferred_from_id,omitempty" gorm:"type:uuid"`
	ExpiresAt            *time.Time `json:"expires_at,omitempty" gorm:"index"`
	CancelledAt          *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`

	// Relations
	Tickets []Ticket `json:"tickets,omitempty" gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE"`
}

// Ticket is a single seat claim within a booking. Released flips when the
// claim has been handed back to its allocation, so a cancel retried after a
// crash never decrements reserved counts twice.
type Ticket struct {
	ID                    uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	BookingID             uuid.UUID `json:"booking_id" gorm:"type:uuid;not null;index"`
	SeatGroupAllocationID uuid.UUID `json:"seat_group_allocation_id" gorm:"type:uuid;not null;index"`
	PriceMinorUnits       int64     `json:"price_minor_units" gorm:"not null;check:price_minor_units >= 0"`
	Released              bool      `json:"released" gorm:"not null;default:false"`
	CreatedAt             time.Time `json:"created_at"`
}

func (Booking) TableName() string {
	return "bookings"
}

func (Ticket) TableName() string {
	return "tickets"
}

// IsTerminal reports whether the booking can no longer change state.
func (b *Booking) IsTerminal() bool {
	return b.Status.IsTerminal()
}

// IsExpired reports whether an in-progress booking has outlived its hold.
func (b *Booking) IsExpired(now time.Time) bool {
	return b.Status == StatusInProgress && b.ExpiresAt != nil && now.After(*b.ExpiresAt)
}
