package performances

import (
	"time"

	"github.com/google/uuid"
)

// Performance is a scheduled showing of a production. Once bookings exist
// against it, only administrative capacity changes and the disabled flag may
// be altered.
type Performance struct {
	ID              uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ProductionName  string    `gorm:"not null;size:255" json:"production_name"`
	VenueName       string    `gorm:"not null;size:255" json:"venue_name"`
	StartsAt        time.Time `gorm:"not null;index" json:"starts_at"`
	CapacityCeiling int       `gorm:"not null;check:capacity_ceiling > 0" json:"capacity_ceiling"`
	Disabled        bool      `gorm:"default:false" json:"disabled"`

	CreatedBy uuid.UUID `gorm:"type:uuid;not null" json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	SeatGroupAllocations []SeatGroupAllocation `gorm:"foreignKey:PerformanceID;constraint:OnDelete:CASCADE;" json:"seat_group_allocations,omitempty"`
}

// SeatGroupAllocation is the price and capacity of one seat group within one
// performance. ReservedCount only moves inside row-locked transactions.
type SeatGroupAllocation struct {
	ID              uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	PerformanceID   uuid.UUID `gorm:"type:uuid;index;not null" json:"performance_id"`
	SeatGroupName   string    `gorm:"not null;size:255" json:"seat_group_name"`
	Ordering        int       `gorm:"not null;default:0" json:"ordering"`
	PriceMinorUnits int64     `gorm:"not null;check:price_minor_units >= 0" json:"price_minor_units"`
	Capacity        int       `gorm:"not null;check:capacity > 0" json:"capacity"`
	ReservedCount   int       `gorm:"not null;default:0;check:reserved_count >= 0" json:"reserved_count"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName sets the table name for Performance
func (Performance) TableName() string {
	return "performances"
}

// TableName sets the table name for SeatGroupAllocation
func (SeatGroupAllocation) TableName() string {
	return "seat_group_allocations"
}

// Available returns the number of seats still reservable in this allocation.
func (a *SeatGroupAllocation) Available() int {
	return a.Capacity - a.ReservedCount
}

// IsBookable reports whether new bookings may be taken against the performance.
func (p *Performance) IsBookable(now time.Time) bool {
	return !p.Disabled && p.StartsAt.After(now)
}
