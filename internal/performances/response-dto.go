package performances

import "time"

type AllocationAvailability struct {
	AllocationID    string `json:"allocation_id"`
	SeatGroupName   string `json:"seat_group_name"`
	PriceMinorUnits int64  `json:"price_minor_units"`
	Capacity        int    `json:"capacity"`
	Available       int    `json:"available"`
}

type PerformanceAvailability struct {
	PerformanceID string                   `json:"performance_id"`
	StartsAt      time.Time                `json:"starts_at"`
	Disabled      bool                     `json:"disabled"`
	Allocations   []AllocationAvailability `json:"allocations"`
}

type PaginatedPerformances struct {
	Performances []Performance `json:"performances"`
	TotalCount   int64         `json:"total_count"`
	Page         int           `json:"page"`
	Limit        int           `json:"limit"`
}
