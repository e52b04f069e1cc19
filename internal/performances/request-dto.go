package performances

type CreatePerformanceRequest struct {
	ProductionName  string             `json:"production_name" binding:"required,min=1,max=255"`
	VenueName       string             `json:"venue_name" binding:"required,min=1,max=255"`
	StartsAt        string             `json:"starts_at" binding:"required"`
	CapacityCeiling int                `json:"capacity_ceiling" binding:"required,min=1,max=100000"`
	Allocations     []AllocationLine   `json:"allocations" binding:"omitempty,dive"`
}

type AllocationLine struct {
	SeatGroupName   string `json:"seat_group_name" binding:"required,min=1,max=255"`
	Ordering        int    `json:"ordering"`
	PriceMinorUnits int64  `json:"price_minor_units" binding:"min=0"`
	Capacity        int    `json:"capacity" binding:"required,min=1"`
}

type UpdatePerformanceRequest struct {
	CapacityCeiling *int  `json:"capacity_ceiling" binding:"omitempty,min=1,max=100000"`
	Disabled        *bool `json:"disabled"`
}

type UpdateAllocationRequest struct {
	PriceMinorUnits *int64 `json:"price_minor_units" binding:"omitempty,min=0"`
	Capacity        *int   `json:"capacity" binding:"omitempty,min=1"`
}

type PerformanceListQuery struct {
	Page            int    `form:"page" binding:"omitempty,min=1"`
	Limit           int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Production      string `form:"production"`
	Venue           string `form:"venue"`
	From            string `form:"from"`
	IncludeDisabled bool   `form:"include_disabled"`
}
