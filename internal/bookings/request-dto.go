package bookings

// BookingLineItem is one seat-group claim within a booking request.
type BookingLineItem struct {
	AllocationID string `json:"allocation_id" binding:"required,uuid"`
	Quantity     int    `json:"quantity" binding:"required,min=1,max=20"`
}

// CreateBookingRequest is the payload for starting a new booking.
type CreateBookingRequest struct {
	PerformanceID string            `json:"performance_id" binding:"required,uuid"`
	LineItems     []BookingLineItem `json:"line_items" binding:"required,min=1,dive"`
	// ForUserID lets box office staff book on behalf of a customer.
	ForUserID string `json:"for_user_id,omitempty" binding:"omitempty,uuid"`
}

// TransferBookingRequest moves an existing booking to a new performance
// and/or seat selection.
type TransferBookingRequest struct {
	ToPerformanceID string            `json:"to_performance_id" binding:"required,uuid"`
	LineItems       []BookingLineItem `json:"line_items" binding:"required,min=1,dive"`
}

// BookingListQuery holds pagination and filter parameters for listings.
type BookingListQuery struct {
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
	Status Status `form:"status"`
}
