package bookings

import (
	"time"

	"github.com/google/uuid"
)

type BookingResponse struct {
	ID                   uuid.UUID        `json:"id"`
	Reference            string           `json:"reference"`
	UserID               uuid.UUID        `json:"user_id"`
	PerformanceID        uuid.UUID        `json:"performance_id"`
	Status               string           `json:"status"`
	TotalPriceMinorUnits int64            `json:"total_price_minor_units"`
	Currency             string           `json:"currency"`
	TransferredFromID    *uuid.UUID       `json:"transferred_from_id,omitempty"`
	ExpiresAt            *time.Time       `json:"expires_at,omitempty"`
	Tickets              []TicketResponse `json:"tickets"`
	CreatedAt            time.Time        `json:"created_at"`
}

type TicketResponse struct {
	ID                    uuid.UUID `json:"id"`
	SeatGroupAllocationID uuid.UUID `json:"seat_group_allocation_id"`
	PriceMinorUnits       int64     `json:"price_minor_units"`
}

type PaginatedBookings struct {
	Bookings   []BookingResponse `json:"bookings"`
	TotalCount int64             `json:"total_count"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
}

func toBookingResponse(b *Booking) BookingResponse {
	tickets := make([]TicketResponse, 0, len(b.Tickets))
	for _, t := range b.Tickets {
		tickets = append(tickets, TicketResponse{
			ID:                    t.ID,
			SeatGroupAllocationID: t.SeatGroupAllocationID,
			PriceMinorUnits:       t.PriceMinorUnits,
		})
	}
	return BookingResponse{
		ID:                   b.ID,
		Reference:            b.Reference,
		UserID:               b.UserID,
		PerformanceID:        b.PerformanceID,
		Status:               b.Status.String(),
		TotalPriceMinorUnits: b.TotalPriceMinorUnits,
		Currency:             b.Currency,
		TransferredFromID:    b.TransferredFromID,
		ExpiresAt:            b.ExpiresAt,
		Tickets:              tickets,
		CreatedAt:            b.CreatedAt,
	}
}
