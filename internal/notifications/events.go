package notifications

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types emitted on the ledger topic.
const (
	EventBookingCreated     = "booking.created"
	EventBookingCancelled   = "booking.cancelled"
	EventBookingTransferred = "booking.transferred"
	EventBookingExpired     = "booking.expired"
	EventPaymentCompleted   = "payment.completed"
	EventRefundCompleted    = "refund.completed"
	EventTransferRecorded   = "transfer.recorded"
)

// LedgerEvent is the envelope for every message on the ledger topic.
// Consumers (email, settlement reporting) key off Type and AggregateID.
type LedgerEvent struct {
	ID          uuid.UUID       `json:"id"`
	Type        string          `json:"type"`
	AggregateID uuid.UUID       `json:"aggregate_id"`
	OccurredAt  time.Time       `json:"occurred_at"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}

// NewLedgerEvent wraps a domain payload in the event envelope.
func NewLedgerEvent(eventType string, aggregateID uuid.UUID, payload interface{}) (*LedgerEvent, error) {
	event := &LedgerEvent{
		ID:          uuid.New(),
		Type:        eventType,
		AggregateID: aggregateID,
		OccurredAt:  time.Now().UTC(),
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		event.Payload = raw
	}
	return event, nil
}

// ToJSON serializes the event for the wire.
func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// PartitionKey keeps every event for one aggregate on one partition so
// consumers see them in order.
func (e *LedgerEvent) PartitionKey() string {
	return e.AggregateID.String()
}
