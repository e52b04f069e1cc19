package notifications

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLedgerEventWrapsPayload(t *testing.T) {
	aggregateID := uuid.New()
	payload := map[string]string{"booking_id": aggregateID.String()}

	event, err := NewLedgerEvent(EventBookingCreated, aggregateID, payload)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, EventBookingCreated, event.Type)
	assert.Equal(t, aggregateID, event.AggregateID)
	assert.WithinDuration(t, time.Now().UTC(), event.OccurredAt, time.Minute)

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(event.Payload, &decoded))
	assert.Equal(t, aggregateID.String(), decoded["booking_id"])
}

func TestNewLedgerEventAllowsNilPayload(t *testing.T) {
	event, err := NewLedgerEvent(EventBookingExpired, uuid.New(), nil)

	require.NoError(t, err)
	assert.Nil(t, event.Payload)
}

func TestLedgerEventRoundTripsThroughJSON(t *testing.T) {
	original, err := NewLedgerEvent(EventPaymentCompleted, uuid.New(), map[string]int64{"value_minor": 2500})
	require.NoError(t, err)

	data, err := original.ToJSON()
	require.NoError(t, err)

	var decoded LedgerEvent
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, original.ID, decoded.ID)
	assert.Equal(t, original.Type, decoded.Type)
	assert.Equal(t, original.AggregateID, decoded.AggregateID)
}

func TestPartitionKeyFollowsAggregate(t *testing.T) {
	aggregateID := uuid.New()

	first, err := NewLedgerEvent(EventBookingCreated, aggregateID, nil)
	require.NoError(t, err)
	second, err := NewLedgerEvent(EventBookingCancelled, aggregateID, nil)
	require.NoError(t, err)

	assert.Equal(t, aggregateID.String(), first.PartitionKey())
	assert.Equal(t, first.PartitionKey(), second.PartitionKey())
}
