package bookings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		allowed bool
	}{
		{"in progress to paid", StatusInProgress, StatusPaid, true},
		{"in progress to cancelled", StatusInProgress, StatusCancelled, true},
		{"in progress to refunded", StatusInProgress, StatusRefunded, false},
		{"paid to refunded", StatusPaid, StatusRefunded, true},
		{"paid to in progress", StatusPaid, StatusInProgress, false},
		{"paid to cancelled", StatusPaid, StatusCancelled, false},
		{"cancelled to paid", StatusCancelled, StatusPaid, false},
		{"cancelled to in progress", StatusCancelled, StatusInProgress, false},
		{"refunded to paid", StatusRefunded, StatusPaid, false},
		{"refunded to cancelled", StatusRefunded, StatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestStatusIsTerminal(t *testing.T) {
	assert.False(t, StatusInProgress.IsTerminal())
	assert.False(t, StatusPaid.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.True(t, StatusRefunded.IsTerminal())
}

func TestStatusHoldsSeats(t *testing.T) {
	assert.True(t, StatusInProgress.HoldsSeats())
	assert.True(t, StatusPaid.HoldsSeats())
	assert.False(t, StatusCancelled.HoldsSeats())
	assert.False(t, StatusRefunded.HoldsSeats())
}

func TestStatusIsValid(t *testing.T) {
	assert.True(t, StatusInProgress.IsValid())
	assert.True(t, StatusPaid.IsValid())
	assert.True(t, StatusCancelled.IsValid())
	assert.True(t, StatusRefunded.IsValid())
	assert.False(t, Status("ON_HOLD").IsValid())
	assert.False(t, Status("").IsValid())
}
