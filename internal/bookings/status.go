package bookings

type Status string

const (
	StatusInProgress Status = "IN_PROGRESS"
	StatusPaid       Status = "PAID"
	StatusCancelled  Status = "CANCELLED"
	StatusRefunded   Status = "REFUNDED"
)

// IsValid checks if the booking status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusInProgress, StatusPaid, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// CanTransitionTo reports whether the booking lifecycle permits moving
// from this status to the target status.
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusInProgress:
		return target == StatusPaid || target == StatusCancelled
	case StatusPaid:
		return target == StatusRefunded
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed.
func (s Status) IsTerminal() bool {
	return s == StatusCancelled || s == StatusRefunded
}

// HoldsSeats reports whether a booking with this status still occupies
// reserved capacity.
func (s Status) HoldsSeats() bool {
	return s == StatusInProgress || s == StatusPaid
}
