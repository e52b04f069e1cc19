package bookings

import "errors"

var (
	ErrBookingNotFound        = errors.New("booking not found")
	ErrDuplicateInProgress    = errors.New("user already has a booking in progress for this performance")
	ErrInvalidStateTransition = errors.New("invalid booking state transition")
	ErrForbidden              = errors.New("booking does not belong to user")
	ErrValidation             = errors.New("booking validation failed")
)
