package performances

import "errors"

var (
	// ErrPerformanceNotFound is returned when a performance does not exist.
	ErrPerformanceNotFound = errors.New("performance not found")

	// ErrAllocationNotFound is returned when a seat group allocation does not
	// exist under the requested performance.
	ErrAllocationNotFound = errors.New("seat group allocation not found")

	// ErrPerformanceDisabled is returned when reserving against a disabled
	// performance.
	ErrPerformanceDisabled = errors.New("performance is not open for booking")

	// ErrCapacityExceeded is returned when a reservation would take an
	// allocation past its capacity.
	ErrCapacityExceeded = errors.New("seat group capacity exceeded")

	// ErrCeilingExceeded is returned when allocation capacities would sum past
	// the performance capacity ceiling.
	ErrCeilingExceeded = errors.New("performance capacity ceiling exceeded")

	// ErrValidation is returned for malformed catalog or reservation input.
	ErrValidation = errors.New("validation failed")
)
