package rhythm

import "errors"

var (
	// ErrInvalidInterval is returned when a delay cannot be scheduled, e.g. it is negative.
	ErrInvalidInterval = errors.New("invalid interval")

	// ErrSchedulingFailure is returned when the underlying timer is unavailable. It is fatal to playback.
	ErrSchedulingFailure = errors.New("scheduling failure")

	// ErrInvalidMeasure is returned when a measure would have no beat slots.
	ErrInvalidMeasure = errors.New("measure needs at least one beat")
)
