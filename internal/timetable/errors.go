package timetable

import "errors"

var (
	// ErrDimensionMismatch is returned when instance tables disagree on subject or week counts.
	ErrDimensionMismatch = errors.New("timetable: dimension mismatch")
	// ErrInfeasibleBounds is returned when a lower bound exceeds its upper bound.
	ErrInfeasibleBounds = errors.New("timetable: lower bound exceeds upper bound")
	// ErrEmptyInstance is returned when there is nothing to schedule.
	ErrEmptyInstance = errors.New("timetable: instance has no subjects or weeks")
)
