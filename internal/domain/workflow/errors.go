package workflow

import "errors"

var (
	// ErrInvalidTransition is returned when a trigger is not permitted from the current status
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInvalidState is returned when a status value is outside the ten stages
	ErrInvalidState = errors.New("invalid status")

	// ErrGuardFailed is returned when the actor is not allowed to fire the trigger
	ErrGuardFailed = errors.New("actor not permitted")

	// ErrUnknownPosition is returned when a position name is not recognised
	ErrUnknownPosition = errors.New("unknown position")
)
