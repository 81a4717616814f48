package control

import "errors"

// Domain errors for the control package.
var (
	// ErrDuplicateTopic is returned when two actuators bind the same control topic.
	ErrDuplicateTopic = errors.New("control: duplicate control topic")

	// ErrInvalidBinding is returned when an actuator binding is incomplete.
	ErrInvalidBinding = errors.New("control: invalid binding")

	// ErrUnknownActuator is returned when a command names an unbound actuator.
	ErrUnknownActuator = errors.New("control: unknown actuator")

	// ErrUnrecognizedCommand is returned when dispatching CommandUnrecognized.
	ErrUnrecognizedCommand = errors.New("control: unrecognized command")

	// ErrDispatcherStopped is returned when the dispatcher is no longer running.
	ErrDispatcherStopped = errors.New("control: dispatcher stopped")
)
