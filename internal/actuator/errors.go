package actuator

import "errors"

var (
	// ErrUnknownActuator is returned when an id has no relay in the bank.
	ErrUnknownActuator = errors.New("actuator: unknown actuator")

	// ErrDuplicateActuator is returned when two relays share an id.
	ErrDuplicateActuator = errors.New("actuator: duplicate actuator id")
)
