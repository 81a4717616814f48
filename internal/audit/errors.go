package audit

import "errors"

// ErrInvalidEvent is returned when an event is missing required fields.
var ErrInvalidEvent = errors.New("audit: invalid event")
