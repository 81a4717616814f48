package sensor

import "errors"

// Domain-specific errors for sensor reads.
// They never cross the control-loop boundary; sensors log them and return
// an invalid Reading.
var (
	// ErrBusRead is returned when an I2C, SPI or GPIO transaction fails.
	ErrBusRead = errors.New("sensor: bus read failed")

	// ErrShortRead is returned when fewer bytes arrive than requested.
	ErrShortRead = errors.New("sensor: short read")
)
