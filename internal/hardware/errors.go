package hardware

import "errors"

var (
	// ErrInitFailed is returned when the board or a bus cannot be opened.
	ErrInitFailed = errors.New("hardware: initialisation failed")

	// ErrUnknownDriver is returned for an unsupported hardware.driver.
	ErrUnknownDriver = errors.New("hardware: unknown driver")
)
