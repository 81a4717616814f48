// Package hardware opens the node's GPIO, I2C and SPI handles.
//
// The handles are opened once at startup and handed to the sensor and
// actuator layers, which own them for the process lifetime.
package hardware

import (
	"errors"
	"fmt"
	"io"

	"github.com/nerrad567/farmnode/internal/infrastructure/config"
	"github.com/nerrad567/farmnode/internal/sensor"
)

// SPI mode and word size for the MCP3008.
const (
	spiMode = 0
	spiBits = 8
)

// GPIO is digital pin access by header pin id.
type GPIO interface {
	DigitalRead(pin string) (int, error)
	DigitalWrite(pin string, level byte) error
}

// Board holds the open bus handles.
type Board struct {
	GPIO GPIO
	// I2C is the light sensor connection; nil when the sensor is disabled.
	I2C sensor.I2CConn
	// SPI is the pH ADC connection; nil when the sensor is disabled.
	SPI sensor.SPIConn

	closers []io.Closer
}

// Open opens the board named by cfg.Hardware.Driver.
// A failure is fatal at startup; already-opened handles are released.
func Open(cfg *config.Config) (*Board, error) {
	switch cfg.Hardware.Driver {
	case config.DriverRaspi:
		return openRaspi(cfg)
	case config.DriverSim:
		return NewSimBoard(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Hardware.Driver)
	}
}

// Close releases bus connections in reverse order of opening.
func (b *Board) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}

// closerFunc adapts a func to io.Closer.
type closerFunc func() error

func (f closerFunc) Close() error { return f() }
