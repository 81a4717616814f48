package sensor

import (
	"context"
	"fmt"
)

// PinReader reads a digital input by header pin id.
// gobot's raspi.Adaptor satisfies it.
type PinReader interface {
	DigitalRead(pin string) (int, error)
}

// WaterProbe is a float switch on a pulled-up input: logic low means water.
type WaterProbe struct {
	name   string
	pin    string
	gpio   PinReader
	logger Logger
}

// NewWaterProbe creates a probe named name (e.g. "top") on pin.
func NewWaterProbe(name, pin string, gpio PinReader, logger Logger) *WaterProbe {
	return &WaterProbe{name: name, pin: pin, gpio: gpio, logger: orNoop(logger)}
}

// Name implements Sensor.
func (p *WaterProbe) Name() string { return "water_level_" + p.name }

// Read returns 1 when water is detected, 0 when dry. Only a GPIO error is
// a failed reading; dry is a valid 0.
func (p *WaterProbe) Read(_ context.Context) Reading {
	level, err := p.gpio.DigitalRead(p.pin)
	if err != nil {
		p.logger.Warn("water level read failed", "probe", p.name, "pin", p.pin,
			"error", fmt.Errorf("%w: gpio: %w", ErrBusRead, err))
		return Fail()
	}
	if level == 0 {
		return Ok(1)
	}
	return Ok(0)
}
