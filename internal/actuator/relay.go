package actuator

import (
	"sync/atomic"
)

// Physical output levels.
const (
	levelLow  byte = 0
	levelHigh byte = 1
)

// PinWriter drives a digital output by header pin id.
// gobot's raspi.Adaptor satisfies it.
type PinWriter interface {
	DigitalWrite(pin string, level byte) error
}

// Logger is the subset of logging.Logger the actuators use.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Relay is one relay-driven device.
//
// The pin is the state of record. engaged is a shadow copy kept for
// transition logging and status reads; only the dispatcher goroutine writes
// it, other goroutines read it atomically.
type Relay struct {
	id        string
	device    string
	pin       string
	activeLow bool
	gpio      PinWriter
	logger    Logger

	engaged atomic.Bool
	stale   atomic.Bool
}

// Spec describes a relay to build.
type Spec struct {
	ID string
	// Device is the command prefix, e.g. "LED".
	Device    string
	Pin       string
	ActiveLow bool
}

// NewRelay creates a relay. It does not touch the pin; call Set or
// Bank.InitSafe to drive it.
func NewRelay(spec Spec, gpio PinWriter, logger Logger) *Relay {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Relay{
		id:        spec.ID,
		device:    spec.Device,
		pin:       spec.Pin,
		activeLow: spec.ActiveLow,
		gpio:      gpio,
		logger:    logger,
	}
}

// ID returns the actuator id.
func (r *Relay) ID() string { return r.id }

// Device returns the command prefix.
func (r *Relay) Device() string { return r.device }

// Engaged returns the last commanded logical state.
func (r *Relay) Engaged() bool { return r.engaged.Load() }

// Stale reports whether the state is unknown since a connection loss.
func (r *Relay) Stale() bool { return r.stale.Load() }

// Level maps a logical state to the physical pin level.
func (r *Relay) Level(engaged bool) byte {
	if engaged == r.activeLow {
		return levelLow
	}
	return levelHigh
}

// Set writes the pin level for engaged. It is idempotent: the same level is
// written every call. A write error is logged; there is no failure return.
// It reports whether the logical state changed.
func (r *Relay) Set(engaged bool) bool {
	level := r.Level(engaged)
	if err := r.gpio.DigitalWrite(r.pin, level); err != nil {
		r.logger.Error("relay write failed",
			"actuator_id", r.id,
			"pin", r.pin,
			"level", level,
			"error", err,
		)
	}

	previous := r.engaged.Swap(engaged)
	return previous != engaged
}
