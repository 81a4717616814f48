package control

import "github.com/nerrad567/farmnode/internal/sensor"

// HysteresisRule drives an actuator from one sensor with a dead band.
//
// Below Low the actuator is switched on, above High it is switched off,
// and in between nothing is issued. The rule has no memory: it fires on
// every evaluation while the condition holds.
type HysteresisRule struct {
	Sensor     string
	ActuatorID string
	Low        float64
	High       float64
}

// Evaluate returns the command to issue for r, if any. A failed reading
// never issues a command.
func (h HysteresisRule) Evaluate(r sensor.Reading) (Command, bool) {
	if !r.Valid {
		return CommandUnrecognized, false
	}
	switch {
	case r.Value < h.Low:
		return CommandOn, true
	case r.Value > h.High:
		return CommandOff, true
	default:
		return CommandUnrecognized, false
	}
}
