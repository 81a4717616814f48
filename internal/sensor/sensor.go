package sensor

import "context"

// Failed is the sentinel encoded on the wire for a reading that failed.
// It is outside the domain of every sensor kind (pH, lux, 0/1).
const Failed = -1.0

// Reading is one calibrated sensor value with its validity flag.
// A zero Reading is invalid, so a missing value is never mistaken for 0.
type Reading struct {
	Value float64
	Valid bool
}

// Ok returns a valid reading.
func Ok(v float64) Reading {
	return Reading{Value: v, Valid: true}
}

// Fail returns an invalid reading.
func Fail() Reading {
	return Reading{}
}

// Encoded returns the value to publish: the calibrated value, or Failed.
func (r Reading) Encoded() float64 {
	if !r.Valid {
		return Failed
	}
	return r.Value
}

// Sensor is a single synchronous measurement point.
//
// Read never returns an error; a bus failure yields an invalid Reading so the
// caller can skip the field for one cycle without aborting the cycle.
type Sensor interface {
	// Name is the telemetry field the sensor feeds, e.g. "ph" or "water_level_top".
	Name() string
	Read(ctx context.Context) Reading
}

// Logger is the subset of logging.Logger the sensors use.
type Logger interface {
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any) {}

func orNoop(l Logger) Logger {
	if l == nil {
		return noopLogger{}
	}
	return l
}
