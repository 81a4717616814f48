package control

import (
	"context"
	"time"

	"github.com/nerrad567/farmnode/internal/audit"
	"github.com/nerrad567/farmnode/internal/infrastructure/influxdb"
	"github.com/nerrad567/farmnode/internal/infrastructure/mqtt"
)

// Logger defines the logging interface used by the control loop.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Publisher sends a message to the broker.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Session is the part of the broker session the node manages.
type Session interface {
	Publisher
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	SetOnConnect(callback func())
	SetOnConnectionLost(callback func(err error))
	State() mqtt.SessionState
}

// AuditRecorder stores applied commands.
type AuditRecorder interface {
	Record(ctx context.Context, ev *audit.Event) error
}

// TelemetryMirror receives a copy of every telemetry cycle.
type TelemetryMirror interface {
	WriteTelemetry(zone, node string, fields []influxdb.Field, at time.Time)
}

// Metrics records control loop activity.
// Satisfied by *metrics.Metrics.
type Metrics interface {
	TelemetryPublished(err error)
	SensorFailed(sensor string)
	CommandApplied(actuator, command, source string, engaged bool)
	CycleObserved(d time.Duration)
	ConnectionLost()
}

type noopMetrics struct{}

func (noopMetrics) TelemetryPublished(error)                    {}
func (noopMetrics) SensorFailed(string)                         {}
func (noopMetrics) CommandApplied(string, string, string, bool) {}
func (noopMetrics) CycleObserved(time.Duration)                 {}
func (noopMetrics) ConnectionLost()                             {}
