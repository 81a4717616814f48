package control

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/nerrad567/farmnode/internal/sensor"
)

const (
	defaultSampleInterval = 10 * time.Second
	telemetryQoS          = 1
)

// LoopOptions configures a Loop. Sensors, Publisher and Topic are required.
type LoopOptions struct {
	Zone   string
	NodeID string

	// Sensors are read in order; their names give the payload key order.
	Sensors []sensor.Sensor
	Rules   []HysteresisRule
	Issuer  CommandIssuer

	Publisher Publisher
	Topic     string
	Interval  time.Duration

	Mirror  TelemetryMirror
	Metrics Metrics
	Logger  Logger

	// Now is the clock; defaults to time.Now.
	Now func() time.Time
}

// Loop is the sampling and publishing path.
type Loop struct {
	opts LoopOptions

	lastMu sync.RWMutex
	last   *Snapshot
}

// Snapshot is the most recent cycle as seen by the status API.
type Snapshot struct {
	Payload   TelemetryPayload
	Published bool
	At        time.Time
}

// NewLoop creates a loop with defaults applied.
func NewLoop(opts LoopOptions) *Loop {
	if opts.Interval <= 0 {
		opts.Interval = defaultSampleInterval
	}
	if opts.Metrics == nil {
		opts.Metrics = noopMetrics{}
	}
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Loop{opts: opts}
}

// Run executes one cycle immediately and then one per interval until ctx
// is cancelled.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.opts.Interval)
	defer ticker.Stop()

	l.RunCycle(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.RunCycle(ctx)
		}
	}
}

// RunCycle reads every sensor, evaluates the rules, publishes the payload
// and returns it. Failures are logged and never abort the cycle.
func (l *Loop) RunCycle(ctx context.Context) TelemetryPayload {
	start := l.opts.Now()

	var payload TelemetryPayload
	for _, s := range l.opts.Sensors {
		r := s.Read(ctx)
		if !r.Valid {
			l.opts.Metrics.SensorFailed(s.Name())
		}
		payload.Add(s.Name(), r)
	}

	l.evaluateRules(ctx, payload)
	published := l.publish(payload)

	if l.opts.Mirror != nil {
		l.opts.Mirror.WriteTelemetry(l.opts.Zone, l.opts.NodeID, payload.mirrorFields(), start)
	}

	l.lastMu.Lock()
	l.last = &Snapshot{Payload: payload, Published: published, At: start}
	l.lastMu.Unlock()

	l.opts.Metrics.CycleObserved(l.opts.Now().Sub(start))
	return payload
}

func (l *Loop) evaluateRules(ctx context.Context, payload TelemetryPayload) {
	if l.opts.Issuer == nil {
		return
	}
	for _, rule := range l.opts.Rules {
		reading, ok := payload.Get(rule.Sensor)
		if !ok {
			continue
		}
		cmd, fire := rule.Evaluate(reading)
		if !fire {
			continue
		}
		if err := l.opts.Issuer.Issue(ctx, rule.ActuatorID, cmd); err != nil {
			l.opts.Logger.Warn("automatic command not issued",
				"actuator_id", rule.ActuatorID,
				"command", cmd.String(),
				"error", err,
			)
			continue
		}
		l.opts.Logger.Debug("automatic command issued",
			"actuator_id", rule.ActuatorID,
			"command", cmd.String(),
			"sensor", rule.Sensor,
			"value", reading.Value,
		)
	}
}

func (l *Loop) publish(payload TelemetryPayload) bool {
	body, err := json.Marshal(payload)
	if err == nil {
		err = l.opts.Publisher.Publish(l.opts.Topic, body, telemetryQoS, false)
	}
	l.opts.Metrics.TelemetryPublished(err)
	if err != nil {
		l.opts.Logger.Error("telemetry publish failed", "topic", l.opts.Topic, "error", err)
		return false
	}
	l.opts.Logger.Debug("telemetry published", "topic", l.opts.Topic, "payload", string(body))
	return true
}

// Last returns the most recent cycle, if any.
func (l *Loop) Last() (Snapshot, bool) {
	l.lastMu.RLock()
	defer l.lastMu.RUnlock()
	if l.last == nil {
		return Snapshot{}, false
	}
	return *l.last, true
}
