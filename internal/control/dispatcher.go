package control

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/farmnode/internal/actuator"
	"github.com/nerrad567/farmnode/internal/audit"
)

// queueSize bounds the number of commands waiting for the dispatcher.
const queueSize = 32

// defaultHandoffTimeout bounds how long HandleMessage waits on a full queue
// before dropping the command. The MQTT router goroutine is stalled for that
// long, so it stays short.
const defaultHandoffTimeout = 250 * time.Millisecond

type request struct {
	actuatorID string
	cmd        Command
	source     string
}

// Dispatcher applies actuator commands from every source.
//
// HandleMessage and Dispatch only enqueue. Run is the single goroutine that
// drains the queue and the only caller of Bank.Set, so relay writes and
// transition logging never interleave.
type Dispatcher struct {
	bank     *actuator.Bank
	bindings *Bindings
	audit    AuditRecorder
	metrics  Metrics
	logger   Logger

	queue          chan request
	stopped        chan struct{}
	handoffTimeout time.Duration
}

// NewDispatcher creates a dispatcher. repo, m and logger may be nil.
func NewDispatcher(bank *actuator.Bank, bindings *Bindings, repo AuditRecorder, m Metrics, logger Logger) *Dispatcher {
	if repo == nil {
		repo = audit.NopRepository{}
	}
	if m == nil {
		m = noopMetrics{}
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &Dispatcher{
		bank:     bank,
		bindings: bindings,
		audit:    repo,
		metrics:  m,
		logger:   logger,
		queue:    make(chan request, queueSize),
		stopped:  make(chan struct{}),

		handoffTimeout: defaultHandoffTimeout,
	}
}

// HandleMessage is the inbound handler for control topics.
//
// Unknown topics and unrecognized payloads are logged and dropped; they
// are never returned as errors because the sender cannot be told.
func (d *Dispatcher) HandleMessage(topic string, payload []byte) error {
	binding, ok := d.bindings.Resolve(topic)
	if !ok {
		d.logger.Warn("message on unbound topic ignored", "topic", topic)
		return nil
	}

	cmd := DecodeCommand(binding.Device, payload)
	if cmd == CommandUnrecognized {
		d.logger.Warn("unrecognized command ignored",
			"topic", topic,
			"actuator_id", binding.ActuatorID,
			"payload", string(payload),
		)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.handoffTimeout)
	defer cancel()

	if err := d.enqueue(ctx, request{
		actuatorID: binding.ActuatorID,
		cmd:        cmd,
		source:     audit.SourceMQTT,
	}); err != nil {
		d.logger.Warn("command dropped",
			"actuator_id", binding.ActuatorID,
			"command", cmd.String(),
			"error", err,
		)
	}
	return nil
}

// Dispatch queues cmd for actuatorID. source is audit.SourceMQTT or
// audit.SourceAuto. It blocks until the command is queued, ctx is done or
// the dispatcher has stopped.
func (d *Dispatcher) Dispatch(ctx context.Context, actuatorID string, cmd Command, source string) error {
	if cmd == CommandUnrecognized {
		return ErrUnrecognizedCommand
	}
	if _, ok := d.bindings.ForActuator(actuatorID); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownActuator, actuatorID)
	}
	return d.enqueue(ctx, request{actuatorID: actuatorID, cmd: cmd, source: source})
}

func (d *Dispatcher) enqueue(ctx context.Context, req request) error {
	select {
	case <-d.stopped:
		return ErrDispatcherStopped
	default:
	}

	select {
	case d.queue <- req:
		return nil
	case <-d.stopped:
		return ErrDispatcherStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run applies queued commands until ctx is cancelled. It must be called
// exactly once.
func (d *Dispatcher) Run(ctx context.Context) {
	defer close(d.stopped)

	for {
		select {
		case <-ctx.Done():
			return
		case req := <-d.queue:
			d.apply(ctx, req)
		}
	}
}

// processPending applies every queued command without blocking.
func (d *Dispatcher) processPending(ctx context.Context) int {
	n := 0
	for {
		select {
		case req := <-d.queue:
			d.apply(ctx, req)
			n++
		default:
			return n
		}
	}
}

func (d *Dispatcher) apply(ctx context.Context, req request) {
	relay, err := d.bank.Get(req.actuatorID)
	if err != nil {
		d.logger.Error("command for missing relay", "actuator_id", req.actuatorID, "error", err)
		return
	}

	previous := relay.Engaged()
	engaged := req.cmd.Engaged()
	changed := relay.Set(engaged)
	command := req.cmd.Payload(relay.Device())

	if changed {
		d.logger.Info("actuator state changed",
			"actuator_id", req.actuatorID,
			"command", command,
			"source", req.source,
			"engaged", engaged,
		)
	} else {
		d.logger.Debug("actuator already in requested state",
			"actuator_id", req.actuatorID,
			"command", command,
			"source", req.source,
		)
	}

	d.metrics.CommandApplied(req.actuatorID, command, req.source, engaged)

	if err := d.audit.Record(ctx, &audit.Event{
		ActuatorID: req.actuatorID,
		Command:    command,
		Source:     req.source,
		Previous:   previous,
		Engaged:    engaged,
	}); err != nil {
		d.logger.Warn("audit record failed", "actuator_id", req.actuatorID, "error", err)
	}
}
