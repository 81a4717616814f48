package control

import (
	"context"
	"fmt"

	"github.com/nerrad567/farmnode/internal/audit"
)

// CommandIssuer delivers commands produced by automatic rules.
type CommandIssuer interface {
	Issue(ctx context.Context, actuatorID string, cmd Command) error
}

// LocalIssuer hands commands straight to the dispatcher, tagged as
// automatic.
type LocalIssuer struct {
	Dispatcher *Dispatcher
}

// Issue queues cmd on the dispatcher.
func (l LocalIssuer) Issue(ctx context.Context, actuatorID string, cmd Command) error {
	return l.Dispatcher.Dispatch(ctx, actuatorID, cmd, audit.SourceAuto)
}

// BrokerIssuer publishes commands to the actuator's own control topic, so
// they come back through the subscription like any remote command.
type BrokerIssuer struct {
	Publisher Publisher
	Bindings  *Bindings
	QoS       byte
}

// Issue publishes the wire form of cmd, not retained.
func (b BrokerIssuer) Issue(_ context.Context, actuatorID string, cmd Command) error {
	binding, ok := b.Bindings.ForActuator(actuatorID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownActuator, actuatorID)
	}
	if cmd == CommandUnrecognized {
		return ErrUnrecognizedCommand
	}
	return b.Publisher.Publish(binding.Topic, []byte(cmd.Payload(binding.Device)), b.QoS, false)
}
