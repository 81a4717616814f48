package control

import (
	"context"
	"fmt"
	"sync"

	"github.com/nerrad567/farmnode/internal/actuator"
	"github.com/nerrad567/farmnode/internal/infrastructure/mqtt"
)

const controlQoS = 1

// Node binds the control loop to the broker session.
type Node struct {
	session    Session
	bank       *actuator.Bank
	bindings   *Bindings
	dispatcher *Dispatcher
	loop       *Loop
	metrics    Metrics
	logger     Logger
}

// NewNode creates a node and registers its connection callbacks on session.
// The bank must already be in its safe state.
func NewNode(session Session, bank *actuator.Bank, bindings *Bindings, dispatcher *Dispatcher, loop *Loop, m Metrics, logger Logger) *Node {
	if m == nil {
		m = noopMetrics{}
	}
	if logger == nil {
		logger = noopLogger{}
	}
	n := &Node{
		session:    session,
		bank:       bank,
		bindings:   bindings,
		dispatcher: dispatcher,
		loop:       loop,
		metrics:    m,
		logger:     logger,
	}
	session.SetOnConnectionLost(n.OnConnectionLost)
	session.SetOnConnect(n.OnConnect)
	return n
}

// Subscribe subscribes every control topic to the dispatcher. The session
// re-issues these subscriptions after every reconnect.
func (n *Node) Subscribe() error {
	for _, b := range n.bindings.All() {
		if err := n.session.Subscribe(b.Topic, controlQoS, n.dispatcher.HandleMessage); err != nil {
			return fmt.Errorf("subscribing %s: %w", b.Topic, err)
		}
		n.logger.Info("subscribed to control topic", "topic", b.Topic, "actuator_id", b.ActuatorID)
	}
	return nil
}

// OnConnectionLost marks actuator state unknown. The relays keep their
// last physical state.
func (n *Node) OnConnectionLost(err error) {
	n.metrics.ConnectionLost()
	n.bank.MarkStale(true)
	n.logger.Warn("broker connection lost, actuator state stale", "error", err)
}

// OnConnect clears the stale flag once the session is back with its
// subscriptions restored. If the resubscribe failed the state stays stale.
func (n *Node) OnConnect() {
	if state := n.session.State(); state != mqtt.StateSubscribed {
		n.logger.Warn("broker reconnected without subscriptions, actuator state still stale",
			"session_state", state.String())
		return
	}
	n.bank.MarkStale(false)
	n.logger.Info("broker session restored")
}

// Run runs the dispatcher and the sampling loop until ctx is cancelled.
func (n *Node) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		n.dispatcher.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		n.loop.Run(ctx)
	}()

	wg.Wait()
}

// Loop returns the sampling loop.
func (n *Node) Loop() *Loop { return n.loop }

// Bank returns the actuator bank.
func (n *Node) Bank() *actuator.Bank { return n.bank }
