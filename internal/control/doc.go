// Package control is the node's control loop.
//
// Two paths share the actuator bank and the broker session:
//
//   - The command-dispatch path. Inbound control messages arrive on the
//     session's router goroutine, are resolved through the topic bindings,
//     decoded into a Command and queued. A single Dispatcher goroutine
//     drains the queue and is the only code that drives relays.
//
//   - The sampling path. A Loop ticks at the sample interval, reads every
//     sensor, evaluates automatic rules, and publishes one TelemetryPayload
//     per cycle. Automatic rules issue commands through a CommandIssuer,
//     either into the same dispatcher queue or back through the broker.
//
// Node wires the two paths to the session: it subscribes the bindings,
// marks actuator state stale when the connection drops, and clears it once
// paho has reconnected and restored the subscriptions.
//
// # Usage
//
//	bindings, _ := control.NewBindings(cfg.Node.Zone, cfg.Actuators)
//	dispatcher := control.NewDispatcher(bank, bindings, repo, m, log)
//	loop := control.NewLoop(control.LoopOptions{...})
//	node := control.NewNode(session, bank, bindings, dispatcher, loop, m, log)
//
//	if err := node.Subscribe(); err != nil {
//	    return err
//	}
//	node.Run(ctx)
package control
