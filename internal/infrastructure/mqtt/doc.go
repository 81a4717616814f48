// Package mqtt owns the farm node's broker session.
//
// This package manages:
//   - Connection to the broker with a configurable last will
//   - Session state tracking (see SessionState)
//   - Publishing with QoS acknowledgment and bounded waits
//   - Subscriptions that are re-issued after every reconnect
//   - Separate connect and connection-lost notifications
//
// # Topics
//
//	farm/control/<zone>/<actuator>   commands in (plain text, e.g. LED_ON)
//	farm/data/<zone>                 telemetry out (JSON, QoS 1, not retained)
//	farm/status/<zone>/<node>        retained presence document
//	client/status                    last will (default)
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.SetOnConnectionLost(func(err error) { logger.Warn("lost", "error", err) })
//	err = client.Subscribe(mqtt.Topics{}.Control("zone-A", "led-1"), 1, dispatcher.HandleMessage)
package mqtt
