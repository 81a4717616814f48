// Package api serves the node's read-only status API.
//
// Endpoints:
//   - GET /api/v1/health  broker session health (200 or 503)
//   - GET /api/v1/status  node identity, session state, last telemetry, actuators
//   - GET /api/v1/events  recent actuator events from the audit trail
//   - GET /metrics        Prometheus exposition
//
// There is no command endpoint; actuators are driven only over MQTT.
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api
