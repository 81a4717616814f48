// Package logging provides structured logging for the farm node.
//
// It wraps log/slog with default fields (service, version) and
// config-driven level and format selection.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Info("telemetry published", "topic", topic)
//	logger.Error("publish failed", "error", err)
//
// Never log broker passwords or the InfluxDB token.
package logging
