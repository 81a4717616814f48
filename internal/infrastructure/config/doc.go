// Package config loads and validates farm node configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Seeding the environment from an optional .env file
//   - Overriding with FARMNODE_* environment variables
//   - Validation of required fields and wiring constraints
//
// Configuration is read once at startup and never reloaded. Broker
// credentials and the InfluxDB token should come from the environment
// rather than the YAML file.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(cfg.Node.Zone)
package config
