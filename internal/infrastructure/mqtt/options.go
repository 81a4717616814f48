package mqtt

import (
	"crypto/tls"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/farmnode/internal/infrastructure/config"
)

// Connection constants.
const (
	// defaultConnectTimeout is the maximum time to wait for the initial CONNACK.
	defaultConnectTimeout = 10 * time.Second

	// defaultPublishTimeout is the maximum time to wait for a publish or
	// subscribe acknowledgment.
	defaultPublishTimeout = 5 * time.Second

	// defaultDisconnectQuiesce is the time to wait for pending operations on disconnect.
	defaultDisconnectQuiesce = 1000 // milliseconds

	// defaultKeepAlive applies when the config leaves keep_alive unset.
	defaultKeepAlive = 60 * time.Second

	// maxQoS is the maximum QoS level supported.
	maxQoS = 2

	// tlsMinVersion is the minimum TLS version for secure connections.
	tlsMinVersion = tls.VersionTLS12
)

// brokerURL returns the tcp:// or ssl:// URL for the configured broker.
func brokerURL(cfg config.MQTTConfig) string {
	scheme := "tcp"
	if cfg.Broker.TLS {
		scheme = "ssl"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, cfg.Broker.Host, cfg.Broker.Port)
}

// buildClientOptions creates paho MQTT options from node config.
//
// The initial connect does not retry: an unreachable broker at startup is
// fatal. Once connected, paho reconnects on its own with exponential backoff
// between reconnect.initial_delay and reconnect.max_delay.
func buildClientOptions(cfg config.MQTTConfig) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	opts.AddBroker(brokerURL(cfg))
	opts.SetClientID(cfg.Broker.ClientID)

	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username)
		opts.SetPassword(cfg.Auth.Password)
	}

	// Subscriptions are re-issued by the client on every reconnect, so a clean
	// session is safe; a persistent session can still be requested.
	opts.SetCleanSession(cfg.CleanSession)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(false)
	opts.SetConnectRetryInterval(time.Duration(cfg.Reconnect.InitialDelay) * time.Second)
	if cfg.Reconnect.MaxDelay > 0 {
		opts.SetMaxReconnectInterval(time.Duration(cfg.Reconnect.MaxDelay) * time.Second)
	}

	opts.SetConnectTimeout(defaultConnectTimeout)

	keepAlive := defaultKeepAlive
	if cfg.KeepAlive > 0 {
		keepAlive = time.Duration(cfg.KeepAlive) * time.Second
	}
	opts.SetKeepAlive(keepAlive)

	// Inbound messages are handed off to the dispatcher queue, so in-order
	// delivery per topic is kept without blocking the network loop for long.
	opts.SetOrderMatters(true)

	if cfg.Broker.TLS {
		opts.SetTLSConfig(&tls.Config{
			MinVersion: tlsMinVersion,
		})
	}

	return opts
}

// configureWill registers the last-will message the broker publishes on
// this client's behalf if the connection terminates without DISCONNECT.
// An empty will topic disables the will.
func configureWill(opts *pahomqtt.ClientOptions, will config.MQTTWillConfig) {
	if will.Topic == "" {
		return
	}
	// #nosec G115 -- QoS validated to 0..2 by config.Validate
	opts.SetWill(will.Topic, will.Payload, byte(will.QoS), will.Retained)
}

// buildPresencePayload creates the JSON payload for the retained presence topic.
func buildPresencePayload(clientID, status string) []byte {
	return []byte(fmt.Sprintf(
		`{"status":%q,"client_id":%q,"timestamp":%q}`,
		status,
		clientID,
		time.Now().UTC().Format(time.RFC3339),
	))
}
