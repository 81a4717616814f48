package mqtt

import (
	"context"
	"fmt"
	"sync"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/farmnode/internal/infrastructure/config"
)

// Client owns the node's single broker session.
//
// It provides connection management, message publishing, subscription
// handling, the last-will announcement, and restoration of every tracked
// subscription after paho reconnects.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Client struct {
	client pahomqtt.Client
	cfg    config.MQTTConfig

	// subscriptions tracks active subscriptions for re-subscription on reconnect.
	subscriptions map[string]subscription
	subMu         sync.RWMutex

	state   SessionState
	stateMu sync.RWMutex

	// presenceTopic, when set, receives a retained online/offline document.
	presenceTopic string

	// Two independent capabilities: reconnect notification and loss notification.
	onConnect        func()
	onConnectionLost func(err error)
	callbackMu       sync.RWMutex

	logger   Logger
	loggerMu sync.RWMutex
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// subscription holds subscription details for re-subscription on reconnect.
type subscription struct {
	topic   string
	qos     byte
	handler MessageHandler
}

// MessageHandler is the callback signature for received messages.
//
// Handlers are invoked by the paho router goroutine in arrival order and
// must not block; hand the message off and return.
//
// Returns:
//   - error: Logged but does not affect message acknowledgment
type MessageHandler func(topic string, payload []byte) error

// Connect establishes the broker session.
//
// It performs the following setup:
//  1. Builds connection options from config (broker URL, auth, TLS, session)
//  2. Registers the configured last will
//  3. Enables auto-reconnect for drops after the first successful connect
//  4. Blocks until the broker acknowledges or the connect timeout passes
//
// Returns:
//   - *Client: Connected client ready for use
//   - error: ErrConnectionFailed if the broker is unreachable or refuses us
func Connect(cfg config.MQTTConfig) (*Client, error) {
	opts := buildClientOptions(cfg)
	configureWill(opts, cfg.Will)

	c := &Client{
		cfg:           cfg,
		subscriptions: make(map[string]subscription),
	}

	opts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		c.handleConnect()
	})

	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		c.handleConnectionLost(err)
	})

	opts.SetReconnectingHandler(func(_ pahomqtt.Client, _ *pahomqtt.ClientOptions) {
		c.setState(StateConnecting)
		if logger := c.getLogger(); logger != nil {
			logger.Info("MQTT reconnecting", "broker", brokerURL(cfg))
		}
	})

	c.client = pahomqtt.NewClient(opts)
	if err := c.connect(); err != nil {
		return nil, err
	}
	return c, nil
}

// newClient wraps an existing paho client. Used by tests.
func newClient(cfg config.MQTTConfig, pc pahomqtt.Client) *Client {
	return &Client{
		client:        pc,
		cfg:           cfg,
		subscriptions: make(map[string]subscription),
	}
}

// connect performs the blocking initial handshake.
func (c *Client) connect() error {
	c.setState(StateConnecting)

	token := c.client.Connect()
	if !token.WaitTimeout(defaultConnectTimeout) {
		c.client.Disconnect(0)
		c.setState(StateDisconnected)
		return fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, defaultConnectTimeout)
	}
	if err := token.Error(); err != nil {
		c.setState(StateDisconnected)
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	// The OnConnect handler runs asynchronously and may not have run yet.
	c.stateMu.Lock()
	if c.state == StateConnecting {
		c.state = StateConnected
	}
	c.stateMu.Unlock()

	return nil
}

// handleConnect is called by paho on the initial connection and every
// reconnection.
func (c *Client) handleConnect() {
	c.stateMu.Lock()
	if c.state != StateSubscribed {
		c.state = StateConnected
	}
	c.stateMu.Unlock()

	if c.restoreSubscriptions() {
		c.setState(StateSubscribed)
	}

	c.publishPresence("online")

	c.callbackMu.RLock()
	callback := c.onConnect
	c.callbackMu.RUnlock()
	if callback != nil {
		callback()
	}
}

// handleConnectionLost is called by paho when the transport drops unexpectedly.
func (c *Client) handleConnectionLost(err error) {
	c.setState(StateLostConnection)

	c.callbackMu.RLock()
	callback := c.onConnectionLost
	c.callbackMu.RUnlock()
	if callback != nil {
		callback(err)
	}
}

// restoreSubscriptions re-subscribes to all tracked topics after reconnect.
// It reports whether at least one subscription is tracked and every one was
// acknowledged.
func (c *Client) restoreSubscriptions() bool {
	c.subMu.RLock()
	subs := make([]subscription, 0, len(c.subscriptions))
	for _, sub := range c.subscriptions {
		subs = append(subs, sub)
	}
	c.subMu.RUnlock()

	if len(subs) == 0 {
		return false
	}

	ok := true
	for _, sub := range subs {
		if err := waitToken(c.client.Subscribe(sub.topic, sub.qos, c.wrapHandler(sub.handler)), ErrSubscribeFailed); err != nil {
			ok = false
			if logger := c.getLogger(); logger != nil {
				logger.Error("MQTT resubscribe failed", "topic", sub.topic, "error", err)
			}
		}
	}
	return ok
}

// publishPresence publishes a retained status document when a presence
// topic is configured. Failures are ignored; the will covers crashes.
func (c *Client) publishPresence(status string) {
	c.callbackMu.RLock()
	topic := c.presenceTopic
	c.callbackMu.RUnlock()
	if topic == "" {
		return
	}

	token := c.client.Publish(topic, 1, true, buildPresencePayload(c.cfg.Broker.ClientID, status))
	token.WaitTimeout(defaultPublishTimeout)
}

// Close gracefully disconnects from the broker.
//
// It publishes an explicit offline presence document (distinct from the
// will, which the broker only sends on ungraceful loss), then disconnects
// with a quiesce period for in-flight messages.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}

	if c.IsConnected() {
		c.publishPresence("offline")
	}

	c.client.Disconnect(defaultDisconnectQuiesce)
	c.setState(StateDisconnected)

	return nil
}

// HealthCheck verifies the session is connected.
func (c *Client) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("mqtt health check: %w", ctx.Err())
	default:
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}

	return nil
}

// IsConnected reports whether the session is up.
func (c *Client) IsConnected() bool {
	if c.client == nil {
		return false
	}
	switch c.State() {
	case StateConnected, StateSubscribed:
		return c.client.IsConnected()
	default:
		return false
	}
}

// SetOnConnect sets a callback invoked after every (re)connection, once
// tracked subscriptions have been re-issued.
func (c *Client) SetOnConnect(callback func()) {
	c.callbackMu.Lock()
	c.onConnect = callback
	c.callbackMu.Unlock()
}

// SetOnConnectionLost sets a callback invoked when the transport drops
// unexpectedly. The error describes the cause.
func (c *Client) SetOnConnectionLost(callback func(err error)) {
	c.callbackMu.Lock()
	c.onConnectionLost = callback
	c.callbackMu.Unlock()
}

// SetPresenceTopic enables the retained online/offline document on topic.
// It is published on every (re)connection and on Close.
func (c *Client) SetPresenceTopic(topic string) {
	c.callbackMu.Lock()
	c.presenceTopic = topic
	c.callbackMu.Unlock()
}

// SetLogger sets a logger for handler errors, panics and reconnect events.
func (c *Client) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

// getLogger returns the current logger (may be nil).
func (c *Client) getLogger() Logger {
	c.loggerMu.RLock()
	defer c.loggerMu.RUnlock()
	return c.logger
}

// wrapHandler wraps a MessageHandler with panic recovery and optional logging.
func (c *Client) wrapHandler(handler MessageHandler) pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, msg pahomqtt.Message) {
		defer func() {
			if r := recover(); r != nil {
				if logger := c.getLogger(); logger != nil {
					logger.Error("MQTT handler panic recovered",
						"topic", msg.Topic(),
						"panic", r,
					)
				}
			}
		}()

		if err := handler(msg.Topic(), msg.Payload()); err != nil {
			if logger := c.getLogger(); logger != nil {
				logger.Warn("MQTT handler returned error",
					"topic", msg.Topic(),
					"error", err,
				)
			}
		}
	}
}

// waitToken waits for a paho token with the publish timeout and wraps any
// failure in kind.
func waitToken(token pahomqtt.Token, kind error) error {
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: %w after %v", kind, ErrTimeout, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", kind, err)
	}
	return nil
}
