package mqtt

import (
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/farmnode/internal/infrastructure/config"
)

// fakeToken is a pahomqtt.Token that completes immediately (or never).
type fakeToken struct {
	err     error
	timeout bool
}

func (t *fakeToken) Wait() bool { return !t.timeout }

func (t *fakeToken) WaitTimeout(time.Duration) bool { return !t.timeout }

func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	if !t.timeout {
		close(ch)
	}
	return ch
}

func (t *fakeToken) Error() error { return t.err }

// fakeMessage is a pahomqtt.Message.
type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 1 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 1 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}

type publishedMessage struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// fakePaho is an in-memory pahomqtt.Client.
type fakePaho struct {
	mu sync.Mutex

	connected    bool
	connectToken *fakeToken

	publishErr     error
	publishTimeout bool
	subscribeErr   error

	published      []publishedMessage
	subscribeCalls []string
	handlers       map[string]pahomqtt.MessageHandler
	disconnects    int
}

func newFakePaho() *fakePaho {
	return &fakePaho{
		connectToken: &fakeToken{},
		handlers:     make(map[string]pahomqtt.MessageHandler),
	}
}

func (f *fakePaho) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakePaho) IsConnectionOpen() bool { return f.IsConnected() }

func (f *fakePaho) Connect() pahomqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.connectToken.err == nil && !f.connectToken.timeout {
		f.connected = true
	}
	return f.connectToken
}

func (f *fakePaho) Disconnect(uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
	f.disconnects++
}

func (f *fakePaho) Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishTimeout {
		return &fakeToken{timeout: true}
	}
	if f.publishErr != nil {
		return &fakeToken{err: f.publishErr}
	}
	var body []byte
	switch p := payload.(type) {
	case []byte:
		body = p
	case string:
		body = []byte(p)
	}
	f.published = append(f.published, publishedMessage{topic: topic, qos: qos, retained: retained, payload: body})
	return &fakeToken{}
}

func (f *fakePaho) Subscribe(topic string, _ byte, callback pahomqtt.MessageHandler) pahomqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribeCalls = append(f.subscribeCalls, topic)
	if f.subscribeErr != nil {
		return &fakeToken{err: f.subscribeErr}
	}
	f.handlers[topic] = callback
	return &fakeToken{}
}

func (f *fakePaho) SubscribeMultiple(map[string]byte, pahomqtt.MessageHandler) pahomqtt.Token {
	return &fakeToken{}
}

func (f *fakePaho) Unsubscribe(...string) pahomqtt.Token { return &fakeToken{} }

func (f *fakePaho) AddRoute(string, pahomqtt.MessageHandler) {}

func (f *fakePaho) OptionsReader() pahomqtt.ClientOptionsReader {
	return pahomqtt.ClientOptionsReader{}
}

// deliver simulates the broker routing a message to a subscribed topic.
func (f *fakePaho) deliver(topic string, payload []byte) bool {
	f.mu.Lock()
	h, ok := f.handlers[topic]
	f.mu.Unlock()
	if !ok {
		return false
	}
	h(f, &fakeMessage{topic: topic, payload: payload})
	return true
}

// drop simulates a transport failure.
func (f *fakePaho) drop() {
	f.mu.Lock()
	f.connected = false
	f.handlers = make(map[string]pahomqtt.MessageHandler)
	f.mu.Unlock()
}

func (f *fakePaho) restore() {
	f.mu.Lock()
	f.connected = true
	f.mu.Unlock()
}

func (f *fakePaho) publishedCopy() []publishedMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]publishedMessage(nil), f.published...)
}

// recordingLogger captures log calls for assertions.
type recordingLogger struct {
	mu      sync.Mutex
	entries []string
}

func (l *recordingLogger) record(level, msg string) {
	l.mu.Lock()
	l.entries = append(l.entries, level+": "+msg)
	l.mu.Unlock()
}

func (l *recordingLogger) Info(msg string, _ ...any)  { l.record("info", msg) }
func (l *recordingLogger) Warn(msg string, _ ...any)  { l.record("warn", msg) }
func (l *recordingLogger) Error(msg string, _ ...any) { l.record("error", msg) }

func (l *recordingLogger) has(entry string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e == entry {
			return true
		}
	}
	return false
}

func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "farmnode-test",
		},
		QoS:          1,
		CleanSession: true,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
		Will: config.MQTTWillConfig{
			Topic:   "client/status",
			Payload: "LWT: Client disconnected",
			QoS:     1,
		},
	}
}

// connectedClient returns a Client over a fake that has completed connect.
func connectedClient(t interface{ Fatalf(string, ...any) }) (*Client, *fakePaho) {
	fake := newFakePaho()
	c := newClient(testConfig(), fake)
	if err := c.connect(); err != nil {
		t.Fatalf("connect() error = %v", err)
	}
	return c, fake
}
