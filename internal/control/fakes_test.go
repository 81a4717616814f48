package control

import (
	"context"
	"sync"
	"time"

	"github.com/nerrad567/farmnode/internal/actuator"
	"github.com/nerrad567/farmnode/internal/audit"
	"github.com/nerrad567/farmnode/internal/infrastructure/config"
	"github.com/nerrad567/farmnode/internal/infrastructure/influxdb"
	"github.com/nerrad567/farmnode/internal/infrastructure/mqtt"
	"github.com/nerrad567/farmnode/internal/sensor"
)

// ─── Session ────────────────────────────────────────────────────────────────

type published struct {
	topic    string
	payload  string
	qos      byte
	retained bool
}

// fakeSession is an in-memory Session.
type fakeSession struct {
	mu         sync.Mutex
	published  []published
	handlers   map[string]mqtt.MessageHandler
	publishErr error
	subErr     error
	state      mqtt.SessionState

	onConnect func()
	onLost    func(error)
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		handlers: make(map[string]mqtt.MessageHandler),
		state:    mqtt.StateConnected,
	}
}

func (f *fakeSession) Publish(topic string, payload []byte, qos byte, retained bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, published{topic, string(payload), qos, retained})
	return nil
}

func (f *fakeSession) Subscribe(topic string, _ byte, handler mqtt.MessageHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subErr != nil {
		return f.subErr
	}
	f.handlers[topic] = handler
	f.state = mqtt.StateSubscribed
	return nil
}

func (f *fakeSession) SetOnConnect(cb func())             { f.onConnect = cb }
func (f *fakeSession) SetOnConnectionLost(cb func(error)) { f.onLost = cb }

func (f *fakeSession) State() mqtt.SessionState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeSession) setState(s mqtt.SessionState) {
	f.mu.Lock()
	f.state = s
	f.mu.Unlock()
}

// deliver routes an inbound message as the broker would.
func (f *fakeSession) deliver(topic, payload string) bool {
	f.mu.Lock()
	h, ok := f.handlers[topic]
	f.mu.Unlock()
	if !ok {
		return false
	}
	_ = h(topic, []byte(payload))
	return true
}

func (f *fakeSession) messages() []published {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]published(nil), f.published...)
}

// ─── Sensors ────────────────────────────────────────────────────────────────

type fakeSensor struct {
	name    string
	mu      sync.Mutex
	reading sensor.Reading
	reads   int
}

func newFakeSensor(name string, r sensor.Reading) *fakeSensor {
	return &fakeSensor{name: name, reading: r}
}

func (s *fakeSensor) Name() string { return s.name }

func (s *fakeSensor) Read(context.Context) sensor.Reading {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	return s.reading
}

func (s *fakeSensor) set(r sensor.Reading) {
	s.mu.Lock()
	s.reading = r
	s.mu.Unlock()
}

// ─── Actuators ──────────────────────────────────────────────────────────────

type fakeGPIO struct {
	mu     sync.Mutex
	levels map[string]byte
	writes int
}

func newFakeGPIO() *fakeGPIO {
	return &fakeGPIO{levels: make(map[string]byte)}
}

func (g *fakeGPIO) DigitalWrite(pin string, level byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.levels[pin] = level
	g.writes++
	return nil
}

func (g *fakeGPIO) level(pin string) byte {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.levels[pin]
}

func testActuators() []config.ActuatorConfig {
	return []config.ActuatorConfig{
		{ID: "led-1", Device: "LED", Pin: "11", ActiveLow: true},
		{ID: "pump-1", Device: "PUMP", Pin: "13", ActiveLow: false},
	}
}

func newTestBank(gpio *fakeGPIO) *actuator.Bank {
	var relays []*actuator.Relay
	for _, a := range testActuators() {
		relays = append(relays, actuator.NewRelay(actuator.Spec{
			ID: a.ID, Device: a.Device, Pin: a.Pin, ActiveLow: a.ActiveLow,
		}, gpio, nil))
	}
	bank, err := actuator.NewBank(relays...)
	if err != nil {
		panic(err)
	}
	bank.InitSafe()
	return bank
}

func newTestBindings() *Bindings {
	b, err := NewBindings("zone-A", testActuators())
	if err != nil {
		panic(err)
	}
	return b
}

// ─── Recorders ──────────────────────────────────────────────────────────────

type logEntry struct {
	level string
	msg   string
	args  []any
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) record(level, msg string, args []any) {
	l.mu.Lock()
	l.entries = append(l.entries, logEntry{level, msg, args})
	l.mu.Unlock()
}

func (l *recordingLogger) Debug(msg string, args ...any) { l.record("debug", msg, args) }
func (l *recordingLogger) Info(msg string, args ...any)  { l.record("info", msg, args) }
func (l *recordingLogger) Warn(msg string, args ...any)  { l.record("warn", msg, args) }
func (l *recordingLogger) Error(msg string, args ...any) { l.record("error", msg, args) }

func (l *recordingLogger) count(level, msg string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.entries {
		if e.level == level && e.msg == msg {
			n++
		}
	}
	return n
}

type recordingAudit struct {
	mu     sync.Mutex
	events []audit.Event
	err    error
}

func (r *recordingAudit) Record(_ context.Context, ev *audit.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, *ev)
	return nil
}

type fakeMetrics struct {
	mu             sync.Mutex
	publishOK      int
	publishErr     int
	sensorFailures map[string]int
	commands       int
	cycles         int
	lost           int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{sensorFailures: make(map[string]int)}
}

func (m *fakeMetrics) TelemetryPublished(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.publishErr++
		return
	}
	m.publishOK++
}

func (m *fakeMetrics) SensorFailed(s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sensorFailures[s]++
}

func (m *fakeMetrics) CommandApplied(string, string, string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands++
}

func (m *fakeMetrics) CycleObserved(time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cycles++
}

func (m *fakeMetrics) ConnectionLost() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lost++
}

type issued struct {
	actuatorID string
	cmd        Command
}

type recordingIssuer struct {
	mu     sync.Mutex
	issued []issued
	err    error
}

func (r *recordingIssuer) Issue(_ context.Context, actuatorID string, cmd Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.issued = append(r.issued, issued{actuatorID, cmd})
	return nil
}

type fakeMirror struct {
	mu     sync.Mutex
	writes [][]influxdb.Field
	zone   string
	node   string
}

func (m *fakeMirror) WriteTelemetry(zone, node string, fields []influxdb.Field, _ time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.zone, m.node = zone, node
	m.writes = append(m.writes, fields)
}
