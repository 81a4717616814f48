//go:build integration

package mqtt

import (
	"net"
	"testing"
	"time"
)

// Integration tests against a real broker at 127.0.0.1:1883.
//
// Run with:
//   go test -tags=integration -v ./internal/infrastructure/mqtt/...

func skipIfNoBroker(t *testing.T) {
	t.Helper()
	conn, err := net.DialTimeout("tcp", "127.0.0.1:1883", 500*time.Millisecond)
	if err != nil {
		t.Skipf("MQTT broker not available: %v", err)
	}
	conn.Close()
}

func TestIntegration_MessageRoundtrip(t *testing.T) {
	skipIfNoBroker(t)

	cfg := testConfig()
	cfg.Broker.ClientID = "farmnode-int-roundtrip"

	client, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	topic := Topics{}.Control("int-test", "led-1")
	received := make(chan string, 1)

	err = client.Subscribe(topic, 1, func(_ string, payload []byte) error {
		received <- string(payload)
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if client.State() != StateSubscribed {
		t.Errorf("State() = %v, want %v", client.State(), StateSubscribed)
	}

	if err := client.PublishString(topic, "LED_ON", 1, false); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case got := <-received:
		if got != "LED_ON" {
			t.Errorf("received %q, want LED_ON", got)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("message not received")
	}
}

func TestIntegration_WillOnUngracefulDisconnect(t *testing.T) {
	skipIfNoBroker(t)

	watcherCfg := testConfig()
	watcherCfg.Broker.ClientID = "farmnode-int-watcher"
	watcherCfg.Will.Topic = ""

	watcher, err := Connect(watcherCfg)
	if err != nil {
		t.Fatalf("Connect(watcher) error = %v", err)
	}
	defer watcher.Close()

	willTopic := "farm/int-test/will"
	wills := make(chan string, 1)
	if err := watcher.Subscribe(willTopic, 1, func(_ string, p []byte) error {
		wills <- string(p)
		return nil
	}); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	nodeCfg := testConfig()
	nodeCfg.Broker.ClientID = "farmnode-int-node"
	nodeCfg.Will.Topic = willTopic
	nodeCfg.KeepAlive = 1

	node, err := Connect(nodeCfg)
	if err != nil {
		t.Fatalf("Connect(node) error = %v", err)
	}

	// Disconnect(0) still sends DISCONNECT, so the will must not fire.
	node.client.Disconnect(0)

	select {
	case got := <-wills:
		t.Errorf("unexpected will %q after clean disconnect", got)
	case <-time.After(2 * time.Second):
	}
}
