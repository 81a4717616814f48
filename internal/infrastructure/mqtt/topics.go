package mqtt

import "fmt"

// TopicPrefix is the root of every farm topic.
const TopicPrefix = "farm"

// Topics provides builders for the node's MQTT topics.
//
//	topics := mqtt.Topics{}
//	topics.Control("zone-A", "led-1") // "farm/control/zone-A/led-1"
//	topics.Telemetry("zone-A")        // "farm/data/zone-A"
type Topics struct{}

// Control returns the command topic for one actuator.
//
// Example: farm/control/zone-A/led-1
func (Topics) Control(zone, actuatorID string) string {
	return fmt.Sprintf("%s/control/%s/%s", TopicPrefix, zone, actuatorID)
}

// AllControl returns a wildcard matching every control topic in a zone.
//
// Example: farm/control/zone-A/+
func (Topics) AllControl(zone string) string {
	return fmt.Sprintf("%s/control/%s/+", TopicPrefix, zone)
}

// Telemetry returns the per-zone telemetry topic.
//
// Example: farm/data/zone-A
func (Topics) Telemetry(zone string) string {
	return fmt.Sprintf("%s/data/%s", TopicPrefix, zone)
}

// Presence returns the retained online/offline topic for a node.
//
// Example: farm/status/zone-A/farmnode-1
func (Topics) Presence(zone, nodeID string) string {
	return fmt.Sprintf("%s/status/%s/%s", TopicPrefix, zone, nodeID)
}
