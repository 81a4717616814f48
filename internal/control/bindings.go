package control

import (
	"fmt"

	"github.com/nerrad567/farmnode/internal/infrastructure/config"
	"github.com/nerrad567/farmnode/internal/infrastructure/mqtt"
)

// Binding ties one control topic to one actuator.
type Binding struct {
	Topic      string
	ActuatorID string
	Device     string
}

// Bindings is the static topic to actuator map built at startup.
// It is read-only after NewBindings returns.
type Bindings struct {
	byTopic    map[string]Binding
	byActuator map[string]Binding
	order      []Binding
}

// NewBindings builds the control topic of every actuator in zone.
// Duplicate topics and incomplete actuators are configuration errors.
func NewBindings(zone string, actuators []config.ActuatorConfig) (*Bindings, error) {
	topics := mqtt.Topics{}
	b := &Bindings{
		byTopic:    make(map[string]Binding, len(actuators)),
		byActuator: make(map[string]Binding, len(actuators)),
	}

	for _, a := range actuators {
		if a.ID == "" || a.Device == "" {
			return nil, fmt.Errorf("%w: actuator %q needs id and device", ErrInvalidBinding, a.ID)
		}

		binding := Binding{
			Topic:      topics.Control(zone, a.ID),
			ActuatorID: a.ID,
			Device:     a.Device,
		}
		if existing, ok := b.byTopic[binding.Topic]; ok {
			return nil, fmt.Errorf("%w: %s bound to %s and %s",
				ErrDuplicateTopic, binding.Topic, existing.ActuatorID, a.ID)
		}

		b.byTopic[binding.Topic] = binding
		b.byActuator[a.ID] = binding
		b.order = append(b.order, binding)
	}

	return b, nil
}

// Resolve returns the binding for topic.
func (b *Bindings) Resolve(topic string) (Binding, bool) {
	binding, ok := b.byTopic[topic]
	return binding, ok
}

// ForActuator returns the binding for actuator id.
func (b *Bindings) ForActuator(id string) (Binding, bool) {
	binding, ok := b.byActuator[id]
	return binding, ok
}

// All returns every binding in configuration order.
func (b *Bindings) All() []Binding {
	return append([]Binding(nil), b.order...)
}
