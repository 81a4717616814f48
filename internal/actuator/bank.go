package actuator

import (
	"fmt"
	"sort"
	"sync"
)

// State is a point-in-time view of one relay.
type State struct {
	ID      string `json:"id"`
	Device  string `json:"device"`
	Engaged bool   `json:"engaged"`
	Stale   bool   `json:"stale"`
}

// Bank holds every relay on the node, keyed by id.
type Bank struct {
	relays   map[string]*Relay
	order    []string
	initOnce sync.Once
}

// NewBank creates a bank from relays; ids must be unique.
func NewBank(relays ...*Relay) (*Bank, error) {
	b := &Bank{relays: make(map[string]*Relay, len(relays))}
	for _, r := range relays {
		if _, exists := b.relays[r.id]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateActuator, r.id)
		}
		b.relays[r.id] = r
		b.order = append(b.order, r.id)
	}
	return b, nil
}

// InitSafe drives every relay to disengaged. Only the first call has any
// effect; it must run before subscriptions are made.
func (b *Bank) InitSafe() {
	b.initOnce.Do(func() {
		for _, id := range b.order {
			r := b.relays[id]
			r.Set(false)
			r.logger.Info("relay initialised to safe state", "actuator_id", id, "pin", r.pin)
		}
	})
}

// Get returns the relay with id.
func (b *Bank) Get(id string) (*Relay, error) {
	r, ok := b.relays[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownActuator, id)
	}
	return r, nil
}

// Set drives the relay with id. It reports whether the logical state changed.
func (b *Bank) Set(id string, engaged bool) (bool, error) {
	r, err := b.Get(id)
	if err != nil {
		return false, err
	}
	return r.Set(engaged), nil
}

// IDs returns the relay ids in registration order.
func (b *Bank) IDs() []string {
	return append([]string(nil), b.order...)
}

// MarkStale flags every relay's state as unknown (true) or known (false).
func (b *Bank) MarkStale(stale bool) {
	for _, r := range b.relays {
		r.stale.Store(stale)
	}
}

// Snapshot returns the state of every relay sorted by id.
func (b *Bank) Snapshot() []State {
	out := make([]State, 0, len(b.relays))
	for _, r := range b.relays {
		out = append(out, State{
			ID:      r.id,
			Device:  r.device,
			Engaged: r.Engaged(),
			Stale:   r.Stale(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
