package mqtt

// SessionState is the lifecycle state of the broker session.
//
//	Disconnected -> Connecting -> Connected -> Subscribed
//	Subscribed/Connected -> LostConnection -> Connecting -> Connected -> ...
type SessionState int

// Session states.
const (
	StateDisconnected SessionState = iota
	StateConnecting
	StateConnected
	StateSubscribed
	StateLostConnection
)

// String returns the lower-case state name used in logs and the status API.
func (s SessionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateSubscribed:
		return "subscribed"
	case StateLostConnection:
		return "lost_connection"
	default:
		return "unknown"
	}
}

// State returns the current session state.
func (c *Client) State() SessionState {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

func (c *Client) setState(s SessionState) {
	c.stateMu.Lock()
	c.state = s
	c.stateMu.Unlock()
}
