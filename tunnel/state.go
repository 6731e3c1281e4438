package tunnel

// State is the connection state of the tunnel session. Exactly one value
// is current at any time and only the Controller mutates it.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateDisconnecting
	StateError
)

var stateNames = [...]string{"disconnected", "connecting", "connected", "disconnecting", "error"}

func (s State) String() string {
	if int(s) < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}
