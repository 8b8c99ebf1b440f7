package listener

// State is the connection lifecycle state of the listener. Transitions are
// driven solely by connection outcomes and Start/Stop.
type State int32

const (
	StateStopped State = iota
	StateConnecting
	StateSubscribed
	StateReconnectWaiting
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateConnecting:
		return "connecting"
	case StateSubscribed:
		return "subscribed"
	case StateReconnectWaiting:
		return "reconnect_waiting"
	default:
		return "unknown"
	}
}
