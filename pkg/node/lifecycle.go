package node

// LifecycleState tracks the process-level session state. Transitions are
// strictly forward; only Serving executes classification and actuation.
type LifecycleState int32

const (
	Initializing LifecycleState = iota
	LinkUp
	SessionOpen
	Serving
	ShuttingDown
	Closed
)

// String returns the state name for logs and the status endpoint.
func (s LifecycleState) String() string {
	switch s {
	case Initializing:
		return "Initializing"
	case LinkUp:
		return "LinkUp"
	case SessionOpen:
		return "SessionOpen"
	case Serving:
		return "Serving"
	case ShuttingDown:
		return "ShuttingDown"
	case Closed:
		return "Closed"
	default:
		return "Unknown"
	}
}
