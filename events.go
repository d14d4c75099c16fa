package dockscale

import "time"

// State represents the lifecycle state of a Dockscale instance.
type State int

const (
	// StateStopped means the instance is not running.
	StateStopped State = iota

	// StateStarting means Start() was called and workers are coming up.
	StateStarting

	// StateRunning means the agent loop is sampling and publishing.
	StateRunning

	// StateStopping means Stop() was called and workers are draining.
	StateStopping

	// StateCrashed means the agent exited with an unrecoverable error.
	StateCrashed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StateStarting:
		return "Starting"
	case StateRunning:
		return "Running"
	case StateStopping:
		return "Stopping"
	case StateCrashed:
		return "Crashed"
	default:
		return "Unknown"
	}
}

// StateChangeEvent is emitted when the lifecycle state changes.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// MeasurementEvent is emitted for every completed weight measurement,
// whether or not it is published.
type MeasurementEvent struct {
	Kilograms float64
	TakenAt   time.Time
}

// PublishSuccessEvent is emitted after the store accepted a weight.
type PublishSuccessEvent struct {
	Kilograms float64
	Duration  time.Duration
}

// PublishErrorEvent is emitted after a publish attempt failed. There are
// no retries; the next measurement makes a fresh attempt.
type PublishErrorEvent struct {
	Error     error
	Kilograms float64
}

// VerifyEvent is emitted after an identity check against the store.
// Cached results do not emit events.
type VerifyEvent struct {
	Verified bool
}

// EventHandler receives notifications about dockscale operations.
// Methods are called synchronously from agent goroutines; implementations
// should return quickly. Embed [BaseEventHandler] for no-op defaults.
type EventHandler interface {
	OnStateChange(event StateChangeEvent)
	OnMeasurement(event MeasurementEvent)
	OnPublishSuccess(event PublishSuccessEvent)
	OnPublishError(event PublishErrorEvent)
	OnVerify(event VerifyEvent)
}

// BaseEventHandler provides no-op implementations of all EventHandler
// methods. Embed it to implement only the events you care about.
type BaseEventHandler struct{}

func (BaseEventHandler) OnStateChange(event StateChangeEvent)       {}
func (BaseEventHandler) OnMeasurement(event MeasurementEvent)       {}
func (BaseEventHandler) OnPublishSuccess(event PublishSuccessEvent) {}
func (BaseEventHandler) OnPublishError(event PublishErrorEvent)     {}
func (BaseEventHandler) OnVerify(event VerifyEvent)                 {}
