package ports

// LifecycleEvent is an external event that may leave a session unusable.
type LifecycleEvent int

const (
	// EventResume fires when the host returns to the foreground.
	EventResume LifecycleEvent = iota
	// EventInterruptionBegan fires when another client takes the device.
	EventInterruptionBegan
	// EventInterruptionEnded fires when the interruption is over.
	EventInterruptionEnded
)

// String returns the event name.
func (e LifecycleEvent) String() string {
	switch e {
	case EventResume:
		return "resume"
	case EventInterruptionBegan:
		return "interruption-began"
	case EventInterruptionEnded:
		return "interruption-ended"
	default:
		return "unknown"
	}
}

// LifecycleNotifier delivers lifecycle events to subscribers.
type LifecycleNotifier interface {
	// Subscribe registers fn and returns a function that removes it.
	// fn may be called from any goroutine.
	Subscribe(fn func(LifecycleEvent)) (cancel func())
}
