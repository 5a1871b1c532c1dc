package session

// Result classifies the outcome of a frame submission.
type Result int

const (
	// ResultSubmitted means the frame reached the session.
	ResultSubmitted Result = iota
	// ResultNotRunning means the manager is stopped; the frame is not counted.
	ResultNotRunning
	// ResultLocked means the manager is suspended; the frame is counted and dropped.
	ResultLocked
	// ResultSessionUnavailable means no session could be created.
	ResultSessionUnavailable
	// ResultEncodeFailed means the session rejected the frame.
	ResultEncodeFailed
	// ResultFrameDropped means the session accepted the frame but dropped it.
	ResultFrameDropped
)

// String returns the result name.
func (r Result) String() string {
	switch r {
	case ResultSubmitted:
		return "submitted"
	case ResultNotRunning:
		return "not running"
	case ResultLocked:
		return "locked"
	case ResultSessionUnavailable:
		return "session unavailable"
	case ResultEncodeFailed:
		return "encode failed"
	case ResultFrameDropped:
		return "frame dropped"
	default:
		return "unknown"
	}
}

// State is the session state of a Manager.
type State int

const (
	// StateUninitialized means no session exists.
	StateUninitialized State = iota
	// StateReady means a session exists and accepts frames.
	StateReady
	// StateInvalidated means the session will be rebuilt on the next frame.
	StateInvalidated
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateInvalidated:
		return "invalidated"
	default:
		return "unknown"
	}
}
