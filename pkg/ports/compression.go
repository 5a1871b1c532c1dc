// Package ports defines the interfaces between the session manager and the
// platform compression services, sinks, and sources it drives.
package ports

import (
	"context"
	"fmt"
	"image"
	"time"
)

// SessionID identifies a compression session for the lifetime of a process.
// IDs are assigned by the session manager and increase monotonically.
type SessionID uint64

// Status is a platform status code. Values mirror VideoToolbox OSStatus codes
// so native backends can pass them through unchanged.
type Status int32

const (
	StatusOK                   Status = 0
	StatusPropertyNotSupported Status = -12900
	StatusPropertyReadOnly     Status = -12901
	StatusParameter            Status = -12902
	StatusInvalidSession       Status = -12903
	StatusAllocationFailed     Status = -12904
	StatusCouldNotFindEncoder  Status = -12908
	StatusEncoderMalfunction   Status = -12911
)

// String returns a readable name for known codes.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusPropertyNotSupported:
		return "property not supported"
	case StatusPropertyReadOnly:
		return "property read-only"
	case StatusParameter:
		return "parameter error"
	case StatusInvalidSession:
		return "invalid session"
	case StatusAllocationFailed:
		return "allocation failed"
	case StatusCouldNotFindEncoder:
		return "could not find encoder"
	case StatusEncoderMalfunction:
		return "encoder malfunction"
	default:
		return fmt.Sprintf("status %d", int32(s))
	}
}

// OK reports whether the status is StatusOK.
func (s Status) OK() bool {
	return s == StatusOK
}

// EncodeInfoFlags are per-frame flags reported by a session.
type EncodeInfoFlags uint32

const (
	// InfoAsynchronous means the frame is being encoded asynchronously.
	InfoAsynchronous EncodeInfoFlags = 1 << 0
	// InfoFrameDropped means the service dropped the frame.
	InfoFrameDropped EncodeInfoFlags = 1 << 1
)

// Has reports whether all bits of f are set.
func (i EncodeInfoFlags) Has(f EncodeInfoFlags) bool {
	return i&f == f
}

// PropertyKey names a session property.
type PropertyKey string

const (
	PropertyRealTime                    PropertyKey = "RealTime"
	PropertyProfileLevel                PropertyKey = "ProfileLevel"
	PropertyH264EntropyMode             PropertyKey = "H264EntropyMode"
	PropertyScalingMode                 PropertyKey = "PixelTransferProperties.ScalingMode"
	PropertyMaxKeyFrameInterval         PropertyKey = "MaxKeyFrameInterval"
	PropertyMaxKeyFrameIntervalDuration PropertyKey = "MaxKeyFrameIntervalDuration"
	PropertyAverageBitRate              PropertyKey = "AverageBitRate"
	PropertyExpectedFrameRate           PropertyKey = "ExpectedFrameRate"
	PropertyDataRateLimits              PropertyKey = "DataRateLimits"
	PropertyAllowFrameReordering        PropertyKey = "AllowFrameReordering"
)

// PropertyValue pairs a key with its value.
type PropertyValue struct {
	Key   PropertyKey
	Value any
}

// SourceAttributes describes the input buffers a session should expect.
type SourceAttributes struct {
	PixelFormat string
	Width       int
	Height      int
}

// SessionSpec is everything a service needs to create a session.
type SessionSpec struct {
	ID     SessionID
	Codec  string
	Width  int
	Height int

	Source SourceAttributes

	// PreferHardware requests a hardware encoder when one exists.
	PreferHardware bool

	// Output receives every completed frame. Sessions must not block on it
	// forever once they have been invalidated.
	Output chan<- EncodedOutput
}

// FrameSubmission is one frame handed to a session.
type FrameSubmission struct {
	Image         image.Image
	PTS           time.Duration
	Duration      time.Duration
	ForceKeyFrame bool
}

// EncodedOutput is the asynchronous result of one submitted frame.
type EncodedOutput struct {
	SessionID SessionID
	Status    Status
	Flags     EncodeInfoFlags
	Sample    *CompressedSample
}

// CompressionService creates compression sessions.
type CompressionService interface {
	// Name identifies the backend, e.g. "videotoolbox".
	Name() string

	// CreateSession creates a session that is configured through SetProperty
	// and becomes ready after Prepare.
	CreateSession(spec SessionSpec) (Session, error)
}

// Session is an opaque compression session owned by a single manager.
type Session interface {
	ID() SessionID

	// SetProperty applies a property. Failures are reported as a status.
	SetProperty(key PropertyKey, value any) Status

	// SupportedProperties lists the keys the session accepts.
	SupportedProperties() []PropertyKey

	// Prepare marks the session ready to accept frames.
	Prepare() Status

	// EncodeFrame submits a frame. The result arrives on the spec's Output
	// channel.
	EncodeFrame(frame FrameSubmission) (Status, EncodeInfoFlags)

	// CompleteFrames emits every pending frame, or gives up when ctx is done.
	CompleteFrames(ctx context.Context) Status

	// Invalidate releases the session. It is safe to call more than once.
	Invalidate()
}

// StatusError is an error carrying a platform status code.
type StatusError struct {
	Op     string
	Status Status
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Status)
}
