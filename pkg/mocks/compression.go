package mocks

import (
	"context"
	"sync"

	"github.com/user/h264session/pkg/ports"
)

// CompressionService is a mock implementation of ports.CompressionService.
// Unless CreateSessionFunc is set it creates *Session values.
type CompressionService struct {
	NameValue         string
	CreateSessionFunc func(spec ports.SessionSpec) (ports.Session, error)

	// Configure is applied to every session the service creates.
	Configure func(s *Session)

	mu       sync.Mutex
	specs    []ports.SessionSpec
	sessions []*Session
}

func (m *CompressionService) Name() string {
	if m.NameValue != "" {
		return m.NameValue
	}
	return "mock"
}

func (m *CompressionService) CreateSession(spec ports.SessionSpec) (ports.Session, error) {
	m.mu.Lock()
	m.specs = append(m.specs, spec)
	m.mu.Unlock()

	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(spec)
	}

	s := NewSession(spec)
	if m.Configure != nil {
		m.Configure(s)
	}
	m.mu.Lock()
	m.sessions = append(m.sessions, s)
	m.mu.Unlock()
	return s, nil
}

// Specs returns every spec passed to CreateSession.
func (m *CompressionService) Specs() []ports.SessionSpec {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ports.SessionSpec(nil), m.specs...)
}

// Sessions returns the sessions created so far.
func (m *CompressionService) Sessions() []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Session(nil), m.sessions...)
}

// Session is a mock implementation of ports.Session.
//
// By default every encoded frame produces an output immediately, built by
// Emit. With Deferred set, outputs are held until CompleteFrames.
type Session struct {
	Spec ports.SessionSpec

	SetPropertyFunc func(key ports.PropertyKey, value any) ports.Status
	PrepareFunc     func() ports.Status
	EncodeFrameFunc func(frame ports.FrameSubmission) (ports.Status, ports.EncodeInfoFlags)

	// Emit builds the output for a frame. Nil output means none is sent.
	Emit     func(frame ports.FrameSubmission) *ports.EncodedOutput
	Deferred bool

	Supported []ports.PropertyKey

	mu            sync.Mutex
	properties    map[ports.PropertyKey]any
	propertyCalls []ports.PropertyValue
	frames        []ports.FrameSubmission
	pending       []ports.EncodedOutput
	prepared      bool
	completeCalls int
	invalidated   bool
}

// NewSession creates a mock session for spec.
func NewSession(spec ports.SessionSpec) *Session {
	return &Session{
		Spec:       spec,
		properties: make(map[ports.PropertyKey]any),
		Emit: func(frame ports.FrameSubmission) *ports.EncodedOutput {
			return &ports.EncodedOutput{
				Sample: &ports.CompressedSample{
					Data:     []byte{0, 0, 0, 1, 0x65},
					PTS:      frame.PTS,
					DTS:      frame.PTS,
					Duration: frame.Duration,
					Keyframe: frame.ForceKeyFrame,
				},
			}
		},
	}
}

func (s *Session) ID() ports.SessionID {
	return s.Spec.ID
}

func (s *Session) SetProperty(key ports.PropertyKey, value any) ports.Status {
	s.mu.Lock()
	s.propertyCalls = append(s.propertyCalls, ports.PropertyValue{Key: key, Value: value})
	s.mu.Unlock()

	st := ports.StatusOK
	if s.SetPropertyFunc != nil {
		st = s.SetPropertyFunc(key, value)
	}
	if st.OK() {
		s.mu.Lock()
		s.properties[key] = value
		s.mu.Unlock()
	}
	return st
}

func (s *Session) SupportedProperties() []ports.PropertyKey {
	return s.Supported
}

func (s *Session) Prepare() ports.Status {
	if s.PrepareFunc != nil {
		if st := s.PrepareFunc(); !st.OK() {
			return st
		}
	}
	s.mu.Lock()
	s.prepared = true
	s.mu.Unlock()
	return ports.StatusOK
}

func (s *Session) EncodeFrame(frame ports.FrameSubmission) (ports.Status, ports.EncodeInfoFlags) {
	s.mu.Lock()
	s.frames = append(s.frames, frame)
	s.mu.Unlock()

	if s.EncodeFrameFunc != nil {
		st, flags := s.EncodeFrameFunc(frame)
		if !st.OK() || flags.Has(ports.InfoFrameDropped) {
			return st, flags
		}
	}
	if s.Emit == nil {
		return ports.StatusOK, 0
	}
	out := s.Emit(frame)
	if out == nil {
		return ports.StatusOK, 0
	}
	out.SessionID = s.Spec.ID
	if s.Deferred {
		s.mu.Lock()
		s.pending = append(s.pending, *out)
		s.mu.Unlock()
		return ports.StatusOK, ports.InfoAsynchronous
	}
	s.Spec.Output <- *out
	return ports.StatusOK, 0
}

func (s *Session) CompleteFrames(ctx context.Context) ports.Status {
	s.mu.Lock()
	s.completeCalls++
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, out := range pending {
		select {
		case s.Spec.Output <- out:
		case <-ctx.Done():
			return ports.StatusEncoderMalfunction
		}
	}
	return ports.StatusOK
}

func (s *Session) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidated = true
}

// Property returns the last successfully set value of key.
func (s *Session) Property(key ports.PropertyKey) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.properties[key]
	return v, ok
}

// PropertyCalls returns every SetProperty call in order.
func (s *Session) PropertyCalls() []ports.PropertyValue {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.PropertyValue(nil), s.propertyCalls...)
}

// Frames returns every submitted frame.
func (s *Session) Frames() []ports.FrameSubmission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.FrameSubmission(nil), s.frames...)
}

// Prepared reports whether Prepare succeeded.
func (s *Session) Prepared() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prepared
}

// CompleteFramesCalls returns how often CompleteFrames was called.
func (s *Session) CompleteFramesCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completeCalls
}

// Invalidated reports whether Invalidate was called.
func (s *Session) Invalidated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.invalidated
}

// Ensure the mocks implement their ports.
var (
	_ ports.CompressionService = (*CompressionService)(nil)
	_ ports.Session            = (*Session)(nil)
)
