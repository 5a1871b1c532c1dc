// Package session manages the lifecycle of a compression session: lazy
// creation, reconfiguration on settings changes, frame submission and the
// delivery of compressed output to a delegate.
package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/user/h264session/pkg/avc"
	"github.com/user/h264session/pkg/ports"
	"github.com/user/h264session/pkg/settings"
)

// Manager owns at most one compression session and feeds it frames.
//
// Start, Stop, UpdateSetting, ApplySettings and SubmitFrame are serialized by
// an internal mutex. Compressed output arrives on a channel owned by the
// manager and is delivered to the delegate from a single goroutine.
type Manager struct {
	service  ports.CompressionService
	notifier ports.LifecycleNotifier
	log      ports.Logger
	metrics  ports.Metrics
	opts     Options

	mu          sync.Mutex
	running     bool
	settings    settings.EncoderSettings
	session     ports.Session
	frameCount  int64
	lastFrame   image.Image
	lastStatus  ports.Status
	nextID      ports.SessionID
	unsubscribe func()
	quit        chan struct{}
	done        chan struct{}

	locked     atomic.Int32
	invalidate atomic.Bool

	// Outputs from sessions with an ID below minLive are discarded.
	minLive atomic.Uint64
	outputs chan ports.EncodedOutput

	outMu    sync.Mutex
	delegate ports.Delegate
	format   *ports.FormatDescription
}

// New creates a stopped manager. notifier may be nil.
func New(service ports.CompressionService, notifier ports.LifecycleNotifier, log ports.Logger, opts Options) *Manager {
	opts = opts.withDefaults()
	return &Manager{
		service:  service,
		notifier: notifier,
		log:      log.WithComponent("session"),
		metrics:  opts.Metrics,
		opts:     opts,
		settings: opts.Settings,
		outputs:  make(chan ports.EncodedOutput, opts.OutputBuffer),
	}
}

// SetDelegate sets the receiver of compressed output. Delegate methods run on
// the output goroutine and must not call Stop.
func (m *Manager) SetDelegate(d ports.Delegate) {
	m.outMu.Lock()
	defer m.outMu.Unlock()
	m.delegate = d
}

// Start begins accepting frames. It is a no-op when already running.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}
	m.running = true
	m.frameCount = 0
	m.quit = make(chan struct{})
	m.done = make(chan struct{})
	go m.drain(m.quit, m.done)

	if m.notifier != nil {
		m.unsubscribe = m.notifier.Subscribe(m.onLifecycle)
	}
	m.log.Debug("Session manager started (%s backend)", m.service.Name())
}

// Stop flushes and releases the session, discards pending output and resets
// the frame counter. It is safe to call when stopped or suspended.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	m.minLive.Store(uint64(m.nextID) + 1)
	m.destroySessionLocked("stop")
	m.invalidate.Store(false)
	m.lastFrame = nil
	m.frameCount = 0
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
	quit, done := m.quit, m.done
	m.quit, m.done = nil, nil
	m.mu.Unlock()

	close(quit)
	<-done

	m.outMu.Lock()
	hadFormat := m.format != nil
	m.format = nil
	d := m.delegate
	m.outMu.Unlock()
	if hadFormat && d != nil {
		d.OnFormatCleared()
	}
	m.log.Debug("Session manager stopped")
}

// Suspend makes SubmitFrame drop frames until a matching Resume.
// Calls nest.
func (m *Manager) Suspend() {
	m.locked.Add(1)
}

// Resume undoes one Suspend.
func (m *Manager) Resume() {
	for {
		n := m.locked.Load()
		if n <= 0 {
			return
		}
		if m.locked.CompareAndSwap(n, n-1) {
			return
		}
	}
}

// Invalidate forces a new session on the next frame.
func (m *Manager) Invalidate() {
	m.invalidate.Store(true)
}

// UpdateSetting changes one setting by name. Rebuild-class changes take effect
// on the next frame; live-class changes are applied to the current session
// immediately. Session failures are recorded in LastStatus; only an unknown
// name or an invalid value returns an error.
func (m *Manager) UpdateSetting(name string, value any) error {
	n, ok := settings.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %q", settings.ErrUnknownSetting, name)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.settings
	if err := next.Set(n, value); err != nil {
		return err
	}
	return m.applyLocked(next)
}

// ApplySettings replaces all settings at once.
func (m *Manager) ApplySettings(next settings.EncoderSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.applyLocked(next)
}

func (m *Manager) applyLocked(next settings.EncoderSettings) error {
	if err := next.Validate(); err != nil {
		return err
	}
	plan := settings.Diff(m.settings, next)
	m.settings = next

	if plan.Rebuild {
		m.invalidate.Store(true)
		m.log.Debug("Settings %v require a new session", plan.RebuildCauses)
		return nil
	}
	if m.session == nil || len(plan.Live) == 0 {
		return nil
	}

	// m.mu keeps SubmitFrame out while properties change; the suspend
	// depth belongs to callers alone.
	for _, u := range plan.Live {
		st := m.session.SetProperty(u.Key, u.Value)
		if !st.OK() {
			m.propertyFailedLocked(u.Key, st)
			continue
		}
		m.log.Debug("Applied %s = %v to session %d", u.Key, u.Value, m.session.ID())
	}
	return nil
}

// SubmitFrame hands a frame to the session, creating one if needed.
// Under TimestampSynthetic pts and duration are ignored.
func (m *Manager) SubmitFrame(img image.Image, pts, duration time.Duration) Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return ResultNotRunning
	}
	if m.locked.Load() != 0 {
		m.frameCount++
		m.metrics.FrameDropped("locked")
		return ResultLocked
	}

	if m.invalidate.Swap(false) {
		m.destroySessionLocked("invalidated")
	}
	if m.session == nil && !m.createSessionLocked() {
		m.frameCount++
		m.metrics.FrameDropped("no session")
		return ResultSessionUnavailable
	}

	frame := img
	if m.settings.Muted && m.opts.RepeatLastFrameWhenMuted && m.lastFrame != nil {
		frame = m.lastFrame
	}
	sub := ports.FrameSubmission{
		Image:         frame,
		ForceKeyFrame: m.opts.KeyFrameEvery > 0 && m.frameCount%int64(m.opts.KeyFrameEvery) == 0,
	}
	sub.PTS, sub.Duration = m.timestamp(pts, duration)

	st, flags := m.session.EncodeFrame(sub)
	index := m.frameCount
	m.frameCount++

	if !st.OK() {
		m.lastStatus = st
		m.log.Warn("Failed to encode frame %d: %s", index, st)
		m.metrics.FrameDropped("encode failed")
		if st == ports.StatusInvalidSession {
			m.invalidate.Store(true)
		}
		return ResultEncodeFailed
	}

	result := ResultSubmitted
	if flags.Has(ports.InfoFrameDropped) {
		m.log.Debug("Frame %d dropped by encoder", index)
		m.metrics.FrameDropped("dropped by encoder")
		result = ResultFrameDropped
	} else {
		m.metrics.FrameSubmitted(sub.ForceKeyFrame)
	}

	if !m.settings.Muted {
		m.lastFrame = img
	}
	return result
}

func (m *Manager) timestamp(pts, duration time.Duration) (time.Duration, time.Duration) {
	if m.opts.Timestamps == TimestampCaller {
		if duration <= 0 {
			duration = m.opts.FrameDuration
		}
		return pts, duration
	}
	return time.Duration(m.frameCount) * m.opts.FrameDuration, m.opts.FrameDuration
}

func (m *Manager) createSessionLocked() bool {
	m.nextID++
	s := m.settings
	spec := ports.SessionSpec{
		ID:             m.nextID,
		Codec:          avc.CodecAVC1,
		Width:          s.Width,
		Height:         s.Height,
		Source:         s.SourceBufferAttributes(),
		PreferHardware: s.EnabledHardwareEncoder,
		Output:         m.outputs,
	}

	sess, err := m.service.CreateSession(spec)
	if err != nil {
		m.lastStatus = statusOf(err)
		m.log.Warn("Failed to create compression session: %v", err)
		m.metrics.SessionCreateFailed(m.service.Name())
		return false
	}

	for _, p := range s.SessionProperties() {
		if st := sess.SetProperty(p.Key, p.Value); !st.OK() {
			m.propertyFailedLocked(p.Key, st)
		}
	}
	if st := sess.Prepare(); !st.OK() {
		m.lastStatus = st
		m.log.Warn("Failed to prepare compression session: %s", st)
		m.metrics.SessionCreateFailed(m.service.Name())
		sess.Invalidate()
		return false
	}

	m.session = sess
	m.metrics.SessionCreated(m.service.Name())
	m.log.Debug("Created session %d: %dx%d %s, %d bps", spec.ID, s.Width, s.Height, s.ProfileLevel, s.Bitrate)
	m.log.Debug("Session %d supports %v", spec.ID, sortedKeys(sess.SupportedProperties()))
	return true
}

// destroySessionLocked flushes pending frames within the flush timeout and
// releases the session.
func (m *Manager) destroySessionLocked(reason string) {
	if m.session == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), m.opts.FlushTimeout)
	defer cancel()

	if st := m.session.CompleteFrames(ctx); !st.OK() {
		m.lastStatus = st
		m.log.Warn("Failed to flush session %d: %s", m.session.ID(), st)
	}
	m.session.Invalidate()
	m.log.Debug("Session %d released (%s)", m.session.ID(), reason)
	m.metrics.SessionInvalidated(reason)
	m.session = nil
}

func (m *Manager) propertyFailedLocked(key ports.PropertyKey, st ports.Status) {
	m.lastStatus = st
	m.metrics.PropertyFailed(key)
	m.log.Debug("Failed to set %s: %s", key, st)
}

func (m *Manager) onLifecycle(ev ports.LifecycleEvent) {
	switch ev {
	case ports.EventResume, ports.EventInterruptionEnded:
		m.invalidate.Store(true)
		m.log.Debug("Lifecycle event %s, session will be rebuilt", ev)
	}
}

func (m *Manager) drain(quit <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-quit:
			return
		case out := <-m.outputs:
			m.handleOutput(out)
		}
	}
}

// handleOutput delivers one completed frame. A format change is delivered
// before the sample that carries it.
func (m *Manager) handleOutput(out ports.EncodedOutput) {
	if uint64(out.SessionID) < m.minLive.Load() {
		return
	}
	if !out.Status.OK() {
		m.log.Warn("Compression failed in session %d: %s", out.SessionID, out.Status)
		m.metrics.FrameDropped("compression failed")
		return
	}
	if out.Sample == nil {
		if out.Flags.Has(ports.InfoFrameDropped) {
			m.log.Debug("Frame dropped by encoder")
			m.metrics.FrameDropped("dropped by encoder")
			return
		}
		m.log.Warn("Session %d completed a frame without a sample", out.SessionID)
		return
	}

	sample := *out.Sample
	format := sample.Format
	if format == nil {
		f, err := avc.FormatFromAnnexB(sample.Data)
		switch {
		case err == nil:
			format = f
		case !errors.Is(err, avc.ErrNoParameterSets):
			m.log.Debug("Ignoring format of session %d: %v", out.SessionID, err)
		}
	}

	m.outMu.Lock()
	changed := format != nil && !format.Equal(m.format)
	if changed {
		m.format = format.Clone()
	}
	current := m.format
	d := m.delegate
	m.outMu.Unlock()

	if changed {
		m.log.Debug("Format changed: %s %dx%d", current.CodecString(), current.Width, current.Height)
		m.metrics.FormatChanged()
		if d != nil {
			d.OnFormatChanged(*current)
		}
	}
	sample.Format = current
	m.metrics.SampleEmitted(len(sample.Data), sample.Keyframe)
	if d != nil {
		d.OnSample(sample)
	}
}

// Running reports whether the manager accepts frames.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Locked returns the suspend depth.
func (m *Manager) Locked() int {
	return int(m.locked.Load())
}

// FrameCount returns the number of frames counted since Start.
func (m *Manager) FrameCount() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frameCount
}

// LastStatus returns the most recent failure status, or StatusOK.
func (m *Manager) LastStatus() ports.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastStatus
}

// SessionID returns the ID of the current session, or zero.
func (m *Manager) SessionID() ports.SessionID {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return 0
	}
	return m.session.ID()
}

// State returns the session state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case m.session == nil:
		return StateUninitialized
	case m.invalidate.Load():
		return StateInvalidated
	default:
		return StateReady
	}
}

// Settings returns the current settings.
func (m *Manager) Settings() settings.EncoderSettings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings
}

// Format returns the last delivered format, or nil.
func (m *Manager) Format() *ports.FormatDescription {
	m.outMu.Lock()
	defer m.outMu.Unlock()
	return m.format.Clone()
}

// SupportedProperties returns the properties of the current session in
// sorted order, or nil without a session.
func (m *Manager) SupportedProperties() []ports.PropertyKey {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil
	}
	return sortedKeys(m.session.SupportedProperties())
}

func sortedKeys(keys []ports.PropertyKey) []ports.PropertyKey {
	out := append([]ports.PropertyKey(nil), keys...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func statusOf(err error) ports.Status {
	var se *ports.StatusError
	if errors.As(err, &se) {
		return se.Status
	}
	return ports.StatusCouldNotFindEncoder
}
