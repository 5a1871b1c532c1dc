package ffmpegsession

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/user/h264session/pkg/adapters/scaler"
	"github.com/user/h264session/pkg/avc"
	"github.com/user/h264session/pkg/ports"
	"github.com/user/h264session/pkg/settings"
)

// Session is one ffmpeg process. Properties are staged until Prepare starts
// the process; libx264 cannot be reconfigured afterwards.
type Session struct {
	spec ports.SessionSpec
	path string
	log  ports.Logger
	pool *scaler.Pool

	mu          sync.Mutex
	cfg         encodeConfig
	scalingMode settings.ScalingMode
	prepared    bool
	flushing    bool
	cmd         *exec.Cmd
	stderr      bytes.Buffer
	work        chan job
	timings     []timing
	readerDone  chan struct{}
	closed      chan struct{}
	closeOnce   sync.Once
}

type job struct {
	frame *image.RGBA
	timing
}

type timing struct {
	pts      time.Duration
	duration time.Duration
}

var supported = []ports.PropertyKey{
	ports.PropertyRealTime,
	ports.PropertyAllowFrameReordering,
	ports.PropertyProfileLevel,
	ports.PropertyH264EntropyMode,
	ports.PropertyScalingMode,
	ports.PropertyMaxKeyFrameInterval,
	ports.PropertyMaxKeyFrameIntervalDuration,
	ports.PropertyAverageBitRate,
	ports.PropertyExpectedFrameRate,
	ports.PropertyDataRateLimits,
}

func (s *Session) ID() ports.SessionID {
	return s.spec.ID
}

func (s *Session) SupportedProperties() []ports.PropertyKey {
	return supported
}

func (s *Session) SetProperty(key ports.PropertyKey, value any) ports.Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.prepared {
		return ports.StatusPropertyNotSupported
	}

	switch key {
	case ports.PropertyRealTime:
		v, ok := value.(bool)
		if !ok {
			return ports.StatusParameter
		}
		s.cfg.realTime = v
	case ports.PropertyAllowFrameReordering:
		v, ok := value.(bool)
		if !ok {
			return ports.StatusParameter
		}
		// B-frames would break the one-in one-out timing queue.
		if v {
			return ports.StatusPropertyNotSupported
		}
	case ports.PropertyProfileLevel:
		v, ok := value.(string)
		if !ok {
			return ports.StatusParameter
		}
		s.cfg.profileLevel = v
	case ports.PropertyH264EntropyMode:
		v, ok := value.(string)
		if !ok {
			return ports.StatusParameter
		}
		s.cfg.entropy = v
	case ports.PropertyScalingMode:
		v, ok := value.(string)
		if !ok {
			return ports.StatusParameter
		}
		s.scalingMode = settings.ScalingMode(v)
	case ports.PropertyMaxKeyFrameInterval:
		v, ok := value.(int)
		if !ok || v < 0 {
			return ports.StatusParameter
		}
		s.cfg.keyInterval = v
	case ports.PropertyMaxKeyFrameIntervalDuration:
		v, ok := value.(float64)
		if !ok || v < 0 {
			return ports.StatusParameter
		}
		s.cfg.keyDuration = v
	case ports.PropertyAverageBitRate:
		v, ok := value.(int)
		if !ok || v <= 0 {
			return ports.StatusParameter
		}
		s.cfg.bitrate = v
	case ports.PropertyExpectedFrameRate:
		v, ok := value.(float64)
		if !ok || v <= 0 {
			return ports.StatusParameter
		}
		s.cfg.frameRate = v
	case ports.PropertyDataRateLimits:
		v, ok := value.([]float64)
		if !ok || len(v) != 2 {
			return ports.StatusParameter
		}
		s.cfg.limits = v
	default:
		return ports.StatusPropertyNotSupported
	}
	return ports.StatusOK
}

func (s *Session) Prepare() ports.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.prepared {
		return ports.StatusOK
	}

	args := buildArgs(s.cfg)
	cmd := exec.Command(s.path, args...)
	cmd.Stderr = &s.stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		s.log.Error("Failed to get stdin pipe: %v", err)
		return ports.StatusAllocationFailed
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		s.log.Error("Failed to get stdout pipe: %v", err)
		return ports.StatusAllocationFailed
	}
	if err := cmd.Start(); err != nil {
		s.log.Error("Failed to start ffmpeg: %v", err)
		return ports.StatusCouldNotFindEncoder
	}
	s.log.Debug("Started ffmpeg: %v", args)

	s.cmd = cmd
	s.prepared = true
	s.work = make(chan job, queueSize)
	s.readerDone = make(chan struct{})
	go s.writer(stdin, s.work)
	go s.reader(stdout, s.readerDone)
	return ports.StatusOK
}

// EncodeFrame queues a frame for ffmpeg. ForceKeyFrame cannot be honored by
// a running libx264 process; key frames follow the configured GOP length.
func (s *Session) EncodeFrame(frame ports.FrameSubmission) (ports.Status, ports.EncodeInfoFlags) {
	if frame.Image == nil {
		return ports.StatusParameter, 0
	}
	select {
	case <-s.closed:
		return ports.StatusInvalidSession, 0
	default:
	}

	s.mu.Lock()
	if !s.prepared || s.flushing {
		s.mu.Unlock()
		return ports.StatusInvalidSession, 0
	}
	mode := s.scalingMode
	s.mu.Unlock()

	j := job{
		frame:  s.pool.ScaleInto(frame.Image, mode),
		timing: timing{pts: frame.PTS, duration: frame.Duration},
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flushing {
		s.pool.Put(j.frame)
		return ports.StatusInvalidSession, 0
	}
	select {
	case s.work <- j:
		return ports.StatusOK, ports.InfoAsynchronous
	default:
		s.pool.Put(j.frame)
		return ports.StatusOK, ports.InfoFrameDropped
	}
}

// writer feeds raw frames to ffmpeg and closes stdin when work is closed.
func (s *Session) writer(stdin io.WriteCloser, work <-chan job) {
	defer stdin.Close()
	for j := range work {
		s.mu.Lock()
		s.timings = append(s.timings, j.timing)
		s.mu.Unlock()

		_, err := stdin.Write(j.frame.Pix)
		s.pool.Put(j.frame)
		if err != nil {
			select {
			case <-s.closed:
			default:
				s.log.Warn("Failed to write frame: %v", err)
				s.emit(ports.EncodedOutput{SessionID: s.spec.ID, Status: ports.StatusEncoderMalfunction})
			}
			for range work {
			}
			return
		}
	}
}

// reader splits ffmpeg output into access units and emits one sample per
// queued timing.
func (s *Session) reader(stdout io.Reader, done chan<- struct{}) {
	defer close(done)

	var splitter avc.AccessUnitSplitter
	buf := make([]byte, 64*1024)
	for {
		n, err := stdout.Read(buf)
		if n > 0 {
			for _, unit := range splitter.Write(buf[:n]) {
				s.emitUnit(unit)
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.log.Debug("ffmpeg output closed: %v", err)
			}
			break
		}
	}
	if unit := splitter.Flush(); len(unit) > 0 {
		s.emitUnit(unit)
	}

	if err := s.cmd.Wait(); err != nil {
		select {
		case <-s.closed:
		default:
			s.log.Warn("ffmpeg exited: %v: %s", err, s.stderr.String())
			s.emit(ports.EncodedOutput{SessionID: s.spec.ID, Status: ports.StatusEncoderMalfunction})
		}
	}
}

func (s *Session) emitUnit(unit []byte) {
	s.mu.Lock()
	var t timing
	if len(s.timings) > 0 {
		t = s.timings[0]
		s.timings = s.timings[1:]
	}
	s.mu.Unlock()

	sample := &ports.CompressedSample{
		Data:     unit,
		PTS:      t.pts,
		DTS:      t.pts,
		Duration: t.duration,
		Keyframe: avc.IsKeyframe(unit),
	}
	if sample.Keyframe {
		if format, err := avc.FormatFromAnnexB(unit); err == nil {
			sample.Format = format
		}
	}
	s.emit(ports.EncodedOutput{
		SessionID: s.spec.ID,
		Status:    ports.StatusOK,
		Flags:     ports.InfoAsynchronous,
		Sample:    sample,
	})
}

func (s *Session) emit(out ports.EncodedOutput) {
	select {
	case s.spec.Output <- out:
	case <-s.closed:
	}
}

// CompleteFrames closes ffmpeg's input and waits until every queued frame
// has come back. The session accepts no frames afterwards.
func (s *Session) CompleteFrames(ctx context.Context) ports.Status {
	s.mu.Lock()
	if !s.prepared {
		s.mu.Unlock()
		return ports.StatusOK
	}
	if !s.flushing {
		s.flushing = true
		close(s.work)
	}
	done := s.readerDone
	s.mu.Unlock()

	select {
	case <-done:
		return ports.StatusOK
	case <-ctx.Done():
		return ports.StatusEncoderMalfunction
	}
}

func (s *Session) Invalidate() {
	s.closeOnce.Do(func() {
		close(s.closed)
	})

	s.mu.Lock()
	if s.prepared && !s.flushing {
		s.flushing = true
		close(s.work)
	}
	cmd := s.cmd
	done := s.readerDone
	s.mu.Unlock()

	if cmd != nil && cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
	if done != nil {
		<-done
	}
}

func (s *Session) String() string {
	return fmt.Sprintf("ffmpeg session %d (%dx%d)", s.spec.ID, s.spec.Width, s.spec.Height)
}
