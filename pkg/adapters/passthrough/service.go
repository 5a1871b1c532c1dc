// Package passthrough provides a compression service that needs no codec.
// It emits well-formed Annex-B access units whose slices carry a digest of the
// scaled frame instead of coded macroblocks, sized after the configured
// bitrate. It backs tests and serves as the last-resort backend.
package passthrough

import (
	"context"
	"encoding/binary"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/user/h264session/pkg/adapters/scaler"
	"github.com/user/h264session/pkg/avc"
	"github.com/user/h264session/pkg/ports"
	"github.com/user/h264session/pkg/settings"
)

// Name is the backend name.
const Name = "passthrough"

const queueSize = 8

// Service creates passthrough sessions.
type Service struct{}

// New creates a passthrough service.
func New() *Service {
	return &Service{}
}

func (s *Service) Name() string {
	return Name
}

func (s *Service) CreateSession(spec ports.SessionSpec) (ports.Session, error) {
	if spec.Output == nil {
		return nil, ErrNoOutput
	}
	sps, err := avc.BuildSPS(spec.Width, spec.Height, avc.LevelDefault)
	if err != nil {
		return nil, &ports.StatusError{Op: "passthrough: create session", Status: ports.StatusParameter}
	}
	return &Session{
		spec:        spec,
		sps:         sps,
		pps:         avc.BuildPPS(),
		bitrate:     settings.DefaultBitrate,
		frameRate:   settings.DefaultExpectedFrameRate,
		scalingMode: settings.DefaultScalingMode,
		pool: scaler.NewPool(settings.PoolAttributes{
			Width:                spec.Width,
			Height:               spec.Height,
			BytesPerRowAlignment: spec.Width * 4,
			MinimumBufferCount:   queueSize,
		}),
		closed: make(chan struct{}),
	}, nil
}

// Session is a passthrough compression session.
type Session struct {
	spec ports.SessionSpec
	sps  []byte
	pps  []byte
	pool *scaler.Pool

	mu           sync.Mutex
	prepared     bool
	bitrate      int
	frameRate    float64
	keyInterval  int
	keyDuration  time.Duration
	limits       []float64
	scalingMode  settings.ScalingMode
	sinceKey     int
	lastKeyPTS   time.Duration
	work         chan job
	inflight     sync.WaitGroup
	closed       chan struct{}
	closeOnce    sync.Once
	workerExited chan struct{}
}

type job struct {
	frame    *image.RGBA
	pts      time.Duration
	duration time.Duration
	keyframe bool
	size     int
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

	switch key {
	case ports.PropertyRealTime, ports.PropertyAllowFrameReordering:
		if _, ok := value.(bool); !ok {
			return ports.StatusParameter
		}
	case ports.PropertyProfileLevel, ports.PropertyH264EntropyMode:
		if _, ok := value.(string); !ok {
			return ports.StatusParameter
		}
		// Generated parameter sets are always Constrained Baseline.
		if s.prepared {
			return ports.StatusPropertyReadOnly
		}
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
		s.keyInterval = v
	case ports.PropertyMaxKeyFrameIntervalDuration:
		v, ok := value.(float64)
		if !ok || v < 0 {
			return ports.StatusParameter
		}
		s.keyDuration = time.Duration(v * float64(time.Second))
	case ports.PropertyAverageBitRate:
		v, ok := value.(int)
		if !ok || v <= 0 {
			return ports.StatusParameter
		}
		s.bitrate = v
	case ports.PropertyExpectedFrameRate:
		v, ok := value.(float64)
		if !ok || v <= 0 {
			return ports.StatusParameter
		}
		s.frameRate = v
	case ports.PropertyDataRateLimits:
		v, ok := value.([]float64)
		if !ok || len(v) != 2 {
			return ports.StatusParameter
		}
		s.limits = v
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
	s.prepared = true
	s.work = make(chan job, queueSize)
	s.workerExited = make(chan struct{})
	go s.worker(s.work, s.workerExited)
	return ports.StatusOK
}

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
	if !s.prepared {
		s.mu.Unlock()
		return ports.StatusInvalidSession, 0
	}
	keyframe := frame.ForceKeyFrame || s.sinceKey == 0 ||
		(s.keyInterval > 0 && s.sinceKey >= s.keyInterval) ||
		(s.keyDuration > 0 && frame.PTS-s.lastKeyPTS >= s.keyDuration)
	j := job{
		pts:      frame.PTS,
		duration: frame.Duration,
		keyframe: keyframe,
		size:     s.frameSize(keyframe),
	}
	mode := s.scalingMode
	s.mu.Unlock()

	j.frame = s.pool.ScaleInto(frame.Image, mode)

	s.inflight.Add(1)
	select {
	case s.work <- j:
	default:
		s.inflight.Done()
		s.pool.Put(j.frame)
		return ports.StatusOK, ports.InfoFrameDropped
	}

	s.mu.Lock()
	if keyframe {
		s.sinceKey = 1
		s.lastKeyPTS = frame.PTS
	} else {
		s.sinceKey++
	}
	s.mu.Unlock()
	return ports.StatusOK, ports.InfoAsynchronous
}

// frameSize returns the slice payload size for the current rate settings.
func (s *Session) frameSize(keyframe bool) int {
	size := int(float64(s.bitrate) / 8 / s.frameRate)
	if len(s.limits) == 2 && s.limits[0] > 0 && s.limits[1] > 0 {
		if ceiling := int(s.limits[0] / (s.limits[1] * s.frameRate)); size > ceiling {
			size = ceiling
		}
	}
	if keyframe {
		size *= 3
	}
	if size < 16 {
		size = 16
	}
	return size
}

func (s *Session) worker(work <-chan job, exited chan<- struct{}) {
	defer close(exited)
	for {
		select {
		case <-s.closed:
			return
		case j := <-work:
			out := s.encode(j)
			s.pool.Put(j.frame)
			select {
			case s.spec.Output <- out:
			case <-s.closed:
				s.inflight.Done()
				return
			}
			s.inflight.Done()
		}
	}
}

func (s *Session) encode(j job) ports.EncodedOutput {
	digest := xxhash.Sum64(j.frame.Pix)

	payload := make([]byte, j.size)
	var seed [8]byte
	binary.BigEndian.PutUint64(seed[:], digest)
	copy(payload, seed[:])
	for i := 8; i < len(payload); i += 8 {
		binary.BigEndian.PutUint64(seed[:], xxhash.Sum64(seed[:]))
		copy(payload[i:], seed[:])
	}

	nalus := [][]byte{avc.AUD(j.keyframe)}
	if j.keyframe {
		nalus = append(nalus, s.sps, s.pps)
	}
	nalus = append(nalus, avc.OpaqueSlice(j.keyframe, payload))

	return ports.EncodedOutput{
		SessionID: s.spec.ID,
		Status:    ports.StatusOK,
		Flags:     ports.InfoAsynchronous,
		Sample: &ports.CompressedSample{
			Data:     avc.JoinAnnexB(nalus...),
			PTS:      j.pts,
			DTS:      j.pts,
			Duration: j.duration,
			Keyframe: j.keyframe,
		},
	}
}

func (s *Session) CompleteFrames(ctx context.Context) ports.Status {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
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
	exited := s.workerExited
	s.mu.Unlock()
	if exited != nil {
		<-exited
	}
}

func (s *Session) String() string {
	return fmt.Sprintf("passthrough session %d (%dx%d)", s.spec.ID, s.spec.Width, s.spec.Height)
}

// Ensure Service implements ports.CompressionService
var _ ports.CompressionService = (*Service)(nil)
