package ffmpegsession

import (
	"fmt"

	"github.com/user/h264session/pkg/adapters/scaler"
	"github.com/user/h264session/pkg/ports"
	"github.com/user/h264session/pkg/settings"
)

// Name is the backend name.
const Name = "ffmpeg"

const queueSize = 8

// Service creates sessions that encode through an ffmpeg subprocess.
type Service struct {
	ffmpegPath string
	log        ports.Logger
}

// New creates an ffmpeg service. An empty path searches FFMPEG_PATH, PATH
// and common install locations.
func New(ffmpegPath string, log ports.Logger) *Service {
	return &Service{
		ffmpegPath: ffmpegPath,
		log:        log.WithComponent("ffmpeg"),
	}
}

func (s *Service) Name() string {
	return Name
}

func (s *Service) CreateSession(spec ports.SessionSpec) (ports.Session, error) {
	if spec.Output == nil {
		return nil, ErrNoOutput
	}
	if spec.Width <= 0 || spec.Height <= 0 || spec.Width%2 != 0 || spec.Height%2 != 0 {
		return nil, &ports.StatusError{Op: "ffmpeg: create session", Status: ports.StatusParameter}
	}
	path, err := FindFFmpeg(s.ffmpegPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", &ports.StatusError{Op: "ffmpeg: create session", Status: ports.StatusCouldNotFindEncoder}, err)
	}

	cfg := defaultConfig(spec.Width, spec.Height)
	return &Session{
		spec:        spec,
		path:        path,
		log:         s.log,
		cfg:         cfg,
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

// Ensure Service implements ports.CompressionService
var _ ports.CompressionService = (*Service)(nil)
