// Package backend selects the compression service for a session manager,
// falling back from the platform encoder to ffmpeg and finally to the
// passthrough service.
package backend

import (
	"errors"
	"fmt"
	"strings"

	"github.com/user/h264session/pkg/adapters/ffmpegsession"
	"github.com/user/h264session/pkg/adapters/passthrough"
	"github.com/user/h264session/pkg/adapters/vtsession"
	"github.com/user/h264session/pkg/ports"
)

// Kind names a compression backend.
type Kind string

const (
	// KindAuto picks the best available backend.
	KindAuto Kind = "auto"
	// KindVideoToolbox is Apple VideoToolbox.
	KindVideoToolbox Kind = Kind(vtsession.Name)
	// KindFFmpeg is libx264 through an ffmpeg subprocess.
	KindFFmpeg Kind = Kind(ffmpegsession.Name)
	// KindPassthrough emits synthetic access units without a codec.
	KindPassthrough Kind = Kind(passthrough.Name)
)

// Kinds lists the selectable backends.
func Kinds() []Kind {
	return []Kind{KindAuto, KindVideoToolbox, KindFFmpeg, KindPassthrough}
}

// ParseKind parses a backend name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if k == "" {
		return KindAuto, nil
	}
	for _, known := range Kinds() {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBackend, s)
}

// Info describes the selected backend.
type Info struct {
	// Backend is the backend in use.
	Backend Kind
	// Requested is the backend originally asked for.
	Requested Kind
	// FallbackUsed indicates that auto selection skipped a preferred backend.
	FallbackUsed bool
}

// Options configures backend selection.
type Options struct {
	// FFmpegPath is an optional custom path to the ffmpeg binary.
	FFmpegPath string
	// AllowPassthrough lets auto selection end at the passthrough backend
	// when no real encoder is available.
	AllowPassthrough bool
	// Logger is used by the services and for fallback warnings.
	Logger ports.Logger
}

var (
	// ErrUnknownBackend is returned for unrecognized backend names.
	ErrUnknownBackend = errors.New("backend: unknown backend")

	// ErrNoEncoderAvailable is returned when no backend can be used.
	ErrNoEncoderAvailable = errors.New("backend: no encoder available")
)

// Select returns the compression service for the requested backend.
//
// The auto selection flow:
//  1. VideoToolbox when built for macOS with cgo
//  2. ffmpeg when the binary can be found
//  3. passthrough when AllowPassthrough is set
func Select(requested Kind, opts Options) (ports.CompressionService, Info, error) {
	info := Info{Requested: requested}

	switch requested {
	case KindVideoToolbox:
		if !vtsession.Available() {
			return nil, info, fmt.Errorf("%w: %w", ErrNoEncoderAvailable, vtsession.ErrPlatformNotSupported)
		}
		info.Backend = KindVideoToolbox
		return vtsession.New(opts.Logger), info, nil
	case KindFFmpeg:
		if _, err := ffmpegsession.FindFFmpeg(opts.FFmpegPath); err != nil {
			return nil, info, fmt.Errorf("%w: %w", ErrNoEncoderAvailable, err)
		}
		info.Backend = KindFFmpeg
		return ffmpegsession.New(opts.FFmpegPath, opts.Logger), info, nil
	case KindPassthrough:
		info.Backend = KindPassthrough
		return passthrough.New(), info, nil
	case KindAuto, "":
		return selectAuto(opts, info)
	default:
		return nil, info, fmt.Errorf("%w: %q", ErrUnknownBackend, requested)
	}
}

func selectAuto(opts Options, info Info) (ports.CompressionService, Info, error) {
	if vtsession.Available() {
		info.Backend = KindVideoToolbox
		return vtsession.New(opts.Logger), info, nil
	}

	if ffmpegsession.IsAvailable(opts.FFmpegPath) {
		info.Backend = KindFFmpeg
		return ffmpegsession.New(opts.FFmpegPath, opts.Logger), info, nil
	}

	if !opts.AllowPassthrough {
		return nil, info, ErrNoEncoderAvailable
	}

	opts.Logger.Warn("No H.264 encoder available, falling back to passthrough")
	info.Backend = KindPassthrough
	info.FallbackUsed = true
	return passthrough.New(), info, nil
}
