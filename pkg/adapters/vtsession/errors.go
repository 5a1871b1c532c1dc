package vtsession

import "errors"

var (
	// ErrPlatformNotSupported is returned where VideoToolbox is unavailable.
	ErrPlatformNotSupported = errors.New("vtsession: VideoToolbox requires macOS with cgo")

	// ErrNoOutput is returned when a session spec has no output channel.
	ErrNoOutput = errors.New("vtsession: session spec has no output channel")
)
