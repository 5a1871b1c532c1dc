package ffmpegsession

import "errors"

var (
	// ErrFFmpegNotFound is returned when ffmpeg cannot be located.
	ErrFFmpegNotFound = errors.New("ffmpegsession: ffmpeg not found")

	// ErrNoOutput is returned when a session spec has no output channel.
	ErrNoOutput = errors.New("ffmpegsession: session spec has no output channel")
)
