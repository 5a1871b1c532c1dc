package mp4writer

import "errors"

var (
	// ErrNoFormat is returned when a sample arrives before any format.
	ErrNoFormat = errors.New("mp4writer: sample before format")

	// ErrClosed is returned when the writer is used after Close.
	ErrClosed = errors.New("mp4writer: writer closed")
)
