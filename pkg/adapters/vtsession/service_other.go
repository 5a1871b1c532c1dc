//go:build !darwin || !cgo

package vtsession

import (
	"fmt"

	"github.com/user/h264session/pkg/ports"
)

// Available reports whether VideoToolbox can be used on this build.
func Available() bool {
	return false
}

func (s *Service) CreateSession(spec ports.SessionSpec) (ports.Session, error) {
	return nil, fmt.Errorf("%w: %w", &ports.StatusError{Op: "videotoolbox: create session", Status: ports.StatusCouldNotFindEncoder}, ErrPlatformNotSupported)
}
