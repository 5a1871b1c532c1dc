// Package vtsession provides a compression service backed by Apple
// VideoToolbox. On other platforms every session creation fails with
// StatusCouldNotFindEncoder.
package vtsession

import "github.com/user/h264session/pkg/ports"

// Name is the backend name.
const Name = "videotoolbox"

// Service creates VideoToolbox compression sessions.
type Service struct {
	log ports.Logger
}

// New creates a VideoToolbox service.
func New(log ports.Logger) *Service {
	return &Service{log: log.WithComponent("videotoolbox")}
}

func (s *Service) Name() string {
	return Name
}

// Ensure Service implements ports.CompressionService
var _ ports.CompressionService = (*Service)(nil)
