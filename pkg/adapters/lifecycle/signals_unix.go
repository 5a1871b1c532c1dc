//go:build !windows

package lifecycle

import (
	"os"
	"syscall"

	"github.com/user/h264session/pkg/ports"
)

// DefaultSignals maps SIGUSR1 to a resume and SIGUSR2 to the end of an
// interruption.
func DefaultSignals() map[os.Signal]ports.LifecycleEvent {
	return map[os.Signal]ports.LifecycleEvent{
		syscall.SIGUSR1: ports.EventResume,
		syscall.SIGUSR2: ports.EventInterruptionEnded,
	}
}
