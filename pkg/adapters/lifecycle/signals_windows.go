//go:build windows

package lifecycle

import (
	"os"

	"github.com/user/h264session/pkg/ports"
)

// DefaultSignals is empty on Windows, which has no user signals.
func DefaultSignals() map[os.Signal]ports.LifecycleEvent {
	return nil
}
