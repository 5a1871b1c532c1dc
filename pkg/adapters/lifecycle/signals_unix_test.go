//go:build !windows

package lifecycle

import (
	"context"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/user/h264session/pkg/ports"
)

func TestBroadcaster_RelaySignals(t *testing.T) {
	b := NewBroadcaster()
	events := make(chan ports.LifecycleEvent, 4)
	defer b.Subscribe(func(e ports.LifecycleEvent) { events <- e })()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b.RelaySignals(ctx, DefaultSignals())

	if err := syscall.Kill(os.Getpid(), syscall.SIGUSR2); err != nil {
		t.Fatalf("kill failed: %v", err)
	}

	select {
	case e := <-events:
		if e != ports.EventInterruptionEnded {
			t.Errorf("expected %s, got %s", ports.EventInterruptionEnded, e)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for relayed signal")
	}
}
