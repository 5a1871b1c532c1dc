package mocks

import (
	"sync"
	"time"

	"github.com/user/h264session/pkg/ports"
)

// DelegateEvent is one recorded delegate call.
type DelegateEvent struct {
	Kind   string // "format", "sample" or "cleared"
	Format ports.FormatDescription
	Sample ports.CompressedSample
}

// Delegate is a mock implementation of ports.Delegate that records calls.
type Delegate struct {
	OnFormatChangedFunc func(format ports.FormatDescription)
	OnSampleFunc        func(sample ports.CompressedSample)
	OnFormatClearedFunc func()

	mu     sync.Mutex
	events []DelegateEvent
}

func (d *Delegate) OnFormatChanged(format ports.FormatDescription) {
	d.mu.Lock()
	d.events = append(d.events, DelegateEvent{Kind: "format", Format: format})
	d.mu.Unlock()
	if d.OnFormatChangedFunc != nil {
		d.OnFormatChangedFunc(format)
	}
}

func (d *Delegate) OnSample(sample ports.CompressedSample) {
	d.mu.Lock()
	d.events = append(d.events, DelegateEvent{Kind: "sample", Sample: sample})
	d.mu.Unlock()
	if d.OnSampleFunc != nil {
		d.OnSampleFunc(sample)
	}
}

func (d *Delegate) OnFormatCleared() {
	d.mu.Lock()
	d.events = append(d.events, DelegateEvent{Kind: "cleared"})
	d.mu.Unlock()
	if d.OnFormatClearedFunc != nil {
		d.OnFormatClearedFunc()
	}
}

// Events returns the recorded calls in order.
func (d *Delegate) Events() []DelegateEvent {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]DelegateEvent(nil), d.events...)
}

// Kinds returns the kinds of the recorded calls in order.
func (d *Delegate) Kinds() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	kinds := make([]string, len(d.events))
	for i, e := range d.events {
		kinds[i] = e.Kind
	}
	return kinds
}

// WaitForEvents waits until at least n calls were recorded.
func (d *Delegate) WaitForEvents(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		d.mu.Lock()
		got := len(d.events)
		d.mu.Unlock()
		if got >= n {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(time.Millisecond)
	}
}

// Ensure Delegate implements ports.Delegate
var _ ports.Delegate = (*Delegate)(nil)
