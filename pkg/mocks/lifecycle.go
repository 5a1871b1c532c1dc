package mocks

import (
	"sync"

	"github.com/user/h264session/pkg/ports"
)

// LifecycleNotifier is a mock implementation of ports.LifecycleNotifier.
type LifecycleNotifier struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(ports.LifecycleEvent)
}

func (n *LifecycleNotifier) Subscribe(fn func(ports.LifecycleEvent)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.subs == nil {
		n.subs = make(map[int]func(ports.LifecycleEvent))
	}
	id := n.nextID
	n.nextID++
	n.subs[id] = fn
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs, id)
	}
}

// Fire delivers ev to every subscriber.
func (n *LifecycleNotifier) Fire(ev ports.LifecycleEvent) {
	n.mu.Lock()
	fns := make([]func(ports.LifecycleEvent), 0, len(n.subs))
	for _, fn := range n.subs {
		fns = append(fns, fn)
	}
	n.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

// Subscribers returns the number of active subscriptions.
func (n *LifecycleNotifier) Subscribers() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}

// Ensure LifecycleNotifier implements ports.LifecycleNotifier
var _ ports.LifecycleNotifier = (*LifecycleNotifier)(nil)
