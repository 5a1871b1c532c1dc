// Package lifecycle delivers host lifecycle events to session managers.
package lifecycle

import (
	"context"
	"os"
	"os/signal"
	"sync"

	"github.com/user/h264session/pkg/ports"
)

// Broadcaster fans lifecycle events out to subscribers.
type Broadcaster struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(ports.LifecycleEvent)
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]func(ports.LifecycleEvent))}
}

func (b *Broadcaster) Subscribe(fn func(ports.LifecycleEvent)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// Publish calls every subscriber with e. Subscribers run outside the lock,
// so they may unsubscribe from within the callback.
func (b *Broadcaster) Publish(e ports.LifecycleEvent) {
	b.mu.Lock()
	fns := make([]func(ports.LifecycleEvent), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}

// Subscribers returns the number of active subscriptions.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// RelaySignals publishes an event for each received OS signal listed in
// mapping until ctx is done.
func (b *Broadcaster) RelaySignals(ctx context.Context, mapping map[os.Signal]ports.LifecycleEvent) {
	if len(mapping) == 0 {
		return
	}
	sigs := make([]os.Signal, 0, len(mapping))
	for s := range mapping {
		sigs = append(sigs, s)
	}

	ch := make(chan os.Signal, 4)
	signal.Notify(ch, sigs...)
	go func() {
		defer signal.Stop(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case s := <-ch:
				if e, ok := mapping[s]; ok {
					b.Publish(e)
				}
			}
		}
	}()
}

// Ensure Broadcaster implements ports.LifecycleNotifier
var _ ports.LifecycleNotifier = (*Broadcaster)(nil)
