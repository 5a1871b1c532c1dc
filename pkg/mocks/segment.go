package mocks

import (
	"sync"

	"github.com/user/h264session/pkg/ports"
)

// SegmentStore is an in-memory mock implementation of ports.SegmentStore.
type SegmentStore struct {
	WriteSegmentFunc func(name string, data []byte) error

	mu       sync.Mutex
	segments map[string][]byte
	order    []string
}

// NewSegmentStore creates a new mock SegmentStore.
func NewSegmentStore() *SegmentStore {
	return &SegmentStore{segments: make(map[string][]byte)}
}

func (m *SegmentStore) WriteSegment(name string, data []byte) error {
	if m.WriteSegmentFunc != nil {
		if err := m.WriteSegmentFunc(name, data); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.segments[name]; !ok {
		m.order = append(m.order, name)
	}
	m.segments[name] = append([]byte(nil), data...)
	return nil
}

// Segment returns the stored data for name.
func (m *SegmentStore) Segment(name string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.segments[name]
	return data, ok
}

// Names returns segment names in write order.
func (m *SegmentStore) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.order...)
}

// Ensure SegmentStore implements ports.SegmentStore
var _ ports.SegmentStore = (*SegmentStore)(nil)
