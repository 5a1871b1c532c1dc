package ports

// SegmentStore persists finished media segments by name.
type SegmentStore interface {
	// WriteSegment stores a complete segment, replacing any previous one
	// with the same name.
	WriteSegment(name string, data []byte) error
}
