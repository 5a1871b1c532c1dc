package summarizer

import (
	"time"

	"github.com/user/h264session/pkg/settings"
)

// Summary contains the data collected during one encoding run.
type Summary struct {
	GeneratedAt time.Time

	Backend string
	Source  SourceInfo

	// Settings are the encoder settings in effect when the run ended.
	Settings settings.EncoderSettings

	Run    RunInfo
	Output OutputInfo
}

// SourceInfo describes where frames came from.
type SourceInfo struct {
	Kind string
	// Detail is the URL for a screencast, empty otherwise.
	Detail string
}

// RunInfo describes frame submission.
type RunInfo struct {
	Frames int
	// Results counts SubmitFrame outcomes by name.
	Results         map[string]int
	ChangesApplied  int
	ChangesRejected int
	Elapsed         time.Duration
	// LastStatus is the last session status recorded by the manager.
	LastStatus string
}

// OutputInfo describes the written segments.
type OutputInfo struct {
	Dir       string
	Segments  []string
	Fragments int
	Samples   int
	Bytes     int64
	Dropped   int
}

// FramesPerSecond returns the submission rate of the run.
func (r RunInfo) FramesPerSecond() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Frames) / r.Elapsed.Seconds()
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithBackend sets the compression backend name.
func (b *Builder) WithBackend(name string) *Builder {
	b.summary.Backend = name
	return b
}

// WithSource sets the frame source.
func (b *Builder) WithSource(kind, detail string) *Builder {
	b.summary.Source = SourceInfo{Kind: kind, Detail: detail}
	return b
}

// WithSettings sets the encoder settings.
func (b *Builder) WithSettings(s settings.EncoderSettings) *Builder {
	b.summary.Settings = s
	return b
}

// WithRun sets frame submission results.
func (b *Builder) WithRun(run RunInfo) *Builder {
	b.summary.Run = run
	return b
}

// WithOutput sets segment output details.
func (b *Builder) WithOutput(out OutputInfo) *Builder {
	b.summary.Output = out
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
