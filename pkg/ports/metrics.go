package ports

// Metrics observes session manager activity.
type Metrics interface {
	SessionCreated(backend string)
	SessionCreateFailed(backend string)
	SessionInvalidated(reason string)
	FrameSubmitted(forcedKeyFrame bool)
	FrameDropped(reason string)
	PropertyFailed(key PropertyKey)
	SampleEmitted(bytes int, keyframe bool)
	FormatChanged()
}

// NopMetrics discards all observations.
type NopMetrics struct{}

func (NopMetrics) SessionCreated(string)      {}
func (NopMetrics) SessionCreateFailed(string) {}
func (NopMetrics) SessionInvalidated(string)  {}
func (NopMetrics) FrameSubmitted(bool)        {}
func (NopMetrics) FrameDropped(string)        {}
func (NopMetrics) PropertyFailed(PropertyKey) {}
func (NopMetrics) SampleEmitted(int, bool)    {}
func (NopMetrics) FormatChanged()             {}
