package ports

// Delegate consumes the output of a session manager.
// Calls arrive from a single goroutine, a format change always before the
// first sample that uses it.
type Delegate interface {
	OnFormatChanged(format FormatDescription)
	OnSample(sample CompressedSample)
	// OnFormatCleared reports that the stream ended on Stop. No sample of
	// the old format follows.
	OnFormatCleared()
}

// DelegateFuncs adapts plain functions to Delegate. Nil fields are skipped.
type DelegateFuncs struct {
	FormatChanged func(format FormatDescription)
	Sample        func(sample CompressedSample)
	FormatCleared func()
}

func (d DelegateFuncs) OnFormatChanged(format FormatDescription) {
	if d.FormatChanged != nil {
		d.FormatChanged(format)
	}
}

func (d DelegateFuncs) OnSample(sample CompressedSample) {
	if d.Sample != nil {
		d.Sample(sample)
	}
}

func (d DelegateFuncs) OnFormatCleared() {
	if d.FormatCleared != nil {
		d.FormatCleared()
	}
}
