// Package sigcache implements the range-indexed signal cache of spec
// §4.2: SignalPart/SignalCachePart types, the combine/combine-all/
// continuity algorithms, and the three Cache variants the design note
// in §9 calls for as a tagged union rather than an inheritance
// hierarchy — Local (single-context), Mutex (shmmutex-backed), and
// RemoteProxy (a shared-worker cache multiplexed over one transport).
package sigcache

import "context"

// SignalPart mirrors spec §3: a sampling rate, a sample buffer, and the
// sub-range of that buffer holding currently valid samples.
type SignalPart struct {
	SamplingRate float32   `json:"samplingRate"`
	Data         []float32 `json:"data"`
	UpdatedStart int       `json:"updatedStart"`
	UpdatedEnd   int       `json:"updatedEnd"`
}

// FullyPopulated reports whether the whole of Data is within
// [UpdatedStart, UpdatedEnd), i.e. every sample is meaningful.
func (p SignalPart) FullyPopulated() bool {
	return p.UpdatedStart == 0 && p.UpdatedEnd == len(p.Data)
}

// Part is a SignalCachePart: a time range plus one SignalPart per
// channel, index = channel id.
type Part struct {
	Start   float64
	End     float64
	Signals []SignalPart
}

// Empty reports whether this part has no channels, as an invalidated
// cache's AsCachePart does.
func (p Part) Empty() bool { return len(p.Signals) == 0 }

// Cache is the capability set spec §9 wants as a tagged union: every
// concrete variant (Local, Mutex, RemoteProxy) implements this same
// interface, so readers/processors never branch on a type switch.
type Cache interface {
	InputRangeStart(ctx context.Context) (float64, error)
	InputRangeEnd(ctx context.Context) (float64, error)
	InputSignals(ctx context.Context) ([]SignalPart, error)

	OutputRangeStart() float64
	OutputRangeEnd() float64
	OutputSignalSamplingRates() []float32
	OutputSignalUpdatedRanges() [][2]int

	InsertSignals(ctx context.Context, part Part) error
	AsCachePart() Part
	InvalidateOutputSignals()
	ReleaseBuffers()
}
