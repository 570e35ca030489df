package sigcache

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/dma-labs/biomontage/pkg/shmmutex"
)

// Mutex is the shared-memory-mutex-backed SignalDataCache variant.
// InputSignals reads under the mutex's lock (ReadSignals, via
// ExecuteWithLock) the same way a cross-context read would in the
// source system; InputRangeStart/End read the meta words directly,
// without taking the lock. Output bookkeeping (range, sampling rates,
// updated ranges) is kept locally. When this wraps a coupled read-only
// view (reader.SetupMutexWithInput), it serves as an input cache only:
// InsertSignals fails there with ErrWriteNotAllowed.
type Mutex struct {
	m       *shmmutex.Mutex
	log     zerolog.Logger
	out     Part
	hasData bool
}

// NewMutex wraps an already-initialized shmmutex.Mutex.
func NewMutex(m *shmmutex.Mutex, log zerolog.Logger) *Mutex {
	return &Mutex{m: m, log: log.With().Str("component", "sigcache.mutex").Logger()}
}

func (c *Mutex) InputRangeStart(context.Context) (float64, error) {
	return float64(c.m.RangeStart()), nil
}

func (c *Mutex) InputRangeEnd(context.Context) (float64, error) {
	return float64(c.m.RangeEnd()), nil
}

func (c *Mutex) InputSignals(context.Context) ([]SignalPart, error) {
	parts, err := c.m.ReadSignals()
	if err != nil {
		return nil, err
	}
	out := make([]SignalPart, len(parts))
	for i, p := range parts {
		out[i] = SignalPart{SamplingRate: p.SamplingRate, Data: p.Data, UpdatedStart: 0, UpdatedEnd: len(p.Data)}
	}
	return out, nil
}

func (c *Mutex) OutputRangeStart() float64 { return c.out.Start }
func (c *Mutex) OutputRangeEnd() float64   { return c.out.End }

func (c *Mutex) OutputSignalSamplingRates() []float32 {
	rates := make([]float32, len(c.out.Signals))
	for i, s := range c.out.Signals {
		rates[i] = s.SamplingRate
	}
	return rates
}

func (c *Mutex) OutputSignalUpdatedRanges() [][2]int {
	ranges := make([][2]int, len(c.out.Signals))
	for i, s := range c.out.Signals {
		ranges[i] = [2]int{s.UpdatedStart, s.UpdatedEnd}
	}
	return ranges
}

// InsertSignals writes part into the shared-memory region via the
// mutex's InsertSignals (truncating with a logged warning if it
// overflows the allocated range) and mirrors the new range into local
// bookkeeping for the synchronous Output* getters.
func (c *Mutex) InsertSignals(_ context.Context, part Part) error {
	mparts := make([]shmmutex.Part, len(part.Signals))
	for i, s := range part.Signals {
		mparts[i] = shmmutex.Part{SamplingRate: s.SamplingRate, Start: float32(part.Start), Data: s.Data}
	}
	truncated, err := c.m.InsertSignals(mparts)
	if err != nil {
		c.log.Error().Err(err).Msg("insert_signals failed on shared-memory mutex")
		return err
	}
	if truncated {
		c.log.Warn().Float64("start", part.Start).Float64("end", part.End).
			Msg("insert_signals truncated: part exceeded allocated range")
	}
	if !c.hasData {
		c.out = part
		c.hasData = true
		return nil
	}
	if combined, err := Combine(c.out, part); err == nil {
		c.out = combined
	} else {
		c.out = part
	}
	return nil
}

func (c *Mutex) AsCachePart() Part { return c.out }

func (c *Mutex) InvalidateOutputSignals() {
	_ = c.m.Invalidate(nil)
	c.out = Part{}
	c.hasData = false
}

func (c *Mutex) ReleaseBuffers() { c.InvalidateOutputSignals() }
