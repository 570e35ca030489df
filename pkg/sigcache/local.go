package sigcache

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Local is the single-context SignalDataCache variant: both input and
// output getters resolve immediately, since there is no cross-context
// hop to await (spec §9's "async → explicit" note — Local simply never
// suspends).
type Local struct {
	mu      sync.RWMutex
	part    Part
	log     zerolog.Logger
	hasData bool
}

// NewLocal constructs an empty local cache. log is the injected sink
// (spec §6); scope tagging happens at the call site via log.With().
func NewLocal(log zerolog.Logger) *Local {
	return &Local{log: log.With().Str("component", "sigcache.local").Logger()}
}

func (c *Local) InputRangeStart(context.Context) (float64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.part.Start, nil
}

func (c *Local) InputRangeEnd(context.Context) (float64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.part.End, nil
}

func (c *Local) InputSignals(context.Context) ([]SignalPart, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.part.Signals, nil
}

func (c *Local) OutputRangeStart() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.part.Start
}

func (c *Local) OutputRangeEnd() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.part.End
}

func (c *Local) OutputSignalSamplingRates() []float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rates := make([]float32, len(c.part.Signals))
	for i, s := range c.part.Signals {
		rates[i] = s.SamplingRate
	}
	return rates
}

func (c *Local) OutputSignalUpdatedRanges() [][2]int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ranges := make([][2]int, len(c.part.Signals))
	for i, s := range c.part.Signals {
		ranges[i] = [2]int{s.UpdatedStart, s.UpdatedEnd}
	}
	return ranges
}

// InsertSignals adopts part wholesale if the cache is empty; otherwise
// it attempts Combine and, on failure, logs and leaves state unchanged
// (spec §4.2).
func (c *Local) InsertSignals(_ context.Context, part Part) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasData {
		c.part = part
		c.hasData = true
		return nil
	}
	combined, err := Combine(c.part, part)
	if err != nil {
		c.log.Error().Err(err).Float64("existingStart", c.part.Start).Float64("existingEnd", c.part.End).
			Float64("partStart", part.Start).Float64("partEnd", part.End).
			Msg("failed to combine signal parts")
		return nil
	}
	c.part = combined
	return nil
}

func (c *Local) AsCachePart() Part {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.part
}

func (c *Local) InvalidateOutputSignals() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.part = Part{}
	c.hasData = false
}

func (c *Local) ReleaseBuffers() {
	c.InvalidateOutputSignals()
}
