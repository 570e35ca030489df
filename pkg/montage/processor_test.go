package montage

import (
	"context"
	"io"
	"testing"

	"github.com/rs/zerolog"

	"github.com/dma-labs/biomontage/pkg/events"
	"github.com/dma-labs/biomontage/pkg/reader"
	"github.com/dma-labs/biomontage/pkg/sigcache"
)

func testLogger() zerolog.Logger { return zerolog.New(io.Discard) }

// fixedInputCache is a stub sigcache.Cache exposing a fixed, already
// populated input range. It satisfies the rest of the interface with
// inert no-ops: scenarios S1-S5 only ever read the input side.
type fixedInputCache struct {
	start, end float64
	signals    []sigcache.SignalPart
}

func (f *fixedInputCache) InputRangeStart(context.Context) (float64, error) { return f.start, nil }
func (f *fixedInputCache) InputRangeEnd(context.Context) (float64, error)   { return f.end, nil }
func (f *fixedInputCache) InputSignals(context.Context) ([]sigcache.SignalPart, error) {
	return f.signals, nil
}
func (f *fixedInputCache) OutputRangeStart() float64                   { return 0 }
func (f *fixedInputCache) OutputRangeEnd() float64                     { return 0 }
func (f *fixedInputCache) OutputSignalSamplingRates() []float32        { return nil }
func (f *fixedInputCache) OutputSignalUpdatedRanges() [][2]int         { return nil }
func (f *fixedInputCache) InsertSignals(context.Context, sigcache.Part) error { return nil }
func (f *fixedInputCache) AsCachePart() sigcache.Part                  { return sigcache.Part{} }
func (f *fixedInputCache) InvalidateOutputSignals()                    {}
func (f *fixedInputCache) ReleaseBuffers()                             {}

func constSignal(n int, v float32, sr float32) sigcache.SignalPart {
	data := make([]float32, n)
	for i := range data {
		data[i] = v
	}
	return sigcache.SignalPart{SamplingRate: sr, Data: data, UpdatedStart: 0, UpdatedEnd: n}
}

func rampSignal(n int, sr float32) sigcache.SignalPart {
	data := make([]float32, n)
	for i := range data {
		data[i] = float32(i) / sr
	}
	return sigcache.SignalPart{SamplingRate: sr, Data: data, UpdatedStart: 0, UpdatedEnd: n}
}

func newTestProcessor(t *testing.T, recordingSeconds float64, signals []sigcache.SignalPart, channels []ChannelConfig, settings Settings) *Processor {
	t.Helper()
	r := reader.New(reader.NewCoords(1, int(recordingSeconds)), nil, testLogger())
	if err := r.SetupWithCache(&fixedInputCache{start: 0, end: recordingSeconds, signals: signals}); err != nil {
		t.Fatalf("SetupWithCache: %v", err)
	}
	out := sigcache.NewLocal(testLogger())
	return NewProcessor(r, out, 100, channels, settings, nil, testLogger())
}

// S1: identity montage, no filters.
func TestScenarioIdentityMontage(t *testing.T) {
	p := newTestProcessor(t, 10, []sigcache.SignalPart{rampSignal(1000, 100)}, []ChannelConfig{
		{Name: "ch0", Visible: true, Active: []WeightedRef{{Index: 0, Weight: 1}}},
	}, Settings{})

	part, err := p.calculateSignalsForPart(context.Background(), 0, 10, ChannelFilter{}, false)
	if err != nil {
		t.Fatalf("calculateSignalsForPart: %v", err)
	}
	data := part.Signals[0].Data
	if len(data) != 1000 {
		t.Fatalf("expected 1000 samples, got %d", len(data))
	}
	for i := 0; i < len(data); i += 137 {
		want := float32(i) / 100
		if diff := data[i] - want; diff > 1e-4 || diff < -1e-4 {
			t.Fatalf("sample %d: got %v want %v", i, data[i], want)
		}
	}
}

// S2: subtract reference.
func TestScenarioSubtractReference(t *testing.T) {
	p := newTestProcessor(t, 1, []sigcache.SignalPart{constSignal(100, 1, 100), constSignal(100, 0.4, 100)}, []ChannelConfig{
		{Name: "ch0", Visible: true, Active: []WeightedRef{{Index: 0, Weight: 1}}, Refs: []WeightedRef{{Index: 1, Weight: 1}}},
	}, Settings{})

	part, err := p.calculateSignalsForPart(context.Background(), 0, 1, ChannelFilter{}, false)
	if err != nil {
		t.Fatalf("calculateSignalsForPart: %v", err)
	}
	for i, v := range part.Signals[0].Data {
		if diff := v - 0.6; diff > 1e-4 || diff < -1e-4 {
			t.Fatalf("sample %d: got %v want 0.6", i, v)
		}
	}
}

// S3: averaged reference.
func TestScenarioAveragedReference(t *testing.T) {
	p := newTestProcessor(t, 1, []sigcache.SignalPart{constSignal(100, 1, 100), constSignal(100, 0.2, 100), constSignal(100, 0.4, 100)}, []ChannelConfig{
		{Name: "ch0", Visible: true, Averaged: true, Active: []WeightedRef{{Index: 0, Weight: 1}}, Refs: []WeightedRef{{Index: 1, Weight: 1}, {Index: 2, Weight: 1}}},
	}, Settings{})

	part, err := p.calculateSignalsForPart(context.Background(), 0, 1, ChannelFilter{}, false)
	if err != nil {
		t.Fatalf("calculateSignalsForPart: %v", err)
	}
	want := float32(1 - (0.2+0.4)/2)
	for i, v := range part.Signals[0].Data {
		if diff := v - want; diff > 1e-4 || diff < -1e-4 {
			t.Fatalf("sample %d: got %v want %v", i, v, want)
		}
	}
}

// S4: interruption zero-pad via GetSignals.
func TestScenarioInterruptionZeroPad(t *testing.T) {
	p := newTestProcessor(t, 20, []sigcache.SignalPart{constSignal(2000, 1, 100)}, []ChannelConfig{
		{Name: "ch0", Visible: true, Active: []WeightedRef{{Index: 0, Weight: 1}}},
	}, Settings{})
	p.SetInterruptions([]reader.Interruption{{Start: 5, Duration: 3}})

	part, err := p.GetSignals(context.Background(), 4, 10, ChannelFilter{})
	if err != nil {
		t.Fatalf("GetSignals: %v", err)
	}
	data := part.Signals[0].Data
	if len(data) != 600 {
		t.Fatalf("expected 600 samples, got %d", len(data))
	}
	for i := 0; i < 100; i++ {
		if data[i] != 1 {
			t.Fatalf("sample %d: expected 1 (pre-gap), got %v", i, data[i])
		}
	}
	for i := 100; i < 400; i++ {
		if data[i] != 0 {
			t.Fatalf("sample %d: expected 0 (gap), got %v", i, data[i])
		}
	}
	for i := 400; i < 600; i++ {
		if data[i] != 1 {
			t.Fatalf("sample %d: expected 1 (post-gap), got %v", i, data[i])
		}
	}
}

// S5: filter invalidation.
func TestScenarioFilterInvalidation(t *testing.T) {
	p := newTestProcessor(t, 10, []sigcache.SignalPart{constSignal(1000, 5, 100)}, []ChannelConfig{
		{Name: "ch0", Visible: true, Active: []WeightedRef{{Index: 0, Weight: 1}}},
	}, Settings{PreCache: true})

	before, err := p.calculateSignalsForPart(context.Background(), 0, 10, ChannelFilter{}, true)
	if err != nil {
		t.Fatalf("precache calculateSignalsForPart: %v", err)
	}
	if before.Signals[0].Data[500] != 5 {
		t.Fatalf("expected precached constant 5, got %v", before.Signals[0].Data[500])
	}

	p.SetFilters(Config{HighpassHz: 1.0}, nil)

	after, err := p.GetSignals(context.Background(), 0, 10, ChannelFilter{})
	if err != nil {
		t.Fatalf("GetSignals after filter: %v", err)
	}
	mid := after.Signals[0].Data[500]
	if mid >= 4 {
		t.Fatalf("expected highpass output well below the DC level 5 at steady state, got %v", mid)
	}
}

// SetFilters and SetInterruptions publish a ChannelMutation on the
// montage's topic, replacing the source's per-channel listener
// back-pointers with explicit message passing (spec §9).
func TestSetFiltersAndInterruptionsPublishMutations(t *testing.T) {
	p := newTestProcessor(t, 10, []sigcache.SignalPart{constSignal(1000, 5, 100)}, []ChannelConfig{
		{Name: "ch0", Visible: true, Active: []WeightedRef{{Index: 0, Weight: 1}}},
	}, Settings{})

	bus := events.NewBus()
	p.SetEventBus("study-1", bus)

	var reasons []string
	bus.Subscribe("ui", events.TopicForMontage("study-1"), func(m events.ChannelMutation) {
		reasons = append(reasons, m.Reason)
	})

	p.SetFilters(Config{HighpassHz: 1.0}, nil)
	p.SetInterruptions([]reader.Interruption{{Start: 1, Duration: 1}})

	if len(reasons) != 2 || reasons[0] != "filter" || reasons[1] != "interruptions" {
		t.Fatalf("expected [filter interruptions] mutations, got %v", reasons)
	}
}

// Invariant 6: pad-trim identity with zero padding and no interruptions.
func TestInvariantPadTrimIdentity(t *testing.T) {
	p := newTestProcessor(t, 1, []sigcache.SignalPart{constSignal(100, 1, 100), constSignal(100, 0.25, 100)}, []ChannelConfig{
		{Name: "ch0", Visible: true, Active: []WeightedRef{{Index: 0, Weight: 1}}, Refs: []WeightedRef{{Index: 1, Weight: 1}}},
	}, Settings{})

	part, err := p.calculateSignalsForPart(context.Background(), 0, 1, ChannelFilter{}, false)
	if err != nil {
		t.Fatalf("calculateSignalsForPart: %v", err)
	}
	for i, v := range part.Signals[0].Data {
		if diff := v - 0.75; diff > 1e-4 || diff < -1e-4 {
			t.Fatalf("sample %d: got %v want 0.75 (bare active-reference, no filter/padding)", i, v)
		}
	}
}

// spliceGaps/removeGaps (step 5h) are never reached on the only wired
// path today, since the cache-axis gap list is always zero-width (see
// the boundary-asymmetry note above calculateSignalsForPart's gap
// computation). Exercise them directly so the splice/excise pair is
// still under test even though no caller currently hands them a
// non-empty gap list.
func TestSpliceGapsZeroesThenRemoveGapsExcises(t *testing.T) {
	buf := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	gaps := []IndexSpan{{Start: 2, End: 4}}

	spliced, spans := spliceGaps(buf, 0, gaps)
	want := []float64{1, 2, 0, 0, 5, 6, 7, 8}
	for i, v := range want {
		if spliced[i] != v {
			t.Fatalf("spliced[%d] = %v, want %v", i, spliced[i], v)
		}
	}
	if buf[2] != 3 || buf[3] != 4 {
		t.Fatalf("spliceGaps mutated the input buffer: %v", buf)
	}

	// removeGaps excises the spliced span entirely (it's run after
	// filtering, to drop the gap-bridging samples back out rather than
	// restore them), so the result is shorter than the input buffer.
	excised := removeGaps(append([]float64(nil), spliced...), spans)
	wantExcised := []float64{1, 2, 5, 6, 7, 8}
	if len(excised) != len(wantExcised) {
		t.Fatalf("removeGaps: got length %d, want %d", len(excised), len(wantExcised))
	}
	for i, v := range wantExcised {
		if excised[i] != v {
			t.Fatalf("excised[%d] = %v, want %v", i, excised[i], v)
		}
	}
}
