package montage

import (
	"context"
	"math"

	"github.com/rs/zerolog"

	"github.com/dma-labs/biomontage/pkg/biomontage/errs"
	"github.com/dma-labs/biomontage/pkg/events"
	"github.com/dma-labs/biomontage/pkg/reader"
	"github.com/dma-labs/biomontage/pkg/sigcache"
)

// Settings are the module options spec §6 enumerates as
// core-recognized.
type Settings struct {
	FilterPaddingSeconds float64
	PreCache             bool
	ShowMissing          bool
	ShowHidden           bool
}

// ChannelFilter selects a subset of configured channels by name:
// Include takes priority over Exclude when both are set (spec §4.4
// step 2); an empty filter selects every channel.
type ChannelFilter struct {
	Include []string
	Exclude []string
}

func (f ChannelFilter) apply(channels []ChannelConfig) []ChannelConfig {
	if len(f.Include) > 0 {
		set := make(map[string]bool, len(f.Include))
		for _, n := range f.Include {
			set[n] = true
		}
		out := make([]ChannelConfig, 0, len(f.Include))
		for _, c := range channels {
			if set[c.Name] {
				out = append(out, c)
			}
		}
		return out
	}
	if len(f.Exclude) > 0 {
		set := make(map[string]bool, len(f.Exclude))
		for _, n := range f.Exclude {
			set[n] = true
		}
		out := make([]ChannelConfig, 0, len(channels))
		for _, c := range channels {
			if !set[c.Name] {
				out = append(out, c)
			}
		}
		return out
	}
	return channels
}

// NotifyFunc is invoked with the output cache's new covered range
// whenever calculateSignalsForPart writes it — the Go rendering of the
// cache-signals progress notification in spec §4.5.
type NotifyFunc func(start, end float64)

// Processor is the montage processor of spec §4.4: the DSP core that
// derives and filters channels from a raw-signal reader's cache.
type Processor struct {
	name           string
	reader         *reader.Reader
	output         sigcache.Cache
	sampleRate     float32
	channels       []ChannelConfig
	globalFilter   Config
	settings       Settings
	onCacheSignals NotifyFunc
	bus            *events.Bus
	log            zerolog.Logger
}

// NewProcessor builds a montage processor reading from r's input cache
// and writing derived channels into output.
func NewProcessor(r *reader.Reader, output sigcache.Cache, sampleRate float32, channels []ChannelConfig, settings Settings, notify NotifyFunc, log zerolog.Logger) *Processor {
	return &Processor{reader: r, output: output, sampleRate: sampleRate, channels: channels, settings: settings, onCacheSignals: notify, log: log}
}

// SetEventBus attaches the bus SetFilters/SetInterruptions publish
// ChannelMutation events to, and the name this montage publishes
// under (spec §9's channel-mutation message passing, replacing the
// source's per-channel listener back-pointers). A Processor with no
// bus attached simply doesn't publish.
func (p *Processor) SetEventBus(name string, bus *events.Bus) {
	p.name = name
	p.bus = bus
}

// SetNotify installs the onCacheSignals callback after construction.
// A montage worker's dispatcher is built after the Processor it wraps,
// so NewProcessor can't be handed the notify closure up front; the
// worker calls this once it has both in hand (spec §4.5's cache-signals
// notification).
func (p *Processor) SetNotify(notify NotifyFunc) {
	p.onCacheSignals = notify
}

// Reader exposes the input reader this processor derives channels
// from, for callers (the montage worker) that need to look up
// annotations, highlights, or interruptions alongside a computed part.
func (p *Processor) Reader() *reader.Reader {
	return p.reader
}

// Release tears down everything release-cache (spec §4.5) is
// responsible for: cancelling any outstanding background cache fill
// and releasing both the input reader's cache and this processor's own
// retained output buffers (spec §4.3's Releasing state, §5's
// background-fill cancellation clause).
func (p *Processor) Release() error {
	p.output.ReleaseBuffers()
	return p.reader.ReleaseCache()
}

func (p *Processor) publish(channel, reason string) {
	if p.bus == nil {
		return
	}
	p.bus.Publish(events.TopicForMontage(p.name), events.ChannelMutation{
		Montage: p.name,
		Channel: channel,
		Reason:  reason,
	})
}

// SetFilters installs a new global filter (or, if channelNames is
// non-empty, restricts the change's visible effect to those channels)
// and invalidates the output cache so the next get_signals recomputes
// (spec §4.4's filter-change policy). The output cache has no
// per-channel invalidation primitive, so — per channel or global — the
// whole cache is invalidated; stale channels left untouched by the
// filter change are simply recomputed identically on the next pass.
func (p *Processor) SetFilters(cfg Config, channelNames []string) (updated bool) {
	if len(channelNames) == 0 {
		p.globalFilter = cfg
		p.publish("", "filter")
	} else {
		names := make(map[string]bool, len(channelNames))
		for _, n := range channelNames {
			names[n] = true
		}
		for i := range p.channels {
			if names[p.channels[i].Name] {
				p.channels[i].Filter = &cfg
				p.publish(p.channels[i].Name, "filter")
			}
		}
	}
	p.output.InvalidateOutputSignals()
	return true
}

// SetInterruptions updates the reader's interruption map and
// invalidates the output cache, since every derived channel's filter
// padding and gap splicing depends on it.
func (p *Processor) SetInterruptions(gaps []reader.Interruption) {
	p.reader.Coords().SetInterruptions(gaps)
	p.output.InvalidateOutputSignals()
	p.publish("", "interruptions")
}

func (p *Processor) effectiveFilter(ch ChannelConfig) Config {
	if ch.Filter != nil {
		return *ch.Filter
	}
	return p.globalFilter
}

func (p *Processor) shouldFilter(ch ChannelConfig) bool {
	return p.effectiveFilter(ch).Active()
}

// calculateSignalsForPart is spec §4.4's core algorithm. If cacheIt is
// true the assembled part is written to the output cache and the
// range is reported via onCacheSignals; otherwise the part is handed
// back directly.
func (p *Processor) calculateSignalsForPart(ctx context.Context, start, end float64, filter ChannelFilter, cacheIt bool) (sigcache.Part, error) {
	input := p.reader.Cache()
	if input == nil {
		return sigcache.Part{}, errs.ErrNotLoadedYet
	}

	inputRangeStart, err := input.InputRangeStart(ctx)
	if err != nil {
		return sigcache.Part{}, err
	}
	inputRangeEnd, err := input.InputRangeEnd(ctx)
	if err != nil {
		return sigcache.Part{}, err
	}

	coords := p.reader.Coords()
	total := coords.TotalRecordingLength()
	clampedEnd := math.Min(end, total)

	wantStart := coords.CacheTime(start)
	wantEnd := coords.CacheTime(clampedEnd)
	if wantStart < inputRangeStart || wantEnd > inputRangeEnd {
		return sigcache.Part{}, errs.ErrNotLoadedYet
	}

	cacheStart := math.Max(0, math.Max(inputRangeStart, wantStart))
	cacheEnd := math.Min(wantEnd, inputRangeEnd)
	relStart := int(math.Round((cacheStart - inputRangeStart) * float64(p.sampleRate)))
	relEnd := int(math.Round((cacheEnd - inputRangeStart) * float64(p.sampleRate)))

	signals, err := input.InputSignals(ctx)
	if err != nil {
		return sigcache.Part{}, err
	}
	raw := make([][]float32, len(signals))
	lengths := make([]int, len(signals))
	for i, s := range signals {
		raw[i] = s.Data
		lengths[i] = len(s.Data)
	}

	channels := filter.apply(p.channels)

	padding := p.settings.FilterPaddingSeconds
	// Interruptions on the cache-time axis: a gap's cache-time span
	// collapses to zero width (cache time has no room for missing data
	// by construction), so these mark the discontinuity *point* between
	// pre- and post-gap samples rather than a span to splice out. A
	// zero-width span never satisfies IndexSpan.overlaps, so neither the
	// padding calculator nor spliceGaps shorten or zero anything for it
	// today — recording-time gap handling (padWithGaps, in get_signals.go)
	// is unaffected, since it works from the ungapped recording-time
	// interruption list instead. Treating the zero-width point itself as
	// a splice target would need a convention this spec doesn't give one
	// for (see the boundary-asymmetry Open Question in coords.go).
	gaps := p.reader.GetDataGaps(reader.Range{Start: cacheStart, End: cacheEnd}, true)
	indexGaps := make([]IndexSpan, len(gaps))
	for i, g := range gaps {
		indexGaps[i] = IndexSpan{
			Start: int(math.Round((g.Start - cacheStart) * float64(p.sampleRate))),
			End:   int(math.Round((g.End() - cacheStart) * float64(p.sampleRate))),
		}
	}

	entireWindowInterrupted := len(gaps) == 1 && gaps[0].Start <= cacheStart && gaps[0].End() >= cacheEnd

	out := make([]sigcache.SignalPart, len(channels))
	avgMap := make(map[int]float32)

	for ci, ch := range channels {
		if !ch.Visible || entireWindowInterrupted {
			out[ci] = sigcache.SignalPart{SamplingRate: p.sampleRate}
			continue
		}

		activeLen := 0
		if len(ch.Active) > 0 && ch.Active[0].Index < len(lengths) {
			activeLen = lengths[ch.Active[0].Index]
		}

		win := ComputeWindow(relStart, relEnd, padding, p.sampleRate, activeLen, indexGaps)
		refs := filterReferencesByLength(ch.Refs, lengths, activeLen)

		n := win.DataEnd - win.DataStart
		if n < 0 {
			n = 0
		}
		buf := make([]float64, n)
		for i := 0; i < n; i++ {
			sampleIdx := win.DataStart + i
			if sampleIdx < 0 || sampleIdx >= activeLen {
				continue
			}
			actAvg := activeAverageAt(raw, ch.Active, sampleIdx)
			var refAvg float32
			if ch.Averaged {
				if v, ok := avgMap[sampleIdx]; ok {
					refAvg = v
				} else {
					refAvg = referenceAverageAt(raw, refs, actAvg, ch.ExcludeActiveFromAvg, sampleIdx)
					avgMap[sampleIdx] = refAvg
				}
			} else {
				refAvg = referenceAverageAt(raw, refs, actAvg, ch.ExcludeActiveFromAvg, sampleIdx)
			}
			buf[i] = float64(actAvg - refAvg)
		}

		var finalBuf []float64
		if p.shouldFilter(ch) {
			spliced, removeSpans := spliceGaps(buf, win.DataStart, indexGaps)
			cascade := BuildCascade(p.effectiveFilter(ch), float64(p.sampleRate))
			filtered := FiltFilt(cascade, spliced)
			unspliced := removeGaps(filtered, removeSpans)
			trimStart := win.TrimStart()
			trimEnd := win.TrimEnd()
			if trimStart < 0 {
				trimStart = 0
			}
			if trimEnd > len(unspliced) {
				trimEnd = len(unspliced)
			}
			if trimStart > trimEnd {
				trimStart = trimEnd
			}
			finalBuf = unspliced[trimStart:trimEnd]
		} else {
			finalBuf = buf
		}

		data := make([]float32, len(finalBuf))
		for i, v := range finalBuf {
			data[i] = float32(v)
		}
		out[ci] = sigcache.SignalPart{SamplingRate: p.sampleRate, Data: data, UpdatedStart: 0, UpdatedEnd: len(data)}
	}

	part := sigcache.Part{Start: cacheStart, End: cacheEnd, Signals: out}

	if cacheIt {
		if err := p.output.InsertSignals(ctx, part); err != nil {
			return sigcache.Part{}, err
		}
		if p.onCacheSignals != nil {
			p.onCacheSignals(p.output.OutputRangeStart(), p.output.OutputRangeEnd())
		}
		return part, nil
	}
	return part, nil
}

// spliceGaps zeros out each gap span within buf (spec §4.4 step 5h:
// "splice zeros into the interruption gaps so filter edge effects do
// not leak across discontinuities"). Spans are expressed relative to
// dataStart; this returns the spliced buffer (same length as buf: the
// zeros overwrite samples in place, nothing is inserted) and the spans
// translated to buf-local indices so removeGaps can cut them out
// afterward.
func spliceGaps(buf []float64, dataStart int, gaps []IndexSpan) ([]float64, []IndexSpan) {
	if len(gaps) == 0 {
		return buf, nil
	}
	local := make([]IndexSpan, 0, len(gaps))
	out := append([]float64(nil), buf...)
	for _, g := range gaps {
		s, e := g.Start-dataStart, g.End-dataStart
		if s < 0 {
			s = 0
		}
		if e > len(out) {
			e = len(out)
		}
		if s >= e {
			continue
		}
		for i := s; i < e; i++ {
			out[i] = 0
		}
		local = append(local, IndexSpan{Start: s, End: e})
	}
	return out, local
}

// removeGaps removes the spliced gap spans in reverse order (spec
// §4.4 step 5h). Since spliceGaps overwrites rather than inserts, the
// result is shorter than buf by the spans' total length; the
// pre-splice length is not restored.
func removeGaps(buf []float64, spans []IndexSpan) []float64 {
	for i := len(spans) - 1; i >= 0; i-- {
		s := spans[i]
		if s.Start < 0 || s.End > len(buf) || s.Start >= s.End {
			continue
		}
		buf = append(buf[:s.Start], buf[s.End:]...)
	}
	return buf
}
