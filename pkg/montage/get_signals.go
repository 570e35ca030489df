package montage

import (
	"context"
	"math"

	"github.com/dma-labs/biomontage/pkg/reader"
	"github.com/dma-labs/biomontage/pkg/sigcache"
)

// covers reports whether the output cache's current range fully
// contains [start, end) on the cache-time axis.
func (p *Processor) covers(start, end float64) bool {
	return p.output.OutputRangeStart() <= start && p.output.OutputRangeEnd() >= end
}

// sliceOutputPart extracts [start, end) from the output cache's
// current part as a standalone Part.
func (p *Processor) sliceOutputPart(start, end float64) sigcache.Part {
	current := p.output.AsCachePart()
	offsetStart := int(math.Round((start - current.Start) * float64(p.sampleRate)))
	offsetEnd := int(math.Round((end - current.Start) * float64(p.sampleRate)))
	out := make([]sigcache.SignalPart, len(current.Signals))
	for i, s := range current.Signals {
		lo, hi := offsetStart, offsetEnd
		if lo < 0 {
			lo = 0
		}
		if hi > len(s.Data) {
			hi = len(s.Data)
		}
		if lo > hi {
			lo = hi
		}
		out[i] = sigcache.SignalPart{SamplingRate: s.SamplingRate, Data: s.Data[lo:hi]}
	}
	return sigcache.Part{Start: start, End: end, Signals: out}
}

// GetSignals is spec §4.4's get_signals orchestration: reuse the
// output cache when settings.PreCache allows it and it already covers
// the range; otherwise compute. Under PreCache, a fresh computation is
// written to the output cache as it's produced (cache_it=true) so later
// requests against the same range are served from it and so the
// cache-signals notification (spec §4.5) actually fires; with PreCache
// off, computation is ad hoc and nothing is retained. When
// interruptions intersect [start, end), the returned part is
// zero-padded to a fixed length of round((end-start)*sr) samples per
// channel regardless of gaps, so renderers never see a variable-length
// reply.
func (p *Processor) GetSignals(ctx context.Context, start, end float64, filter ChannelFilter) (sigcache.Part, error) {
	coords := p.reader.Coords()
	cacheStart, cacheEnd := coords.CacheTime(start), coords.CacheTime(end)

	var part sigcache.Part
	if p.settings.PreCache && p.covers(cacheStart, cacheEnd) {
		part = p.sliceOutputPart(cacheStart, cacheEnd)
	} else {
		var err error
		part, err = p.calculateSignalsForPart(ctx, start, end, filter, p.settings.PreCache)
		if err != nil {
			return sigcache.Part{}, err
		}
	}

	gaps := p.reader.GetDataGaps(reader.Range{Start: start, End: end}, false)
	if len(gaps) == 0 {
		return part, nil
	}
	return padWithGaps(part, start, end, gaps, p.sampleRate), nil
}

// padWithGaps rebuilds part into a fixed-length, recording-time
// addressed buffer: samples inside an interruption's span are zero,
// samples outside come from part (addressed by cache time). The total
// length is exactly round((end-start)*sr) per channel.
func padWithGaps(part sigcache.Part, start, end float64, gaps []reader.Interruption, sr float32) sigcache.Part {
	total := int(math.Round((end - start) * float64(sr)))
	out := make([]sigcache.SignalPart, len(part.Signals))
	for ci, sig := range part.Signals {
		data := make([]float32, total)
		// outPos walks the recording-time (gapped) output buffer; srcPos
		// walks part's cache-time (gap-free) buffer — they advance
		// together outside a gap and diverge inside one, since the gap
		// contributes output samples (zeros) but no source samples.
		outPos, srcPos := 0, 0
		recPos := start
		for _, g := range gaps {
			gapSamples := int(math.Round((g.Start - recPos) * float64(sr)))
			for i := 0; i < gapSamples && outPos < total; i++ {
				if srcPos < len(sig.Data) {
					data[outPos] = sig.Data[srcPos]
				}
				outPos++
				srcPos++
			}
			gapLen := int(math.Round(g.Duration * float64(sr)))
			for i := 0; i < gapLen && outPos < total; i++ {
				data[outPos] = 0
				outPos++
			}
			recPos = g.End()
		}
		for outPos < total {
			if srcPos < len(sig.Data) {
				data[outPos] = sig.Data[srcPos]
			}
			outPos++
			srcPos++
		}
		out[ci] = sigcache.SignalPart{SamplingRate: sig.SamplingRate, Data: data, UpdatedStart: 0, UpdatedEnd: total}
	}
	return sigcache.Part{Start: start, End: end, Signals: out}
}
