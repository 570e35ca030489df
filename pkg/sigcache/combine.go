package sigcache

import (
	"math"
	"sort"

	"github.com/dma-labs/biomontage/pkg/biomontage/errs"
)

// Combine merges two SignalCacheParts per spec §4.2's combine rule. a
// and b must have the same channel count and per-channel sampling
// rates. Returns ErrDisjoint if b.Start > a.End after normalizing to
// a.Start <= b.Start.
func Combine(a, b Part) (Part, error) {
	if a.Start > b.Start {
		a, b = b, a
	}
	if b.Start > a.End {
		return Part{}, errs.ErrDisjoint
	}
	if b.End <= a.End {
		return a, nil // b fully contained in a: no-op
	}

	out := Part{Start: a.Start, End: b.End, Signals: make([]SignalPart, len(a.Signals))}
	for i := range a.Signals {
		sa, sb := a.Signals[i], b.Signals[i]
		sr := sa.SamplingRate
		total := int(math.Round(float64(sr) * (b.End - a.Start)))
		merged := make([]float32, total)

		aLen := int(math.Round(float64(sr) * (a.End - a.Start)))
		if aLen > len(sa.Data) {
			aLen = len(sa.Data)
		}
		copy(merged[:aLen], sa.Data[:aLen])

		tailStart := int(math.Round(float64(sr) * (b.Start - a.Start)))
		overlapLen := int(math.Round(float64(sr) * (a.End - b.Start)))
		srcStart := overlapLen
		if srcStart < 0 {
			srcStart = 0
		}
		if srcStart < len(sb.Data) {
			copy(merged[tailStart+srcStart:], sb.Data[srcStart:])
		}

		out.Signals[i] = SignalPart{
			SamplingRate: sr,
			Data:         merged,
			UpdatedStart: 0,
			UpdatedEnd:   len(merged),
		}
	}
	return out, nil
}

// CombineAll greedily merges any pair of parts whose Combine succeeds
// until no further merges apply, returning the resulting disjoint set
// sorted by Start (spec §4.2's combineAllSignalParts).
func CombineAll(parts []Part) []Part {
	remaining := append([]Part(nil), parts...)
	for {
		merged := false
		for i := 0; i < len(remaining) && !merged; i++ {
			for j := i + 1; j < len(remaining); j++ {
				if c, err := Combine(remaining[i], remaining[j]); err == nil {
					remaining[i] = c
					remaining = append(remaining[:j], remaining[j+1:]...)
					merged = true
					break
				}
			}
		}
		if !merged {
			break
		}
	}
	sort.Slice(remaining, func(i, j int) bool { return remaining[i].Start < remaining[j].Start })
	return remaining
}

// IsContinuous reports whether parts, once combined, form a single part
// (spec §4.2's isContinuousSignal).
func IsContinuous(parts []Part) bool {
	return len(CombineAll(parts)) == 1
}

