package montage

// WeightedRef is one entry of an active-signal list or reference list:
// a source channel index and its contribution weight. Weight is
// applied as given; nothing in this package fills in a default, so an
// entry with a zero Weight contributes nothing.
type WeightedRef struct {
	Index  int
	Weight float64
}

// ChannelConfig is one derived (montage) channel's definition (spec
// §4.4 steps 2, 5c, 5f, 5g).
type ChannelConfig struct {
	Name   string
	Active []WeightedRef // single index, or a list averaged together
	Refs   []WeightedRef

	Visible               bool
	Averaged              bool // reuse a shared avgMap entry for this channel's reference average
	ExcludeActiveFromAvg  bool
	Filter                *Config // per-channel override; nil uses the processor's global filter
	SourceSamplingRateIdx int     // index into the raw signal list this channel's length must match
}

// filterReferencesByLength keeps only references whose source signal
// length matches activeLen, per spec §4.4 step 5f.
func filterReferencesByLength(refs []WeightedRef, lengths []int, activeLen int) []WeightedRef {
	out := make([]WeightedRef, 0, len(refs))
	for _, r := range refs {
		if r.Index >= 0 && r.Index < len(lengths) && lengths[r.Index] == activeLen {
			out = append(out, r)
		}
	}
	return out
}

// activeAverageAt computes actAvg at sample n: SIGNALS[active][n] for
// a single active index, or the weighted mean across a list (spec
// §4.4 step 5g).
func activeAverageAt(signals [][]float32, active []WeightedRef, n int) float32 {
	if len(active) == 1 && active[0].Weight == 1 {
		return signals[active[0].Index][n]
	}
	var sum float64
	for _, a := range active {
		sum += float64(signals[a.Index][n]) * a.Weight
	}
	return float32(sum / float64(len(active)))
}

// referenceAverageAt computes refAvg at sample n: the weighted mean of
// refs, divided by len(refs), with excludeActiveFromAvg's correction
// applied when requested (spec §4.4 step 5g).
func referenceAverageAt(signals [][]float32, refs []WeightedRef, actAvg float32, excludeActive bool, n int) float32 {
	if len(refs) == 0 {
		return 0
	}
	var sum float64
	for _, r := range refs {
		sum += float64(signals[r.Index][n]) * r.Weight
	}
	refAvg := float32(sum / float64(len(refs)))
	if excludeActive && len(refs) > 1 {
		refAvg = (refAvg - actAvg/float32(len(refs))) * float32(len(refs)) / float32(len(refs)-1)
	}
	return refAvg
}
