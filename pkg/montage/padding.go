package montage

import "math"

// IndexSpan is a sample-index interval, half-open, relative to the
// segment the filter-padding calculator is working within.
type IndexSpan struct {
	Start int
	End   int
}

// overlaps reports whether s intersects [start, end).
func (s IndexSpan) overlaps(start, end int) bool {
	return s.Start < end && s.End > start
}

// Window is the result of the filter-padding calculator (spec §4.4
// step 4/5d): the padded segment to retrieve and filter, and the
// caller's requested sub-range within it to trim back out afterward.
type Window struct {
	FilterLen   int
	FilterStart int
	FilterEnd   int
	RangeStart  int
	RangeEnd    int
	DataStart   int
	DataEnd     int
}

// ComputeWindow derives the padded retrieval window for a channel
// filtered at sampleRate with paddingSeconds of symmetric padding,
// within a segment of activeLen samples, given the caller's requested
// [rangeStart, rangeEnd) and the interruption spans (sample indices,
// relative to this segment) that fall within the padded span.
//
// Per spec §4.4/§9: padding is shortened, never crossed — an
// interruption overlapping the left pad pulls DataStart rightward to
// the gap's end; one overlapping the right pad pulls DataEnd leftward
// to the gap's start. The two sides are adjusted independently.
func ComputeWindow(rangeStart, rangeEnd int, paddingSeconds float64, sampleRate float32, activeLen int, interruptions []IndexSpan) Window {
	filterLen := int(math.Round(paddingSeconds * float64(sampleRate)))

	filterStart := rangeStart - filterLen
	if filterStart < 0 {
		filterStart = 0
	}
	filterEnd := rangeEnd + filterLen
	if filterEnd > activeLen {
		filterEnd = activeLen
	}

	dataStart, dataEnd := filterStart, filterEnd
	for _, gap := range interruptions {
		if gap.overlaps(filterStart, rangeStart) && gap.End > dataStart {
			dataStart = gap.End
		}
		if gap.overlaps(rangeEnd, filterEnd) && gap.Start < dataEnd {
			dataEnd = gap.Start
		}
	}

	return Window{
		FilterLen:   filterLen,
		FilterStart: filterStart,
		FilterEnd:   filterEnd,
		RangeStart:  rangeStart,
		RangeEnd:    rangeEnd,
		DataStart:   dataStart,
		DataEnd:     dataEnd,
	}
}

// TrimStart returns rangeStart − dataStart, the number of leading
// padding samples to drop after filtering (spec §4.4 step 5h).
func (w Window) TrimStart() int { return w.RangeStart - w.DataStart }

// TrimEnd returns the trailing trim bound, rangeEnd − rangeStart + TrimStart.
func (w Window) TrimEnd() int { return w.RangeEnd - w.RangeStart + w.TrimStart() }
