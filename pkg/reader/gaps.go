package reader

// Range is a half-open [Start, End) span on either the recording-time
// or cache-time axis, per the useCacheTime flag callers pass alongside
// it (spec §4.3, §6).
type Range struct {
	Start float64
	End   float64
}

// GetDataGaps returns the interruptions overlapping rng, trimmed to
// it: an interruption straddling rng.Start is reported with
// Start = rng.Start and a correspondingly shortened Duration (spec
// §4.3's boundary semantics). useCacheTime selects which axis rng is
// expressed on; interruptions are stored in recording time, so they
// are converted before trimming when rng is on the cache axis.
func (r *Reader) GetDataGaps(rng Range, useCacheTime bool) []Interruption {
	out := make([]Interruption, 0, len(r.coords.Interruptions()))
	for _, g := range r.coords.Interruptions() {
		start, end := g.Start, g.End()
		if useCacheTime {
			start, end = r.coords.CacheTime(start), r.coords.CacheTime(end)
		}
		if end <= rng.Start || start >= rng.End {
			continue
		}
		trimmedStart := start
		if trimmedStart < rng.Start {
			trimmedStart = rng.Start
		}
		trimmedEnd := end
		if trimmedEnd > rng.End {
			trimmedEnd = rng.End
		}
		out = append(out, Interruption{Start: trimmedStart, Duration: trimmedEnd - trimmedStart})
	}
	return out
}

// Annotation is a point-in-time marker on the recording-time axis
// (spec §4.3).
type Annotation struct {
	Start float64
	Label string
}

// GetAnnotations filters the annotation set to those whose Start
// falls within [rng.Start, rng.End) — spec §4.3's half-open filter.
func (r *Reader) GetAnnotations(rng Range) []Annotation {
	out := make([]Annotation, 0)
	for _, a := range r.annotations {
		if a.Start >= rng.Start && a.Start < rng.End {
			out = append(out, a)
		}
	}
	return out
}

// SetAnnotations replaces the annotation set.
func (r *Reader) SetAnnotations(annos []Annotation) {
	r.annotations = append([]Annotation(nil), annos...)
}

// Highlight is a point-in-time marker keyed to a named highlight
// context (spec §3's expansion: highlights are filtered the same way
// annotations are, but partitioned by context rather than shared).
type Highlight struct {
	Start float64
	Label string
}

// GetHighlights filters context's highlight set to those whose Start
// falls within [rng.Start, rng.End), the same half-open rule
// GetAnnotations uses.
func (r *Reader) GetHighlights(context string, rng Range) []Highlight {
	out := make([]Highlight, 0)
	for _, h := range r.highlights[context] {
		if h.Start >= rng.Start && h.Start < rng.End {
			out = append(out, h)
		}
	}
	return out
}

// SetHighlights replaces the highlight set for the named context.
func (r *Reader) SetHighlights(context string, highlights []Highlight) {
	if r.highlights == nil {
		r.highlights = make(map[string][]Highlight)
	}
	r.highlights[context] = append([]Highlight(nil), highlights...)
}
