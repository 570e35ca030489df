// Package reader implements the signal-reader base of spec §4.3: the
// recording-time/cache-time/data-unit coordinate system, the
// interruption map, the data-block table, and the state machine every
// concrete file-format reader (an external implementation, per spec
// §1) builds on.
package reader

import "math"

// Float32Eps counters 32->64-bit rounding error the same way spec §4.3
// and §9 call for: every coordinate conversion adds this epsilon before
// flooring so a value that should land exactly on a data-unit boundary
// does not fall one unit short because of float32 imprecision upstream.
const Float32Eps = 1e-5

// NumericError is the designated sentinel conversion helpers return
// instead of throwing (spec §4.3's failure semantics, spec §6's
// NUMERIC_ERROR_VALUE).
const NumericError = -1.0

// Interruption is a gap in recording time (spec §3).
type Interruption struct {
	Start    float64 // recording time, seconds
	Duration float64 // seconds
}

// End returns the recording-time instant the interruption ends at.
func (g Interruption) End() float64 { return g.Start + g.Duration }

// Coords converts between recording time (what the user sees, including
// gaps) and cache time (compacted, gap-free), given an ascending,
// disjoint interruption map. It is the "single helper" spec §9 demands
// all buffer arithmetic route through.
//
// An interruption collapses to a single point on the cache axis: cache
// time is flat for the whole recording-time span [Start, End) of a gap,
// then resumes increasing past it. That makes CacheTime non-injective on
// a gap's interior by construction (no data exists there to distinguish
// one instant from another) — spec §9's Open Questions section flags
// exactly this kind of boundary asymmetry as unresolved upstream, so the
// bijection invariant (spec §8, property 1) is meaningful, and is
// tested, only for recording times outside any interruption's span.
type Coords struct {
	interruptions []Interruption // ascending by Start, disjoint
	unitDuration  float64        // d_u, seconds per data unit
	unitCount     int            // N
}

// NewCoords constructs a coordinate system for a recording with the
// given per-unit duration and unit count. Both are immutable after
// reader setup, per spec §3.
func NewCoords(unitDuration float64, unitCount int) *Coords {
	return &Coords{unitDuration: unitDuration, unitCount: unitCount}
}

// SetInterruptions replaces the interruption map. Callers (the concrete
// reader) must notify observers after this call, per spec §4.3; this
// package itself only maintains the ordering invariant — observer
// notification is pkg/events' concern.
func (c *Coords) SetInterruptions(gaps []Interruption) {
	sorted := append([]Interruption(nil), gaps...)
	insertionSort(sorted)
	c.interruptions = sorted
}

func insertionSort(gaps []Interruption) {
	for i := 1; i < len(gaps); i++ {
		for j := i; j > 0 && gaps[j-1].Start > gaps[j].Start; j-- {
			gaps[j-1], gaps[j] = gaps[j], gaps[j-1]
		}
	}
}

// Interruptions returns the ascending interruption map.
func (c *Coords) Interruptions() []Interruption { return c.interruptions }

// TotalDataLength is the cache-time duration (gap-free): unitCount*d_u.
func (c *Coords) TotalDataLength() float64 {
	return float64(c.unitCount) * c.unitDuration
}

// TotalRecordingLength is the recording-time duration including gaps:
// the data length plus every interruption's duration.
func (c *Coords) TotalRecordingLength() float64 {
	total := c.TotalDataLength()
	for _, g := range c.interruptions {
		total += g.Duration
	}
	return total
}

// CacheTime converts recording time to cache time. 0 and NumericError
// map to themselves (spec §3's identity invariant). Walks the
// interruption map accumulating how much gap duration has been fully
// absorbed so far; a recording time inside a gap's span returns the
// flat cache position the whole gap collapses to.
func (c *Coords) CacheTime(recordingTime float64) float64 {
	if recordingTime == 0 || recordingTime == NumericError {
		return recordingTime
	}
	pos, recPos := 0.0, 0.0
	for _, g := range c.interruptions {
		if recordingTime < g.Start {
			return pos + (recordingTime - recPos)
		}
		if recordingTime < g.End() {
			return pos + (g.Start - recPos)
		}
		pos += g.Start - recPos
		recPos = g.End()
	}
	return pos + (recordingTime - recPos)
}

// RecordingTime converts cache time back to recording time. A cache
// time that lands exactly on a collapsed gap's position resolves to
// that gap's Start (the canonical, leftmost representative of the
// collapsed span — see the Coords doc comment on the boundary
// ambiguity this implies).
func (c *Coords) RecordingTime(cacheTime float64) float64 {
	if cacheTime == 0 || cacheTime == NumericError {
		return cacheTime
	}
	pos, recPos := 0.0, 0.0
	for _, g := range c.interruptions {
		gapCachePos := pos + (g.Start - recPos)
		if cacheTime < gapCachePos {
			return recPos + (cacheTime - pos)
		}
		if cacheTime == gapCachePos {
			return g.Start
		}
		pos = gapCachePos
		recPos = g.End()
	}
	return recPos + (cacheTime - pos)
}

// DataUnitIndex converts recording time to a data-unit index, using
// Float32Eps to counter 32->64-bit rounding (spec §4.3):
// floor((t + eps - priorGaps) / d_u), expressed here as
// floor((cacheTime + eps) / d_u) since CacheTime already removes
// priorGaps.
func (c *Coords) DataUnitIndex(recordingTime float64) int {
	cacheTime := c.CacheTime(recordingTime)
	idx := math.Floor((cacheTime + Float32Eps) / c.unitDuration)
	if idx < 0 {
		return 0
	}
	if int(idx) >= c.unitCount {
		return c.unitCount - 1
	}
	return int(idx)
}

// UnitDuration returns d_u.
func (c *Coords) UnitDuration() float64 { return c.unitDuration }

// UnitCount returns N.
func (c *Coords) UnitCount() int { return c.unitCount }
