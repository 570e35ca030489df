// Package shmmutex implements the single-writer/multi-reader lock over a
// contiguous shared byte region described by spec §4.1: a master lock
// word, a small meta region (allocated_range, range_start, range_end),
// and one variable-length float32 array per channel with a per-array
// property header (sampling_rate, updated_start, updated_end).
//
// The byte region itself is a POSIX shared-memory mapping opened the
// same way the teacher's pkg/shm_ring maps /dev/shm/<name>: mmap over an
// ftruncate'd fd, overlaid with a typed view via unsafe.Pointer so a
// second process can reconstruct a read view onto the identical
// physical pages with zero copies (see buffer.go, shm.go).
package shmmutex

import (
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/dma-labs/biomontage/pkg/biomontage/errs"
)

const (
	// EmptyField is the sentinel written into updated_start/updated_end
	// when a channel's data is not yet valid.
	EmptyField int32 = -1

	lockFree    int32 = 0
	lockWriting int32 = 1

	lockTimeout = 5 * time.Second
	lockBackoff = 200 * time.Microsecond

	floatEps = float32(1e-6)

	// word offsets, shared between the int32 and float32 views of the
	// same bytes (see buffer.go).
	wordLock         = 0
	wordAllocRange   = 1
	wordRangeStart   = 2
	wordRangeEnd     = 3
	wordDataRegion   = 4
	channelHeaderLen = 3 // sampling_rate, updated_start, updated_end
)

// LockMode selects the capability ExecuteWithLock acquires. This
// implementation has a single master lock (spec §4.1), so both modes
// serialize against each other; Mode only gates whether Write*
// operations are permitted on a coupled (read-only) view.
type LockMode int

const (
	LockRead LockMode = iota
	LockWrite
)

// ArrayProps describes one channel's data array at allocation time.
type ArrayProps struct {
	LengthSamples int
}

type arrayLayout struct {
	wordOffset int // index into both int32/float32 word views
	wordLen    int // channelHeaderLen + samples
}

// Part is the shared-memory-facing signal payload for InsertSignals; it
// mirrors spec §3's Signal Part trimmed to what the mutex layer needs.
type Part struct {
	SamplingRate float32
	Start        float32 // seconds, same coordinate axis as RangeStart/End
	Data         []float32
}

// Mutex is either the write-owning side (after Initialize) or a
// read-only coupled view (after FromDescriptor, see descriptor.go).
type Mutex struct {
	buf      *Buffer
	iwords   []int32
	fwords   []float32
	layouts  []arrayLayout
	writable bool
	initd    bool
}

// New constructs an uninitialized, write-capable Mutex. Call Initialize
// before any other operation.
func New() *Mutex { return &Mutex{writable: true} }

// Initialize binds buf as the mutex's region. Must be called exactly
// once per output-side mutex; a second call is a state-machine misuse.
func (m *Mutex) Initialize(buf *Buffer) error {
	if m.initd {
		return fmt.Errorf("%w: Initialize called twice", errs.ErrStateMisuse)
	}
	if len(buf.Bytes()) < wordDataRegion*4 {
		return fmt.Errorf("%w: buffer too small for meta region", errs.ErrOutOfBounds)
	}
	m.buf = buf
	m.iwords = buf.Int32Words()
	m.fwords = buf.Float32Words()
	m.initd = true
	return nil
}

func (m *Mutex) requireInitialized() error {
	if !m.initd {
		return errs.ErrMutexNotInitialized
	}
	return nil
}

// SetDataArrays allocates array descriptors for each channel. Immutable
// afterward: calling it twice is a state-machine misuse.
func (m *Mutex) SetDataArrays(channels []ArrayProps) error {
	if err := m.requireInitialized(); err != nil {
		return err
	}
	if m.layouts != nil {
		return fmt.Errorf("%w: data arrays already set", errs.ErrStateMisuse)
	}
	offset := wordDataRegion
	layouts := make([]arrayLayout, len(channels))
	for i, c := range channels {
		wordLen := channelHeaderLen + c.LengthSamples
		layouts[i] = arrayLayout{wordOffset: offset, wordLen: wordLen}
		offset += wordLen
	}
	if offset > len(m.fwords) {
		return fmt.Errorf("%w: region too small for %d channels", errs.ErrOutOfBounds, len(channels))
	}
	m.layouts = layouts
	for _, l := range layouts {
		m.fwords[l.wordOffset+1] = float32(EmptyField)
		m.fwords[l.wordOffset+2] = float32(EmptyField)
	}
	return nil
}

// ExecuteWithLock acquires the master lock in the requested mode with a
// 5s timeout and runs fn. fn must not itself acquire the lock.
func ExecuteWithLock[T any](m *Mutex, mode LockMode, fn func() (T, error)) (T, error) {
	var zero T
	if err := m.requireInitialized(); err != nil {
		return zero, err
	}
	if mode == LockWrite && !m.writable {
		return zero, errs.ErrWriteNotAllowed
	}
	deadline := time.Now().Add(lockTimeout)
	for {
		if atomic.CompareAndSwapInt32(&m.iwords[wordLock], lockFree, lockWriting) {
			break
		}
		if time.Now().After(deadline) {
			return zero, errs.ErrLockTimeout
		}
		time.Sleep(lockBackoff)
	}
	defer atomic.StoreInt32(&m.iwords[wordLock], lockFree)
	return fn()
}

// RangeStart/RangeEnd report the current [start, end) in seconds the
// mutex is addressed at (recording or cache time, per caller convention).
func (m *Mutex) RangeStart() float32 { return float32(m.iwords[wordRangeStart]) }
func (m *Mutex) RangeEnd() float32   { return float32(m.iwords[wordRangeEnd]) }

// AllocatedRange reports the configured window size in seconds.
func (m *Mutex) AllocatedRange() int32 { return m.iwords[wordAllocRange] }

// SetAllocatedRange must be called once, before SetSignalRange, to size
// the window each channel array can hold.
func (m *Mutex) SetAllocatedRange(seconds int32) error {
	if err := m.requireInitialized(); err != nil {
		return err
	}
	m.iwords[wordAllocRange] = seconds
	return nil
}

// InsertSignals writes one SignalPart per channel under the write lock.
// Sampling rates are compared with a float epsilon; a part that would
// overflow its channel's array is truncated to what fits.
func (m *Mutex) InsertSignals(parts []Part) (truncated bool, err error) {
	return ExecuteWithLock(m, LockWrite, func() (bool, error) {
		truncated := false
		for i, p := range parts {
			if i >= len(m.layouts) {
				break
			}
			l := m.layouts[i]
			sr := m.fwords[l.wordOffset]
			if sr != 0 && !floatsEqual(sr, p.SamplingRate) {
				m.zeroChannelLocked(l)
				return false, errs.ErrSamplingRateMismatch
			}
			m.fwords[l.wordOffset] = p.SamplingRate

			startPos := int(roundFloat((p.Start - m.RangeStart()) * p.SamplingRate))
			dataLen := l.wordLen - channelHeaderLen
			copyLen := len(p.Data)
			endPos := startPos + copyLen
			if endPos > dataLen {
				copyLen = dataLen - startPos
				if copyLen < 0 {
					copyLen = 0
				}
				truncated = true
				endPos = startPos + copyLen
			}
			if copyLen > 0 && startPos >= 0 {
				base := l.wordOffset + channelHeaderLen + startPos
				copy(m.fwords[base:base+copyLen], p.Data[:copyLen])
			}

			clampedStart, clampedEnd := startPos, endPos
			if clampedStart < 0 {
				clampedStart = 0
			} else if clampedStart > dataLen {
				clampedStart = dataLen
			}
			if clampedEnd < 0 {
				clampedEnd = 0
			} else if clampedEnd > dataLen {
				clampedEnd = dataLen
			}
			if clampedEnd < clampedStart {
				clampedEnd = clampedStart
			}
			curStart := emptyAsInf(m.fwords[l.wordOffset+1], true)
			curEnd := emptyAsInf(m.fwords[l.wordOffset+2], false)
			m.fwords[l.wordOffset+1] = float32(math.Min(curStart, float64(clampedStart)))
			m.fwords[l.wordOffset+2] = float32(math.Max(curEnd, float64(clampedEnd)))
		}
		return truncated, nil
	})
}

func emptyAsInf(v float32, wantMin bool) float64 {
	if int32(v) == EmptyField {
		if wantMin {
			return math.Inf(1)
		}
		return math.Inf(-1)
	}
	return float64(v)
}

func (m *Mutex) zeroChannelLocked(l arrayLayout) {
	for i := l.wordOffset + channelHeaderLen; i < l.wordOffset+l.wordLen; i++ {
		m.fwords[i] = 0
	}
}

// SetSignalRange clamps newEnd-newStart to AllocatedRange, then either
// zeros everything (old/new ranges disjoint) or shifts each channel's
// samples by the delta, clearing the vacated region and recomputing
// updated_start/updated_end within [0, data_len].
func (m *Mutex) SetSignalRange(newStart, newEnd int32) error {
	_, err := ExecuteWithLock(m, LockWrite, func() (struct{}, error) {
		allocated := m.iwords[wordAllocRange]
		if newEnd-newStart > allocated {
			newEnd = newStart + allocated
		}
		oldStart, oldEnd := m.iwords[wordRangeStart], m.iwords[wordRangeEnd]
		disjoint := newStart >= oldEnd || newEnd <= oldStart || (oldStart == 0 && oldEnd == 0)
		for _, l := range m.layouts {
			sr := m.fwords[l.wordOffset]
			dataLen := l.wordLen - channelHeaderLen
			if disjoint || sr == 0 {
				m.zeroChannelLocked(l)
				m.fwords[l.wordOffset+1] = float32(EmptyField)
				m.fwords[l.wordOffset+2] = float32(EmptyField)
				continue
			}
			delta := int(roundFloat(float32(newStart-oldStart) * sr))
			shifted := make([]float32, dataLen)
			base := l.wordOffset + channelHeaderLen
			for i := 0; i < dataLen; i++ {
				src := i + delta
				if src >= 0 && src < dataLen {
					shifted[i] = m.fwords[base+src]
				}
			}
			copy(m.fwords[base:base+dataLen], shifted)

			us, ue := int(m.fwords[l.wordOffset+1])-delta, int(m.fwords[l.wordOffset+2])-delta
			if us < 0 {
				us = 0
			}
			if ue > dataLen {
				ue = dataLen
			}
			if us > ue || m.fwords[l.wordOffset+1] == float32(EmptyField) {
				m.fwords[l.wordOffset+1] = float32(EmptyField)
				m.fwords[l.wordOffset+2] = float32(EmptyField)
			} else {
				m.fwords[l.wordOffset+1] = float32(us)
				m.fwords[l.wordOffset+2] = float32(ue)
			}
		}
		m.iwords[wordRangeStart] = newStart
		m.iwords[wordRangeEnd] = newEnd
		return struct{}{}, nil
	})
	return err
}

// Invalidate sets updated_start=updated_end=EMPTY on the listed channels,
// or all channels if channels is nil.
func (m *Mutex) Invalidate(channels []int) error {
	_, err := ExecuteWithLock(m, LockWrite, func() (struct{}, error) {
		idxs := channels
		if idxs == nil {
			idxs = make([]int, len(m.layouts))
			for i := range idxs {
				idxs[i] = i
			}
		}
		for _, ci := range idxs {
			if ci < 0 || ci >= len(m.layouts) {
				continue
			}
			l := m.layouts[ci]
			m.fwords[l.wordOffset+1] = float32(EmptyField)
			m.fwords[l.wordOffset+2] = float32(EmptyField)
		}
		return struct{}{}, nil
	})
	return err
}

// WriteSignals replaces per-channel data wholesale, padding or
// truncating mismatched lengths (truncated is reported so the caller
// can log a warning per spec §4.1).
func (m *Mutex) WriteSignals(signals [][]float32) (truncated bool, err error) {
	return ExecuteWithLock(m, LockWrite, func() (bool, error) {
		truncated := false
		for i, data := range signals {
			if i >= len(m.layouts) {
				break
			}
			l := m.layouts[i]
			dataLen := l.wordLen - channelHeaderLen
			n := len(data)
			if n > dataLen {
				n = dataLen
				truncated = true
			}
			base := l.wordOffset + channelHeaderLen
			for j := 0; j < dataLen; j++ {
				if j < n {
					m.fwords[base+j] = data[j]
				} else {
					m.fwords[base+j] = 0
				}
			}
			m.fwords[l.wordOffset+1] = 0
			m.fwords[l.wordOffset+2] = float32(n)
		}
		return truncated, nil
	})
}

// ReadSignals returns a snapshot of each channel's populated samples
// (between updated_start and updated_end). Safe on a coupled, read-only
// view — it only takes LockRead.
func (m *Mutex) ReadSignals() ([]Part, error) {
	return ExecuteWithLock(m, LockRead, func() ([]Part, error) {
		out := make([]Part, len(m.layouts))
		for i, l := range m.layouts {
			sr := m.fwords[l.wordOffset]
			us := int32(m.fwords[l.wordOffset+1])
			ue := int32(m.fwords[l.wordOffset+2])
			if us == EmptyField || ue == EmptyField {
				out[i] = Part{SamplingRate: sr}
				continue
			}
			data := make([]float32, ue-us)
			base := l.wordOffset + channelHeaderLen + int(us)
			copy(data, m.fwords[base:base+int(ue-us)])
			out[i] = Part{
				SamplingRate: sr,
				Start:        m.RangeStart() + float32(us)/sr,
				Data:         data,
			}
		}
		return out, nil
	})
}

// NumChannels reports how many channel arrays SetDataArrays allocated.
func (m *Mutex) NumChannels() int { return len(m.layouts) }

func floatsEqual(a, b float32) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= floatEps
}

func roundFloat(f float32) float32 { return float32(math.Round(float64(f))) }
