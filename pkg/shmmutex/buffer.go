package shmmutex

import "unsafe"

// Buffer is the raw byte region a Mutex is laid out over — either a
// POSIX shared-memory mapping (see shm.go, grounded on pkg/shm_ring's
// mmap of /dev/shm/<name>) or a plain heap buffer for single-process use
// and tests. Int32Words/Float32Words reinterpret the same bytes without
// copying, the same technique the teacher uses to overlay RingHeader on
// mmap'd bytes via unsafe.Pointer.
type Buffer struct {
	bytes []byte
}

// NewBuffer wraps an existing byte slice (already the right size).
func NewBuffer(b []byte) *Buffer { return &Buffer{bytes: b} }

// NewHeapBuffer allocates a zeroed, word-aligned buffer of the given
// byte size for single-process (no real shared memory) use.
func NewHeapBuffer(size int) *Buffer {
	return &Buffer{bytes: make([]byte, size)}
}

// Bytes returns the underlying region, e.g. for transferring to another
// process via a coupling descriptor.
func (b *Buffer) Bytes() []byte { return b.bytes }

// Int32Words reinterprets the whole region as a []int32, word-addressed
// from byte 0. Used for the master lock and meta fields.
func (b *Buffer) Int32Words() []int32 {
	if len(b.bytes) == 0 {
		return nil
	}
	n := len(b.bytes) / 4
	return unsafe.Slice((*int32)(unsafe.Pointer(&b.bytes[0])), n)
}

// Float32Words reinterprets the whole region as a []float32, aliasing
// the same memory as Int32Words — used for data arrays, whose words are
// float32-typed per spec §4.1's layout table.
func (b *Buffer) Float32Words() []float32 {
	if len(b.bytes) == 0 {
		return nil
	}
	n := len(b.bytes) / 4
	return unsafe.Slice((*float32)(unsafe.Pointer(&b.bytes[0])), n)
}
