//go:build linux

package shmmutex

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Segment is a POSIX shared-memory-backed Buffer, opened under
// /dev/shm the same way the teacher's pkg/shm_ring does. It is the real
// "parallel execution contexts sharing a byte region" substrate: one
// process calls CreateSegment and owns a writable Mutex; another calls
// OpenSegment and reconstructs a read-only coupled view via
// FromDescriptor.
type Segment struct {
	fd   int
	data []byte
}

// CreateSegment allocates (or reopens, if it already exists) a named
// shared-memory segment of the given size under /dev/shm.
func CreateSegment(name string, size int) (*Segment, error) {
	path := "/dev/shm/" + name
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CREAT, 0666)
	if err != nil {
		return nil, fmt.Errorf("shmmutex: open %s: %w", path, err)
	}
	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("shmmutex: ftruncate %s: %w", path, err)
	}
	data, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("shmmutex: mmap %s: %w", path, err)
	}
	return &Segment{fd: fd, data: data}, nil
}

// OpenSegment maps an existing named segment of the given size
// read-write (the OS enforces no further access control here; the
// read-only guard lives in Mutex.writable per spec §4.1's "output-only"
// contract).
func OpenSegment(name string, size int) (*Segment, error) {
	path := "/dev/shm/" + name
	fd, err := unix.Open(path, unix.O_RDWR, 0666)
	if err != nil {
		return nil, fmt.Errorf("shmmutex: open %s: %w", path, err)
	}
	data, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("shmmutex: mmap %s: %w", path, err)
	}
	return &Segment{fd: fd, data: data}, nil
}

// Buffer returns a shmmutex.Buffer viewing this segment's bytes.
func (s *Segment) Buffer() *Buffer { return NewBuffer(s.data) }

// Close unmaps and closes the segment's file descriptor.
func (s *Segment) Close() error {
	if s.data != nil {
		unix.Munmap(s.data)
		s.data = nil
	}
	if s.fd != 0 {
		unix.Close(s.fd)
		s.fd = 0
	}
	return nil
}

// RemoveSegment unlinks a named segment from /dev/shm.
func RemoveSegment(name string) error {
	err := unix.Unlink("/dev/shm/" + name)
	if err != nil && err != unix.ENOENT {
		return err
	}
	return nil
}
