package shmmutex

import "fmt"

// ArrayKind names the typed-array constructor a data array should be
// reconstructed as on the coupled side. Spec §4.1 requires the
// transferred descriptor to be fully plain data, so the constructor
// itself travels as a string rather than a function value.
type ArrayKind string

const (
	KindFloat32 ArrayKind = "float32"
	KindInt32   ArrayKind = "int32"
)

// ChannelSchema is one channel's array shape within a Descriptor.
type ChannelSchema struct {
	Kind          ArrayKind `json:"kind"`
	LengthSamples int       `json:"lengthSamples"`
}

// Descriptor is the structure-cloneable record PropertiesForCoupling
// returns: everything a second process needs to reconstruct a read-only
// view onto the same shared memory, with no function references and no
// non-transferable handles (spec §6).
type Descriptor struct {
	Name      string          `json:"name"`      // shared-memory segment name, see shm.go
	ByteStart int             `json:"byteStart"` // byte offset of this mutex within the segment
	ByteLen   int             `json:"byteLen"`
	Channels  []ChannelSchema `json:"channels"`
}

// PropertiesForCoupling returns the descriptor for this mutex. Only the
// write-owning side calls this; the result is safe to serialize to JSON
// and send across a worker-commission message (pkg/worker).
func (m *Mutex) PropertiesForCoupling(segmentName string, byteStart int) (Descriptor, error) {
	if err := m.requireInitialized(); err != nil {
		return Descriptor{}, err
	}
	channels := make([]ChannelSchema, len(m.layouts))
	for i, l := range m.layouts {
		channels[i] = ChannelSchema{Kind: KindFloat32, LengthSamples: l.wordLen - channelHeaderLen}
	}
	return Descriptor{
		Name:      segmentName,
		ByteStart: byteStart,
		ByteLen:   len(m.buf.Bytes()),
		Channels:  channels,
	}, nil
}

// FromDescriptor reconstructs a read-only coupled Mutex view over buf
// (the same physical bytes the descriptor's owner mapped). Write
// operations on the result fail with ErrWriteNotAllowed.
func FromDescriptor(desc Descriptor, buf *Buffer) (*Mutex, error) {
	if desc.ByteLen != len(buf.Bytes()) {
		return nil, fmt.Errorf("shmmutex: descriptor byte length %d does not match buffer %d", desc.ByteLen, len(buf.Bytes()))
	}
	m := &Mutex{writable: false}
	if err := m.Initialize(buf); err != nil {
		return nil, err
	}
	offset := wordDataRegion
	layouts := make([]arrayLayout, len(desc.Channels))
	for i, c := range desc.Channels {
		wordLen := channelHeaderLen + c.LengthSamples
		layouts[i] = arrayLayout{wordOffset: offset, wordLen: wordLen}
		offset += wordLen
	}
	m.layouts = layouts
	return m, nil
}
