package reader

import "github.com/dma-labs/biomontage/pkg/biomontage/errs"

// Block is one entry of the data-block table: a contiguous run of data
// units and the byte range in the recording file they live at (spec
// §4.3). Data is filled in lazily by ReadPartFromFile and left nil
// until then.
type Block struct {
	StartUnit int
	EndUnit   int
	StartTime float64
	EndTime   float64
	StartByte int64
	EndByte   int64
	Data      []byte
}

// Loaded reports whether the block's bytes have already been read.
func (b *Block) Loaded() bool { return b.Data != nil }

// ReadPartFromFile returns the raw bytes at [byteStart, byteStart+byteLength)
// of the recording file. The concrete, format-specific reader
// implementation supplies this (spec §4.3, §6); the base package only
// orchestrates when to call it.
type ReadPartFromFile func(byteStart, byteLength int64) ([]byte, error)

// SetBlocks replaces the data-block table. Blocks must be sorted
// ascending by StartUnit and cover disjoint unit ranges; the base
// package does not itself validate overlap, since the concrete reader
// is the sole producer of this table.
func (r *Reader) SetBlocks(blocks []Block) {
	r.blocks = append([]Block(nil), blocks...)
}

// Blocks returns the data-block table.
func (r *Reader) Blocks() []Block { return r.blocks }

// blockForUnit returns the index of the block containing dataUnit, or
// -1 if none covers it.
func (r *Reader) blockForUnit(dataUnit int) int {
	for i, b := range r.blocks {
		if dataUnit >= b.StartUnit && dataUnit < b.EndUnit {
			return i
		}
	}
	return -1
}

// LoadBlockForUnit loads (via readFile) the block covering dataUnit,
// if not already loaded. Returns errs.ErrOutOfBounds if no block
// covers the unit.
func (r *Reader) LoadBlockForUnit(dataUnit int) error {
	idx := r.blockForUnit(dataUnit)
	if idx < 0 {
		return errs.ErrOutOfBounds
	}
	b := &r.blocks[idx]
	if b.Loaded() || r.readFile == nil {
		return nil
	}
	data, err := r.readFile(b.StartByte, b.EndByte-b.StartByte)
	if err != nil {
		return err
	}
	b.Data = data
	return nil
}
