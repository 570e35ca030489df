// Package export writes a computed signal-cache part to Parquet,
// adapted from the teacher's fixed eight-channel CaptureSample writer
// (parquet_writer.go) to a tall, channel-count-independent row shape: a
// montage's channel list is only known at export time, so the row
// schema cannot be a fixed struct the way a capture's 8 I/Q pairs are.
package export

import (
	"encoding/json"
	"io"

	"github.com/segmentio/parquet-go"
)

// SampleRow is one (channel, sample) pair of an exported signal window.
// Narrow/tall instead of the teacher's wide CaptureSample layout, so
// the schema never depends on how many channels a montage has.
type SampleRow struct {
	Channel   string  `parquet:"channel"`
	SampleIdx int32   `parquet:"sample_idx"`
	TimeSec   float64 `parquet:"time_sec"`
	Value     float32 `parquet:"value"`
}

// Manifest is the export's provenance, serialized into the file's
// key-value metadata the way the teacher's NewParquetWriter embeds its
// HardwareConfig.
type Manifest struct {
	Montage    string   `json:"montage"`
	Channels   []string `json:"channels"`
	SampleRate float32  `json:"sampleRate"`
	RangeStart float64  `json:"rangeStart"`
	RangeEnd   float64  `json:"rangeEnd"`
}

// NewWriter builds a generic Parquet writer over SampleRow with the
// manifest embedded as key-value metadata, mirroring the teacher's
// NewParquetWriter(w, config) shape.
func NewWriter(w io.Writer, manifest Manifest) *parquet.GenericWriter[SampleRow] {
	manifestStr := "{}"
	if b, err := json.Marshal(manifest); err == nil {
		manifestStr = string(b)
	}
	return parquet.NewGenericWriter[SampleRow](w,
		parquet.Compression(parquet.Lz4Raw),
		parquet.KeyValueMetadata("manifest", manifestStr),
	)
}

// Channel is one channel's computed signal and the name to export it
// under (sigcache.SignalPart carries no name; the caller supplies one
// per index, matching its montage.ChannelConfig name).
type Channel struct {
	Name string
	Data []float32
}

// WriteWindow writes one SampleRow per (channel, sample), sample times
// expressed relative to rangeStart at 1/sampleRate spacing, then closes
// the writer. Channels of differing lengths are each written out to
// their own length — the cache's per-channel UpdatedStart/End is the
// caller's concern, not export's.
func WriteWindow(w io.Writer, manifest Manifest, rangeStart float64, sampleRate float32, channels []Channel) error {
	pw := NewWriter(w, manifest)
	dt := 1.0 / float64(sampleRate)

	for _, ch := range channels {
		rows := make([]SampleRow, len(ch.Data))
		for i, v := range ch.Data {
			rows[i] = SampleRow{
				Channel:   ch.Name,
				SampleIdx: int32(i),
				TimeSec:   rangeStart + float64(i)*dt,
				Value:     v,
			}
		}
		if len(rows) > 0 {
			if _, err := pw.Write(rows); err != nil {
				return err
			}
		}
	}
	return pw.Close()
}
