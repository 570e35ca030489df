// Package demoreader implements a synthetic file-format reader: a
// multi-channel sine-wave generator standing in for a real recording
// file, used for exercising the cache/montage pipeline without
// hardware or fixture files. The encoding and generation loop mirror
// the teacher's dummy device simulator, retargeted from 2-channel I/Q
// pairs to an arbitrary bank of single-valued biosignal channels.
package demoreader

import (
	"encoding/binary"
	"math"

	"github.com/rs/zerolog"

	"github.com/dma-labs/biomontage/pkg/biomontage/errs"
	"github.com/dma-labs/biomontage/pkg/reader"
	"github.com/dma-labs/biomontage/pkg/sigcache"
)

const bytesPerSample = 4 // float32, little-endian

// ChannelSpec describes one synthetic channel's waveform.
type ChannelSpec struct {
	Name        string
	FrequencyHz float64
	AmplitudeUV float64
	PhaseRad    float64
}

// DemoReader generates a fixed-length multi-channel recording as sine
// waves, one per ChannelSpec, sampled at SampleRate. It satisfies the
// reader.ReadPartFromFile contract over an in-memory "file" built at
// construction time, and owns a *reader.Reader for coordinate and
// cache bookkeeping.
type DemoReader struct {
	*reader.Reader

	channels   []ChannelSpec
	sampleRate float64
	file       []byte // raw little-endian float32, channel-interleaved
}

// New builds a demo recording of durationSeconds at sampleRate Hz
// across channels, with unitSeconds-sized data units and no
// interruptions. Callers that want gaps call SetInterruptions after
// construction, same as any concrete reader would.
func New(channels []ChannelSpec, sampleRate, durationSeconds, unitSeconds float64, log zerolog.Logger) *DemoReader {
	totalSamples := int(durationSeconds * sampleRate)
	unitCount := int(math.Ceil(durationSeconds / unitSeconds))

	file := make([]byte, totalSamples*len(channels)*bytesPerSample)
	for s := 0; s < totalSamples; s++ {
		t := float64(s) / sampleRate
		for c, ch := range channels {
			v := float32(ch.AmplitudeUV * math.Sin(2*math.Pi*ch.FrequencyHz*t+ch.PhaseRad))
			idx := (s*len(channels) + c) * bytesPerSample
			binary.LittleEndian.PutUint32(file[idx:], math.Float32bits(v))
		}
	}

	d := &DemoReader{channels: channels, sampleRate: sampleRate, file: file}
	coords := reader.NewCoords(unitSeconds, unitCount)
	d.Reader = reader.New(coords, d.readPartFromFile, log)

	unitBytes := int64(unitSeconds * sampleRate * float64(len(channels)) * bytesPerSample)
	blocks := make([]reader.Block, unitCount)
	for i := range blocks {
		blocks[i] = reader.Block{
			StartUnit: i,
			EndUnit:   i + 1,
			StartTime: float64(i) * unitSeconds,
			EndTime:   float64(i+1) * unitSeconds,
			StartByte: int64(i) * unitBytes,
			EndByte:   int64(i+1) * unitBytes,
		}
	}
	d.Reader.SetBlocks(blocks)
	return d
}

func (d *DemoReader) readPartFromFile(byteStart, byteLength int64) ([]byte, error) {
	if byteStart < 0 || byteStart+byteLength > int64(len(d.file)) {
		return nil, errs.ErrOutOfBounds
	}
	out := make([]byte, byteLength)
	copy(out, d.file[byteStart:byteStart+byteLength])
	return out, nil
}

// ChannelNames returns the configured channel names in order.
func (d *DemoReader) ChannelNames() []string {
	names := make([]string, len(d.channels))
	for i, c := range d.channels {
		names[i] = c.Name
	}
	return names
}

// GenerateSignals decodes the synthetic recording for [start, end)
// (recording time) into a sigcache.Part, one SignalPart per channel,
// sampled at SampleRate. Interruption spans are not present in the
// byte-addressed file (demo recordings are gap-free by default) so
// this always returns fully-populated channels.
func (d *DemoReader) GenerateSignals(start, end float64) sigcache.Part {
	startSample := int(start * d.sampleRate)
	endSample := int(end * d.sampleRate)
	n := endSample - startSample

	signals := make([]sigcache.SignalPart, len(d.channels))
	for c := range d.channels {
		data := make([]float32, n)
		for s := 0; s < n; s++ {
			idx := ((startSample+s)*len(d.channels) + c) * bytesPerSample
			data[s] = math.Float32frombits(binary.LittleEndian.Uint32(d.file[idx:]))
		}
		signals[c] = sigcache.SignalPart{SamplingRate: float32(d.sampleRate), Data: data, UpdatedStart: 0, UpdatedEnd: n}
	}
	return sigcache.Part{Start: start, End: end, Signals: signals}
}
