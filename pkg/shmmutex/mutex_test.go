package shmmutex

import "testing"

func newTestMutex(t *testing.T, channels int, samplesPerChannel int) *Mutex {
	t.Helper()
	size := (wordDataRegion + channels*(channelHeaderLen+samplesPerChannel)) * 4
	buf := NewHeapBuffer(size)
	m := New()
	if err := m.Initialize(buf); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	props := make([]ArrayProps, channels)
	for i := range props {
		props[i] = ArrayProps{LengthSamples: samplesPerChannel}
	}
	if err := m.SetDataArrays(props); err != nil {
		t.Fatalf("SetDataArrays: %v", err)
	}
	if err := m.SetAllocatedRange(10); err != nil {
		t.Fatalf("SetAllocatedRange: %v", err)
	}
	if err := m.SetSignalRange(0, 10); err != nil {
		t.Fatalf("SetSignalRange: %v", err)
	}
	return m
}

func TestInsertAndReadSignals(t *testing.T) {
	m := newTestMutex(t, 1, 1000) // 1 channel, 100Hz * 10s
	data := make([]float32, 500)
	for i := range data {
		data[i] = float32(i) / 100
	}
	if _, err := m.InsertSignals([]Part{{SamplingRate: 100, Start: 0, Data: data}}); err != nil {
		t.Fatalf("InsertSignals: %v", err)
	}
	parts, err := m.ReadSignals()
	if err != nil {
		t.Fatalf("ReadSignals: %v", err)
	}
	if len(parts[0].Data) != 500 {
		t.Fatalf("expected 500 samples, got %d", len(parts[0].Data))
	}
	if parts[0].Data[10] != data[10] {
		t.Fatalf("sample mismatch at 10: got %v want %v", parts[0].Data[10], data[10])
	}
}

func TestSamplingRateMismatchZeroesChannel(t *testing.T) {
	m := newTestMutex(t, 1, 1000)
	data := []float32{1, 2, 3}
	if _, err := m.InsertSignals([]Part{{SamplingRate: 100, Start: 0, Data: data}}); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	_, err := m.InsertSignals([]Part{{SamplingRate: 50, Start: 0, Data: data}})
	if err == nil {
		t.Fatalf("expected sampling rate mismatch error")
	}
	parts, _ := m.ReadSignals()
	for _, v := range parts[0].Data {
		if v != 0 {
			t.Fatalf("expected zeroed channel after mismatch, got %v", v)
		}
	}
}

// A Part whose Start lands before the mutex's current range (a
// reordered or late write) must not leave a negative updated_start —
// ReadSignals indexes m.fwords with it directly and a negative offset
// would run off the channel's array.
func TestInsertSignalsClampsUpdatedRangeToChannelBounds(t *testing.T) {
	m := newTestMutex(t, 1, 1000) // 1 channel, 100Hz * 10s, range [0, 10)
	data := []float32{1, 2, 3}
	if _, err := m.InsertSignals([]Part{{SamplingRate: 100, Start: -1, Data: data}}); err != nil {
		t.Fatalf("InsertSignals: %v", err)
	}
	parts, err := m.ReadSignals()
	if err != nil {
		t.Fatalf("ReadSignals: %v", err)
	}
	if parts[0].Start < 0 {
		t.Fatalf("expected updated_start clamped to the channel's start, got Start=%v", parts[0].Start)
	}
}

func TestInvalidateClearsUpdatedRange(t *testing.T) {
	m := newTestMutex(t, 1, 1000)
	data := []float32{1, 2, 3}
	if _, err := m.InsertSignals([]Part{{SamplingRate: 100, Start: 0, Data: data}}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := m.Invalidate(nil); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	parts, _ := m.ReadSignals()
	if len(parts[0].Data) != 0 {
		t.Fatalf("expected empty data after invalidate, got %d samples", len(parts[0].Data))
	}
}

func TestCoupledViewCannotWrite(t *testing.T) {
	m := newTestMutex(t, 1, 1000)
	desc, err := m.PropertiesForCoupling("test-seg", 0)
	if err != nil {
		t.Fatalf("PropertiesForCoupling: %v", err)
	}
	coupled, err := FromDescriptor(desc, m.buf)
	if err != nil {
		t.Fatalf("FromDescriptor: %v", err)
	}
	if _, err := coupled.InsertSignals([]Part{{SamplingRate: 100, Start: 0, Data: []float32{1}}}); err == nil {
		t.Fatalf("expected write to fail on coupled view")
	}

	data := []float32{1, 2, 3}
	if _, err := m.InsertSignals([]Part{{SamplingRate: 100, Start: 0, Data: data}}); err != nil {
		t.Fatalf("owner insert: %v", err)
	}
	parts, err := coupled.ReadSignals()
	if err != nil {
		t.Fatalf("coupled read: %v", err)
	}
	if len(parts[0].Data) != 3 {
		t.Fatalf("coupled view did not observe owner's write: got %d samples", len(parts[0].Data))
	}
}

func TestSetSignalRangeShiftsData(t *testing.T) {
	m := newTestMutex(t, 1, 1000)
	data := make([]float32, 1000)
	for i := range data {
		data[i] = float32(i)
	}
	if _, err := m.InsertSignals([]Part{{SamplingRate: 100, Start: 0, Data: data}}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := m.SetSignalRange(2, 12); err != nil {
		t.Fatalf("SetSignalRange: %v", err)
	}
	parts, _ := m.ReadSignals()
	// Shifting the window forward by 2s at 100Hz should drop the first
	// 200 samples and keep the rest as the new [0, 800) valid region.
	if len(parts[0].Data) != 800 {
		t.Fatalf("expected 800 retained samples after shift, got %d", len(parts[0].Data))
	}
	if parts[0].Data[0] != data[200] {
		t.Fatalf("expected shifted sample 200 at front, got %v want %v", parts[0].Data[0], data[200])
	}
}

func TestReadSignalsFailsOnUninitialized(t *testing.T) {
	m := New()
	if _, err := m.ReadSignals(); err == nil {
		t.Fatalf("expected error on uninitialized mutex")
	}
}
