package montage

import "testing"

func TestFiltFiltSuppressesDCWithHighpass(t *testing.T) {
	// A highpass removes a constant (DC) component: after filtfilt the
	// steady-state samples should settle near zero, not the original level.
	x := make([]float64, 1000)
	for i := range x {
		x[i] = 5.0
	}
	cascade := BuildCascade(Config{HighpassHz: 1.0}, 100)
	y := FiltFilt(cascade, x)

	mid := y[len(y)/2]
	if mid > 0.5 || mid < -0.5 {
		t.Fatalf("expected highpass to suppress DC, got steady-state value %v", mid)
	}
}

func TestFiltFiltNoOpWithoutFilters(t *testing.T) {
	cascade := BuildCascade(Config{}, 100)
	if len(cascade) != 0 {
		t.Fatalf("expected empty cascade for inactive config")
	}
	x := []float64{1, 2, 3}
	y := FiltFilt(cascade, x)
	for i := range x {
		if x[i] != y[i] {
			t.Fatalf("expected identity output for empty cascade")
		}
	}
}

func TestComputeWindowShortensOnOverlapOnly(t *testing.T) {
	w := ComputeWindow(100, 200, 0.5, 100, 1000, nil)
	if w.FilterLen != 50 {
		t.Fatalf("expected filterLen 50, got %d", w.FilterLen)
	}
	if w.DataStart != w.FilterStart || w.DataEnd != w.FilterEnd {
		t.Fatalf("expected no shortening without interruptions")
	}
}

func TestComputeWindowShortensForLeftGap(t *testing.T) {
	gaps := []IndexSpan{{Start: 60, End: 80}}
	w := ComputeWindow(100, 200, 0.5, 100, 1000, gaps)
	if w.DataStart != 80 {
		t.Fatalf("expected dataStart pulled to gap end 80, got %d", w.DataStart)
	}
	if w.DataEnd != w.FilterEnd {
		t.Fatalf("expected right side untouched")
	}
}

func TestComputeWindowShortensForRightGap(t *testing.T) {
	gaps := []IndexSpan{{Start: 210, End: 230}}
	w := ComputeWindow(100, 200, 0.5, 100, 1000, gaps)
	if w.DataEnd != 210 {
		t.Fatalf("expected dataEnd pulled to gap start 210, got %d", w.DataEnd)
	}
}
