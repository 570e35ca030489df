package sigcache

import (
	"testing"

	"github.com/dma-labs/biomontage/pkg/biomontage/errs"
)

func samplePart(start, end float64, sr float32) Part {
	n := int((end - start) * float64(sr))
	data := make([]float32, n)
	for i := range data {
		data[i] = float32(i)
	}
	return Part{Start: start, End: end, Signals: []SignalPart{{SamplingRate: sr, Data: data, UpdatedStart: 0, UpdatedEnd: n}}}
}

func TestCombineIdempotent(t *testing.T) {
	a := samplePart(0, 10, 100)
	c, err := Combine(a, a)
	if err != nil {
		t.Fatalf("Combine(a,a): %v", err)
	}
	if c.Start != a.Start || c.End != a.End {
		t.Fatalf("combine(A,A) changed range: got [%v,%v] want [%v,%v]", c.Start, c.End, a.Start, a.End)
	}
	if len(c.Signals[0].Data) != len(a.Signals[0].Data) {
		t.Fatalf("combine(A,A) changed length")
	}
}

func TestCombineDisjointFails(t *testing.T) {
	a := samplePart(0, 5, 100)
	b := samplePart(10, 15, 100)
	if _, err := Combine(a, b); err == nil {
		t.Fatalf("expected disjoint combine to fail")
	} else if err != errs.ErrDisjoint {
		t.Fatalf("expected ErrDisjoint, got %v", err)
	}
}

func TestCombineContainedIsNoop(t *testing.T) {
	a := samplePart(0, 10, 100)
	b := samplePart(2, 5, 100)
	c, err := Combine(a, b)
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if c.Start != a.Start || c.End != a.End {
		t.Fatalf("expected no-op combine, got [%v,%v]", c.Start, c.End)
	}
}

func TestCombineOverlapping(t *testing.T) {
	a := samplePart(0, 10, 100)
	b := samplePart(5, 15, 100)
	c, err := Combine(a, b)
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if c.Start != 0 || c.End != 15 {
		t.Fatalf("expected [0,15], got [%v,%v]", c.Start, c.End)
	}
	if len(c.Signals[0].Data) != 1500 {
		t.Fatalf("expected 1500 samples, got %d", len(c.Signals[0].Data))
	}
}

func TestCombineCommutative(t *testing.T) {
	a := samplePart(0, 10, 100)
	b := samplePart(5, 15, 100)
	c1, err1 := Combine(a, b)
	c2, err2 := Combine(b, a)
	if err1 != nil || err2 != nil {
		t.Fatalf("combine errors: %v %v", err1, err2)
	}
	if c1.Start != c2.Start || c1.End != c2.End {
		t.Fatalf("combine not commutative on range: %v vs %v", c1, c2)
	}
	for i := range c1.Signals[0].Data {
		if c1.Signals[0].Data[i] != c2.Signals[0].Data[i] {
			t.Fatalf("combine not commutative on data at %d: %v vs %v", i, c1.Signals[0].Data[i], c2.Signals[0].Data[i])
		}
	}
}

func TestCombineAllMergesToSingle(t *testing.T) {
	parts := []Part{samplePart(10, 20, 100), samplePart(0, 10, 100), samplePart(20, 30, 100)}
	merged := CombineAll(parts)
	if len(merged) != 1 {
		t.Fatalf("expected single merged part, got %d", len(merged))
	}
	if merged[0].Start != 0 || merged[0].End != 30 {
		t.Fatalf("expected [0,30], got [%v,%v]", merged[0].Start, merged[0].End)
	}
}

func TestIsContinuous(t *testing.T) {
	contiguous := []Part{samplePart(0, 5, 100), samplePart(5, 10, 100)}
	if !IsContinuous(contiguous) {
		t.Fatalf("expected contiguous parts to be continuous")
	}
	gapped := []Part{samplePart(0, 5, 100), samplePart(6, 10, 100)}
	if IsContinuous(gapped) {
		t.Fatalf("expected gapped parts to be discontinuous")
	}
}
