package worker

import (
	"context"

	"github.com/dma-labs/biomontage/pkg/reader"
)

// ReaderWorker exposes a *reader.Reader as a shared-worker cache (spec
// §4.5's "shared-worker cache": a raw-signal reader serving multiple
// montage-worker consumers over one transport), registering
// get-range-start/get-range-end/get-signals — the same three actions
// sigcache.RemoteProxy commissions.
type ReaderWorker struct {
	r *reader.Reader
}

// NewReaderWorker wires r's input-side actions onto d.
func NewReaderWorker(r *reader.Reader, d *Dispatcher) *ReaderWorker {
	w := &ReaderWorker{r: r}
	d.Register("get-range-start", nil, w.handleRangeStart)
	d.Register("get-range-end", nil, w.handleRangeEnd)
	d.Register("get-signals", nil, w.handleSignals)
	return w
}

func (w *ReaderWorker) handleRangeStart(req Request) (map[string]any, error) {
	v, err := w.r.InputRangeStart(context.Background())
	if err != nil {
		return nil, err
	}
	return map[string]any{"value": v}, nil
}

func (w *ReaderWorker) handleRangeEnd(req Request) (map[string]any, error) {
	v, err := w.r.InputRangeEnd(context.Background())
	if err != nil {
		return nil, err
	}
	return map[string]any{"value": v}, nil
}

func (w *ReaderWorker) handleSignals(req Request) (map[string]any, error) {
	signals, err := w.r.InputSignals(context.Background())
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, len(signals))
	for i, s := range signals {
		out[i] = map[string]any{
			"samplingRate": s.SamplingRate,
			"data":         s.Data,
			"updatedStart": s.UpdatedStart,
			"updatedEnd":   s.UpdatedEnd,
		}
	}
	return map[string]any{"signals": out}, nil
}
