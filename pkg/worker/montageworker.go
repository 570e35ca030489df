package worker

import (
	"context"
	"fmt"

	"github.com/dma-labs/biomontage/pkg/montage"
	"github.com/dma-labs/biomontage/pkg/reader"
)

// MontageWorker registers the montage-side actions of spec §4.5's
// worker action table against a Dispatcher: get-signals, set-filters,
// set-interruptions, release-cache. setup-worker/setup-input-* are
// deployment-specific (they construct the Processor's input cache) and
// are left to the caller, which registers them separately once the
// concrete cache backing (local, mutex, remote) is chosen.
type MontageWorker struct {
	proc *montage.Processor
	d    *Dispatcher
}

// NewMontageWorker wires proc's get-signals/set-filters/set-interruptions/
// release-cache actions onto d, and installs proc's cache-signals
// notification. The notification can only be wired here, after d
// exists — proc is built first and handed to this constructor, so
// NewProcessor's notify parameter can never carry it (spec §4.5's
// cache-signals progress notification).
func NewMontageWorker(proc *montage.Processor, d *Dispatcher) *MontageWorker {
	w := &MontageWorker{proc: proc, d: d}
	proc.SetNotify(func(cacheStart, cacheEnd float64) {
		rdr := proc.Reader()
		coords := rdr.Coords()
		rng := reader.Range{Start: coords.RecordingTime(cacheStart), End: coords.RecordingTime(cacheEnd)}
		_ = d.Notify("cache-signals", map[string]any{
			"range":         []float64{rng.Start, rng.End},
			"events":        annotationProps(rdr.GetAnnotations(rng)),
			"interruptions": interruptionProps(rdr.GetDataGaps(rng, false)),
		})
	})
	d.Register("get-signals", Schema{"range": Tuple("number")}, w.handleGetSignals)
	d.Register("set-filters", nil, w.handleSetFilters)
	d.Register("set-interruptions", nil, w.handleSetInterruptions)
	d.Register("release-cache", nil, w.handleReleaseCache)
	return w
}

func (w *MontageWorker) handleGetSignals(req Request) (map[string]any, error) {
	rawRange, ok := req.Props["range"].([]any)
	if !ok || len(rawRange) != 2 {
		return nil, fmt.Errorf("get-signals: range must be [start, end]")
	}
	start, sok := rawRange[0].(float64)
	end, eok := rawRange[1].(float64)
	if !sok || !eok {
		return nil, fmt.Errorf("get-signals: range values must be numeric")
	}

	var filter ChannelFilterProps
	if cfg, ok := req.Props["config"].(map[string]any); ok {
		filter = parseChannelFilterProps(cfg)
	}

	part, err := w.proc.GetSignals(context.Background(), start, end, filter.toMontage())
	if err != nil {
		return nil, err
	}

	signals := make([]map[string]any, len(part.Signals))
	for i, s := range part.Signals {
		signals[i] = map[string]any{
			"samplingRate": s.SamplingRate,
			"data":         s.Data,
			"updatedStart": s.UpdatedStart,
			"updatedEnd":   s.UpdatedEnd,
		}
	}

	rdr := w.proc.Reader()
	rng := reader.Range{Start: start, End: end}
	resp := map[string]any{
		"start":         part.Start,
		"end":           part.End,
		"signals":       signals,
		"events":        annotationProps(rdr.GetAnnotations(rng)),
		"interruptions": interruptionProps(rdr.GetDataGaps(rng, false)),
	}
	if ctxName, ok := req.Props["highlightContext"].(string); ok && ctxName != "" {
		resp["highlights"] = highlightProps(rdr.GetHighlights(ctxName, rng))
	}
	return resp, nil
}

func (w *MontageWorker) handleSetFilters(req Request) (map[string]any, error) {
	cfg := parseFilterConfig(req.Props)
	var channels []string
	if raw, ok := req.Props["channels"].([]any); ok {
		for _, c := range raw {
			if s, ok := c.(string); ok {
				channels = append(channels, s)
			}
		}
	}
	updated := w.proc.SetFilters(cfg, channels)
	return map[string]any{"updated": updated}, nil
}

func (w *MontageWorker) handleSetInterruptions(req Request) (map[string]any, error) {
	raw, _ := req.Props["interruptions"].([]any)
	gaps := make([]InterruptionProp, 0, len(raw))
	for _, r := range raw {
		m, ok := r.(map[string]any)
		if !ok {
			continue
		}
		start, _ := m["start"].(float64)
		duration, _ := m["duration"].(float64)
		gaps = append(gaps, InterruptionProp{Start: start, Duration: duration})
	}
	w.proc.SetInterruptions(toReaderInterruptions(gaps))
	return map[string]any{}, nil
}

// handleReleaseCache is release-cache (spec §4.5): cancel any
// outstanding background fill, release the output cache's retained
// buffers, and tear down the input reader's cache.
func (w *MontageWorker) handleReleaseCache(req Request) (map[string]any, error) {
	if err := w.proc.Release(); err != nil {
		return nil, err
	}
	return map[string]any{}, nil
}
