package worker

import (
	"github.com/dma-labs/biomontage/pkg/montage"
	"github.com/dma-labs/biomontage/pkg/reader"
)

// ChannelFilterProps is the wire shape of spec §4.4 step 2's
// include/exclude channel selector, as it crosses the commission
// boundary in get-signals' config payload.
type ChannelFilterProps struct {
	Include []string
	Exclude []string
}

func parseChannelFilterProps(m map[string]any) ChannelFilterProps {
	return ChannelFilterProps{
		Include: stringSlice(m["include"]),
		Exclude: stringSlice(m["exclude"]),
	}
}

func (f ChannelFilterProps) toMontage() montage.ChannelFilter {
	return montage.ChannelFilter{Include: f.Include, Exclude: f.Exclude}
}

func stringSlice(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		if s, ok := r.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// InterruptionProp is the wire shape of one set-interruptions entry
// (spec §4.5's action table: `{start, duration}`).
type InterruptionProp struct {
	Start    float64
	Duration float64
}

func toReaderInterruptions(props []InterruptionProp) []reader.Interruption {
	out := make([]reader.Interruption, len(props))
	for i, p := range props {
		out[i] = reader.Interruption{Start: p.Start, Duration: p.Duration}
	}
	return out
}

// annotationProps/highlightProps/interruptionProps render the
// delivery-only objects spec §1 keeps in scope onto the wire: the
// cache-signals notification payload is `{range, events?,
// interruptions?}`, and get-signals carries the same shapes for the
// requested range.
func annotationProps(annos []reader.Annotation) []map[string]any {
	out := make([]map[string]any, len(annos))
	for i, a := range annos {
		out[i] = map[string]any{"start": a.Start, "label": a.Label}
	}
	return out
}

func highlightProps(highlights []reader.Highlight) []map[string]any {
	out := make([]map[string]any, len(highlights))
	for i, h := range highlights {
		out[i] = map[string]any{"start": h.Start, "label": h.Label}
	}
	return out
}

func interruptionProps(gaps []reader.Interruption) []map[string]any {
	out := make([]map[string]any, len(gaps))
	for i, g := range gaps {
		out[i] = map[string]any{"start": g.Start, "duration": g.Duration}
	}
	return out
}

func parseFilterConfig(props map[string]any) montage.Config {
	var cfg montage.Config
	if v, ok := props["highpass"].(float64); ok {
		cfg.HighpassHz = v
	}
	if v, ok := props["lowpass"].(float64); ok {
		cfg.LowpassHz = v
	}
	if v, ok := props["notch"].(float64); ok {
		cfg.NotchHz = v
	}
	if raw, ok := props["bandreject"].([]any); ok {
		for _, r := range raw {
			pair, ok := r.([]any)
			if !ok || len(pair) != 2 {
				continue
			}
			low, lok := pair[0].(float64)
			high, hok := pair[1].(float64)
			if lok && hok {
				cfg.BandRejectsHz = append(cfg.BandRejectsHz, [2]float64{low, high})
			}
		}
	}
	return cfg
}
