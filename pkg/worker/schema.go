package worker

import "fmt"

// FieldSpec is one schema entry: either a single type name ("string",
// "number", "bool", "array", "object") or a tuple of type names
// meaning the prop must be an array whose elements each match one of
// them (spec §4.5 step 2: "a tuple [t1, t2, …] meaning the value must
// be an array of those types").
type FieldSpec struct {
	Types []string
	array bool
}

// Type builds a single-type field spec.
func Type(t string) FieldSpec { return FieldSpec{Types: []string{t}} }

// Tuple builds an array-of-types field spec.
func Tuple(types ...string) FieldSpec { return FieldSpec{Types: types, array: true} }

func (f FieldSpec) isTuple() bool { return f.array }

// Schema maps prop name to its FieldSpec. Validate rejects missing or
// mismatched keys (spec §4.5: "missing/mismatched keys fail
// validation") — it is deliberately shallow, one level of nesting.
type Schema map[string]FieldSpec

// Validate checks props against s.
func (s Schema) Validate(props map[string]any) error {
	for name, spec := range s {
		v, ok := props[name]
		if !ok {
			return fmt.Errorf("missing required prop %q", name)
		}
		if !spec.isTuple() {
			if !matchesType(v, spec.Types[0]) {
				return fmt.Errorf("prop %q: expected %s", name, spec.Types[0])
			}
			continue
		}
		arr, ok := v.([]any)
		if !ok {
			return fmt.Errorf("prop %q: expected array", name)
		}
		for i, el := range arr {
			matched := false
			for _, t := range spec.Types {
				if matchesType(el, t) {
					matched = true
					break
				}
			}
			if !matched {
				return fmt.Errorf("prop %q[%d]: expected one of %v", name, i, spec.Types)
			}
		}
	}
	return nil
}

func matchesType(v any, t string) bool {
	switch t {
	case "string":
		_, ok := v.(string)
		return ok
	case "number":
		switch v.(type) {
		case float64, float32, int, int64:
			return true
		}
		return false
	case "bool":
		_, ok := v.(bool)
		return ok
	case "array":
		_, ok := v.([]any)
		return ok
	case "object":
		_, ok := v.(map[string]any)
		return ok
	default:
		return false
	}
}
