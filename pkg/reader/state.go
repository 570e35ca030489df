package reader

import "github.com/dma-labs/biomontage/pkg/biomontage/errs"

// State is a reader's lifecycle stage (spec §4.3).
type State int

const (
	Uninitialized State = iota
	CacheOnly
	MutexReady
	Releasing
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case CacheOnly:
		return "cache_only"
	case MutexReady:
		return "mutex_ready"
	case Releasing:
		return "releasing"
	default:
		return "unknown"
	}
}

// validTransitions enumerates the reader state machine:
// Uninitialized -> CacheOnly -> MutexReady -> Releasing -> Uninitialized,
// plus the direct Uninitialized -> MutexReady setup path and Releasing
// short-circuits back from either live state.
var validTransitions = map[State][]State{
	Uninitialized: {CacheOnly, MutexReady},
	CacheOnly:     {MutexReady, Releasing},
	MutexReady:    {Releasing},
	Releasing:     {Uninitialized},
}

func (r *Reader) transitionTo(next State) error {
	for _, allowed := range validTransitions[r.state] {
		if allowed == next {
			r.state = next
			return nil
		}
	}
	return errs.ErrStateMisuse
}

// requireReady returns errs.ErrStateMisuse unless signal retrieval is
// legal in the current state (spec §4.3: CacheOnly or MutexReady only).
func (r *Reader) requireReady() error {
	if r.state != CacheOnly && r.state != MutexReady {
		return errs.ErrStateMisuse
	}
	return nil
}

// State returns the reader's current lifecycle stage.
func (r *Reader) State() State { return r.state }
