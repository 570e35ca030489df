// Package errs defines the error taxonomy shared by every layer of the
// montage core. Errors never cross a worker-commission boundary as Go
// errors; they are stringified into {success:false, error} responses
// (see pkg/worker).
package errs

import "errors"

var (
	// ErrNotLoadedYet means the requested range is outside the input
	// cache's current coverage. The caller (orchestrator) schedules a
	// load and retries; this is not a fatal failure.
	ErrNotLoadedYet = errors.New("biomontage: range not loaded yet")

	// ErrValidation means a commission's properties failed schema
	// validation. Recovered locally, never propagated.
	ErrValidation = errors.New("biomontage: validation failed")

	// ErrMutexNotInitialized means a shared-memory mutex operation ran
	// before initialize() was called.
	ErrMutexNotInitialized = errors.New("biomontage: mutex not initialized")

	// ErrLockTimeout means execute_with_lock could not acquire the
	// master lock within its timeout.
	ErrLockTimeout = errors.New("biomontage: lock timeout")

	// ErrOutOfBounds means a requested range falls outside
	// [range_start, range_end] of a mutex or cache.
	ErrOutOfBounds = errors.New("biomontage: range out of bounds")

	// ErrSamplingRateMismatch means insert_signals saw a sampling rate
	// that does not match the channel's configured rate. The affected
	// channel buffer is zeroed so the mismatch is observable downstream.
	ErrSamplingRateMismatch = errors.New("biomontage: sampling rate mismatch")

	// ErrProtocolMismatch means a response arrived with no matching
	// pending commission (an orphaned rn). Callers should warn and drop.
	ErrProtocolMismatch = errors.New("biomontage: protocol mismatch")

	// ErrStateMisuse means an operation was called out of order against
	// a component's state machine (e.g. insert_signals before the
	// buffers were initialized). Fatal within its own worker context,
	// never fatal to the whole system.
	ErrStateMisuse = errors.New("biomontage: state machine misuse")

	// ErrDisjoint means two signal-cache parts do not overlap or touch
	// and cannot be combined.
	ErrDisjoint = errors.New("biomontage: parts are disjoint")

	// ErrSuperseded means a commission was replaced by a later one on
	// the same action with overwriteRequest=true.
	ErrSuperseded = errors.New("biomontage: superseded")

	// ErrWriteNotAllowed means a write was attempted on a coupled,
	// read-only mutex view.
	ErrWriteNotAllowed = errors.New("biomontage: write not allowed on coupled view")
)
