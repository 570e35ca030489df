package reader

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/dma-labs/biomontage/pkg/biomontage/errs"
	"github.com/dma-labs/biomontage/pkg/sigcache"
	"github.com/dma-labs/biomontage/pkg/shmmutex"
)

// cacheProcess is a background fill in progress against this reader's
// cache. cancel flips continue to false; background loops check it at
// safe points between block reads (spec §4.3, §5's cancellation
// clause).
type cacheProcess struct {
	cancel context.CancelFunc
}

// Reader is the format-independent signal-reader base of spec §4.3. A
// concrete file-format reader embeds it and supplies ReadPartFromFile
// plus the block/interruption tables for its file layout.
type Reader struct {
	mu sync.Mutex

	coords      *Coords
	blocks      []Block
	annotations []Annotation
	highlights  map[string][]Highlight
	readFile    ReadPartFromFile

	state State
	cache sigcache.Cache

	processes []*cacheProcess
	log        zerolog.Logger
}

// New constructs an uninitialized reader over the given coordinate
// system. readFile may be nil if the caller only ever sets up a
// mutex-coupled (not file-backed) cache.
func New(coords *Coords, readFile ReadPartFromFile, log zerolog.Logger) *Reader {
	return &Reader{coords: coords, readFile: readFile, state: Uninitialized, log: log}
}

// Coords exposes the reader's coordinate system.
func (r *Reader) Coords() *Coords { return r.coords }

// SetupCacheWithInput moves the reader into CacheOnly state backed by
// an in-process sigcache.Local (spec §4.3's setup_cache_with_input).
func (r *Reader) SetupCacheWithInput() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.transitionTo(CacheOnly); err != nil {
		return err
	}
	r.cache = sigcache.NewLocal(r.log)
	return nil
}

// SetupWithCache moves the reader into CacheOnly state backed by a
// caller-supplied sigcache.Cache. Production callers use
// SetupCacheWithInput/SetupMutexWithInput/SetupSharedWorkerWithInput;
// this entry point exists for the cache variants those three don't
// cover directly (tests, and any future Cache implementation).
func (r *Reader) SetupWithCache(c sigcache.Cache) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.transitionTo(CacheOnly); err != nil {
		return err
	}
	r.cache = c
	return nil
}

// SetupMutexWithInput moves the reader into MutexReady state backed by
// a shared-memory mutex cache (spec §4.3's setup_mutex_with_input;
// spec §4.5's cache-coupling handshake step 3 — m is already the
// read-only coupled view the caller built via shmmutex.FromDescriptor).
func (r *Reader) SetupMutexWithInput(m *shmmutex.Mutex) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.transitionTo(MutexReady); err != nil {
		return err
	}
	r.cache = sigcache.NewMutex(m, r.log)
	return nil
}

// SetupSharedWorkerWithInput moves the reader into MutexReady state
// backed by a remote commission proxy (spec §4.5's shared-worker cache).
func (r *Reader) SetupSharedWorkerWithInput(client sigcache.Commissioner) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.transitionTo(MutexReady); err != nil {
		return err
	}
	r.cache = sigcache.NewRemoteProxy(client)
	return nil
}

// Cache returns the reader's active cache, or nil before setup.
func (r *Reader) Cache() sigcache.Cache { return r.cache }

// InputRangeStart returns the cache's covered range start, in cache
// time. Returns errs.ErrStateMisuse outside CacheOnly/MutexReady.
func (r *Reader) InputRangeStart(ctx context.Context) (float64, error) {
	if err := r.requireReady(); err != nil {
		return 0, err
	}
	return r.cache.InputRangeStart(ctx)
}

// InputRangeEnd mirrors InputRangeStart for the range end.
func (r *Reader) InputRangeEnd(ctx context.Context) (float64, error) {
	if err := r.requireReady(); err != nil {
		return 0, err
	}
	return r.cache.InputRangeEnd(ctx)
}

// InputSignals returns the per-channel sample arrays currently cached.
func (r *Reader) InputSignals(ctx context.Context) ([]sigcache.SignalPart, error) {
	if err := r.requireReady(); err != nil {
		return nil, err
	}
	return r.cache.InputSignals(ctx)
}

// BeginCacheProcess registers a cancellable background fill and
// returns a context that is cancelled when the process is stopped
// (directly, or implicitly by ReleaseCache). This is the Go rendering
// of spec §4.3's process.continue flag: callers select on
// ctx.Done() at the same safe points a continue check would occur.
func (r *Reader) BeginCacheProcess(parent context.Context) context.Context {
	r.mu.Lock()
	defer r.mu.Unlock()
	ctx, cancel := context.WithCancel(parent)
	r.processes = append(r.processes, &cacheProcess{cancel: cancel})
	return ctx
}

// ReleaseCache cancels every outstanding cache process, releases the
// cache's buffers, and returns the reader to Uninitialized (spec
// §4.3's state machine: MutexReady/CacheOnly -> Releasing -> Uninitialized).
func (r *Reader) ReleaseCache() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.transitionTo(Releasing); err != nil {
		return err
	}
	for _, p := range r.processes {
		p.cancel()
	}
	r.processes = nil
	if r.cache != nil {
		r.cache.ReleaseBuffers()
		r.cache = nil
	}
	return r.transitionTo(Uninitialized)
}
