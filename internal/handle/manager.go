package handle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
	"golang.org/x/sync/singleflight"

	scerrors "github.com/Aman-CERP/scout/internal/errors"
	"github.com/Aman-CERP/scout/internal/metrics"
)

// errSuperseded means a freshly opened handle lost a race and was discarded.
var errSuperseded = errors.New("opened handle superseded")

// Manager caches one open handle per index name.
//
// The name mapping is guarded by a single mutex so a swap of several names
// is observed all at once. Handle reference counts are guarded per handle.
// A per-name generation counter lets an open that raced a swap detect that
// its directory is stale.
type Manager struct {
	store     Store
	locator   Locator
	logger    *slog.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
	cacheSize int

	mu      sync.Mutex
	cache   *simplelru.LRU[string, *Handle]
	gens    map[string]uint64
	evicted []*Handle
	closed  bool

	// swapMu orders replacements so bindings and the cache agree.
	swapMu  sync.Mutex
	opens   singleflight.Group
	tickets atomic.Uint64
}

// Stats is a point-in-time summary of the manager.
type Stats struct {
	Cached  int
	Handles []HandleInfo
}

// HandleInfo describes one cached handle.
type HandleInfo struct {
	Name                  string
	Ref                   string
	RefCount              int
	OpenedAt              time.Time
	LastCacheInvalidation time.Time
}

// NewManager creates a manager opening directories from store.
// A nil locator resolves every name to itself.
func NewManager(store Store, locator Locator, opts ...Option) (*Manager, error) {
	if store == nil {
		return nil, scerrors.New(scerrors.ErrCodeInvalidInput, "handle manager needs a store", nil)
	}
	if locator == nil {
		locator = NewMemoryLocator(nil)
	}
	m := &Manager{
		store:     store,
		locator:   locator,
		logger:    slog.Default(),
		now:       time.Now,
		cacheSize: DefaultCacheSize,
		gens:      make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(m)
	}

	cache, err := simplelru.NewLRU[string, *Handle](m.cacheSize, func(_ string, h *Handle) {
		m.evicted = append(m.evicted, h)
	})
	if err != nil {
		return nil, scerrors.Wrap(scerrors.ErrCodeInvalidInput, err)
	}
	m.cache = cache
	return m, nil
}

// Acquire returns a handle for name with its reference count incremented.
// The caller must Release it. Concurrent opens of one name are shared and
// are not cancelled by any single caller; each caller stops waiting when
// its own ctx ends.
func (m *Manager) Acquire(ctx context.Context, name string) (*Handle, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			return nil, scerrors.StoreError(name, "handle manager is closed", nil)
		}
		if h, ok := m.cache.Get(name); ok {
			if h.tryAcquire() {
				m.mu.Unlock()
				m.metrics.Acquired(name, metrics.ResultHit)
				return h, nil
			}
			// Marked by a caller while still cached.
			m.cache.Remove(name)
		}
		gen := m.gens[name]
		stale := m.drainLocked()
		m.mu.Unlock()
		m.markAll(stale)

		ticket := m.tickets.Add(1)
		key := name + "@" + strconv.FormatUint(gen, 10)
		flight := m.opens.DoChan(key, func() (any, error) {
			h, err := m.openAndInstall(context.WithoutCancel(ctx), name, gen)
			if err != nil {
				return nil, err
			}
			return &pinned{h: h, owner: ticket}, nil
		})

		var r singleflight.Result
		select {
		case r = <-flight:
		case <-ctx.Done():
			go m.unpinLater(ticket, flight)
			return nil, ctx.Err()
		}

		if errors.Is(r.Err, errSuperseded) {
			continue
		}
		if r.Err != nil {
			m.metrics.Acquired(name, metrics.ResultError)
			return nil, r.Err
		}
		// The caller that ran the open owns the reference taken before the
		// handle was cached. Callers sharing the open take their own.
		p := r.Val.(*pinned)
		if p.owner == ticket || p.h.tryAcquire() {
			m.metrics.Acquired(name, metrics.ResultOpen)
			return p.h, nil
		}
	}
}

// pinned is a freshly cached handle carrying one reference for the caller
// identified by owner.
type pinned struct {
	h     *Handle
	owner uint64
}

// unpinLater waits out an open the caller stopped waiting for and drops
// the reference taken on its behalf.
func (m *Manager) unpinLater(ticket uint64, flight <-chan singleflight.Result) {
	r := <-flight
	if p, ok := r.Val.(*pinned); ok && r.Err == nil && p.owner == ticket {
		m.Release(p.h)
	}
}

// openAndInstall opens name and caches the handle unless name was swapped
// or reopened while the open was in flight. The handle is returned with one
// reference already taken so eviction cannot close it before the opener
// holds it.
func (m *Manager) openAndInstall(ctx context.Context, name string, gen uint64) (*Handle, error) {
	ref, err := m.locator.Locate(name)
	if err != nil {
		m.metrics.OpenFailed(name)
		return nil, scerrors.StoreError(name, "failed to locate index", err)
	}
	h, err := m.open(ctx, name, ref)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	superseded := m.closed || m.gens[name] != gen
	if existing, ok := m.cache.Peek(name); ok && existing.usable() {
		superseded = true
	}
	if superseded {
		m.mu.Unlock()
		m.logger.Debug("index_handle_discarded",
			slog.String("index", name),
			slog.String("ref", ref))
		m.mark(h)
		return nil, errSuperseded
	}
	h.tryAcquire()
	m.cache.Add(name, h)
	stale := m.drainLocked()
	m.mu.Unlock()
	m.markAll(stale)
	return h, nil
}

// open opens a fresh, uncached handle.
func (m *Manager) open(ctx context.Context, name, ref string) (*Handle, error) {
	dir, err := m.store.OpenDirectory(ref)
	if err != nil {
		m.metrics.OpenFailed(name)
		return nil, scerrors.StoreError(name, fmt.Sprintf("failed to open directory %s", ref), err).
			WithDetail("ref", ref)
	}
	reader, searcher, err := m.store.Open(ctx, dir)
	if err != nil {
		if cerr := dir.Close(); cerr != nil {
			m.warnCleanup(name, cerr)
		}
		m.metrics.OpenFailed(name)
		return nil, scerrors.StoreError(name, fmt.Sprintf("failed to open index %s", ref), err).
			WithDetail("ref", ref)
	}

	h := newHandle(name, ref, dir, reader, searcher, m.now(), m.logger)
	m.metrics.HandleOpened(name)
	m.logger.Debug("index_handle_opened",
		slog.String("index", name),
		slog.String("ref", ref))
	return h, nil
}

// Release drops one reference to h. The handle closes when it has been
// marked and this was its last reference. Close failures are logged only.
func (m *Manager) Release(h *Handle) {
	if h == nil {
		return
	}
	closed, err := h.release()
	m.finish(h, closed, err)
}

// MarkForClose flags h so it closes once idle and is never handed out again.
func (m *Manager) MarkForClose(h *Handle) {
	m.mark(h)
}

func (m *Manager) mark(h *Handle) {
	if h == nil {
		return
	}
	closed, err := h.markForClose()
	m.finish(h, closed, err)
}

func (m *Manager) markAll(hs []*Handle) {
	for _, h := range hs {
		m.mark(h)
	}
}

func (m *Manager) finish(h *Handle, closed bool, err error) {
	if !closed {
		return
	}
	m.metrics.HandleClosed(h.name)
	if err != nil {
		m.warnCleanup(h.name, err)
		return
	}
	m.logger.Debug("index_handle_closed",
		slog.String("index", h.name),
		slog.String("ref", h.ref))
}

func (m *Manager) warnCleanup(name string, err error) {
	m.metrics.CleanupFailed(name)
	attrs := scerrors.LogAttrs(scerrors.CleanupWarning(name, err))
	m.logger.LogAttrs(context.Background(), slog.LevelWarn, "index_cleanup_failed", attrs...)
}

func (m *Manager) drainLocked() []*Handle {
	out := m.evicted
	m.evicted = nil
	return out
}

// Replace points name at ref. See ReplaceAll.
func (m *Manager) Replace(ctx context.Context, name, ref string) error {
	return m.ReplaceAll(ctx, map[string]string{name: ref})
}

// ReplaceAll points every name at its new directory reference.
//
// All new handles are opened before anything changes. On success the
// bindings are persisted through the locator and every name is swapped in
// one critical section; displaced handles close once their readers release
// them. On failure the new handles are closed and nothing changes.
func (m *Manager) ReplaceAll(ctx context.Context, refs map[string]string) error {
	if len(refs) == 0 {
		return nil
	}
	names := make([]string, 0, len(refs))
	for name := range refs {
		names = append(names, name)
	}
	sort.Strings(names)

	m.swapMu.Lock()
	defer m.swapMu.Unlock()

	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return scerrors.ReplaceError(names[0], "handle manager is closed", nil)
	}

	fresh := make(map[string]*Handle, len(names))
	discard := func() {
		for _, h := range fresh {
			m.mark(h)
		}
	}
	for _, name := range names {
		h, err := m.open(ctx, name, refs[name])
		if err != nil {
			discard()
			return scerrors.ReplaceError(name, "failed to open replacement index", err).
				WithDetail("ref", refs[name])
		}
		fresh[name] = h
	}

	if err := m.locator.Bind(refs); err != nil {
		discard()
		return scerrors.ReplaceError(names[0], "failed to persist index bindings", err)
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		discard()
		return scerrors.ReplaceError(names[0], "handle manager is closed", nil)
	}
	var displaced []*Handle
	for _, name := range names {
		if old, ok := m.cache.Peek(name); ok {
			displaced = append(displaced, old)
		}
		m.gens[name]++
		m.cache.Add(name, fresh[name])
	}
	displaced = append(displaced, m.drainLocked()...)
	m.mu.Unlock()

	m.markAll(displaced)
	for _, name := range names {
		m.metrics.Swapped(name)
		m.logger.Info("index_replaced",
			slog.String("index", name),
			slog.String("ref", refs[name]))
	}
	return nil
}

// Invalidate drops the cached handle for name so the next Acquire opens
// fresh. Readers holding the old handle keep it until they release it.
// Reports whether a handle was dropped.
func (m *Manager) Invalidate(name string) bool {
	m.mu.Lock()
	removed := m.cache.Remove(name)
	m.gens[name]++
	stale := m.drainLocked()
	m.mu.Unlock()

	m.markAll(stale)
	if removed {
		m.logger.Debug("index_invalidated", slog.String("index", name))
	}
	return removed
}

// Stale reports whether the cached handle for name predates signal.
// A name with no cached handle is never stale.
func (m *Manager) Stale(name string, signal time.Time) bool {
	m.mu.Lock()
	h, ok := m.cache.Peek(name)
	m.mu.Unlock()
	if !ok {
		return false
	}
	return h.LastCacheInvalidation().Before(signal)
}

// Stats returns a snapshot of the cached handles, ordered by name.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	handles := m.cache.Values()
	m.mu.Unlock()

	s := Stats{Cached: len(handles), Handles: make([]HandleInfo, 0, len(handles))}
	for _, h := range handles {
		s.Handles = append(s.Handles, HandleInfo{
			Name:                  h.name,
			Ref:                   h.ref,
			RefCount:              h.RefCount(),
			OpenedAt:              h.openedAt,
			LastCacheInvalidation: h.LastCacheInvalidation(),
		})
	}
	sort.Slice(s.Handles, func(i, j int) bool { return s.Handles[i].Name < s.Handles[j].Name })
	return s
}

// Close marks every cached handle for close. Handles still referenced
// close on their last release. Subsequent acquires fail.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.cache.Purge()
	stale := m.drainLocked()
	m.mu.Unlock()

	m.markAll(stale)
	return nil
}
