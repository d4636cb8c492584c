// Package handle serves reference-counted, cached handles to named indexes
// and swaps the directory behind a name atomically.
//
// A Handle is closed exactly once, when it has been marked for close and
// its last reference is released. The Manager never hands out a handle
// that has been marked.
package handle

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Handle is one opened directory with its reader and searcher.
type Handle struct {
	name     string
	ref      string
	dir      Directory
	reader   Reader
	searcher Searcher
	ownsDir  bool
	openedAt time.Time
	logger   *slog.Logger

	mu                    sync.Mutex
	refCount              int
	markedForClose        bool
	closed                bool
	lastCacheInvalidation time.Time
}

func newHandle(name, ref string, dir Directory, reader Reader, searcher Searcher, now time.Time, logger *slog.Logger) *Handle {
	owns := true
	if sd, ok := dir.(SharedDirectory); ok && sd.Shared() {
		owns = false
	}
	return &Handle{
		name:                  name,
		ref:                   ref,
		dir:                   dir,
		reader:                reader,
		searcher:              searcher,
		ownsDir:               owns,
		openedAt:              now,
		logger:                logger,
		lastCacheInvalidation: now,
	}
}

func (h *Handle) Name() string { return h.name }
func (h *Handle) Ref() string { return h.ref }
func (h *Handle) Directory() Directory { return h.dir }
func (h *Handle) Reader() Reader { return h.reader }
func (h *Handle) Searcher() Searcher { return h.searcher }
func (h *Handle) OpenedAt() time.Time { return h.openedAt }
func (h *Handle) OwnsDirectory() bool { return h.ownsDir }

// RefCount returns the number of outstanding references.
func (h *Handle) RefCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.refCount
}

// MarkedForClose reports whether the handle will close on its last release.
func (h *Handle) MarkedForClose() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.markedForClose
}

// Closed reports whether the handle has been physically closed.
func (h *Handle) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// LastCacheInvalidation is the freshness timestamp of the handle.
// It starts at the open time.
func (h *Handle) LastCacheInvalidation() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastCacheInvalidation
}

// SetLastCacheInvalidation records when the handle was last known fresh.
func (h *Handle) SetLastCacheInvalidation(t time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastCacheInvalidation = t
}

// tryAcquire takes a reference unless the handle is marked or closed.
func (h *Handle) tryAcquire() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.markedForClose || h.closed {
		return false
	}
	h.refCount++
	return true
}

// usable reports whether the handle could still be acquired.
func (h *Handle) usable() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.markedForClose && !h.closed
}

// release drops one reference and reports whether this call closed the handle.
func (h *Handle) release() (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.refCount == 0 {
		h.logger.Warn("handle_release_unbalanced",
			slog.String("index", h.name),
			slog.String("ref", h.ref))
		return false, nil
	}
	h.refCount--
	return h.closeIfIdleLocked()
}

// markForClose flags the handle and reports whether this call closed it.
func (h *Handle) markForClose() (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.markedForClose = true
	return h.closeIfIdleLocked()
}

func (h *Handle) closeIfIdleLocked() (bool, error) {
	if !h.markedForClose || h.refCount > 0 || h.closed {
		return false, nil
	}
	h.closed = true

	var errs []error
	if h.searcher != nil {
		errs = append(errs, h.searcher.Close())
	}
	if h.reader != nil {
		errs = append(errs, h.reader.Close())
	}
	if h.ownsDir && h.dir != nil {
		errs = append(errs, h.dir.Close())
	}
	return true, errors.Join(errs...)
}
