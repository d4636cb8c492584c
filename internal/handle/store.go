package handle

import (
	"context"
	"io"
	"sync"

	"github.com/blevesearch/bleve/v2"
)

// Directory is an opened index location.
type Directory interface {
	io.Closer
	// Ref is the stable reference the directory was opened from.
	Ref() string
}

// SharedDirectory is implemented by directories that outlive the handles
// opened over them. A handle never closes a shared directory.
type SharedDirectory interface {
	Directory
	Shared() bool
}

// Reader reads index statistics.
type Reader interface {
	io.Closer
	DocCount() (uint64, error)
}

// Searcher runs queries against an opened index.
type Searcher interface {
	io.Closer
	Search(ctx context.Context, req *bleve.SearchRequest) (*bleve.SearchResult, error)
}

// Store opens index directories and the reader/searcher pair over them.
// Both calls may block on storage I/O.
type Store interface {
	OpenDirectory(ref string) (Directory, error)
	Open(ctx context.Context, dir Directory) (Reader, Searcher, error)
}

// Locator maps logical index names to directory references.
type Locator interface {
	Locate(name string) (string, error)
	// Bind persists every binding at once; a failure binds none of them.
	Bind(refs map[string]string) error
}

// MemoryLocator is an in-process Locator. Unbound names locate to themselves.
type MemoryLocator struct {
	mu   sync.RWMutex
	refs map[string]string
}

// NewMemoryLocator creates a locator seeded with refs.
func NewMemoryLocator(refs map[string]string) *MemoryLocator {
	l := &MemoryLocator{refs: make(map[string]string, len(refs))}
	for name, ref := range refs {
		l.refs[name] = ref
	}
	return l
}

// Locate implements Locator.
func (l *MemoryLocator) Locate(name string) (string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if ref, ok := l.refs[name]; ok {
		return ref, nil
	}
	return name, nil
}

// Bind implements Locator.
func (l *MemoryLocator) Bind(refs map[string]string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for name, ref := range refs {
		l.refs[name] = ref
	}
	return nil
}

var _ Locator = (*MemoryLocator)(nil)
