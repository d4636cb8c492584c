package handle

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/blevesearch/bleve/v2"
)

// mockStore counts opens and closes per directory reference.
type mockStore struct {
	mu       sync.Mutex
	opened   map[string]int
	closed   map[string]int
	failDir  map[string]error
	failOpen map[string]error
	closeErr error
	gate     chan struct{}
	entered  chan struct{}
	openCnt  atomic.Int32
	shared   bool
	honorCtx bool
}

func newMockStore() *mockStore {
	return &mockStore{
		opened:   make(map[string]int),
		closed:   make(map[string]int),
		failDir:  make(map[string]error),
		failOpen: make(map[string]error),
	}
}

type mockDir struct {
	ref    string
	store  *mockStore
	shared bool
}

func (d *mockDir) Ref() string { return d.ref }
func (d *mockDir) Shared() bool { return d.shared }
func (d *mockDir) Close() error {
	d.store.mu.Lock()
	defer d.store.mu.Unlock()
	d.store.closed["dir:"+d.ref]++
	return nil
}

type mockReader struct {
	ref   string
	store *mockStore
}

func (r *mockReader) DocCount() (uint64, error) { return 1, nil }
func (r *mockReader) Close() error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.closed[r.ref]++
	return r.store.closeErr
}

type mockSearcher struct{}

func (mockSearcher) Search(context.Context, *bleve.SearchRequest) (*bleve.SearchResult, error) {
	return &bleve.SearchResult{}, nil
}
func (mockSearcher) Close() error { return nil }

func (s *mockStore) OpenDirectory(ref string) (Directory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failDir[ref]; err != nil {
		return nil, err
	}
	return &mockDir{ref: ref, store: s, shared: s.shared}, nil
}

func (s *mockStore) Open(ctx context.Context, dir Directory) (Reader, Searcher, error) {
	s.openCnt.Add(1)
	if s.entered != nil {
		s.entered <- struct{}{}
	}
	if s.gate != nil {
		<-s.gate
	}
	if s.honorCtx && ctx.Err() != nil {
		return nil, nil, ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failOpen[dir.Ref()]; err != nil {
		return nil, nil, err
	}
	s.opened[dir.Ref()]++
	return &mockReader{ref: dir.Ref(), store: s}, mockSearcher{}, nil
}

func (s *mockStore) opens(ref string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opened[ref]
}

func (s *mockStore) closes(ref string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed[ref]
}

// failingLocator fails every Bind.
type failingLocator struct {
	*MemoryLocator
}

func (failingLocator) Bind(map[string]string) error {
	return errors.New("catalog is read-only")
}
