// Package store persists indexes as bleve directories, one per generation,
// and records which generation each logical index name is bound to.
//
// A generation directory is opened read-only by any number of handles and
// written by exactly one Writer before it is first bound. Every open holds
// a shared lock on <ref>.lock; Prune removes a generation only when it can
// take the lock exclusively.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/gofrs/flock"

	"github.com/Aman-CERP/scout/internal/handle"
)

const lockSuffix = ".lock"

// BleveStore opens generation directories under a root directory.
type BleveStore struct {
	root   string
	logger *slog.Logger
}

// NewBleveStore creates the root directory if needed.
func NewBleveStore(root string, logger *slog.Logger) (*BleveStore, error) {
	if root == "" {
		return nil, fmt.Errorf("index root must not be empty")
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create index root %s: %w", root, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BleveStore{root: root, logger: logger}, nil
}

// Root returns the root directory.
func (s *BleveStore) Root() string {
	return s.root
}

// Path returns the directory of generation ref.
func (s *BleveStore) Path(ref string) string {
	return filepath.Join(s.root, ref)
}

func (s *BleveStore) lockPath(ref string) string {
	return filepath.Join(s.root, ref+lockSuffix)
}

// validateIndexIntegrity checks that path holds a complete bleve index.
func validateIndexIntegrity(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("index directory %s does not exist", path)
	}
	if err != nil {
		return fmt.Errorf("cannot stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}

	metaPath := filepath.Join(path, "index_meta.json")
	data, err := os.ReadFile(metaPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("index_meta.json missing (incomplete index)")
	}
	if err != nil {
		return fmt.Errorf("cannot read index_meta.json: %w", err)
	}
	if len(data) == 0 {
		return fmt.Errorf("index_meta.json is empty (corrupted)")
	}
	var meta map[string]interface{}
	if err := json.Unmarshal(data, &meta); err != nil {
		return fmt.Errorf("index_meta.json is corrupt: %w", err)
	}
	return nil
}

// OpenDirectory implements handle.Store. It takes a shared lock on the generation.
func (s *BleveStore) OpenDirectory(ref string) (handle.Directory, error) {
	if err := validateRef(ref); err != nil {
		return nil, err
	}
	path := s.Path(ref)
	if err := validateIndexIntegrity(path); err != nil {
		return nil, err
	}

	lock := flock.New(s.lockPath(ref))
	ok, err := lock.TryRLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", ref, err)
	}
	if !ok {
		return nil, fmt.Errorf("generation %s is locked by a writer", ref)
	}
	return &directory{ref: ref, path: path, lock: lock}, nil
}

// Open implements handle.Store. The index is opened read-only.
func (s *BleveStore) Open(ctx context.Context, dir handle.Directory) (handle.Reader, handle.Searcher, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	d, ok := dir.(*directory)
	if !ok {
		return nil, nil, fmt.Errorf("directory %s was not opened by this store", dir.Ref())
	}

	idx, err := bleve.OpenUsing(d.path, map[string]interface{}{"read_only": true})
	if err != nil {
		s.logger.Warn("index_open_failed",
			slog.String("ref", d.ref),
			slog.String("error", err.Error()))
		return nil, nil, fmt.Errorf("failed to open index %s: %w", d.ref, err)
	}
	return &reader{idx: idx}, &searcher{idx: idx}, nil
}

// Generations lists the generation directories under the root, sorted.
func (s *BleveStore) Generations() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.root, err)
	}
	var refs []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			refs = append(refs, e.Name())
		}
	}
	sort.Strings(refs)
	return refs, nil
}

// Prune removes every generation not in keep that no reader or writer holds.
// It returns the removed references. Generations still in use are skipped.
func (s *BleveStore) Prune(keep []string) ([]string, error) {
	refs, err := s.Generations()
	if err != nil {
		return nil, err
	}
	kept := make(map[string]struct{}, len(keep))
	for _, ref := range keep {
		kept[ref] = struct{}{}
	}

	var removed []string
	for _, ref := range refs {
		if _, ok := kept[ref]; ok {
			continue
		}
		lock := flock.New(s.lockPath(ref))
		ok, err := lock.TryLock()
		if err != nil || !ok {
			s.logger.Debug("generation_prune_skipped",
				slog.String("ref", ref))
			continue
		}
		rmErr := os.RemoveAll(s.Path(ref))
		_ = lock.Unlock()
		if rmErr != nil {
			return removed, fmt.Errorf("failed to remove generation %s: %w", ref, rmErr)
		}
		_ = os.Remove(s.lockPath(ref))
		removed = append(removed, ref)
		s.logger.Info("generation_pruned", slog.String("ref", ref))
	}
	return removed, nil
}

func validateRef(ref string) error {
	if ref == "" || ref == "." || ref == ".." || strings.ContainsAny(ref, `/\`) {
		return fmt.Errorf("invalid generation reference %q", ref)
	}
	return nil
}

// directory is one generation held under a shared lock.
type directory struct {
	ref  string
	path string
	lock *flock.Flock
}

func (d *directory) Ref() string {
	return d.ref
}

func (d *directory) Close() error {
	return d.lock.Unlock()
}

type reader struct {
	idx bleve.Index
}

func (r *reader) DocCount() (uint64, error) {
	return r.idx.DocCount()
}

// Close closes the underlying index; the searcher shares it.
func (r *reader) Close() error {
	return r.idx.Close()
}

type searcher struct {
	idx bleve.Index
}

func (s *searcher) Search(ctx context.Context, req *bleve.SearchRequest) (*bleve.SearchResult, error) {
	return s.idx.SearchInContext(ctx, req)
}

func (s *searcher) Close() error {
	return nil
}

var _ handle.Store = (*BleveStore)(nil)
