package store

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/document"
	"github.com/blevesearch/bleve/v2/mapping"
	index "github.com/blevesearch/bleve_index_api"
	"github.com/gofrs/flock"

	"github.com/Aman-CERP/scout/internal/resource"
)

const (
	// AliasField holds the entity alias of every indexed document.
	AliasField = "$/alias"

	// AllField is the composite field searched when a query names no field.
	AllField = "_all"

	// DefaultBatchSize is the number of documents buffered before a flush.
	DefaultBatchSize = 256
)

// newIndexMapping creates the mapping every generation is created with.
// Documents are indexed field by field, so the mapping only supplies the
// analyzers used at query time.
func newIndexMapping() *mapping.IndexMappingImpl {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name
	return im
}

// Writer fills one new generation. It holds the generation lock
// exclusively until Close or Discard.
type Writer struct {
	ref       string
	path      string
	idx       bleve.Index
	batch     *bleve.Batch
	lock      *flock.Flock
	batchSize int
	written   int
	logger    *slog.Logger

	keyword  analysis.Analyzer
	standard analysis.Analyzer
}

// Create starts a new generation ref. The directory must not exist yet.
func (s *BleveStore) Create(ref string, batchSize int) (*Writer, error) {
	if err := validateRef(ref); err != nil {
		return nil, err
	}
	path := s.Path(ref)
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("generation %s already exists", ref)
	}

	lock := flock.New(s.lockPath(ref))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", ref, err)
	}
	if !ok {
		return nil, fmt.Errorf("generation %s is locked", ref)
	}

	im := newIndexMapping()
	idx, err := bleve.New(path, im)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("failed to create index %s: %w", ref, err)
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Writer{
		ref:       ref,
		path:      path,
		idx:       idx,
		batch:     idx.NewBatch(),
		lock:      lock,
		batchSize: batchSize,
		logger:    s.logger,
		keyword:   im.AnalyzerNamed(keyword.Name),
		standard:  im.AnalyzerNamed(standard.Name),
	}, nil
}

// Ref returns the generation being written.
func (w *Writer) Ref() string {
	return w.ref
}

// Written returns the number of documents accepted so far.
func (w *Writer) Written() int {
	return w.written
}

// Write buffers res as one document identified by its id properties.
func (w *Writer) Write(res *resource.Resource, idPaths []string) error {
	ids, err := resource.IDs(res, idPaths)
	if err != nil {
		return err
	}

	doc := document.NewDocument(resource.DocumentID(res.Alias, ids))
	doc.AddField(document.NewTextFieldCustom(AliasField, nil, []byte(res.Alias),
		index.IndexField|index.StoreField, w.keyword))

	exclude := []string{AliasField}
	for _, p := range res.Properties() {
		field, err := w.field(p)
		if err != nil {
			return err
		}
		if field == nil {
			continue
		}
		doc.AddField(field)
		if !p.Index || !p.Tokenized {
			exclude = append(exclude, p.Name)
		}
	}
	doc.AddField(document.NewCompositeField(AllField, true, nil, exclude))

	if err := w.batch.IndexAdvanced(doc); err != nil {
		return fmt.Errorf("failed to buffer document %s: %w", doc.ID(), err)
	}
	w.written++
	if w.batch.Size() >= w.batchSize {
		return w.Flush()
	}
	return nil
}

func (w *Writer) field(p *resource.Property) (document.Field, error) {
	value := []byte(p.Value)
	if p.IsStream() {
		data, err := io.ReadAll(p.Reader)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", p.Name, err)
		}
		value = data
	}

	var opts index.FieldIndexingOptions
	if p.Store && !p.IsStream() {
		opts |= index.StoreField
	}
	if p.Index {
		opts |= index.IndexField
		if p.TermVector != resource.TermVectorNo {
			opts |= index.IncludeTermVectors
		}
	}
	if opts == 0 {
		return nil, nil
	}

	analyzer := w.keyword
	if p.Tokenized {
		analyzer = w.standard
	}
	return document.NewTextFieldCustom(p.Name, nil, value, opts, analyzer), nil
}

// Flush writes the buffered batch.
func (w *Writer) Flush() error {
	if w.batch.Size() == 0 {
		return nil
	}
	if err := w.idx.Batch(w.batch); err != nil {
		return fmt.Errorf("failed to write batch to %s: %w", w.ref, err)
	}
	w.batch.Reset()
	return nil
}

// Close flushes, closes the index, and releases the generation lock.
func (w *Writer) Close() error {
	flushErr := w.Flush()
	closeErr := w.idx.Close()
	unlockErr := w.lock.Unlock()
	if flushErr != nil {
		return flushErr
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close index %s: %w", w.ref, closeErr)
	}
	if unlockErr != nil {
		return fmt.Errorf("failed to unlock %s: %w", w.ref, unlockErr)
	}
	w.logger.Debug("generation_written",
		slog.String("ref", w.ref),
		slog.Int("documents", w.written))
	return nil
}

// Discard abandons the generation and removes its directory.
func (w *Writer) Discard() error {
	_ = w.idx.Close()
	err := os.RemoveAll(w.path)
	_ = w.lock.Unlock()
	_ = os.Remove(w.path + lockSuffix)
	return err
}
