// Package indexer builds searchable index generations from object graphs
// and serves searches over the live generation.
//
// A rebuild marshalls every document through its registered mapping,
// writes a brand new generation, then swaps it in through the handle
// manager. Readers holding the previous generation finish undisturbed.
package indexer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	scerrors "github.com/Aman-CERP/scout/internal/errors"
	"github.com/Aman-CERP/scout/internal/handle"
	"github.com/Aman-CERP/scout/internal/mapping"
	"github.com/Aman-CERP/scout/internal/marshall"
	"github.com/Aman-CERP/scout/internal/metrics"
	"github.com/Aman-CERP/scout/internal/resource"
	"github.com/Aman-CERP/scout/internal/store"
)

// DocumentSet is a batch of documents sharing one mapping alias.
type DocumentSet struct {
	Alias     string `yaml:"alias"`
	Documents []any  `yaml:"documents"`
}

// Result describes a completed rebuild.
type Result struct {
	Name      string
	Ref       string
	Documents int
	Pruned    []string
	Duration  time.Duration
}

// Query selects documents from one index.
type Query struct {
	Text  string
	Field string
	Alias string
	Size  int
}

// Hit is one search result.
type Hit struct {
	DocID    string
	Alias    string
	ID       any
	Score    float64
	Resource *resource.Resource
}

// Indexer rebuilds and searches named indexes.
type Indexer struct {
	engine    *marshall.Engine
	store     *store.BleveStore
	manager   *handle.Manager
	catalog   Refs
	signal    Toucher
	logger    *slog.Logger
	metrics   *metrics.Metrics
	workers   int
	batchSize int
	retry     scerrors.RetryConfig
	now       func() time.Time

	mu    sync.RWMutex
	plans map[string]*marshall.Plan
}

// New creates an indexer writing generations into st and swapping them
// in through mgr.
func New(engine *marshall.Engine, st *store.BleveStore, mgr *handle.Manager, opts ...Option) (*Indexer, error) {
	if st == nil || mgr == nil {
		return nil, scerrors.New(scerrors.ErrCodeInvalidInput, "indexer needs a store and a handle manager", nil)
	}
	if engine == nil {
		engine = marshall.NewEngine(nil)
	}
	ix := &Indexer{
		engine:    engine,
		store:     st,
		manager:   mgr,
		logger:    slog.Default(),
		workers:   defaultWorkers(),
		batchSize: store.DefaultBatchSize,
		retry:     scerrors.DefaultRetryConfig(),
		now:       time.Now,
		plans:     make(map[string]*marshall.Plan),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix, nil
}

// Register binds a root mapping so documents of its alias can be indexed.
func (ix *Indexer) Register(node *mapping.Node) error {
	if node == nil || node.Kind() != mapping.KindComposite || node.Alias() == "" {
		return scerrors.ConfigurationError("", "only aliased class mappings can be registered", nil)
	}
	plan, err := ix.engine.Bind(node)
	if err != nil {
		return err
	}
	ix.mu.Lock()
	ix.plans[node.Alias()] = plan
	ix.mu.Unlock()
	return nil
}

// Aliases returns the registered aliases in order.
func (ix *Indexer) Aliases() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]string, 0, len(ix.plans))
	for alias := range ix.plans {
		out = append(out, alias)
	}
	sort.Strings(out)
	return out
}

func (ix *Indexer) plan(alias string) (*marshall.Plan, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	p, ok := ix.plans[alias]
	return p, ok
}

// Rebuild writes sets into a new generation of name and swaps it in.
// On any failure the new generation is discarded and the live one stays.
func (ix *Indexer) Rebuild(ctx context.Context, name string, sets ...DocumentSet) (*Result, error) {
	start := ix.now()
	ref := fmt.Sprintf("%s-%d", name, start.UnixNano())

	type job struct {
		plan *marshall.Plan
		doc  any
	}
	var jobs []job
	for _, set := range sets {
		plan, ok := ix.plan(set.Alias)
		if !ok {
			return nil, scerrors.ConfigurationError(set.Alias, fmt.Sprintf("no mapping registered for alias %q", set.Alias), nil)
		}
		for _, doc := range set.Documents {
			if doc == nil {
				continue
			}
			jobs = append(jobs, job{plan: plan, doc: doc})
		}
	}

	resources := make([]*resource.Resource, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.workers)
	for i, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := ix.engine.Marshall(j.doc, j.plan, marshall.NewContext())
			if err != nil {
				ix.metrics.MarshallFailed(j.plan.Node().Alias())
				return fmt.Errorf("document %d of %s: %w", i, j.plan.Node().Alias(), err)
			}
			resources[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	w, err := ix.store.Create(ref, ix.batchSize)
	if err != nil {
		return nil, err
	}
	for i, res := range resources {
		if err := w.Write(res, jobs[i].plan.Node().IDPaths()); err != nil {
			ix.discard(w)
			return nil, err
		}
	}
	written := w.Written()
	if err := w.Close(); err != nil {
		ix.discard(w)
		return nil, err
	}

	err = scerrors.Retry(ctx, ix.retry, func() error {
		return ix.manager.Replace(ctx, name, ref)
	})
	if err != nil {
		ix.discard(w)
		return nil, err
	}

	result := &Result{Name: name, Ref: ref, Documents: written}
	result.Pruned = ix.prune(ref)
	if ix.signal != nil {
		if err := ix.signal.Touch(); err != nil {
			ix.logger.Warn("index_signal_failed",
				slog.String("index", name),
				slog.String("error", err.Error()))
		}
	}

	result.Duration = ix.now().Sub(start)
	ix.metrics.DocsIndexed(name, written)
	ix.metrics.ObserveRebuild(name, result.Duration.Seconds())
	ix.logger.Info("index_rebuilt",
		slog.String("index", name),
		slog.String("ref", ref),
		slog.Int("documents", written),
		slog.Int("pruned", len(result.Pruned)),
		slog.Duration("duration", result.Duration))
	return result, nil
}

func (ix *Indexer) discard(w *store.Writer) {
	if err := w.Discard(); err != nil {
		ix.logger.Warn("index_discard_failed",
			slog.String("ref", w.Ref()),
			slog.String("error", err.Error()))
	}
}

// prune removes generations no longer bound in the catalog. Pruning is
// skipped without a catalog since nothing else records live bindings.
func (ix *Indexer) prune(ref string) []string {
	if ix.catalog == nil {
		return nil
	}
	keep, err := ix.catalog.Refs()
	if err != nil {
		ix.logger.Warn("index_prune_skipped", slog.String("error", err.Error()))
		return nil
	}
	removed, err := ix.store.Prune(append(keep, ref))
	if err != nil {
		ix.logger.Warn("index_prune_failed", slog.String("error", err.Error()))
	}
	return removed
}

// Search runs q against the live generation of name.
func (ix *Indexer) Search(ctx context.Context, name string, q Query) ([]Hit, uint64, error) {
	h, err := ix.manager.Acquire(ctx, name)
	if err != nil {
		return nil, 0, err
	}
	defer ix.manager.Release(h)

	result, err := h.Searcher().Search(ctx, store.SearchRequest(q.Text, q.Field, q.Alias, q.Size))
	if err != nil {
		return nil, 0, scerrors.StoreError(name, "search failed", err)
	}

	hits := make([]Hit, 0, len(result.Hits))
	for _, m := range result.Hits {
		res := store.ResourceFromHit(m)
		hit := Hit{DocID: m.ID, Alias: res.Alias, Score: m.Score, Resource: res}
		if plan, ok := ix.plan(res.Alias); ok {
			if id, err := ix.engine.Unmarshall(res, plan, marshall.NewContext()); err == nil {
				hit.ID = id
			} else {
				ix.logger.Debug("search_hit_unmarshall_failed",
					slog.String("doc", m.ID),
					slog.String("error", err.Error()))
			}
		}
		hits = append(hits, hit)
	}
	return hits, result.Total, nil
}

// LoadDocuments decodes a YAML list of document sets.
func LoadDocuments(r io.Reader) ([]DocumentSet, error) {
	var sets []DocumentSet
	if err := yaml.NewDecoder(r).Decode(&sets); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, scerrors.New(scerrors.ErrCodeInvalidInput, "failed to decode documents", err)
	}
	for i, set := range sets {
		if set.Alias == "" {
			return nil, scerrors.New(scerrors.ErrCodeInvalidInput, fmt.Sprintf("document set %d has no alias", i), nil)
		}
	}
	return sets, nil
}
