package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/Aman-CERP/scout/internal/config"
	"github.com/Aman-CERP/scout/internal/handle"
	"github.com/Aman-CERP/scout/internal/indexer"
	"github.com/Aman-CERP/scout/internal/logging"
	"github.com/Aman-CERP/scout/internal/marshall"
	"github.com/Aman-CERP/scout/internal/metrics"
	"github.com/Aman-CERP/scout/internal/store"
	"github.com/Aman-CERP/scout/internal/watcher"
)

// app is the wired set of components behind every index command.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	store   *store.BleveStore
	catalog *store.Catalog
	manager *handle.Manager
	signal  *watcher.Signal
	indexer *indexer.Indexer

	cleanupLogging func()
}

func loadConfig(opts *rootOptions) (*config.Config, error) {
	if opts.configPath != "" {
		return config.LoadFile(opts.configPath)
	}
	dir, err := filepath.Abs(opts.dir)
	if err != nil {
		return nil, fmt.Errorf("resolve project directory: %w", err)
	}
	return config.Load(dir)
}

func setupLogging(cfg *config.Config, debug bool) (*slog.Logger, func(), error) {
	lc := logging.DefaultConfig()
	if cfg.Logging.Stderr {
		lc.Level = cfg.Logging.Level
	}
	if debug {
		lc = logging.DebugConfig()
	}
	logger, cleanup, err := logging.Setup(lc)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to setup logging: %w", err)
	}
	slog.SetDefault(logger)
	return logger, cleanup, nil
}

// newEngine builds the converter registry from the settings groups and
// returns an engine over it.
func newEngine(cfg *config.Config) (*marshall.Engine, error) {
	reg := marshall.NewRegistry()
	groups, err := cfg.Settings.Group("converter")
	if err != nil {
		return nil, err
	}
	if err := reg.ConfigureGroups(groups); err != nil {
		return nil, err
	}
	return marshall.NewEngine(reg), nil
}

func openApp(opts *rootOptions) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	logger, cleanup, err := setupLogging(cfg, opts.debug)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger, metrics: metrics.New(nil), cleanupLogging: cleanup}

	if err := a.wire(); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire() error {
	engine, err := newEngine(a.cfg)
	if err != nil {
		return err
	}

	a.store, err = store.NewBleveStore(a.cfg.Index.Root, a.logger)
	if err != nil {
		return err
	}
	a.catalog, err = store.OpenCatalog(a.cfg.Index.Catalog)
	if err != nil {
		return err
	}
	a.manager, err = handle.NewManager(a.store, a.catalog,
		handle.WithLogger(a.logger),
		handle.WithMetrics(a.metrics),
		handle.WithCacheSize(a.cfg.Index.CacheSize))
	if err != nil {
		return err
	}
	a.signal = watcher.NewSignal(a.cfg.Watch.Signal)

	a.indexer, err = indexer.New(engine, a.store, a.manager,
		indexer.WithLogger(a.logger),
		indexer.WithMetrics(a.metrics),
		indexer.WithCatalog(a.catalog),
		indexer.WithSignal(a.signal),
		indexer.WithWorkers(a.cfg.Index.Workers),
		indexer.WithBatchSize(a.cfg.Index.BatchSize))
	if err != nil {
		return err
	}

	nodes, err := a.cfg.BuildMappings()
	if err != nil {
		return err
	}
	for _, node := range nodes {
		if err := a.indexer.Register(node); err != nil {
			return err
		}
	}
	return nil
}

// Close releases handles before the catalog they were located through.
func (a *app) Close() error {
	var errs []error
	if a.manager != nil {
		errs = append(errs, a.manager.Close())
	}
	if a.catalog != nil {
		errs = append(errs, a.catalog.Close())
	}
	if a.cleanupLogging != nil {
		a.cleanupLogging()
	}
	return errors.Join(errs...)
}
