package main

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"

	"github.com/pders01/daybook/internal/config"
	"github.com/pders01/daybook/internal/debuglog"
	"github.com/pders01/daybook/internal/listing"
	"github.com/pders01/daybook/internal/search"
	"github.com/pders01/daybook/internal/storage"
	"github.com/pders01/daybook/internal/validation"
)

// env is what a command works against: the loaded config, the primary
// store, and the record source lists page through.
type env struct {
	cfg   *config.Config
	repo  storage.Repository
	index *search.Index
	// source is the index with the bleve backend, otherwise repo.
	source listing.RecordStore
	// paths validates every path a command opens or creates.
	paths *validation.PathHandler
}

// loadConfig reads the config file, then applies flag overrides. A .env file
// in the working directory may set DAYBOOK_* variables.
func loadConfig(opts *options) (*config.Config, error) {
	_ = godotenv.Load()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.dbPath != "" {
		cfg.Database.Path = opts.dbPath
		cfg.Database.SQLitePath = opts.dbPath
	}
	if opts.backend != "" {
		cfg.Database.Backend = opts.backend
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	return cfg, cfg.Validate()
}

func openEnv(opts *options) (*env, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	if err := debuglog.Setup(debuglog.ParseLogLevel(cfg.Log.Level), cfg.Log.File); err != nil {
		return nil, err
	}

	paths := validation.NewPermissivePathHandler()
	if cfg.Database.RestrictPaths {
		paths = validation.NewSecurePathHandler()
	}
	e := &env{cfg: cfg, paths: paths}

	switch cfg.Database.Backend {
	case config.BackendSQLite:
		path, err := paths.SQLitePath(cfg.Database.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("database path: %w", err)
		}
		store, err := storage.NewSQLiteStore(path)
		if err != nil {
			return nil, err
		}
		e.repo = store

	default:
		path, err := paths.DBPath(cfg.Database.Path)
		if err != nil {
			return nil, fmt.Errorf("database path: %w", err)
		}
		store, err := storage.OpenStore(path, cfg.Database.Timeout)
		if err != nil {
			return nil, err
		}
		e.repo = store
	}
	e.source = e.repo

	if cfg.Database.Backend == config.BackendBleve {
		if err := e.attachIndex(context.Background()); err != nil {
			e.Close()
			return nil, err
		}
		e.source = e.index
	}

	debuglog.WithFields(debuglog.Fields{
		"backend":  cfg.Database.Backend,
		"restrict": cfg.Database.RestrictPaths,
	}).Infof("storage opened")
	return e, nil
}

// attachIndex opens the search index, keeps it in step with the store and
// fills it on first use.
func (e *env) attachIndex(ctx context.Context) error {
	path, err := e.paths.IndexPath(e.cfg.Database.SearchIndex)
	if err != nil {
		return fmt.Errorf("index path: %w", err)
	}
	idx, err := search.OpenIndex(path)
	if err != nil {
		return err
	}
	e.index = idx
	e.repo.AddListener(idx)

	docs, err := idx.DocCount()
	if err != nil {
		return err
	}
	days, err := e.repo.Count(ctx, storage.Query{})
	if err != nil {
		return err
	}
	if docs != days {
		debuglog.Infof("search index has %d of %d days, rebuilding", docs, days)
		return e.reindex(ctx)
	}
	return nil
}

func (e *env) reindex(ctx context.Context) error {
	records, err := e.repo.All(ctx)
	if err != nil {
		return err
	}
	return e.index.Rebuild(ctx, records)
}

func (e *env) Close() {
	if e.index != nil {
		if err := e.index.Close(); err != nil {
			debuglog.Warnf("closing index: %v", err)
		}
	}
	if e.repo != nil {
		if err := e.repo.Close(); err != nil {
			debuglog.Warnf("closing store: %v", err)
		}
	}
	_ = debuglog.Close()
}
