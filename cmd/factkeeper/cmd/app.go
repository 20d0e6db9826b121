package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/solatis/factkeeper/internal/core/config"
	"github.com/solatis/factkeeper/internal/core/db"
	"github.com/solatis/factkeeper/internal/core/filestore"
	"github.com/solatis/factkeeper/internal/core/logging"
	"github.com/solatis/factkeeper/internal/core/workspace"
	"github.com/solatis/factkeeper/internal/rules"
)

// app carries the wired components shared by every command.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	registry *prometheus.Registry
	engine   *rules.Engine
	ws       *workspace.Workspace
	database *sqlx.DB
}

// loadSettings resolves configuration and builds the logger.
func loadSettings(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(configFile, cmd.Flags())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, logger, nil
}

// setup wires config, logging, metrics, engine, store and workspace, and
// loads the stored document.
func setup(cmd *cobra.Command) (*app, error) {
	cfg, logger, err := loadSettings(cmd)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, registry: prometheus.NewRegistry()}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a.engine, err = rules.NewEngine(logger, a.registry)
	if err != nil {
		a.Close()
		return nil, err
	}

	store, err := a.openStore(cmd.Context())
	if err != nil {
		a.Close()
		return nil, err
	}

	a.ws = workspace.New(a.engine, workspace.WithStore(store), workspace.WithLogger(logger))
	if err := a.ws.Load(cmd.Context()); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) openStore(ctx context.Context) (workspace.Store, error) {
	if !a.cfg.Store.UsesDatabase() {
		store, err := filestore.NewInDir(a.cfg.Store.DataDir)
		if err != nil {
			return nil, err
		}
		a.logger.Debug("using file store", zap.String("path", store.Path()))
		return store, nil
	}

	database, err := db.Open(a.cfg.Store.DBURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.database = database

	if err := requireMigrated(database); err != nil {
		return nil, err
	}

	store, err := db.NewDocumentStore(database, a.cfg.Store.DocumentKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create document store: %w", err)
	}
	a.logger.Debug("using database store", zap.String("document_key", store.Key()))
	return store, nil
}

// requireMigrated refuses to run against a database with pending migrations.
func requireMigrated(database *sqlx.DB) error {
	statuses, err := db.MigrateStatus(database)
	if err != nil {
		return fmt.Errorf("failed to check migrations: %w", err)
	}
	for _, s := range statuses {
		if !s.Applied {
			return fmt.Errorf("migration %s not applied - run 'factkeeper migrate' first", s.ID)
		}
	}
	return nil
}

// Close releases the database and flushes the logger.
func (a *app) Close() {
	if a.database != nil {
		if err := a.database.Close(); err != nil {
			a.logger.Warn("failed to close database", zap.Error(err))
		}
	}
	// stderr sync fails on some platforms; nothing to report
	_ = a.logger.Sync()
}

var errValidation = errors.New("validation failed")
